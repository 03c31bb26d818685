package models

import (
	"fmt"
	"sort"
	"strings"
)

// Operators lists the condition operators allowed when a question of type t
// is the parent of a condition.
func (t QuestionType) Operators() []Operator {
	switch t {
	case TypeScale:
		return []Operator{OpEquals, OpNotEquals, OpGreaterThan, OpLessThan}
	case TypeText:
		return []Operator{OpEquals, OpNotEquals, OpContains}
	case TypeMultipleChoice, TypeBoolean, TypeDate:
		return []Operator{OpEquals, OpNotEquals}
	}
	return nil
}

// Allows reports whether op may be applied to a parent of type t.
func (t QuestionType) Allows(op Operator) bool {
	for _, o := range t.Operators() {
		if o == op {
			return true
		}
	}
	return false
}

type ValidationError struct {
	QuestionID string `json:"question_id,omitempty"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.QuestionID == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("question %s: %s: %s", e.QuestionID, e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// Err returns nil when there are no errors.
func (errs ValidationErrors) Err() error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (errs *ValidationErrors) add(qid, field, format string, args ...any) {
	*errs = append(*errs, ValidationError{QuestionID: qid, Field: field, Message: fmt.Sprintf(format, args...)})
}

// ValidateQuestion checks the invariants that hold for a question on its own.
func ValidateQuestion(q *Question) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(q.ID) == "" {
		errs.add("", "id", "required")
	}
	if !q.Type.Known() {
		errs.add(q.ID, "type", "unknown question type %q", q.Type)
	}
	switch q.Type {
	case TypeMultipleChoice, TypeBoolean:
		if q.Type == TypeMultipleChoice && len(q.Options) == 0 {
			errs.add(q.ID, "options", "at least one option required")
		}
		seen := map[string]struct{}{}
		for _, o := range q.Options {
			if o.Value == "" {
				errs.add(q.ID, "options", "option value required")
				continue
			}
			if _, dup := seen[o.Value]; dup {
				errs.add(q.ID, "options", "duplicate option value %q", o.Value)
			}
			seen[o.Value] = struct{}{}
		}
	case TypeScale:
		min, max := q.Bounds()
		if min >= max {
			errs.add(q.ID, "max_value", "must be greater than min_value (%d >= %d)", min, max)
		}
	}
	if q.ConditionalLogic != nil {
		sw := q.ConditionalLogic.ShowWhen
		if sw != "" && sw != ShowAll && sw != ShowAny {
			errs.add(q.ID, "show_when", "must be \"all\" or \"any\"")
		}
		for _, c := range q.ConditionalLogic.Conditions {
			if c.QuestionID == q.ID {
				errs.add(q.ID, "conditions", "question cannot depend on itself")
			}
		}
	}
	return errs
}

// ValidateForm checks every question, the condition references between them,
// and that the dependency graph is acyclic.
func ValidateForm(f *Form) ValidationErrors {
	var errs ValidationErrors
	index := make(map[string]*Question, len(f.Questions))
	for i := range f.Questions {
		q := &f.Questions[i]
		if _, dup := index[q.ID]; dup && q.ID != "" {
			errs.add(q.ID, "id", "duplicate question id")
		}
		index[q.ID] = q
		errs = append(errs, ValidateQuestion(q)...)
	}
	for i := range f.Questions {
		q := &f.Questions[i]
		if q.ConditionalLogic == nil {
			continue
		}
		for _, c := range q.ConditionalLogic.Conditions {
			if c.QuestionID == q.ID {
				continue
			}
			parent, ok := index[c.QuestionID]
			if !ok {
				errs.add(q.ID, "conditions", "unknown parent question %q", c.QuestionID)
				continue
			}
			if !parent.Type.Allows(c.Operator) {
				errs.add(q.ID, "conditions", "operator %q not allowed for %s question %s", c.Operator, parent.Type, parent.ID)
			}
		}
	}
	if cycle := FindCycle(f.Questions); len(cycle) > 0 {
		errs.add(cycle[0], "conditions", "dependency cycle: %s", strings.Join(cycle, " -> "))
	}
	return errs
}

// FindCycle returns one dependency cycle through parent question ids, or nil.
// The returned path starts and ends with the same id.
func FindCycle(questions []Question) []string {
	parents := make(map[string][]string, len(questions))
	ids := make([]string, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		parents[q.ID] = q.ParentQuestionIDs()
		ids = append(ids, q.ID)
	}
	sort.Strings(ids)

	const (
		white = iota
		grey
		black
	)
	state := make(map[string]int, len(ids))
	var stack []string
	var found []string

	var visit func(id string) bool
	visit = func(id string) bool {
		state[id] = grey
		stack = append(stack, id)
		for _, p := range parents[id] {
			if _, known := parents[p]; !known || p == id {
				continue
			}
			switch state[p] {
			case grey:
				for i, s := range stack {
					if s == p {
						found = append(append([]string(nil), stack[i:]...), p)
						return true
					}
				}
			case white:
				if visit(p) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = black
		return false
	}
	for _, id := range ids {
		if state[id] == white && visit(id) {
			return found
		}
	}
	return nil
}

func intPtr(v int) *int { return &v }

// NewQuestion returns a question of type t with the defaults the form builder uses.
// The caller assigns the id.
func NewQuestion(t QuestionType) Question {
	q := Question{Type: t, ConditionalLogic: &ConditionalLogic{ShowWhen: ShowAll}}
	switch t {
	case TypeMultipleChoice:
		q.Text = "Enter your question text"
		q.Required = true
		q.Options = []Option{
			{Value: "option1", Label: "Option 1", Score: 1},
			{Value: "option2", Label: "Option 2", Score: 2},
			{Value: "option3", Label: "Option 3", Score: 3},
		}
		q.Scoring = Scoring{Enabled: true, Weight: 1}
	case TypeScale:
		q.Text = "Rate on a scale"
		q.Required = true
		q.MinValue, q.MaxValue = intPtr(DefaultScaleMin), intPtr(DefaultScaleMax)
		q.Scoring = Scoring{Enabled: true, Weight: 1}
	case TypeBoolean:
		q.Text = "Yes or no question"
		q.Required = true
		q.Options = []Option{
			{Value: "true", Label: "Yes", Score: 1},
			{Value: "false", Label: "No", Score: 0},
		}
		q.Scoring = Scoring{Enabled: true, Weight: 1}
	case TypeText:
		q.Text = "Enter your question text"
	case TypeDate:
		q.Text = "Select a date"
	case TypeHeading:
		q.Text = "Section Heading"
		q.Description = "Add a description for this section"
	}
	return q
}
