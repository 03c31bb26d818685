package services

import (
	"strings"

	"github.com/soaringjerry/medscore/internal/models"
)

// IsQuestionVisible decides whether q is shown given the current answers.
// A question without enabled logic, or with enabled logic but no conditions,
// is visible. Visibility depends only on answer values, never on whether the
// parent itself is visible, so cyclic configurations cannot recurse.
func IsQuestionVisible(q *models.Question, all []models.Question, responses models.ResponseSet) bool {
	if !q.HasConditions() || len(q.ConditionalLogic.Conditions) == 0 {
		return true
	}
	index := indexQuestions(all)
	matchAny := q.ConditionalLogic.Combinator() == models.ShowAny
	for _, c := range q.ConditionalLogic.Conditions {
		ok := c.QuestionID != q.ID && EvaluateCondition(c, index[c.QuestionID], responses.Get(c.QuestionID))
		if matchAny && ok {
			return true
		}
		if !matchAny && !ok {
			return false
		}
	}
	return !matchAny
}

// VisibleQuestions returns the visible subset of questions, in order.
func VisibleQuestions(questions []models.Question, responses models.ResponseSet) []models.Question {
	out := make([]models.Question, 0, len(questions))
	for i := range questions {
		if IsQuestionVisible(&questions[i], questions, responses) {
			out = append(out, questions[i])
		}
	}
	return out
}

// VisibleSet re-derives visibility of every question.
func VisibleSet(questions []models.Question, responses models.ResponseSet) map[string]bool {
	out := make(map[string]bool, len(questions))
	for i := range questions {
		out[questions[i].ID] = IsQuestionVisible(&questions[i], questions, responses)
	}
	return out
}

// EvaluateCondition tests one condition against the parent's answer. A
// missing parent or an operator the parent type does not allow never holds.
func EvaluateCondition(c models.Condition, parent *models.Question, answer models.Value) bool {
	if parent == nil || !parent.Type.Allows(c.Operator) {
		return false
	}
	switch c.Operator {
	case models.OpEquals:
		return answersEqual(parent, answer, c.Value)
	case models.OpNotEquals:
		return !answersEqual(parent, answer, c.Value)
	case models.OpGreaterThan, models.OpLessThan:
		a, ok1 := answer.Float()
		b, ok2 := c.Value.Float()
		if !ok1 || !ok2 {
			return false
		}
		if c.Operator == models.OpGreaterThan {
			return a > b
		}
		return a < b
	case models.OpContains:
		s, ok := answer.Str()
		return ok && strings.Contains(s, c.Value.String())
	}
	return false
}

func answersEqual(parent *models.Question, answer, literal models.Value) bool {
	if answer.IsNone() {
		return false
	}
	if parent.Type == models.TypeScale {
		a, ok1 := answer.Float()
		b, ok2 := literal.Float()
		return ok1 && ok2 && a == b
	}
	return answer.String() == literal.String()
}

// OperatorsFor lists the operators a condition may use against a parent of type t.
func OperatorsFor(t models.QuestionType) []models.Operator {
	return t.Operators()
}

// DependentsOf returns the ids of questions whose conditions reference parentID,
// i.e. the questions whose visibility may flip when that answer changes.
func DependentsOf(questions []models.Question, parentID string) []string {
	var out []string
	for i := range questions {
		for _, p := range questions[i].ParentQuestionIDs() {
			if p == parentID {
				out = append(out, questions[i].ID)
				break
			}
		}
	}
	return out
}

func indexQuestions(questions []models.Question) map[string]*models.Question {
	index := make(map[string]*models.Question, len(questions))
	for i := range questions {
		index[questions[i].ID] = &questions[i]
	}
	return index
}
