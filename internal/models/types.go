package models

import (
	"encoding/json"
	"time"
)

// QuestionType selects the scoring rule and the conditional operator set of a question.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeScale          QuestionType = "scale"
	TypeBoolean        QuestionType = "boolean"
	TypeText           QuestionType = "text"
	TypeDate           QuestionType = "date"
	TypeHeading        QuestionType = "heading"
)

// Known reports whether t is one of the supported question types.
func (t QuestionType) Known() bool {
	switch t {
	case TypeMultipleChoice, TypeScale, TypeBoolean, TypeText, TypeDate, TypeHeading:
		return true
	}
	return false
}

type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpContains    Operator = "contains"
)

type ShowWhen string

const (
	ShowAll ShowWhen = "all"
	ShowAny ShowWhen = "any"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

type FormStatus string

const (
	FormDraft     FormStatus = "draft"
	FormPublished FormStatus = "published"
	FormArchived  FormStatus = "archived"
)

// Default scale bounds used when a scale question omits them.
const (
	DefaultScaleMin = 0
	DefaultScaleMax = 10
)

// Option is one selectable answer of a multiple choice or boolean question.
// Value is the response-matching key and must be unique within its question.
type Option struct {
	ID    string  `json:"id,omitempty" yaml:"id,omitempty"`
	Value string  `json:"value" yaml:"value"`
	Label string  `json:"label" yaml:"label"`
	Score float64 `json:"score" yaml:"score"`
}

// Scoring is carried with every question. Weight is stored but not applied
// when totals are computed; totals are unweighted sums.
type Scoring struct {
	Enabled bool    `json:"enabled" yaml:"enabled"`
	Weight  float64 `json:"weight" yaml:"weight"`
}

// Condition tests the response of another question (the parent).
type Condition struct {
	QuestionID string   `json:"question_id" yaml:"question_id"`
	Operator   Operator `json:"operator" yaml:"operator"`
	Value      Value    `json:"value" yaml:"value"`
}

type ConditionalLogic struct {
	Enabled    bool        `json:"enabled" yaml:"enabled"`
	Conditions []Condition `json:"conditions" yaml:"conditions"`
	ShowWhen   ShowWhen    `json:"show_when,omitempty" yaml:"show_when,omitempty"`
}

// Combinator returns ShowWhen with the "all" default applied.
func (l *ConditionalLogic) Combinator() ShowWhen {
	if l == nil || l.ShowWhen != ShowAny {
		return ShowAll
	}
	return ShowAny
}

// Question is a single prompt of an assessment form.
type Question struct {
	ID               string            `json:"id" yaml:"id"`
	Type             QuestionType      `json:"type" yaml:"type"`
	Text             string            `json:"text" yaml:"text"`
	Description      string            `json:"description,omitempty" yaml:"description,omitempty"`
	Required         bool              `json:"required" yaml:"required"`
	Options          []Option          `json:"options,omitempty" yaml:"options,omitempty"`
	MinValue         *int              `json:"min_value,omitempty" yaml:"min_value,omitempty"`
	MaxValue         *int              `json:"max_value,omitempty" yaml:"max_value,omitempty"`
	Scoring          Scoring           `json:"scoring" yaml:"scoring"`
	ConditionalLogic *ConditionalLogic `json:"conditional_logic,omitempty" yaml:"conditional_logic,omitempty"`
}

// Bounds returns the scale bounds with defaults applied.
func (q *Question) Bounds() (min, max int) {
	min, max = DefaultScaleMin, DefaultScaleMax
	if q.MinValue != nil {
		min = *q.MinValue
	}
	if q.MaxValue != nil {
		max = *q.MaxValue
	}
	return min, max
}

// Option returns the option whose value equals v.
func (q *Question) Option(v string) (Option, bool) {
	for _, o := range q.Options {
		if o.Value == v {
			return o, true
		}
	}
	return Option{}, false
}

// HasConditions reports whether the question's visibility depends on other answers.
func (q *Question) HasConditions() bool {
	return q.ConditionalLogic != nil && q.ConditionalLogic.Enabled
}

// ParentQuestionIDs lists the questions referenced by the conditional logic,
// unique and in first-seen order. It is always derived from the conditions.
func (q *Question) ParentQuestionIDs() []string {
	if q.ConditionalLogic == nil {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, c := range q.ConditionalLogic.Conditions {
		if _, ok := seen[c.QuestionID]; ok {
			continue
		}
		seen[c.QuestionID] = struct{}{}
		out = append(out, c.QuestionID)
	}
	return out
}

// Clone returns a deep copy so callers can mutate questions owned by a stored form.
func (q Question) Clone() Question {
	out := q
	if q.Options != nil {
		out.Options = append([]Option(nil), q.Options...)
	}
	if q.MinValue != nil {
		v := *q.MinValue
		out.MinValue = &v
	}
	if q.MaxValue != nil {
		v := *q.MaxValue
		out.MaxValue = &v
	}
	if q.ConditionalLogic != nil {
		cl := *q.ConditionalLogic
		cl.Conditions = append([]Condition(nil), q.ConditionalLogic.Conditions...)
		out.ConditionalLogic = &cl
	}
	return out
}

type questionJSON Question

// MarshalJSON emits the derived parent_question_ids next to the stored fields.
func (q Question) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		questionJSON
		ParentQuestionIDs []string `json:"parent_question_ids,omitempty"`
	}{questionJSON(q), q.ParentQuestionIDs()})
}

// UnmarshalJSON ignores any inbound parent_question_ids.
func (q *Question) UnmarshalJSON(b []byte) error {
	var raw questionJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*q = Question(raw)
	return nil
}

// Response is one answer keyed by question id.
type Response struct {
	QuestionID string `json:"question_id" yaml:"question_id"`
	Value      Value  `json:"value" yaml:"value"`
}

// ResponseSet maps question ids to their current answer.
type ResponseSet map[string]Value

// NewResponseSet indexes responses by question id. When an id repeats the
// first response wins.
func NewResponseSet(responses []Response) ResponseSet {
	set := make(ResponseSet, len(responses))
	for _, r := range responses {
		if _, ok := set[r.QuestionID]; ok {
			continue
		}
		set[r.QuestionID] = r.Value
	}
	return set
}

// Get returns the answer for id or a none Value.
func (s ResponseSet) Get(id string) Value {
	if s == nil {
		return NoValue()
	}
	return s[id]
}

// Responses flattens the set in the order of the given questions; ids that
// are not in questions are appended in no particular order.
func (s ResponseSet) Responses(questions []Question) []Response {
	out := make([]Response, 0, len(s))
	used := map[string]struct{}{}
	for _, q := range questions {
		if v, ok := s[q.ID]; ok {
			out = append(out, Response{QuestionID: q.ID, Value: v})
			used[q.ID] = struct{}{}
		}
	}
	for id, v := range s {
		if _, ok := used[id]; !ok {
			out = append(out, Response{QuestionID: id, Value: v})
		}
	}
	return out
}

type ScoreBreakdown struct {
	QuestionID       string  `json:"question_id"`
	QuestionText     string  `json:"question_text"`
	Score            float64 `json:"score"`
	MaxPossibleScore float64 `json:"max_possible_score"`
	Percentage       float64 `json:"percentage"`
}

// AssessmentResult is produced once per completed assessment and is read-only afterwards.
// ID, FormID and SessionID are set by the persistence workflow, never by the scorer.
type AssessmentResult struct {
	ID               string           `json:"id,omitempty"`
	FormID           string           `json:"form_id,omitempty"`
	SessionID        string           `json:"session_id,omitempty"`
	TotalScore       float64          `json:"total_score"`
	MaxPossibleScore float64          `json:"max_possible_score"`
	PercentageScore  float64          `json:"percentage_score"`
	Breakdown        []ScoreBreakdown `json:"breakdown"`
	RiskLevel        RiskLevel        `json:"risk_level"`
	CompletedAt      time.Time        `json:"completed_at"`
}

// Form is an ordered questionnaire.
type Form struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Status      FormStatus `json:"status" yaml:"status"`
	Questions   []Question `json:"questions" yaml:"questions"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"updated_at,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`
}

// Question returns the question with the given id.
func (f *Form) Question(id string) (*Question, int) {
	for i := range f.Questions {
		if f.Questions[i].ID == id {
			return &f.Questions[i], i
		}
	}
	return nil, -1
}

// Clone deep-copies the form and its questions.
func (f *Form) Clone() *Form {
	out := *f
	out.Questions = make([]Question, len(f.Questions))
	for i, q := range f.Questions {
		out.Questions[i] = q.Clone()
	}
	if f.PublishedAt != nil {
		t := *f.PublishedAt
		out.PublishedAt = &t
	}
	return &out
}

// Session holds the in-progress answers of one assessment.
type Session struct {
	ID        string      `json:"id"`
	FormID    string      `json:"form_id"`
	Responses ResponseSet `json:"responses"`
	StartedAt time.Time   `json:"started_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
