package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/soaringjerry/medscore/internal/models"
)

// HiddenPolicy decides what happens to answers whose question became hidden
// before the session was completed.
type HiddenPolicy string

const (
	// HiddenDrop excludes answers to hidden questions from scoring.
	HiddenDrop HiddenPolicy = "drop"
	// HiddenKeep scores every stored answer regardless of visibility.
	HiddenKeep HiddenPolicy = "keep"
)

// ParseHiddenPolicy maps a config value onto a policy; anything but "keep" drops.
func ParseHiddenPolicy(s string) HiddenPolicy {
	if HiddenPolicy(s) == HiddenKeep {
		return HiddenKeep
	}
	return HiddenDrop
}

// SessionStores is what the session workflow touches.
type SessionStores interface {
	FormStore
	SessionStore
	ResultStore
}

// SessionService drives a respondent through a published form.
type SessionService struct {
	store    SessionStores
	policy   HiddenPolicy
	scorer   *Scorer
	now      func() time.Time
	observer func(formID string, r models.AssessmentResult)
}

func NewSessionService(store SessionStores, policy HiddenPolicy) *SessionService {
	now := func() time.Time { return time.Now().UTC() }
	return &SessionService{
		store:  store,
		policy: ParseHiddenPolicy(string(policy)),
		scorer: &Scorer{now: now},
		now:    now,
	}
}

// OnComplete registers fn to be called after each result is stored.
func (s *SessionService) OnComplete(fn func(formID string, r models.AssessmentResult)) {
	s.observer = fn
}

// SessionState is the respondent's view of a session.
type SessionState struct {
	Session  *models.Session `json:"session"`
	Visible  []string        `json:"visible_question_ids"`
	Progress Progress        `json:"progress"`
}

// Progress counts visible questions, excluding headings.
type Progress struct {
	Answered int     `json:"answered"`
	Total    int     `json:"total"`
	Percent  float64 `json:"percent"`
}

func (s *SessionService) Start(ctx context.Context, formID string) (*SessionState, error) {
	form, err := s.publishedForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	sess := &models.Session{
		ID:        uuid.NewString(),
		FormID:    form.ID,
		Responses: models.ResponseSet{},
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	return stateOf(form, sess), nil
}

func (s *SessionService) Get(ctx context.Context, id string) (*SessionState, error) {
	sess, form, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return stateOf(form, sess), nil
}

// Answer records or clears (raw null) the answer to one question and returns
// the re-derived visibility. Answers to questions that are hidden right now
// are rejected.
func (s *SessionService) Answer(ctx context.Context, id, questionID string, raw json.RawMessage) (*SessionState, error) {
	sess, form, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	q, _ := form.Question(questionID)
	if q == nil {
		return nil, NewNotFoundError("question not found")
	}
	if !IsQuestionVisible(q, form.Questions, sess.Responses) {
		return nil, NewConflictError("question is not visible")
	}
	v, err := models.ParseResponse(q, raw)
	if err != nil {
		return nil, NewInvalidError(err.Error())
	}
	if sess.Responses == nil {
		sess.Responses = models.ResponseSet{}
	}
	if v.IsNone() {
		delete(sess.Responses, questionID)
	} else {
		sess.Responses[questionID] = v
	}
	sess.UpdatedAt = s.now()
	if err := s.store.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	return stateOf(form, sess), nil
}

// Complete scores the session, stores the result and discards the session.
func (s *SessionService) Complete(ctx context.Context, id string) (*models.AssessmentResult, error) {
	sess, form, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	visible := VisibleSet(form.Questions, sess.Responses)
	var missing models.ValidationErrors
	for _, q := range form.Questions {
		if q.Required && visible[q.ID] && q.Type != models.TypeHeading && sess.Responses.Get(q.ID).IsNone() {
			missing = append(missing, models.ValidationError{QuestionID: q.ID, Field: "value", Message: "answer required"})
		}
	}
	if len(missing) > 0 {
		return nil, newValidationError("assessment incomplete", missing)
	}

	answers := sess.Responses
	if s.policy == HiddenDrop {
		answers = make(models.ResponseSet, len(sess.Responses))
		for qid, v := range sess.Responses {
			if visible[qid] {
				answers[qid] = v
			}
		}
	}
	result := s.scorer.CalculateSet(form.Questions, answers)
	result.ID = uuid.NewString()
	result.FormID = form.ID
	result.SessionID = sess.ID
	if err := s.store.InsertResult(ctx, &result); err != nil {
		return nil, err
	}
	if err := s.store.DeleteSession(ctx, sess.ID); err != nil {
		return nil, err
	}
	if s.observer != nil {
		s.observer(form.ID, result)
	}
	return &result, nil
}

func (s *SessionService) load(ctx context.Context, id string) (*models.Session, *models.Form, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if sess == nil {
		return nil, nil, NewNotFoundError("session not found")
	}
	form, err := s.publishedForm(ctx, sess.FormID)
	if err != nil {
		return nil, nil, err
	}
	return sess, form, nil
}

func (s *SessionService) publishedForm(ctx context.Context, formID string) (*models.Form, error) {
	form, err := s.store.GetForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, NewNotFoundError("form not found")
	}
	if form.Status != models.FormPublished {
		return nil, NewConflictError("form is not published")
	}
	return form, nil
}

func stateOf(form *models.Form, sess *models.Session) *SessionState {
	st := &SessionState{Session: sess, Visible: []string{}}
	for _, q := range VisibleQuestions(form.Questions, sess.Responses) {
		st.Visible = append(st.Visible, q.ID)
		if q.Type == models.TypeHeading {
			continue
		}
		st.Progress.Total++
		if !sess.Responses.Get(q.ID).IsNone() {
			st.Progress.Answered++
		}
	}
	st.Progress.Percent = percentOf(float64(st.Progress.Answered), float64(st.Progress.Total))
	return st
}
