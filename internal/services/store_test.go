package services

import (
	"context"
	"sync"
	"time"

	"github.com/soaringjerry/medscore/internal/models"
)

// stubStore is a minimal in-memory Store for service tests.
type stubStore struct {
	mu       sync.Mutex
	forms    map[string]*models.Form
	sessions map[string]*models.Session
	results  []*models.AssessmentResult
}

func newStubStore() *stubStore {
	return &stubStore{forms: map[string]*models.Form{}, sessions: map[string]*models.Session{}}
}

func (s *stubStore) InsertForm(_ context.Context, f *models.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms[f.ID] = f.Clone()
	return nil
}

func (s *stubStore) GetForm(_ context.Context, id string) (*models.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.forms[id]; ok {
		return f.Clone(), nil
	}
	return nil, nil
}

func (s *stubStore) UpdateForm(ctx context.Context, f *models.Form) error {
	return s.InsertForm(ctx, f)
}

func (s *stubStore) DeleteForm(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.forms, id)
	return nil
}

func (s *stubStore) ListForms(_ context.Context) ([]*models.Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Form, 0, len(s.forms))
	for _, f := range s.forms {
		out = append(out, f.Clone())
	}
	return out, nil
}

func (s *stubStore) SaveSession(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	cp.Responses = models.ResponseSet{}
	for k, v := range sess.Responses {
		cp.Responses[k] = v
	}
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *stubStore) GetSession(_ context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *sess
	cp.Responses = models.ResponseSet{}
	for k, v := range sess.Responses {
		cp.Responses[k] = v
	}
	return &cp, nil
}

func (s *stubStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *stubStore) InsertResult(_ context.Context, r *models.AssessmentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.results = append(s.results, &cp)
	return nil
}

func (s *stubStore) GetResult(_ context.Context, id string) (*models.AssessmentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.results {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubStore) ListResults(_ context.Context, formID string, since time.Time) ([]*models.AssessmentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.AssessmentResult{}
	for _, r := range s.results {
		if r.FormID == formID && !r.CompletedAt.Before(since) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *stubStore) Close() error { return nil }

var _ Store = (*stubStore)(nil)

func intp(v int) *int { return &v }

// e2eQuestions is the two question form used by the end-to-end scoring cases.
func e2eQuestions() []models.Question {
	return []models.Question{
		{ID: "q1", Type: models.TypeMultipleChoice, Text: "Pick", Options: []models.Option{
			{ID: "o1", Value: "a", Label: "A", Score: 1},
			{ID: "o2", Value: "b", Label: "B", Score: 3},
		}},
		{ID: "q2", Type: models.TypeScale, Text: "Rate", MinValue: intp(0), MaxValue: intp(10)},
	}
}
