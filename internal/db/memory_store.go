package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/soaringjerry/medscore/internal/models"
	"github.com/soaringjerry/medscore/internal/services"
)

// MemoryStore keeps everything in process memory. Values are copied on the way
// in and out so callers never share state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	forms    map[string]*models.Form
	sessions map[string]*models.Session
	results  map[string]*models.AssessmentResult
	byForm   map[string][]*models.AssessmentResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		forms:    map[string]*models.Form{},
		sessions: map[string]*models.Session{},
		results:  map[string]*models.AssessmentResult{},
		byForm:   map[string][]*models.AssessmentResult{},
	}
}

var _ services.Store = (*MemoryStore)(nil)

func (s *MemoryStore) InsertForm(_ context.Context, f *models.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forms[f.ID]; ok {
		return services.NewConflictError("form already exists")
	}
	s.forms[f.ID] = f.Clone()
	return nil
}

func (s *MemoryStore) GetForm(_ context.Context, id string) (*models.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if f, ok := s.forms[id]; ok {
		return f.Clone(), nil
	}
	return nil, nil
}

func (s *MemoryStore) UpdateForm(_ context.Context, f *models.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forms[f.ID]; !ok {
		return services.NewNotFoundError("form not found")
	}
	s.forms[f.ID] = f.Clone()
	return nil
}

func (s *MemoryStore) DeleteForm(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.forms, id)
	for sid, sess := range s.sessions {
		if sess.FormID == id {
			delete(s.sessions, sid)
		}
	}
	return nil
}

// ListForms returns forms ordered by creation time, then id.
func (s *MemoryStore) ListForms(_ context.Context) ([]*models.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Form, 0, len(s.forms))
	for _, f := range s.forms {
		out = append(out, f.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func copySession(sess *models.Session) *models.Session {
	cp := *sess
	cp.Responses = make(models.ResponseSet, len(sess.Responses))
	for k, v := range sess.Responses {
		cp.Responses[k] = v
	}
	return &cp
}

func (s *MemoryStore) SaveSession(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = copySession(sess)
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[id]; ok {
		return copySession(sess), nil
	}
	return nil, nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func copyResult(r *models.AssessmentResult) *models.AssessmentResult {
	cp := *r
	cp.Breakdown = append([]models.ScoreBreakdown(nil), r.Breakdown...)
	return &cp
}

func (s *MemoryStore) InsertResult(_ context.Context, r *models.AssessmentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[r.ID]; ok {
		return services.NewConflictError("result already exists")
	}
	cp := copyResult(r)
	s.results[r.ID] = cp
	list := append(s.byForm[r.FormID], cp)
	sort.SliceStable(list, func(i, j int) bool { return list[i].CompletedAt.Before(list[j].CompletedAt) })
	s.byForm[r.FormID] = list
	return nil
}

func (s *MemoryStore) GetResult(_ context.Context, id string) (*models.AssessmentResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.results[id]; ok {
		return copyResult(r), nil
	}
	return nil, nil
}

func (s *MemoryStore) ListResults(_ context.Context, formID string, since time.Time) ([]*models.AssessmentResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.AssessmentResult{}
	for _, r := range s.byForm[formID] {
		if !r.CompletedAt.Before(since) {
			out = append(out, copyResult(r))
		}
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
