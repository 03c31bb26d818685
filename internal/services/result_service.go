package services

import (
	"context"
	"time"

	"github.com/soaringjerry/medscore/internal/models"
)

type ResultService struct {
	store ResultStore
}

func NewResultService(store ResultStore) *ResultService {
	return &ResultService{store: store}
}

func (s *ResultService) Get(ctx context.Context, id string) (*models.AssessmentResult, error) {
	r, err := s.store.GetResult(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, NewNotFoundError("result not found")
	}
	return r, nil
}

// List returns the results of a form completed at or after since, oldest
// first. A zero since lists everything.
func (s *ResultService) List(ctx context.Context, formID string, since time.Time) ([]*models.AssessmentResult, error) {
	return s.store.ListResults(ctx, formID, since)
}
