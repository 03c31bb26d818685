package services

import (
	"context"
	"time"

	"github.com/soaringjerry/medscore/internal/models"
)

// DefaultAnalyticsDays is the dashboard window when none is requested.
const DefaultAnalyticsDays = 30

type AnalyticsStore interface {
	GetForm(ctx context.Context, id string) (*models.Form, error)
	ListResults(ctx context.Context, formID string, since time.Time) ([]*models.AssessmentResult, error)
}

type AnalyticsService struct {
	store AnalyticsStore
	now   func() time.Time
}

type AnalyticsQuestion struct {
	ID         string          `json:"id"`
	Text       string          `json:"text"`
	Answered   int             `json:"answered"`
	Average    float64         `json:"average_percentage"`
	ScoreBands ScoreBandCounts `json:"score_bands"`
}

type AnalyticsSummary struct {
	FormID     string              `json:"form_id"`
	Days       int                 `json:"days"`
	Resolution Resolution          `json:"resolution"`
	Summary    Summary             `json:"summary"`
	ScoreBands ScoreBandCounts     `json:"score_bands"`
	Questions  []AnalyticsQuestion `json:"questions"`
	Alpha      float64             `json:"alpha"`
	N          int                 `json:"n"`
}

func NewAnalyticsService(store AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Summary aggregates the results of the last days days. days <= 0 means
// DefaultAnalyticsDays.
func (s *AnalyticsService) Summary(ctx context.Context, formID string, days int, res Resolution) (*AnalyticsSummary, error) {
	form, err := s.store.GetForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, NewNotFoundError("form not found")
	}
	if days <= 0 {
		days = DefaultAnalyticsDays
	}
	cutoff := s.now().AddDate(0, 0, -days)
	stored, err := s.store.ListResults(ctx, formID, cutoff)
	if err != nil {
		return nil, err
	}
	results := make([]models.AssessmentResult, 0, len(stored))
	for _, r := range stored {
		results = append(results, *r)
	}
	results = FilterSince(results, cutoff)

	out := &AnalyticsSummary{
		FormID:     formID,
		Days:       days,
		Resolution: res,
		Summary:    Aggregate(results, AggregateOptions{Resolution: res}),
		Questions:  buildAnalyticsQuestions(form, results),
	}
	for _, r := range results {
		b := ScoreBands(r.Breakdown)
		out.ScoreBands.High += b.High
		out.ScoreBands.Medium += b.Medium
		out.ScoreBands.Low += b.Low
	}
	out.Alpha, out.N = QuestionConsistency(results)
	return out, nil
}

// buildAnalyticsQuestions reports scored questions in form order.
func buildAnalyticsQuestions(form *models.Form, results []models.AssessmentResult) []AnalyticsQuestion {
	index := map[string]int{}
	out := []AnalyticsQuestion{}
	for _, q := range form.Questions {
		switch q.Type {
		case models.TypeMultipleChoice, models.TypeScale, models.TypeBoolean:
			index[q.ID] = len(out)
			out = append(out, AnalyticsQuestion{ID: q.ID, Text: q.Text})
		}
	}
	totals := make([]float64, len(out))
	for _, r := range results {
		for _, b := range r.Breakdown {
			i, ok := index[b.QuestionID]
			if !ok || b.MaxPossibleScore <= 0 {
				continue
			}
			out[i].Answered++
			totals[i] += b.Percentage
			band := ScoreBands([]models.ScoreBreakdown{b})
			out[i].ScoreBands.High += band.High
			out[i].ScoreBands.Medium += band.Medium
			out[i].ScoreBands.Low += band.Low
		}
	}
	for i := range out {
		if out[i].Answered > 0 {
			out[i].Average = totals[i] / float64(out[i].Answered)
		}
	}
	return out
}
