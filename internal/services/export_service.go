package services

import (
	"context"
	"time"

	"github.com/soaringjerry/medscore/internal/models"
)

type ExportStore interface {
	GetForm(ctx context.Context, id string) (*models.Form, error)
	ListResults(ctx context.Context, formID string, since time.Time) ([]*models.AssessmentResult, error)
}

type ExportParams struct {
	FormID string
	// Format is one of long (default), wide or questions.
	Format string
}

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	store ExportStore
}

func NewExportService(store ExportStore) *ExportService {
	return &ExportService{store: store}
}

func (s *ExportService) ExportCSV(ctx context.Context, params ExportParams) (*ExportResult, error) {
	if params.FormID == "" {
		return nil, NewInvalidError("form_id required")
	}
	format := params.Format
	if format == "" {
		format = "long"
	}
	form, err := s.store.GetForm(ctx, params.FormID)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, NewNotFoundError("form not found")
	}
	if format == "questions" {
		b, err := ExportQuestionsCSV(form.Questions)
		if err != nil {
			return nil, err
		}
		return csvResult(form.ID+"-questions.csv", b), nil
	}

	stored, err := s.store.ListResults(ctx, form.ID, time.Time{})
	if err != nil {
		return nil, err
	}
	switch format {
	case "long":
		b, err := ExportLongCSV(buildLongRows(stored))
		if err != nil {
			return nil, err
		}
		return csvResult(form.ID+"-long.csv", b), nil
	case "wide":
		results := make([]models.AssessmentResult, 0, len(stored))
		for _, r := range stored {
			results = append(results, *r)
		}
		b, err := ExportWideCSV(wideColumns(form, results), results)
		if err != nil {
			return nil, err
		}
		return csvResult(form.ID+"-wide.csv", b), nil
	default:
		return nil, NewInvalidError("unsupported format")
	}
}

func csvResult(name string, b []byte) *ExportResult {
	return &ExportResult{Filename: name, ContentType: "text/csv; charset=utf-8", Data: b}
}

func buildLongRows(rs []*models.AssessmentResult) []LongRow {
	out := make([]LongRow, 0, len(rs))
	for _, r := range rs {
		for _, b := range r.Breakdown {
			out = append(out, LongRow{
				ResultID:    r.ID,
				CompletedAt: r.CompletedAt,
				QuestionID:  b.QuestionID,
				Score:       b.Score,
				MaxScore:    b.MaxPossibleScore,
				Percentage:  b.Percentage,
			})
		}
	}
	return out
}

// wideColumns lists the form's question ids in order, followed by ids that
// only appear in older results because the question has since been removed.
func wideColumns(form *models.Form, results []models.AssessmentResult) []string {
	seen := map[string]struct{}{}
	cols := make([]string, 0, len(form.Questions))
	for _, q := range form.Questions {
		if q.Type == models.TypeHeading {
			continue
		}
		seen[q.ID] = struct{}{}
		cols = append(cols, q.ID)
	}
	for _, r := range results {
		for _, b := range r.Breakdown {
			if _, ok := seen[b.QuestionID]; !ok {
				seen[b.QuestionID] = struct{}{}
				cols = append(cols, b.QuestionID)
			}
		}
	}
	return cols
}
