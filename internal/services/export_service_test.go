package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/medscore/internal/models"
)

func TestExportService_ExportCSV(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	require.NoError(t, store.InsertForm(ctx, &models.Form{ID: "f1", Title: "F", Questions: e2eQuestions()}))
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	seedResults(t, store, "f1", now)
	// a result that still carries a question removed from the form
	require.NoError(t, store.InsertResult(ctx, &models.AssessmentResult{
		ID: "old", FormID: "f1", CompletedAt: now,
		Breakdown: []models.ScoreBreakdown{{QuestionID: "retired", Score: 1, MaxPossibleScore: 1}},
	}))
	svc := NewExportService(store)

	long, err := svc.ExportCSV(ctx, ExportParams{FormID: "f1"})
	require.NoError(t, err)
	assert.Equal(t, "f1-long.csv", long.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", long.ContentType)
	assert.Len(t, readCSV(t, long.Data), 1+4*2+1)

	wide, err := svc.ExportCSV(ctx, ExportParams{FormID: "f1", Format: "wide"})
	require.NoError(t, err)
	recs := readCSV(t, wide.Data)
	require.Len(t, recs, 6)
	assert.Equal(t, "q1,q2,retired", strings.Join(recs[0][6:], ","))

	qs, err := svc.ExportCSV(ctx, ExportParams{FormID: "f1", Format: "questions"})
	require.NoError(t, err)
	assert.Len(t, readCSV(t, qs.Data), 3)

	_, err = svc.ExportCSV(ctx, ExportParams{FormID: "f1", Format: "xlsx"})
	requireCode(t, err, ErrorInvalid)
	_, err = svc.ExportCSV(ctx, ExportParams{})
	requireCode(t, err, ErrorInvalid)
	_, err = svc.ExportCSV(ctx, ExportParams{FormID: "nope"})
	requireCode(t, err, ErrorNotFound)
}
