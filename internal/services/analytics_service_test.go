package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/medscore/internal/models"
)

func seedResults(t *testing.T, store *stubStore, formID string, now time.Time) {
	t.Helper()
	scorer := &Scorer{}
	answers := []struct {
		daysAgo int
		choice  string
		scale   float64
	}{
		{1, "b", 9},
		{1, "a", 2},
		{3, "b", 7},
		{45, "a", 0},
	}
	for i, a := range answers {
		at := now.AddDate(0, 0, -a.daysAgo)
		scorer.now = func() time.Time { return at }
		r := scorer.CalculateSet(e2eQuestions(), models.ResponseSet{
			"q1": models.StringValue(a.choice),
			"q2": models.NumberValue(a.scale),
		})
		r.ID = string(rune('a' + i))
		r.FormID = formID
		require.NoError(t, store.InsertResult(context.Background(), &r))
	}
}

func TestAnalyticsService_Summary(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	require.NoError(t, store.InsertForm(ctx, &models.Form{ID: "f1", Title: "F", Questions: e2eQuestions()}))
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	seedResults(t, store, "f1", now)

	svc := NewAnalyticsService(store)
	svc.now = func() time.Time { return now }

	sum, err := svc.Summary(ctx, "f1", 0, ByDay)
	require.NoError(t, err)
	assert.Equal(t, DefaultAnalyticsDays, sum.Days)
	assert.Equal(t, 3, sum.Summary.Total, "the 45 day old result is outside the window")
	assert.Equal(t, RiskLevelCounts{Low: 2, High: 1}, sum.Summary.RiskLevelCounts)
	require.Len(t, sum.Summary.TimeSeries, 2)
	assert.Equal(t, "2024-06-27", sum.Summary.TimeSeries[0].Date)
	assert.Equal(t, 2, sum.Summary.TimeSeries[1].Assessments)

	require.Len(t, sum.Questions, 2)
	assert.Equal(t, "q1", sum.Questions[0].ID)
	assert.Equal(t, 3, sum.Questions[0].Answered)
	assert.Equal(t, ScoreBandCounts{High: 2, Low: 1}, sum.Questions[0].ScoreBands)
	assert.Equal(t, 6, sum.ScoreBands.High+sum.ScoreBands.Medium+sum.ScoreBands.Low)
	assert.Equal(t, 3, sum.N)

	all, err := svc.Summary(ctx, "f1", 90, ByMonth)
	require.NoError(t, err)
	assert.Equal(t, 4, all.Summary.Total)
	assert.Len(t, all.Summary.TimeSeries, 2)

	_, err = svc.Summary(ctx, "missing", 7, ByDay)
	requireCode(t, err, ErrorNotFound)
}
