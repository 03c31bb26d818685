package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/medscore/internal/models"
)

func TestCalculateAssessmentResult_EndToEnd(t *testing.T) {
	res := CalculateAssessmentResult(e2eQuestions(), []models.Response{
		{QuestionID: "q1", Value: models.StringValue("b")},
		{QuestionID: "q2", Value: models.NumberValue(7)},
	})
	assert.Equal(t, 10.0, res.TotalScore)
	assert.Equal(t, 13.0, res.MaxPossibleScore)
	assert.InDelta(t, 76.92, res.PercentageScore, 0.01)
	assert.Equal(t, models.RiskLow, res.RiskLevel)
	require.Len(t, res.Breakdown, 2)
	assert.InDelta(t, 100.0, res.Breakdown[0].Percentage, 1e-9)
	assert.InDelta(t, 70.0, res.Breakdown[1].Percentage, 1e-9)
}

func TestCalculateAssessmentResult_MissingResponse(t *testing.T) {
	res := CalculateAssessmentResult(e2eQuestions(), []models.Response{
		{QuestionID: "q1", Value: models.StringValue("a")},
	})
	assert.Equal(t, 1.0, res.TotalScore)
	assert.Equal(t, 13.0, res.MaxPossibleScore)
	assert.InDelta(t, 7.69, res.PercentageScore, 0.01)
	assert.Equal(t, models.RiskHigh, res.RiskLevel)
}

func TestCalculateAssessmentResult_Idempotent(t *testing.T) {
	responses := []models.Response{
		{QuestionID: "q1", Value: models.StringValue("b")},
		{QuestionID: "q2", Value: models.NumberValue(3)},
	}
	a := CalculateAssessmentResult(e2eQuestions(), responses)
	b := CalculateAssessmentResult(e2eQuestions(), responses)
	a.CompletedAt, b.CompletedAt = time.Time{}, time.Time{}
	assert.Equal(t, a, b)
}

func TestCalculateAssessmentResult_BreakdownOrder(t *testing.T) {
	qs := []models.Question{
		{ID: "h", Type: models.TypeHeading, Text: "Intro"},
		{ID: "z", Type: models.TypeBoolean},
		{ID: "a", Type: models.TypeText},
		{ID: "m", Type: models.TypeScale},
	}
	res := CalculateAssessmentResult(qs, nil)
	require.Len(t, res.Breakdown, len(qs))
	for i, q := range qs {
		assert.Equal(t, q.ID, res.Breakdown[i].QuestionID)
	}
}

func TestCalculateAssessmentResult_UnscoredOnly(t *testing.T) {
	qs := []models.Question{
		{ID: "t", Type: models.TypeText},
		{ID: "d", Type: models.TypeDate},
		{ID: "h", Type: models.TypeHeading},
	}
	res := CalculateAssessmentResult(qs, []models.Response{{QuestionID: "t", Value: models.StringValue("fine")}})
	assert.Zero(t, res.PercentageScore)
	assert.Equal(t, models.RiskHigh, res.RiskLevel)
	for _, b := range res.Breakdown {
		assert.Zero(t, b.Percentage)
	}

	empty := CalculateAssessmentResult(nil, nil)
	assert.Empty(t, empty.Breakdown)
	assert.Equal(t, models.RiskHigh, empty.RiskLevel)
}

func TestCalculateAssessmentResult_DuplicateResponseFirstWins(t *testing.T) {
	res := CalculateAssessmentResult(e2eQuestions()[:1], []models.Response{
		{QuestionID: "q1", Value: models.StringValue("a")},
		{QuestionID: "q1", Value: models.StringValue("b")},
	})
	assert.Equal(t, 1.0, res.TotalScore)
}

func TestClassifyRisk_Boundaries(t *testing.T) {
	assert.Equal(t, models.RiskLow, ClassifyRisk(100))
	assert.Equal(t, models.RiskLow, ClassifyRisk(70))
	assert.Equal(t, models.RiskModerate, ClassifyRisk(69.999))
	assert.Equal(t, models.RiskModerate, ClassifyRisk(40))
	assert.Equal(t, models.RiskHigh, ClassifyRisk(39.999))
	assert.Equal(t, models.RiskHigh, ClassifyRisk(0))
}

func TestScorer_StampsClock(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	s := &Scorer{now: func() time.Time { return fixed }}
	res := s.Calculate(e2eQuestions(), nil)
	assert.Equal(t, fixed, res.CompletedAt)
}
