package services

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/medscore/internal/models"
)

func readCSV(t *testing.T, b []byte) [][]string {
	t.Helper()
	recs, err := csv.NewReader(strings.NewReader(string(b))).ReadAll()
	require.NoError(t, err)
	return recs
}

func TestExportLongCSV(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := []LongRow{
		{ResultID: "r1", CompletedAt: at, QuestionID: "q1", Score: 3, MaxScore: 3, Percentage: 100},
		{ResultID: "r1", CompletedAt: at, QuestionID: "q2", Score: 7.5, MaxScore: 10, Percentage: 75},
	}
	b, err := ExportLongCSV(rows)
	require.NoError(t, err)
	recs := readCSV(t, b)
	require.Len(t, recs, 3)
	assert.Equal(t, "result_id,completed_at,question_id,score,max_possible_score,percentage", strings.Join(recs[0], ","))
	assert.Equal(t, []string{"r1", "2024-01-02T03:04:05Z", "q2", "7.5", "10", "75"}, recs[2])
}

func TestExportWideCSV(t *testing.T) {
	results := []models.AssessmentResult{
		{ID: "r1", TotalScore: 4, MaxPossibleScore: 13, PercentageScore: 30.5, RiskLevel: models.RiskHigh,
			Breakdown: []models.ScoreBreakdown{{QuestionID: "q1", Score: 1}, {QuestionID: "q2", Score: 3}}},
		{ID: "r2", TotalScore: 3, MaxPossibleScore: 3, PercentageScore: 100, RiskLevel: models.RiskLow,
			Breakdown: []models.ScoreBreakdown{{QuestionID: "q1", Score: 3}}},
	}
	b, err := ExportWideCSV([]string{"q1", "q2"}, results)
	require.NoError(t, err)
	recs := readCSV(t, b)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"result_id", "completed_at", "total_score", "max_possible_score", "percentage_score", "risk_level", "q1", "q2"}, recs[0])
	assert.Equal(t, "30.5", recs[1][4])
	assert.Equal(t, "high", recs[1][5])
	assert.Equal(t, []string{"3", ""}, recs[2][6:])
}

func TestExportQuestionsCSV(t *testing.T) {
	qs := e2eQuestions()
	qs = append(qs, models.Question{ID: "q3", Type: models.TypeText, Text: "Why, exactly?", ConditionalLogic: &models.ConditionalLogic{
		Enabled:    true,
		ShowWhen:   models.ShowAny,
		Conditions: []models.Condition{{QuestionID: "q1", Operator: models.OpEquals, Value: models.StringValue("b")}},
	}})
	b, err := ExportQuestionsCSV(qs)
	require.NoError(t, err)
	recs := readCSV(t, b)
	require.Len(t, recs, 4)
	assert.Equal(t, "a=1 | b=3", recs[1][7])
	assert.Equal(t, []string{"0", "10"}, recs[2][5:7])
	assert.Equal(t, "Why, exactly?", recs[3][4])
	assert.Equal(t, "q1", recs[3][8])
	assert.Equal(t, "any", recs[3][9])
}
