package services

import (
	"time"

	"github.com/soaringjerry/medscore/internal/models"
)

// Lower bounds (inclusive) of the low and moderate risk bands.
const (
	lowRiskThreshold      = 70
	moderateRiskThreshold = 40
)

// ClassifyRisk maps a percentage score onto its risk band.
func ClassifyRisk(percentage float64) models.RiskLevel {
	switch {
	case percentage >= lowRiskThreshold:
		return models.RiskLow
	case percentage >= moderateRiskThreshold:
		return models.RiskModerate
	}
	return models.RiskHigh
}

// Scorer turns a question list plus answers into an AssessmentResult.
// It holds no state besides the clock and is safe for concurrent use.
type Scorer struct {
	now func() time.Time
}

func NewScorer() *Scorer {
	return &Scorer{now: func() time.Time { return time.Now().UTC() }}
}

var defaultScorer = NewScorer()

// CalculateAssessmentResult scores responses against questions with the wall clock.
func CalculateAssessmentResult(questions []models.Question, responses []models.Response) models.AssessmentResult {
	return defaultScorer.Calculate(questions, responses)
}

// Calculate builds one breakdown entry per question in input order. Visibility
// is not consulted: the caller decides which responses to pass.
func (s *Scorer) Calculate(questions []models.Question, responses []models.Response) models.AssessmentResult {
	return s.CalculateSet(questions, models.NewResponseSet(responses))
}

// CalculateSet is Calculate over an already indexed response set.
func (s *Scorer) CalculateSet(questions []models.Question, set models.ResponseSet) models.AssessmentResult {
	var total, max float64
	breakdown := make([]models.ScoreBreakdown, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		score, maxScore := ScoreQuestion(q, set.Get(q.ID))
		total += score
		max += maxScore
		breakdown = append(breakdown, models.ScoreBreakdown{
			QuestionID:       q.ID,
			QuestionText:     q.Text,
			Score:            score,
			MaxPossibleScore: maxScore,
			Percentage:       percentOf(score, maxScore),
		})
	}
	pct := percentOf(total, max)
	return models.AssessmentResult{
		TotalScore:       total,
		MaxPossibleScore: max,
		PercentageScore:  pct,
		Breakdown:        breakdown,
		RiskLevel:        ClassifyRisk(pct),
		CompletedAt:      s.now(),
	}
}

func percentOf(score, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return score / max * 100
}
