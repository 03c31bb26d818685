package services

import "github.com/soaringjerry/medscore/internal/models"

// Standardized maximum of every scale question regardless of its own bounds.
const scaleMaxScore = 10

// ScoreQuestion returns the score of one answer and the best score the
// question can yield. Unscored and unknown question types yield (0, 0);
// a missing answer scores 0 against the usual maximum.
func ScoreQuestion(q *models.Question, v models.Value) (score, maxScore float64) {
	switch q.Type {
	case models.TypeMultipleChoice:
		return scoreChoice(q, v)
	case models.TypeScale:
		return scoreScale(q, v)
	case models.TypeBoolean:
		if s, ok := v.Str(); ok && s == "true" {
			return 1, 1
		}
		return 0, 1
	}
	return 0, 0
}

// The maximum is the best single option, not the sum of all options.
func scoreChoice(q *models.Question, v models.Value) (float64, float64) {
	if len(q.Options) == 0 {
		return 0, 0
	}
	best := q.Options[0].Score
	for _, o := range q.Options[1:] {
		if o.Score > best {
			best = o.Score
		}
	}
	s, ok := v.Str()
	if !ok {
		return 0, best
	}
	if o, found := q.Option(s); found {
		return o.Score, best
	}
	return 0, best
}

// Answers on a 0..10 scale are taken as-is; any other upper bound is
// rescaled linearly onto 0..10. Degenerate bounds are excluded from totals.
func scoreScale(q *models.Question, v models.Value) (float64, float64) {
	min, max := q.Bounds()
	if max <= min {
		return 0, 0
	}
	n, ok := v.Float()
	if !ok {
		return 0, scaleMaxScore
	}
	if max == scaleMaxScore {
		return n, scaleMaxScore
	}
	return (n - float64(min)) * scaleMaxScore / float64(max-min), scaleMaxScore
}
