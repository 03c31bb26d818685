package services

import (
	"sort"
	"time"

	"github.com/soaringjerry/medscore/internal/models"
)

// Resolution is the calendar bucket width of the time series.
type Resolution string

const (
	ByDay   Resolution = "day"
	ByWeek  Resolution = "week"
	ByMonth Resolution = "month"
)

// ParseResolution maps a query value onto a Resolution; unknown values mean ByDay.
func ParseResolution(s string) Resolution {
	switch Resolution(s) {
	case ByWeek:
		return ByWeek
	case ByMonth:
		return ByMonth
	}
	return ByDay
}

type RiskLevelCounts struct {
	Low      int `json:"low"`
	Moderate int `json:"moderate"`
	High     int `json:"high"`
}

type TimeBucket struct {
	Date         string    `json:"date"`
	Start        time.Time `json:"start"`
	Assessments  int       `json:"assessments"`
	AverageScore float64   `json:"average_score"`
}

type ScoreBandCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

type Summary struct {
	Total           int             `json:"total"`
	RiskLevelCounts RiskLevelCounts `json:"risk_level_counts"`
	AverageScore    float64         `json:"average_score"`
	TimeSeries      []TimeBucket    `json:"time_series"`
}

type AggregateOptions struct {
	Resolution Resolution
	// Location for calendar bucketing; UTC when nil.
	Location *time.Location
}

// Aggregate folds already computed results into dashboard statistics; scores
// are read from the results, never recomputed.
func Aggregate(results []models.AssessmentResult, opts AggregateOptions) Summary {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	sum := Summary{Total: len(results), TimeSeries: []TimeBucket{}}
	type acc struct {
		start time.Time
		n     int
		total float64
	}
	buckets := map[int64]*acc{}
	var total float64
	for _, r := range results {
		switch r.RiskLevel {
		case models.RiskLow:
			sum.RiskLevelCounts.Low++
		case models.RiskModerate:
			sum.RiskLevelCounts.Moderate++
		case models.RiskHigh:
			sum.RiskLevelCounts.High++
		}
		total += r.PercentageScore

		start := bucketStart(r.CompletedAt.In(loc), opts.Resolution)
		b := buckets[start.Unix()]
		if b == nil {
			b = &acc{start: start}
			buckets[start.Unix()] = b
		}
		b.n++
		b.total += r.PercentageScore
	}
	if len(results) > 0 {
		sum.AverageScore = total / float64(len(results))
	}
	keys := make([]int64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		b := buckets[k]
		sum.TimeSeries = append(sum.TimeSeries, TimeBucket{
			Date:         b.start.Format("2006-01-02"),
			Start:        b.start,
			Assessments:  b.n,
			AverageScore: b.total / float64(b.n),
		})
	}
	return sum
}

// Weeks start on Monday.
func bucketStart(t time.Time, res Resolution) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	switch res {
	case ByWeek:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case ByMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	}
	return day
}

// FilterSince keeps results completed at or after cutoff, preserving order.
func FilterSince(results []models.AssessmentResult, cutoff time.Time) []models.AssessmentResult {
	out := make([]models.AssessmentResult, 0, len(results))
	for _, r := range results {
		if !r.CompletedAt.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// ScoreBands counts breakdown entries by their score normalized to 0..10:
// high from 8, medium from 5, low below. Unscored entries are skipped.
func ScoreBands(breakdown []models.ScoreBreakdown) ScoreBandCounts {
	var out ScoreBandCounts
	for _, b := range breakdown {
		if b.MaxPossibleScore <= 0 {
			continue
		}
		normalized := b.Score / b.MaxPossibleScore * 10
		switch {
		case normalized >= 8:
			out.High++
		case normalized >= 5:
			out.Medium++
		default:
			out.Low++
		}
	}
	return out
}

// QuestionConsistency computes Cronbach's alpha over per-question percentages
// of the given results. Only scored questions are used, and only results that
// carry every one of them. It returns alpha and the number of results used.
func QuestionConsistency(results []models.AssessmentResult) (float64, int) {
	ids := map[string]struct{}{}
	for _, r := range results {
		for _, b := range r.Breakdown {
			if b.MaxPossibleScore > 0 {
				ids[b.QuestionID] = struct{}{}
			}
		}
	}
	cols := make([]string, 0, len(ids))
	for id := range ids {
		cols = append(cols, id)
	}
	sort.Strings(cols)

	matrix := make([][]float64, 0, len(results))
	for _, r := range results {
		byID := make(map[string]float64, len(r.Breakdown))
		for _, b := range r.Breakdown {
			if b.MaxPossibleScore > 0 {
				byID[b.QuestionID] = b.Percentage
			}
		}
		row := make([]float64, 0, len(cols))
		for _, id := range cols {
			v, ok := byID[id]
			if !ok {
				break
			}
			row = append(row, v)
		}
		if len(row) == len(cols) {
			matrix = append(matrix, row)
		}
	}
	return CronbachAlpha(matrix), len(matrix)
}
