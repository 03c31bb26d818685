package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/soaringjerry/medscore/internal/models"
)

// LongRow is one breakdown entry of one result.
type LongRow struct {
	ResultID    string
	CompletedAt time.Time
	QuestionID  string
	Score       float64
	MaxScore    float64
	Percentage  float64
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ExportLongCSV renders one line per result and question.
func ExportLongCSV(rows []LongRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"result_id", "completed_at", "question_id", "score", "max_possible_score", "percentage"})
	for _, r := range rows {
		rec := []string{
			r.ResultID,
			formatTime(r.CompletedAt),
			r.QuestionID,
			formatFloat(r.Score),
			formatFloat(r.MaxScore),
			formatFloat(r.Percentage),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportWideCSV renders one line per result with a score column per question,
// in the order of questionIDs. Questions missing from a result stay empty.
func ExportWideCSV(questionIDs []string, results []models.AssessmentResult) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"result_id", "completed_at", "total_score", "max_possible_score", "percentage_score", "risk_level"}
	header = append(header, questionIDs...)
	_ = w.Write(header)
	for _, r := range results {
		scores := make(map[string]float64, len(r.Breakdown))
		for _, b := range r.Breakdown {
			scores[b.QuestionID] = b.Score
		}
		row := make([]string, 0, len(header))
		row = append(row,
			r.ID,
			formatTime(r.CompletedAt),
			formatFloat(r.TotalScore),
			formatFloat(r.MaxPossibleScore),
			formatFloat(r.PercentageScore),
			string(r.RiskLevel),
		)
		for _, id := range questionIDs {
			if v, ok := scores[id]; ok {
				row = append(row, formatFloat(v))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportQuestionsCSV renders the question definitions of a form for review.
func ExportQuestionsCSV(questions []models.Question) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"question_id", "position", "type", "required", "text", "min", "max", "options", "depends_on", "show_when"})
	for i, q := range questions {
		var min, max string
		if q.Type == models.TypeScale {
			lo, hi := q.Bounds()
			min, max = strconv.Itoa(lo), strconv.Itoa(hi)
		}
		opts := make([]string, 0, len(q.Options))
		for _, o := range q.Options {
			opts = append(opts, o.Value+"="+formatFloat(o.Score))
		}
		showWhen := ""
		if q.HasConditions() {
			showWhen = string(q.ConditionalLogic.Combinator())
		}
		rec := []string{
			q.ID,
			strconv.Itoa(i + 1),
			string(q.Type),
			strconv.FormatBool(q.Required),
			q.Text,
			min, max,
			strings.Join(opts, " | "),
			strings.Join(q.ParentQuestionIDs(), " | "),
			showWhen,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
