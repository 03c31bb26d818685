package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/soaringjerry/medscore/internal/catalog"
	"github.com/soaringjerry/medscore/internal/models"
	"github.com/soaringjerry/medscore/internal/services"
)

func scoreCmd() *cobra.Command {
	var (
		formID     string
		respPath   string
		catalogDir string
		asJSON     bool
		keepHidden bool
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a responses file against a catalog form",
		Long: `Score a YAML or JSON responses file against a catalog form.

The file is either a mapping of question id to answer:

  q1: good
  q2: 4
  q3: "true"

or a list of {question_id, value} entries. Answers to questions hidden by
conditional logic are dropped unless --keep-hidden is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(catalogDir)
			if err != nil {
				return err
			}
			form, ok := cat.Get(formID)
			if !ok {
				return fmt.Errorf("form %q not in catalog", formID)
			}
			data, err := os.ReadFile(respPath)
			if err != nil {
				return fmt.Errorf("read responses: %w", err)
			}
			answers, err := parseResponsesFile(form, data)
			if err != nil {
				return err
			}
			if !keepHidden {
				visible := services.VisibleSet(form.Questions, answers)
				for qid := range answers {
					if !visible[qid] {
						delete(answers, qid)
					}
				}
			}
			result := services.CalculateAssessmentResult(form.Questions, answers.Responses(form.Questions))
			result.FormID = form.ID

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			printResult(out, form, result)
			return nil
		},
	}
	cmd.Flags().StringVar(&formID, "form", "", "catalog form id")
	cmd.Flags().StringVar(&respPath, "responses", "", "responses file (yaml or json)")
	cmd.Flags().StringVar(&catalogDir, "catalog", "", "catalog directory (embedded forms when empty)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&keepHidden, "keep-hidden", false, "score answers to hidden questions too")
	_ = cmd.MarkFlagRequired("form")
	_ = cmd.MarkFlagRequired("responses")
	return cmd
}

// parseResponsesFile decodes a responses document and checks every answer
// against its question the same way the session API does.
func parseResponsesFile(form *models.Form, data []byte) (models.ResponseSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode responses: %w", err)
	}
	var list []models.Response
	if len(doc.Content) > 0 {
		switch root := doc.Content[0]; root.Kind {
		case yaml.MappingNode:
			var m map[string]models.Value
			if err := root.Decode(&m); err != nil {
				return nil, fmt.Errorf("decode responses: %w", err)
			}
			for qid, v := range m {
				list = append(list, models.Response{QuestionID: qid, Value: v})
			}
		case yaml.SequenceNode:
			if err := root.Decode(&list); err != nil {
				return nil, fmt.Errorf("decode responses: %w", err)
			}
		default:
			return nil, fmt.Errorf("line %d: responses must be a mapping or a list", root.Line)
		}
	}

	set := models.ResponseSet{}
	var errs []string
	for _, r := range list {
		q, _ := form.Question(r.QuestionID)
		if q == nil {
			errs = append(errs, fmt.Sprintf("%s: unknown question", r.QuestionID))
			continue
		}
		if _, seen := set[r.QuestionID]; seen {
			continue
		}
		// Bare YAML scalars come typed (true -> bool, 1 -> number); only scale
		// and date answers keep that typing.
		if q.Type != models.TypeScale && q.Type != models.TypeDate && !r.Value.IsNone() {
			r.Value = models.StringValue(r.Value.String())
		}
		raw, err := json.Marshal(r.Value)
		if err != nil {
			return nil, err
		}
		v, err := models.ParseResponse(q, raw)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if !v.IsNone() {
			set[r.QuestionID] = v
		}
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return nil, fmt.Errorf("invalid responses:\n  %s", strings.Join(errs, "\n  "))
	}
	return set, nil
}

func printResult(w io.Writer, form *models.Form, r models.AssessmentResult) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	cyan.Fprintf(w, "\n=== %s ===\n\n", form.Title)
	for _, b := range r.Breakdown {
		if b.MaxPossibleScore == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-8s %6.2f / %-6.2f %s\n", b.QuestionID, b.Score, b.MaxPossibleScore, b.QuestionText)
	}
	fmt.Fprintf(w, "\n  Total: %.2f / %.2f (%.1f%%)\n", r.TotalScore, r.MaxPossibleScore, r.PercentageScore)
	fmt.Fprintf(w, "  Risk:  ")
	switch r.RiskLevel {
	case models.RiskLow:
		green.Fprintln(w, r.RiskLevel)
	case models.RiskModerate:
		yellow.Fprintln(w, r.RiskLevel)
	default:
		red.Fprintln(w, r.RiskLevel)
	}
}

func validateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate catalog forms",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			green := color.New(color.FgGreen)
			red := color.New(color.FgRed)

			if dir == "" {
				cat, err := catalog.Load("")
				if err != nil {
					red.Fprintf(out, "FAIL embedded catalog: %v\n", err)
					return err
				}
				for _, f := range cat.Forms() {
					green.Fprintf(out, "OK   %s (%d questions)\n", f.ID, len(f.Questions))
				}
				return nil
			}

			entries, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("read catalog: %w", err)
			}
			failed := 0
			for _, e := range entries {
				name := e.Name()
				if e.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
					continue
				}
				data, err := os.ReadFile(filepath.Join(dir, name))
				if err != nil {
					return err
				}
				f, err := catalog.Parse(data)
				if err != nil {
					failed++
					red.Fprintf(out, "FAIL %s: %v\n", name, err)
					continue
				}
				green.Fprintf(out, "OK   %s: %s (%d questions)\n", name, f.ID, len(f.Questions))
			}
			if failed > 0 {
				return fmt.Errorf("%d invalid form(s)", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "catalog", "", "catalog directory (embedded forms when empty)")
	return cmd
}
