package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/medscore/internal/config"
	"github.com/soaringjerry/medscore/internal/db"
	"github.com/soaringjerry/medscore/internal/services"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestScoreCommand(t *testing.T) {
	dir := t.TempDir()
	resp := writeFile(t, dir, "answers.yaml", "smoker: false\npain: 3\nsleep: good\npacks: 2\n")

	out, err := run(t, "score", "--form", "conditional-followup", "--responses", resp, "--json")
	require.NoError(t, err)
	var r map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, 3.0, r["total_score"], "packs is hidden while smoker is false")
	assert.Equal(t, 26.0, r["max_possible_score"])
	assert.Equal(t, "high", r["risk_level"])

	out, err = run(t, "score", "--form", "conditional-followup", "--responses", resp, "--json", "--keep-hidden")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, 7.0, r["total_score"], "2 on a 0..5 scale counts as 4")
}

func TestScoreCommandListAndText(t *testing.T) {
	dir := t.TempDir()
	resp := writeFile(t, dir, "answers.json",
		`[{"question_id": "smoker", "value": "true"}, {"question_id": "packs", "value": 5},
		  {"question_id": "pain", "value": 10}, {"question_id": "pain_location", "value": "back"},
		  {"question_id": "sleep", "value": "poor"}]`)

	out, err := run(t, "score", "--form", "conditional-followup", "--responses", resp)
	require.NoError(t, err)
	assert.Contains(t, out, "Symptom Follow-up")
	assert.Contains(t, out, "Total: 25.00 / 26.00")
	assert.Contains(t, out, "Risk:  low")
}

func TestScoreCommandRejectsBadAnswers(t *testing.T) {
	dir := t.TempDir()
	resp := writeFile(t, dir, "answers.yaml", "sleep: terrible\npain: 42\nghost: 1\n")

	_, err := run(t, "score", "--form", "conditional-followup", "--responses", resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown option")
	assert.Contains(t, err.Error(), "between 0 and 10")
	assert.Contains(t, err.Error(), "ghost: unknown question")

	_, err = run(t, "score", "--form", "nope", "--responses", resp)
	assert.ErrorContains(t, err, "not in catalog")
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "general-health (20 questions)")

	dir := t.TempDir()
	writeFile(t, dir, "ok.yaml", "id: ok\ntitle: OK\nquestions:\n  - {id: a, type: text, text: A}\n")
	writeFile(t, dir, "bad.yaml", "id: bad\ntitle: Bad\nquestions:\n  - {id: a, type: scale, text: A, min_value: 5, max_value: 5}\n")
	out, err = run(t, "validate", "--catalog", dir)
	require.Error(t, err)
	assert.Contains(t, out, "OK   ok.yaml")
	assert.Contains(t, out, "FAIL bad.yaml")
}

func TestMigrateCommandSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "medscore.db")
	t.Setenv("MEDSCORE_STORE", "sqlite")
	t.Setenv("MEDSCORE_SQLITE_PATH", path)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 2 migration(s)")

	out, err = run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 0 migration(s)")
}

func TestImportCatalogKeepsExistingForms(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	forms := services.NewFormService(store)

	require.NoError(t, importCatalog(ctx, forms, "", zerolog.Nop()))
	all, err := forms.ListForms(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = forms.UpdateDetails(ctx, "general-health", "Edited", "")
	require.NoError(t, err)
	require.NoError(t, importCatalog(ctx, forms, "", zerolog.Nop()))
	f, err := forms.GetForm(ctx, "general-health")
	require.NoError(t, err)
	assert.Equal(t, "Edited", f.Title)
}

func TestOpenStoreMemory(t *testing.T) {
	store, err := openStore(context.Background(), &config.Config{Store: "memory"}, zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()
	_, ok := store.(*db.MemoryStore)
	assert.True(t, ok)
}
