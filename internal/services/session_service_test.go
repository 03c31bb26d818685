package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/medscore/internal/models"
)

// screeningForm has a follow-up shown only to smokers.
func screeningForm() *models.Form {
	return &models.Form{
		ID:     "screen",
		Title:  "Screening",
		Status: models.FormPublished,
		Questions: []models.Question{
			{ID: "intro", Type: models.TypeHeading, Text: "About you"},
			{ID: "smoker", Type: models.TypeBoolean, Required: true, Options: []models.Option{
				{Value: "true", Label: "Yes", Score: 1}, {Value: "false", Label: "No", Score: 0},
			}},
			{ID: "packs", Type: models.TypeScale, Required: true, MinValue: intp(0), MaxValue: intp(5), ConditionalLogic: &models.ConditionalLogic{
				Enabled:    true,
				Conditions: []models.Condition{{QuestionID: "smoker", Operator: models.OpEquals, Value: models.StringValue("true")}},
			}},
			{ID: "sleep", Type: models.TypeScale, MinValue: intp(0), MaxValue: intp(10)},
		},
	}
}

func newTestSessionService(t *testing.T, policy HiddenPolicy) (*SessionService, *stubStore) {
	t.Helper()
	store := newStubStore()
	require.NoError(t, store.InsertForm(context.Background(), screeningForm()))
	return NewSessionService(store, policy), store
}

func TestSessionService_StartRequiresPublished(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestSessionService(t, HiddenDrop)

	_, err := svc.Start(ctx, "nope")
	requireCode(t, err, ErrorNotFound)

	draft := screeningForm()
	draft.ID = "draft"
	draft.Status = models.FormDraft
	require.NoError(t, store.InsertForm(ctx, draft))
	_, err = svc.Start(ctx, "draft")
	requireCode(t, err, ErrorConflict)

	st, err := svc.Start(ctx, "screen")
	require.NoError(t, err)
	assert.Equal(t, []string{"intro", "smoker", "sleep"}, st.Visible)
	assert.Equal(t, Progress{Answered: 0, Total: 2, Percent: 0}, st.Progress)
}

func TestSessionService_AnswerRederivesVisibility(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestSessionService(t, HiddenDrop)
	st, err := svc.Start(ctx, "screen")
	require.NoError(t, err)
	id := st.Session.ID

	_, err = svc.Answer(ctx, id, "packs", json.RawMessage(`3`))
	requireCode(t, err, ErrorConflict)

	st, err = svc.Answer(ctx, id, "smoker", json.RawMessage(`"true"`))
	require.NoError(t, err)
	assert.Contains(t, st.Visible, "packs")
	assert.Equal(t, 1, st.Progress.Answered)
	assert.Equal(t, 3, st.Progress.Total)

	_, err = svc.Answer(ctx, id, "packs", json.RawMessage(`9`))
	requireCode(t, err, ErrorInvalid)
	st, err = svc.Answer(ctx, id, "packs", json.RawMessage(`4`))
	require.NoError(t, err)
	assert.Equal(t, 2, st.Progress.Answered)

	_, err = svc.Answer(ctx, id, "ghost", json.RawMessage(`1`))
	requireCode(t, err, ErrorNotFound)

	st, err = svc.Answer(ctx, id, "smoker", json.RawMessage(`"false"`))
	require.NoError(t, err)
	assert.NotContains(t, st.Visible, "packs")
	assert.Equal(t, 1, st.Progress.Answered)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.NumberValue(4), got.Session.Responses.Get("packs"), "hidden answers are kept in the session")

	st, err = svc.Answer(ctx, id, "smoker", json.RawMessage(`null`))
	require.NoError(t, err)
	assert.True(t, st.Session.Responses.Get("smoker").IsNone())
}

func TestSessionService_CompleteChecksRequired(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestSessionService(t, HiddenDrop)
	st, err := svc.Start(ctx, "screen")
	require.NoError(t, err)
	_, err = svc.Answer(ctx, st.Session.ID, "smoker", json.RawMessage(`"true"`))
	require.NoError(t, err)

	_, err = svc.Complete(ctx, st.Session.ID)
	requireCode(t, err, ErrorInvalid)
	se, _ := AsServiceError(err)
	require.Len(t, se.Details, 1)
	assert.Equal(t, "packs", se.Details[0].QuestionID)
}

func TestSessionService_CompleteHiddenPolicy(t *testing.T) {
	for _, tc := range []struct {
		policy HiddenPolicy
		total  float64
	}{
		// sleep 5 of 10; packs 4 of 5 rescales to 8 when kept.
		{HiddenDrop, 5},
		{HiddenKeep, 13},
	} {
		t.Run(string(tc.policy), func(t *testing.T) {
			ctx := context.Background()
			svc, store := newTestSessionService(t, tc.policy)
			var observed []string
			svc.OnComplete(func(formID string, r models.AssessmentResult) { observed = append(observed, formID) })

			st, err := svc.Start(ctx, "screen")
			require.NoError(t, err)
			id := st.Session.ID
			for _, a := range []struct{ q, raw string }{
				{"smoker", `"true"`}, {"packs", `4`}, {"smoker", `"false"`}, {"sleep", `5`},
			} {
				_, err = svc.Answer(ctx, id, a.q, json.RawMessage(a.raw))
				require.NoError(t, err)
			}

			res, err := svc.Complete(ctx, id)
			require.NoError(t, err)
			assert.InDelta(t, tc.total, res.TotalScore, 1e-9)
			assert.Equal(t, 21.0, res.MaxPossibleScore)
			assert.Equal(t, "screen", res.FormID)
			assert.Equal(t, id, res.SessionID)
			assert.NotEmpty(t, res.ID)
			assert.Len(t, res.Breakdown, 4)
			assert.Equal(t, []string{"screen"}, observed)

			stored, err := store.GetResult(ctx, res.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			_, err = svc.Get(ctx, id)
			requireCode(t, err, ErrorNotFound)
		})
	}
}

func TestParseHiddenPolicy(t *testing.T) {
	assert.Equal(t, HiddenKeep, ParseHiddenPolicy("keep"))
	assert.Equal(t, HiddenDrop, ParseHiddenPolicy("drop"))
	assert.Equal(t, HiddenDrop, ParseHiddenPolicy(""))
}
