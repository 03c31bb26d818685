package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultService(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	seedResults(t, store, "f1", now)
	svc := NewResultService(store)

	all, err := svc.List(ctx, "f1", time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	recent, err := svc.List(ctx, "f1", now.AddDate(0, 0, -2))
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	r, err := svc.Get(ctx, all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "f1", r.FormID)

	_, err = svc.Get(ctx, "missing")
	assert.True(t, IsNotFound(err))
}
