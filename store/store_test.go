package store_test

import (
	"context"
	"testing"

	"github.com/pipeintel/ilialign/core"
	"github.com/pipeintel/ilialign/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeaturesByRunPreservesInsertionOrder(t *testing.T) {
	s := store.New()
	ctx := context.Background()

	require.NoError(t, s.InsertFeatures(ctx, []*core.Feature{
		{ID: "f1", RunID: "run-2020", RowIndex: 1},
		{ID: "f2", RunID: "run-2020", RowIndex: 2},
		{ID: "f3", RunID: "run-2020", RowIndex: 3},
	}))

	got, err := s.FeaturesByRun(ctx, "run-2020")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "f1", got[0].ID)
	assert.Equal(t, "f2", got[1].ID)
	assert.Equal(t, "f3", got[2].ID)
}

func TestBulkUpdateFeatureDistancesSkipsUnknownIDs(t *testing.T) {
	s := store.New()
	ctx := context.Background()
	require.NoError(t, s.InsertFeatures(ctx, []*core.Feature{{ID: "f1", RunID: "run-a"}}))

	err := s.BulkUpdateFeatureDistances(ctx, map[string]float64{
		"f1":      42.5,
		"missing": 1.0,
	}, 1000)
	require.NoError(t, err)

	got, err := s.FeaturesByRun(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].CorrectedDistanceFt)
	assert.InDelta(t, 42.5, *got[0].CorrectedDistanceFt, 1e-9)
}

func TestJobStatusAndStageStatusRoundTrip(t *testing.T) {
	s := store.New()
	ctx := context.Background()

	job := &core.Job{ID: "job-1", Status: core.JobPending}
	require.NoError(t, s.UpsertJob(ctx, job))

	require.NoError(t, s.AppendStageStatus(ctx, "job-1", core.StageStatus{Stage: 1, Name: "ingest", Status: core.StageRunning}))
	require.NoError(t, s.UpdateJobStatus(ctx, "job-1", core.JobRunning, 1, 0.1, ""))

	got, err := s.JobByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, core.JobRunning, got.Status)
	assert.Equal(t, 1, got.CurrentStage)
	require.Len(t, got.StageStatus, 1)
	assert.Equal(t, "ingest", got.StageStatus[0].Name)
}

func TestJobByIDMissingReturnsErrNotFound(t *testing.T) {
	s := store.New()
	_, err := s.JobByID(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInsertMatchedPairsAndExceptionsByJob(t *testing.T) {
	s := store.New()
	ctx := context.Background()

	require.NoError(t, s.InsertMatchedPairs(ctx, "job-1", []*core.MatchedPair{{ID: "m1", JobID: "job-1"}}, 1000))
	require.NoError(t, s.InsertExceptions(ctx, "job-1", []*core.Exception{{ID: "e1", JobID: "job-1", Category: core.ExcUnmatched}}, 1000))

	pairs, err := s.MatchedPairsByJob(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	excs, err := s.ExceptionsByJob(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, excs, 1)
	assert.Equal(t, core.ExcUnmatched, excs[0].Category)
}
