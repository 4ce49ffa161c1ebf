package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db := NewDB(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndGet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	run := &Run{
		ID:               "a1b2",
		Dir:              "/scratch/iter-01",
		Status:           "ok",
		Iteration:        1,
		StepsPerSecond:   29656.8,
		TotalWallSeconds: 1,
		FinalEnergy:      -8.2441,
		Warnings:         1,
		CreatedAt:        time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Record(ctx, run))

	got, err := db.Get(ctx, "a1b2")
	require.NoError(t, err)
	assert.Equal(t, run.Dir, got.Dir)
	assert.Equal(t, run.Status, got.Status)
	assert.Equal(t, run.StepsPerSecond, got.StepsPerSecond)
	assert.Equal(t, run.FinalEnergy, got.FinalEnergy)
	assert.True(t, got.CreatedAt.Equal(run.CreatedAt))

	_, err = db.Get(ctx, "nope")
	require.Error(t, err)
}

func TestRecordRejectsDuplicateID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Record(ctx, &Run{ID: "dup", Dir: "a", Status: "ok"}))
	require.Error(t, db.Record(ctx, &Run{ID: "dup", Dir: "b", Status: "ok"}))
}

func TestListNewestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		require.NoError(t, db.Record(ctx, &Run{
			ID:        id,
			Dir:       "/scratch/" + id,
			Status:    "ok",
			Iteration: i + 1,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := db.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "third", runs[0].ID)
	assert.Equal(t, "first", runs[2].ID)

	runs, err = db.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "third", runs[0].ID)
}

func TestInMemory(t *testing.T) {
	db := NewDB(":memory:")
	require.NoError(t, db.Open())
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.Record(ctx, &Run{ID: "x", Dir: ".", Status: "incomplete"}))
	got, err := db.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "incomplete", got.Status)
}
