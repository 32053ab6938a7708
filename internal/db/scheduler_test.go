package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregationQueueDropsWhenFull(t *testing.T) {
	q := NewAggregationQueue(1)

	assert.True(t, q.Enqueue(AggregationTask{Slug: "one", Date: "2026-03-10"}))
	assert.False(t, q.Enqueue(AggregationTask{Slug: "two", Date: "2026-03-10"}),
		"a full queue drops instead of blocking the ingest path")
}

func TestRunTaskSingleProject(t *testing.T) {
	db := newTestDB(t)
	prj, err := CreateProject(db, "shop", "Shop", "k")
	require.NoError(t, err)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	seedPoint(t, db, prj, day.Add(time.Hour), map[string]float64{"a": 1})

	require.NoError(t, runTask(db, AggregationTask{Slug: "shop", Date: "2026-03-10"}))
	assert.NotNil(t, loadAggregate(t, db, AggregateKey{"shop", "a", "2026-03-10"}))
}

func TestRunTaskAllProjects(t *testing.T) {
	db := newTestDB(t)
	prj, err := CreateProject(db, "shop", "Shop", "k")
	require.NoError(t, err)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	seedPoint(t, db, prj, day.Add(time.Hour), map[string]float64{"a": 1})

	require.NoError(t, runTask(db, AggregationTask{Date: "2026-03-10"}))
	assert.NotNil(t, loadAggregate(t, db, AggregateKey{"shop", "a", "2026-03-10"}))
}

func TestRunTaskUnknownProject(t *testing.T) {
	db := newTestDB(t)

	err := runTask(db, AggregationTask{Slug: "ghost", Date: "2026-03-10"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestYesterday(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 30, 0, 0, time.Local)
	assert.Equal(t, "2026-03-09", Yesterday(now))
}
