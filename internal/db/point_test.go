package db

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func seedPoint(t *testing.T, db *gorm.DB, prj *Project, ts time.Time, fields map[string]float64) {
	t.Helper()

	attrs := datatypes.JSONMap{}
	names := make([]string, 0, len(fields))
	for k, v := range fields {
		attrs[k] = v
		names = append(names, k)
	}
	require.NoError(t, db.Create(&DataPoint{
		ProjectID:  prj.ID,
		Timestamp:  ts,
		RemoteAddr: "127.0.0.1",
		Fields:     attrs,
	}).Error)
	require.NoError(t, RecordFieldUsage(db, prj, names))
}

func TestInsertPoint(t *testing.T) {
	db := newTestDB(t)
	prj, err := CreateProject(db, "shop", "Shop", "k")
	require.NoError(t, err)

	before := time.Now()
	point, err := InsertPoint(db, prj, "10.0.0.1:1234", map[string]float64{
		"orders":  12,
		"revenue": 440.5,
	})
	require.NoError(t, err)

	assert.False(t, point.Timestamp.Before(before), "timestamp is assigned at ingest")
	assert.Equal(t, "10.0.0.1:1234", point.RemoteAddr)

	// Every submitted field name must show up on the project.
	reloaded, err := GetProjectBySlug(db, "shop")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"orders", "revenue"}, []string(reloaded.FieldNames))
}

func TestInsertPointRejectsEmpty(t *testing.T) {
	db := newTestDB(t)
	prj, err := CreateProject(db, "shop", "Shop", "k")
	require.NoError(t, err)

	_, err = InsertPoint(db, prj, "10.0.0.1:1234", map[string]float64{})
	assert.True(t, IsValidation(err))
}

func TestInsertPointRejectsNonFiniteValues(t *testing.T) {
	db := newTestDB(t)
	prj, err := CreateProject(db, "shop", "Shop", "k")
	require.NoError(t, err)

	for name, bad := range map[string]float64{
		"nan":    math.NaN(),
		"posinf": math.Inf(1),
		"neginf": math.Inf(-1),
	} {
		_, err := InsertPoint(db, prj, "10.0.0.1:1234", map[string]float64{
			"good": 1,
			name:   bad,
		})
		assert.True(t, IsValidation(err), "%s must be rejected", name)
	}

	// All-or-nothing: the valid field of a rejected point is not stored.
	var count int64
	require.NoError(t, db.Model(&DataPoint{}).Count(&count).Error)
	assert.Zero(t, count)

	reloaded, err := GetProjectBySlug(db, "shop")
	require.NoError(t, err)
	assert.Empty(t, reloaded.FieldNames)
}

func TestQueryRange(t *testing.T) {
	db := newTestDB(t)
	prj, err := CreateProject(db, "shop", "Shop", "k")
	require.NoError(t, err)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	seedPoint(t, db, prj, day.Add(15*time.Hour), map[string]float64{"orders": 3})
	seedPoint(t, db, prj, day.Add(2*time.Hour), map[string]float64{"orders": 1})
	seedPoint(t, db, prj, day.Add(9*time.Hour), map[string]float64{"revenue": 80})
	seedPoint(t, db, prj, day.AddDate(0, 0, 2), map[string]float64{"orders": 7})

	obs, err := QueryRange(db, prj, "orders", "2026-03-10", "2026-03-11")
	require.NoError(t, err)

	// Ascending by timestamp; the revenue-only point and the out-of-range
	// point are excluded.
	require.Len(t, obs, 2)
	assert.Equal(t, 1.0, obs[0].Value)
	assert.Equal(t, 3.0, obs[1].Value)
	assert.True(t, obs[0].Timestamp.Before(obs[1].Timestamp))
}

func TestQueryRangeValidatesDates(t *testing.T) {
	db := newTestDB(t)
	prj, err := CreateProject(db, "shop", "Shop", "k")
	require.NoError(t, err)

	_, err = QueryRange(db, prj, "orders", "2026-13-40", "2026-03-11")
	assert.True(t, IsValidation(err))

	_, err = QueryRange(db, prj, "orders", "2026-03-12", "2026-03-11")
	assert.True(t, IsValidation(err), "start after end is a validation error")
}

func TestListRecentPoints(t *testing.T) {
	db := newTestDB(t)
	prj, err := CreateProject(db, "shop", "Shop", "k")
	require.NoError(t, err)

	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)
	for i := 0; i < 5; i++ {
		seedPoint(t, db, prj, base.Add(time.Duration(i)*time.Minute), map[string]float64{"orders": float64(i)})
	}

	points, err := ListRecentPoints(db, prj, 3)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.True(t, points[0].Timestamp.After(points[1].Timestamp))
}
