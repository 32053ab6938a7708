package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"gorm.io/datatypes"

	dbpkg "fieldtrend/internal/db"
)

func newTriggerCtx(body string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(fasthttp.MethodPost)
	ctx.Request.Header.SetContentType("application/x-www-form-urlencoded")
	ctx.Request.SetRequestURI("/internal/aggregates/update")
	ctx.Request.SetBodyString(body)
	return ctx
}

func TestUpdateAggregatesForProjectAndDate(t *testing.T) {
	db := newTestDB(t)
	prj, err := dbpkg.CreateProject(db, "shop", "Shop", "secret")
	require.NoError(t, err)

	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	require.NoError(t, db.Create(&dbpkg.DataPoint{
		ProjectID: prj.ID,
		Timestamp: day,
		Fields:    datatypes.JSONMap{"orders": 5.0},
	}).Error)
	require.NoError(t, dbpkg.RecordFieldUsage(db, prj, []string{"orders"}))

	ctx := newTriggerCtx("project=shop&date=2026-03-10")
	UpdateAggregates(db)(ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	series, err := dbpkg.QuerySeries(db, prj, "orders", "2026-03-10", "2026-03-10")
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 5.0, series[0].Median)
}

func TestUpdateAggregatesDefaultsToYesterday(t *testing.T) {
	db := newTestDB(t)
	prj, err := dbpkg.CreateProject(db, "shop", "Shop", "secret")
	require.NoError(t, err)

	yesterday := time.Now().AddDate(0, 0, -1)
	require.NoError(t, db.Create(&dbpkg.DataPoint{
		ProjectID: prj.ID,
		Timestamp: yesterday,
		Fields:    datatypes.JSONMap{"orders": 2.0},
	}).Error)
	require.NoError(t, dbpkg.RecordFieldUsage(db, prj, []string{"orders"}))

	ctx := newTriggerCtx("")
	UpdateAggregates(db)(ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	date := yesterday.Format(dbpkg.ISODate)
	series, err := dbpkg.QuerySeries(db, prj, "orders", date, date)
	require.NoError(t, err)
	assert.Len(t, series, 1)
}

func TestUpdateAggregatesMalformedDate(t *testing.T) {
	db := newTestDB(t)

	ctx := newTriggerCtx("date=garbage")
	UpdateAggregates(db)(ctx)

	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestUpdateAggregatesUnknownProject(t *testing.T) {
	db := newTestDB(t)

	ctx := newTriggerCtx("project=ghost&date=2026-03-10")
	UpdateAggregates(db)(ctx)

	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}
