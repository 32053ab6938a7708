package handlers

import (
	"time"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "fieldtrend/internal/db"
)

// Aggregates change at most once per aggregation run, so data reads are
// cacheable for a few minutes.
const dataCacheControl = "public, max-age=300"

// FieldsHandler returns the project's known field set as {"fields": [...]}.
// The set reflects every field ever ingested, whether or not aggregates
// currently exist for it.
func FieldsHandler(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		slug, _ := ctx.UserValue("slug").(string)
		prj, err := dbpkg.GetProjectBySlug(db, slug)
		if err != nil {
			storeError(ctx, err)
			return
		}

		fields := prj.FieldNames
		if fields == nil {
			fields = []string{}
		}
		ctx.Response.Header.Set("Cache-Control", dataCacheControl)
		jsonResponse(ctx, map[string]any{"fields": fields})
	}
}

// SeriesHandler returns the pre-aggregated daily series of one field as a
// JSON array of [date, [min, median, max]] tuples sorted by date. Optional
// start_date/end_date query parameters (YYYY-MM-DD) bound the range; the
// default window is the week ending today. Days without traffic are absent
// from the result.
func SeriesHandler(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		slug, _ := ctx.UserValue("slug").(string)
		field, _ := ctx.UserValue("field").(string)

		prj, err := dbpkg.GetProjectBySlug(db, slug)
		if err != nil {
			storeError(ctx, err)
			return
		}

		now := time.Now()
		startDate := string(ctx.QueryArgs().Peek("start_date"))
		if startDate == "" {
			startDate = now.AddDate(0, 0, -7).Format(dbpkg.ISODate)
		}
		endDate := string(ctx.QueryArgs().Peek("end_date"))
		if endDate == "" {
			endDate = now.Format(dbpkg.ISODate)
		}

		series, err := dbpkg.QuerySeries(db, prj, field, startDate, endDate)
		if err != nil {
			storeError(ctx, err)
			return
		}

		rows := make([]any, 0, len(series))
		for _, e := range series {
			rows = append(rows, []any{e.Date, []float64{e.Min, e.Median, e.Max}})
		}
		ctx.Response.Header.Set("Cache-Control", dataCacheControl)
		jsonResponse(ctx, rows)
	}
}
