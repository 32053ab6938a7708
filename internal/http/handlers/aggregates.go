package handlers

import (
	"errors"
	"time"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "fieldtrend/internal/db"
)

// UpdateAggregates is the internal aggregation trigger. Optional form
// values select a single project and a target date; with no project every
// registered project is recomputed, and with no date the run covers
// yesterday. The rebuild is clear-and-replace, so retrying a failed run
// (or running it twice) is always safe.
func UpdateAggregates(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		date := string(ctx.PostArgs().Peek("date"))
		if date == "" {
			date = dbpkg.Yesterday(time.Now())
		}
		if _, err := dbpkg.ParseISODate(date); err != nil {
			storeError(ctx, err)
			return
		}

		aggregationRuns.Inc()

		slug := string(ctx.PostArgs().Peek("project"))
		var err error
		if slug == "" {
			err = dbpkg.RecomputeAll(db, date)
		} else {
			var prj *dbpkg.Project
			prj, err = dbpkg.GetProjectBySlug(db, slug)
			if err == nil {
				err = dbpkg.RecomputeProject(db, prj, date)
			}
		}

		if err != nil {
			if errors.Is(err, dbpkg.ErrNotFound) || dbpkg.IsValidation(err) {
				errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
				return
			}
			aggregationErrors.Inc()
			errResponse(ctx, fasthttp.StatusInternalServerError, "aggregation failed")
			return
		}

		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	}
}
