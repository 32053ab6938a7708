package handlers

import (
	"crypto/subtle"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "fieldtrend/internal/db"
)

var (
	pointsIngested    *prometheus.CounterVec
	pointsRejected    *prometheus.CounterVec
	aggregationRuns   prometheus.Counter
	aggregationErrors prometheus.Counter
)

func InitPrometheusMetrics() {
	pointsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fieldtrend",
			Name:      "points_ingested_total",
			Help:      "Total number of accepted data points.",
		},
		[]string{"project"},
	)
	pointsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fieldtrend",
			Name:      "points_rejected_total",
			Help:      "Total number of rejected ingest requests.",
		},
		[]string{"reason"},
	)
	aggregationRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fieldtrend",
			Name:      "aggregation_runs_total",
			Help:      "Total number of triggered aggregation runs.",
		},
	)
	aggregationErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fieldtrend",
			Name:      "aggregation_errors_total",
			Help:      "Total number of failed aggregation runs.",
		},
	)
	prometheus.MustRegister(pointsIngested, pointsRejected, aggregationRuns, aggregationErrors)
}

// reserved form keys that are never treated as field values.
const (
	formKeyProject = "project"
	formKeyAPIKey  = "api_key"
)

// resolveProjectSlug picks the target project for an ingest request.
// Resolution order: route slug, then the "project" form value, then the
// first label of the Host header (so clients can post to
// myproject.example.com without extra parameters).
func resolveProjectSlug(ctx *fasthttp.RequestCtx) string {
	if v, ok := ctx.UserValue("slug").(string); ok && v != "" {
		return v
	}
	if v := string(ctx.PostArgs().Peek(formKeyProject)); v != "" {
		return v
	}
	host := string(ctx.Host())
	if i := strings.IndexByte(host, '.'); i > 0 {
		return host[:i]
	}
	return ""
}

// IngestHandler accepts one form-encoded data point: reserved keys name the
// project and its write secret, every other key is a field with a numeric
// value. Validation is all-or-nothing; a rejected request stores nothing.
// Accepted points enqueue an aggregation task for today so fresh data shows
// up without waiting for the nightly run.
func IngestHandler(db *gorm.DB, queue *dbpkg.AggregationQueue) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		slug := resolveProjectSlug(ctx)
		if slug == "" {
			pointsRejected.WithLabelValues("no_project").Inc()
			errResponse(ctx, fasthttp.StatusBadRequest, "missing project")
			return
		}

		prj, err := dbpkg.GetProjectBySlug(db, slug)
		if err != nil {
			if errors.Is(err, dbpkg.ErrNotFound) {
				pointsRejected.WithLabelValues("unknown_project").Inc()
				// Unknown project on a write is a caller mistake, not a
				// probe-worthy absence.
				errResponse(ctx, fasthttp.StatusBadRequest, "unknown project")
				return
			}
			errResponse(ctx, fasthttp.StatusInternalServerError, "database error")
			return
		}

		apiKey := string(ctx.PostArgs().Peek(formKeyAPIKey))
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(prj.APIKey)) != 1 {
			pointsRejected.WithLabelValues("bad_api_key").Inc()
			errResponse(ctx, fasthttp.StatusForbidden, "invalid api_key")
			return
		}

		fields := make(map[string]float64)
		parseErr := false
		ctx.PostArgs().VisitAll(func(k, v []byte) {
			key := string(k)
			if key == formKeyProject || key == formKeyAPIKey {
				return
			}
			f, err := strconv.ParseFloat(string(v), 64)
			if err != nil {
				parseErr = true
				return
			}
			fields[key] = f
		})
		if parseErr {
			pointsRejected.WithLabelValues("bad_value").Inc()
			errResponse(ctx, fasthttp.StatusBadRequest, "field values must be numeric")
			return
		}

		if _, err := dbpkg.InsertPoint(db, prj, ctx.RemoteAddr().String(), fields); err != nil {
			if dbpkg.IsValidation(err) {
				pointsRejected.WithLabelValues("bad_value").Inc()
				errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
				return
			}
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to persist point")
			return
		}

		pointsIngested.WithLabelValues(prj.Slug).Inc()
		queue.Enqueue(dbpkg.AggregationTask{
			Slug: prj.Slug,
			Date: time.Now().Format(dbpkg.ISODate),
		})

		ctx.SetStatusCode(fasthttp.StatusCreated)
	}
}
