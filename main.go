package main

import (
	"log"

	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	"github.com/valyala/fasthttp"

	"fieldtrend/internal/config"
	"fieldtrend/internal/db"
	"fieldtrend/internal/http/handlers"
	appmw "fieldtrend/internal/http/middleware"
	ui "fieldtrend/web"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	sqlDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := db.EnsureBootstrapAdmin(sqlDB, cfg); err != nil {
		log.Fatalf("failed to ensure bootstrap admin: %v", err)
	}

	queue := db.NewAggregationQueue(cfg.AggregateQueueSize)
	db.StartAggregationWorker(sqlDB, queue)

	handlers.InitPrometheusMetrics()

	r := router.New()

	handler := handlers.RequestLogger(r.Handler)

	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	})

	r.ServeFS("/static/{filepath:*}", ui.StaticFS())

	r.GET("/login", handlers.LoginForm())
	r.POST("/login", handlers.LoginSubmit(sqlDB))
	r.POST("/logout", handlers.Logout())

	r.GET("/", appmw.AdminAuth(sqlDB, cfg)(handlers.ProjectsPage(sqlDB)))
	r.GET("/projects/{slug}", appmw.AdminAuth(sqlDB, cfg)(handlers.ProjectPage(sqlDB)))
	r.POST("/admin/projects/create", appmw.AdminAuth(sqlDB, cfg)(handlers.CreateProjectHandler(sqlDB)))

	r.POST("/v1/data", handlers.IngestHandler(sqlDB, queue))
	r.POST("/v1/projects/{slug}/data", handlers.IngestHandler(sqlDB, queue))
	r.GET("/v1/projects/{slug}/fields", handlers.FieldsHandler(sqlDB))
	r.GET("/v1/projects/{slug}/fields/{field}", handlers.SeriesHandler(sqlDB))

	r.POST("/internal/aggregates/update", appmw.InternalAuth(cfg)(handlers.UpdateAggregates(sqlDB)))

	r.GET("/metricsz", handlers.PrometheusHandler())

	log.Printf("fieldtrend listening on %s", cfg.ListenAddr)
	if err := fasthttp.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
