package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/sleephub/internal/http/handlers"
	"github.com/geocoder89/sleephub/internal/http/middlewares"
	"github.com/geocoder89/sleephub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type SleepService interface {
	handlers.SleepRecordCreator
	handlers.UsersReader
}

type RouterDeps struct {
	Env         string
	ServiceName string
	Log         *slog.Logger

	Service SleepService
	// Ping backs /readyz; nil means always ready.
	Ping func(ctx context.Context) error

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	CORSAllowedOrigins []string
	RateLimitPerMinute int
	MaxBodyBytes       int64
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.ServiceName == "" {
		deps.ServiceName = "sleephub-api"
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(deps.ServiceName))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(deps.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(deps.MaxBodyBytes))

	// health
	h := handlers.NewHealthHandler(deps.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	limiter := middlewares.NewRateLimiter(deps.RateLimitPerMinute, time.Minute)

	sleepRecords := handlers.NewSleepRecordsHandler(deps.Service)
	users := handlers.NewUsersHandler(deps.Service)

	api := r.Group("/api")
	api.POST("/sleepRecord",
		middlewares.RequireJSON(),
		limiter.RateLimiterMiddleware(middlewares.KeyByIP),
		sleepRecords.CreateSleepRecord,
	)
	api.GET("/users", users.ListUsers)
	api.GET("/users/:user_id/sleepChartData", users.SleepChartData)

	return r
}
