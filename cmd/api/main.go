package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/sleephub/internal/cache"
	"github.com/geocoder89/sleephub/internal/config"
	"github.com/geocoder89/sleephub/internal/db"
	httpx "github.com/geocoder89/sleephub/internal/http"
	"github.com/geocoder89/sleephub/internal/observability"
	"github.com/geocoder89/sleephub/internal/repo/memory"
	"github.com/geocoder89/sleephub/internal/repo/postgres"
	"github.com/geocoder89/sleephub/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env, cfg.OTELServiceName)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Error("invalid APP_TIMEZONE", "err", err, "tz", cfg.Timezone)
		os.Exit(1)
	}

	ctx := context.Background()

	// tracing is optional; without an endpoint the global noop provider stays in place
	if cfg.OTELEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: cfg.OTELServiceName,
			Environment: cfg.Env,
			Endpoint:    cfg.OTELEndpoint,
			Insecure:    cfg.OTELInsecure,
			SampleRatio: cfg.OTELSampleRatio,
		})
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
		defer func() {
			tctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(tctx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	var (
		users   service.UserStore
		records service.SleepRecordStore
		ping    func(ctx context.Context) error
	)

	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		store := memory.NewStore()
		users, records = store.Users(), store.SleepRecords()
		log.Warn("using in-memory store; data is lost on restart")
	default:
		pool, err := db.NewPool(cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		sctx, cancel := config.WithTimeout(10 * time.Second)
		err = db.ApplyPool(sctx, pool)
		cancel()
		if err != nil {
			log.Error("schema bootstrap failed", "err", err)
			os.Exit(1)
		}

		users = postgres.NewUsersRepo(pool, prom)
		records = postgres.NewSleepRecordsRepo(pool, prom)
		ping = pool.Ping
	}

	var listCache cache.Store
	switch cfg.CacheBackend {
	case config.CacheBackendMemory:
		listCache = cache.New(cfg.CacheTTL)
	case config.CacheBackendRedis:
		rc := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.CacheTTL)

		pctx, cancel := config.WithTimeout(2 * time.Second)
		err := rc.Ping(pctx)
		cancel()
		if err != nil {
			log.Error("redis ping failed", "err", err, "addr", cfg.RedisAddr)
			os.Exit(1)
		}
		defer rc.Close()

		listCache = rc
	}

	svc := service.New(users, records, service.Options{
		Cache:        listCache,
		Prom:         prom,
		Log:          log,
		Location:     loc,
		QueryTimeout: cfg.DBQueryTimeout,
	})

	// set up routers with the log
	router := httpx.NewRouter(httpx.RouterDeps{
		Env:                cfg.Env,
		ServiceName:        cfg.OTELServiceName,
		Log:                log,
		Service:            svc,
		Ping:               ping,
		Prom:               prom,
		Gatherer:           reg,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting",
			"port", cfg.Port,
			"env", cfg.Env,
			"store", cfg.StoreBackend,
			"cache", cfg.CacheBackend,
		)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
