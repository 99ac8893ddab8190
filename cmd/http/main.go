package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/awmpietro/golang-workflow-volume/internal/app"
	"github.com/awmpietro/golang-workflow-volume/internal/cache"
	"github.com/awmpietro/golang-workflow-volume/internal/config"
	"github.com/awmpietro/golang-workflow-volume/internal/logging"
	"github.com/awmpietro/golang-workflow-volume/internal/metrics"
	httptransport "github.com/awmpietro/golang-workflow-volume/internal/transport/httptransport"
	"github.com/awmpietro/golang-workflow-volume/internal/workflow"
)

func main() {
	cfg := config.Load()
	logger := logging.New(logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	settings, err := cfg.Settings()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	obs := metrics.NewObserver(reg)

	latencyObserver := workflow.NewAsyncNodeLatencyObserver(
		workflow.Observers{obs, workflow.NewNodeLatencyLogger(logger)},
		cfg.ObsBuffer,
	)
	defer latencyObserver.Close()

	compiler := workflow.NewCompiler(workflow.WithDomain(settings.Domain), workflow.WithEntry(settings.Entry))
	engine := workflow.NewEngine(
		workflow.WithNodeLatencyObserver(latencyObserver),
		workflow.WithMaxSteps(cfg.MaxSteps),
		workflow.WithParallelism(cfg.Parallelism),
		workflow.WithLogger(logger),
	)

	opts := []app.Option{
		app.WithLogger(logger),
		app.WithCountObserver(obs),
		app.WithAggregateParts(cfg.Parallelism),
		app.WithDefaultRating(settings.Rating),
	}
	if cfg.RedisAddr != "" {
		store := cache.NewResultStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cache.WithTTL(cfg.RedisTTL))
		defer store.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := store.Ping(ctx); err != nil {
			logger.Warn("result store unreachable, counts will not be shared", "error", err, "addr", cfg.RedisAddr)
		}
		cancel()
		opts = append(opts, app.WithResultStore(store))
	}

	svc := app.NewService(compiler, engine, cache.NewInMemory(cfg.CacheMaxItems), opts...)
	h := httptransport.NewHandler(svc, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Routes(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "attributes", settings.Domain.Names(), "entry", settings.Entry)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("stopped", "dropped_observations", latencyObserver.Dropped())
}
