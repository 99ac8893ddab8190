package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/awmpietro/golang-workflow-volume/internal/app"
	"github.com/awmpietro/golang-workflow-volume/internal/cache"
	"github.com/awmpietro/golang-workflow-volume/internal/config"
	"github.com/awmpietro/golang-workflow-volume/internal/logging"
	lambdatransport "github.com/awmpietro/golang-workflow-volume/internal/transport/lambdatransport"
	"github.com/awmpietro/golang-workflow-volume/internal/workflow"
)

func main() {
	cfg := config.Load()
	logger := logging.New(logging.ParseLevel(cfg.LogLevel))

	settings, err := cfg.Settings()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	compiler := workflow.NewCompiler(workflow.WithDomain(settings.Domain), workflow.WithEntry(settings.Entry))
	latencyObserver := workflow.NewAsyncNodeLatencyObserver(workflow.NewNodeLatencyLogger(logger), cfg.ObsBuffer)
	defer latencyObserver.Close()
	engine := workflow.NewEngine(
		workflow.WithNodeLatencyObserver(latencyObserver),
		workflow.WithMaxSteps(cfg.MaxSteps),
		workflow.WithParallelism(cfg.Parallelism),
		workflow.WithLogger(logger),
	)

	opts := []app.Option{app.WithLogger(logger), app.WithDefaultRating(settings.Rating)}
	if cfg.RedisAddr != "" {
		opts = append(opts, app.WithResultStore(
			cache.NewResultStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cache.WithTTL(cfg.RedisTTL)),
		))
	}

	svc := app.NewService(compiler, engine, cache.NewInMemory(cfg.CacheMaxItems), opts...)
	h := lambdatransport.NewHandler(svc)

	lambda.Start(h.Handle)
}
