package app

import (
	"context"
	"testing"

	"github.com/awmpietro/golang-workflow-volume/internal/cache"
	"github.com/awmpietro/golang-workflow-volume/internal/logging"
	"github.com/awmpietro/golang-workflow-volume/internal/workflow"
)

func benchmarkService() *Service {
	compiler := workflow.NewCompiler()
	engine := workflow.NewEngine(workflow.WithParallelism(4))
	c := cache.NewInMemory(1024)
	return NewService(compiler, engine, c, WithLogger(logging.NewNop()))
}

func BenchmarkServiceCountCached(b *testing.B) {
	svc := benchmarkService()
	ctx := context.Background()

	if _, err := svc.Count(ctx, sampleDefinitions, CountOptions{}); err != nil {
		b.Fatalf("warmup count failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := svc.Count(ctx, sampleDefinitions, CountOptions{}); err != nil {
			b.Fatalf("count failed: %v", err)
		}
	}
}

func BenchmarkServiceClassifyCachedParallel(b *testing.B) {
	svc := benchmarkService()
	ctx := context.Background()

	if _, err := svc.Classify(ctx, sampleDefinitions, nil, ClassifyOptions{}); err != nil {
		b.Fatalf("warmup classify failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := svc.Classify(ctx, sampleDefinitions, nil, ClassifyOptions{}); err != nil {
				b.Errorf("classify failed: %v", err)
				return
			}
		}
	})
}
