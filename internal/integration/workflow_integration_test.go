package integration_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/awmpietro/golang-workflow-volume/internal/union"
	"github.com/awmpietro/golang-workflow-volume/internal/workflow"
)

func TestCompiler_Engine_Integration(t *testing.T) {
	dotPath := filepath.Join("..", "workflow", "testdata", "simple.dot")
	dot, err := os.ReadFile(dotPath)
	if err != nil {
		t.Fatal(err)
	}

	set, err := workflow.NewCompiler().Compile(string(dot))
	if err != nil {
		t.Fatal(err)
	}

	p, err := workflow.NewEngine(workflow.WithParallelism(2)).Propagate(context.Background(), set)
	if err != nil {
		t.Fatal(err)
	}

	accepted, err := union.AggregateParallel(context.Background(), p.Accepted, 2)
	if err != nil {
		t.Fatal(err)
	}
	if accepted.String() != "56000000000000" {
		t.Fatalf("expected 56000000000000 accepted, got %s", accepted)
	}
}

func TestTextAndDOT_AgreeOnSample(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("..", "workflow", "testdata", "sample.txt"))
	if err != nil {
		t.Fatal(err)
	}

	text, err := workflow.NewCompiler().Compile(string(src))
	if err != nil {
		t.Fatal(err)
	}
	dot, err := workflow.ToDOT(text)
	if err != nil {
		t.Fatal(err)
	}
	fromDOT, err := workflow.NewCompiler().Compile(dot)
	if err != nil {
		t.Fatal(err)
	}

	for _, set := range []*workflow.Set{text, fromDOT} {
		p, err := workflow.NewEngine().Propagate(context.Background(), set)
		if err != nil {
			t.Fatal(err)
		}
		if got := union.Aggregate(p.Accepted).String(); got != "167409079868000" {
			t.Fatalf("expected 167409079868000 accepted, got %s", got)
		}
	}
}
