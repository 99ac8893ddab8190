package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/awmpietro/golang-workflow-volume/internal/app"
	"github.com/awmpietro/golang-workflow-volume/internal/cache"
	"github.com/awmpietro/golang-workflow-volume/internal/config"
	"github.com/awmpietro/golang-workflow-volume/internal/logging"
	"github.com/awmpietro/golang-workflow-volume/internal/workflow"
)

type rootOptions struct {
	domainFile  string
	entry       string
	parallelism int
	logLevel    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "sorter",
		Short:         "Route records and parameter regions through workflow definitions",
		Long:          `sorter reads workflow definitions (one name{rules} per line, or a DOT digraph) and counts, classifies or renders them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.domainFile, "domain-file", "", "YAML file with entry, rating and attributes (defaults to WORKFLOW_DOMAIN_FILE)")
	root.PersistentFlags().StringVar(&opts.entry, "entry", "", "entry workflow (defaults to in)")
	root.PersistentFlags().IntVar(&opts.parallelism, "parallelism", 0, "workflows routed concurrently per layer")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(newCountCmd(opts), newClassifyCmd(opts), newDotCmd(opts))
	return root
}

// service wires the same stack the HTTP server uses, minus the result store.
func (o *rootOptions) service() (*app.Service, error) {
	cfg := config.Load()
	if o.domainFile != "" {
		cfg.DomainFile = o.domainFile
	}
	if o.entry != "" {
		cfg.Entry = o.entry
	}
	if o.parallelism > 0 {
		cfg.Parallelism = o.parallelism
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}

	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.ParseLevel(cfg.LogLevel))

	compiler := workflow.NewCompiler(workflow.WithDomain(settings.Domain), workflow.WithEntry(settings.Entry))
	engine := workflow.NewEngine(
		workflow.WithNodeLatencyObserver(workflow.NewNodeLatencyLogger(logger)),
		workflow.WithMaxSteps(cfg.MaxSteps),
		workflow.WithParallelism(cfg.Parallelism),
		workflow.WithLogger(logger),
	)
	return app.NewService(compiler, engine, cache.NewInMemory(cfg.CacheMaxItems),
		app.WithLogger(logger),
		app.WithAggregateParts(cfg.Parallelism),
		app.WithDefaultRating(settings.Rating),
	), nil
}

// readDefinitions reads the file argument, or stdin for "-" or no argument.
func readDefinitions(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(raw), nil
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read definitions: %w", err)
	}
	return string(raw), nil
}
