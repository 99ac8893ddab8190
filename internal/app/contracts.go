package app

import "context"

// WorkflowService is what the transports need from Service.
type WorkflowService interface {
	Count(ctx context.Context, src string, opts CountOptions) (*CountResult, error)
	Classify(ctx context.Context, src string, records []map[string]int64, opts ClassifyOptions) (*ClassifyResult, error)
	Render(src string) (string, error)
}
