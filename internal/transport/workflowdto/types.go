package workflowdto

import (
	"github.com/awmpietro/golang-workflow-volume/internal/app"
	"github.com/awmpietro/golang-workflow-volume/internal/workflow"
)

// CountRequest carries definitions as text lines or a DOT digraph.
type CountRequest struct {
	Definitions  string `json:"definitions"`
	DefinitionID string `json:"definition_id,omitempty"`
	Version      string `json:"definition_version,omitempty"`
	Debug        bool   `json:"debug,omitempty"`
}

func (r CountRequest) Options() app.CountOptions {
	return app.CountOptions{
		DefinitionID: r.DefinitionID,
		Version:      r.Version,
		Debug:        r.Debug,
	}
}

// CountResponse holds volumes as decimal strings; they overflow JSON numbers.
type CountResponse struct {
	Accepted          string                     `json:"accepted"`
	Rejected          string                     `json:"rejected"`
	Total             string                     `json:"total"`
	AcceptedFragments int                        `json:"accepted_fragments"`
	RejectedFragments int                        `json:"rejected_fragments"`
	Stored            bool                       `json:"stored,omitempty"`
	Definition        *app.DefinitionInfo        `json:"definition,omitempty"`
	Trace             *workflow.PropagationTrace `json:"trace,omitempty"`
}

func NewCountResponse(res *app.CountResult) CountResponse {
	return CountResponse{
		Accepted:          res.Accepted.String(),
		Rejected:          res.Rejected.String(),
		Total:             res.Total.String(),
		AcceptedFragments: res.AcceptedFragments,
		RejectedFragments: res.RejectedFragments,
		Stored:            res.Stored,
		Definition:        res.Definition,
		Trace:             res.Trace,
	}
}

// ClassifyRequest may omit records when text definitions carry their own.
type ClassifyRequest struct {
	Definitions  string             `json:"definitions"`
	Records      []map[string]int64 `json:"records,omitempty"`
	Rating       string             `json:"rating,omitempty"`
	DefinitionID string             `json:"definition_id,omitempty"`
	Version      string             `json:"definition_version,omitempty"`
}

func (r ClassifyRequest) Options() app.ClassifyOptions {
	return app.ClassifyOptions{
		DefinitionID: r.DefinitionID,
		Version:      r.Version,
		Rating:       r.Rating,
	}
}

type ClassifyResponse struct {
	Verdicts   []app.RecordVerdict `json:"verdicts"`
	Accepted   int                 `json:"accepted"`
	Rating     int64               `json:"rating"`
	RatingExpr string              `json:"rating_expr"`
	Definition *app.DefinitionInfo `json:"definition,omitempty"`
}

func NewClassifyResponse(res *app.ClassifyResult) ClassifyResponse {
	return ClassifyResponse{
		Verdicts:   res.Verdicts,
		Accepted:   res.Accepted,
		Rating:     res.Rating,
		RatingExpr: res.RatingExpr,
		Definition: res.Definition,
	}
}

type RenderRequest struct {
	Definitions string `json:"definitions"`
}

type RenderResponse struct {
	DOT string `json:"dot"`
}

func ErrorBody(msg string, err error) map[string]any {
	return map[string]any{
		"error":   msg,
		"details": err.Error(),
	}
}
