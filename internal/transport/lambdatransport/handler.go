package lambdatransport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/awmpietro/golang-workflow-volume/internal/app"
	"github.com/awmpietro/golang-workflow-volume/internal/transport/workflowdto"
)

type Handler struct {
	svc app.WorkflowService
}

func NewHandler(svc app.WorkflowService) *Handler {
	return &Handler{svc: svc}
}

// Handle dispatches on the last path segment so the function works behind
// any API Gateway stage prefix.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	path := req.RawPath
	if path == "" {
		path = req.RequestContext.HTTP.Path
	}
	switch {
	case strings.HasSuffix(path, "/count"):
		return h.Count(ctx, req)
	case strings.HasSuffix(path, "/classify"):
		return h.Classify(ctx, req)
	case strings.HasSuffix(path, "/dot"):
		return h.Render(ctx, req)
	default:
		return jsonResp(http.StatusNotFound, workflowdto.ErrorBody("not found", fmt.Errorf("no route for %q", path))), nil
	}
}

func (h *Handler) Count(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	var in workflowdto.CountRequest
	if resp, ok := decode(req, &in); !ok {
		return resp, nil
	}

	res, err := h.svc.Count(ctx, in.Definitions, in.Options())
	if err != nil {
		return jsonResp(http.StatusBadRequest, workflowdto.ErrorBody("count failed", err)), nil
	}
	return jsonResp(http.StatusOK, workflowdto.NewCountResponse(res)), nil
}

func (h *Handler) Classify(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	var in workflowdto.ClassifyRequest
	if resp, ok := decode(req, &in); !ok {
		return resp, nil
	}

	res, err := h.svc.Classify(ctx, in.Definitions, in.Records, in.Options())
	if err != nil {
		return jsonResp(http.StatusBadRequest, workflowdto.ErrorBody("classify failed", err)), nil
	}
	return jsonResp(http.StatusOK, workflowdto.NewClassifyResponse(res)), nil
}

func (h *Handler) Render(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	var in workflowdto.RenderRequest
	if resp, ok := decode(req, &in); !ok {
		return resp, nil
	}

	dot, err := h.svc.Render(in.Definitions)
	if err != nil {
		return jsonResp(http.StatusBadRequest, workflowdto.ErrorBody("render failed", err)), nil
	}
	return jsonResp(http.StatusOK, workflowdto.RenderResponse{DOT: dot}), nil
}

func decode(req events.APIGatewayV2HTTPRequest, into any) (events.APIGatewayV2HTTPResponse, bool) {
	body, err := readBody(req)
	if err != nil {
		return jsonResp(http.StatusBadRequest, workflowdto.ErrorBody("invalid body", err)), false
	}
	if err := json.Unmarshal(body, into); err != nil {
		return jsonResp(http.StatusBadRequest, workflowdto.ErrorBody("invalid json", err)), false
	}
	return events.APIGatewayV2HTTPResponse{}, true
}

func readBody(req events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if req.IsBase64Encoded {
		return base64.StdEncoding.DecodeString(req.Body)
	}
	return []byte(req.Body), nil
}

func jsonResp(status int, body any) events.APIGatewayV2HTTPResponse {
	b, _ := json.Marshal(body)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"content-type": "application/json"},
		Body:       string(b),
	}
}
