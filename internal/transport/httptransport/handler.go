package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/awmpietro/golang-workflow-volume/internal/app"
	"github.com/awmpietro/golang-workflow-volume/internal/transport/workflowdto"
)

type Handler struct {
	svc    app.WorkflowService
	logger *slog.Logger
}

func NewHandler(svc app.WorkflowService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the API. metrics is served on /metrics when non-nil.
func (h *Handler) Routes(metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/count", h.Count)
	r.Post("/classify", h.Classify)
	r.Post("/dot", h.Render)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	})
	return r
}

func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var in workflowdto.CountRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, workflowdto.ErrorBody("invalid json", err))
		return
	}

	res, err := h.svc.Count(r.Context(), in.Definitions, in.Options())
	if err != nil {
		h.logger.Info("count rejected", "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeJSON(w, http.StatusBadRequest, workflowdto.ErrorBody("count failed", err))
		return
	}
	writeJSON(w, http.StatusOK, workflowdto.NewCountResponse(res))
}

func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var in workflowdto.ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, workflowdto.ErrorBody("invalid json", err))
		return
	}

	res, err := h.svc.Classify(r.Context(), in.Definitions, in.Records, in.Options())
	if err != nil {
		h.logger.Info("classify rejected", "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeJSON(w, http.StatusBadRequest, workflowdto.ErrorBody("classify failed", err))
		return
	}
	writeJSON(w, http.StatusOK, workflowdto.NewClassifyResponse(res))
}

func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var in workflowdto.RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, workflowdto.ErrorBody("invalid json", err))
		return
	}

	dot, err := h.svc.Render(in.Definitions)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, workflowdto.ErrorBody("render failed", err))
		return
	}
	writeJSON(w, http.StatusOK, workflowdto.RenderResponse{DOT: dot})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
