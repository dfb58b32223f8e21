package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/netdoctor/netdoctor/internal/models"
	"github.com/netdoctor/netdoctor/internal/utils"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Diagnostics is the domain API served over HTTP.
type Diagnostics interface {
	Diagnose(ctx context.Context, req models.DiagnosticsRequest) (models.DiagnosticReport, error)
	Analyze(ctx context.Context, req models.AnalyzeRequest) (models.AnomalyReport, error)
	Ask(ctx context.Context, req models.AskRequest) (models.ClassifiedAnswer, error)
}

// Handler serves the JSON HTTP API.
type Handler struct {
	logger *slog.Logger
	svc    Diagnostics
}

// NewHandler builds the HTTP handler set.
func NewHandler(logger *slog.Logger, svc Diagnostics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, svc: svc}
}

// Router returns a chi router with the standard middleware stack. timeout <= 0
// disables the per-request timeout.
func (h *Handler) Router(timeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the API on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/diagnostics", h.handleDiagnostics)
		r.Post("/analyze", h.handleAnalyze)
		r.Post("/ask", h.handleAsk)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	var req models.DiagnosticsRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.writeError(w, r, utils.ContractViolation("run diagnostics", "malformed body", err))
		return
	}
	report, err := h.svc.Diagnose(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.writeError(w, r, utils.ContractViolation("analyze metrics", "malformed body", err))
		return
	}
	analysis, err := h.svc.Analyze(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.writeError(w, r, utils.ContractViolation("answer query", "malformed body", err))
		return
	}
	answer, err := h.svc.Ask(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := HTTPStatus(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err))
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// decodeJSON reads a JSON body. allowEmpty accepts a missing body as the zero value.
func decodeJSON(r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
