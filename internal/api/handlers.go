package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"finsight/internal/common/artifacts"
	apperrors "finsight/internal/common/errors"
	"finsight/internal/common/jsonsafe"
	"finsight/internal/common/logger"
	"finsight/internal/common/validation"
	"finsight/internal/models"
	"finsight/internal/pipeline"
	classifyrevenue "finsight/internal/workers/performance/classify-revenue"
)

const maxBodyBytes = 1 << 20

// Asker answers one question end to end.
type Asker interface {
	Ask(ctx context.Context, query string) (*pipeline.Result, error)
}

// Classifier builds revenue performance reports.
type Classifier interface {
	Execute(ctx context.Context, input *classifyrevenue.Input) (*classifyrevenue.Output, error)
}

// Lookups exposes the sorted value sets of the dataset.
type Lookups interface {
	Metrics() []string
	Companies() []string
	Periods() []string
}

// Deps are the collaborators the handlers delegate to.
type Deps struct {
	Asker      Asker
	Classifier Classifier
	Lookups    Lookups
	Charts     artifacts.Store
}

type Handler struct {
	deps   Deps
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(deps Deps, log logger.Logger) *Handler {
	return &Handler{
		deps:   deps,
		errors: apperrors.NewErrorHandler(log),
		logger: log.Named("http"),
	}
}

// Ask answers a question.
// POST /ask {"query": "..."}
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeBody(w, r, validation.AskRequestSchema)
	if !ok {
		return
	}
	query := strings.TrimSpace(body["query"].(string))

	result, err := h.deps.Asker.Ask(r.Context(), query)
	if err != nil {
		h.writeFailure(w, "ask", err)
		return
	}

	filtered, _ := jsonsafe.Sanitize(models.RecordsToMaps(result.Filtered)).([]interface{})
	resp := AskResponse{
		Answer:        result.Answer,
		Understanding: result.Intent.Normalize(),
		Filtered:      filtered,
		ChartType:     result.ChartKind,
	}
	if result.Chart != nil {
		url := result.Chart.URL()
		resp.ChartURL = &url
	}
	writeJSON(w, http.StatusOK, resp)
}

// RevenuePerformance labels a month's revenue against plan.
// POST /api/revenue-performance {"month": "2021-05"}
func (h *Handler) RevenuePerformance(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeBody(w, r, validation.RevenuePerformanceRequestSchema)
	if !ok {
		return
	}

	out, err := h.deps.Classifier.Execute(r.Context(), &classifyrevenue.Input{
		Month: strings.TrimSpace(body["month"].(string)),
	})
	if err != nil {
		h.writeFailure(w, "revenue-performance", err)
		return
	}
	writeJSON(w, http.StatusOK, out.Report)
}

// Lookups lists the metrics, companies and periods in the dataset.
// GET /api/lookups
func (h *Handler) Lookups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LookupsResponse{
		Metrics:   nonNil(h.deps.Lookups.Metrics()),
		Companies: nonNil(h.deps.Lookups.Companies()),
		Periods:   nonNil(h.deps.Lookups.Periods()),
	})
}

// GetChart serves a rendered chart.
// GET /chart/{filename}
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if !artifacts.ValidName(name) {
		h.writeFailure(w, "chart", apperrors.NewChartNotFoundError(name))
		return
	}

	data, err := h.deps.Charts.Open(r.Context(), name)
	if errors.Is(err, artifacts.ErrNotFound) {
		h.writeFailure(w, "chart", apperrors.NewChartNotFoundError(name))
		return
	}
	if err != nil {
		h.writeFailure(w, "chart", apperrors.NewInternalError(fmt.Errorf("open chart %s: %w", name, err)))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Status: "healthy",
		Time:   time.Now().Format(time.RFC3339),
	})
}

// Ready reports whether the chart store is reachable, for stores that can tell.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if pinger, ok := h.deps.Charts.(interface{ Ping(context.Context) error }); ok {
		if err := pinger.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, StatusResponse{
				Status: "unavailable",
				Time:   time.Now().Format(time.RFC3339),
				Error:  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Status: "ready",
		Time:   time.Now().Format(time.RFC3339),
	})
}

// decodeBody reads a JSON object and validates it. On failure the 400 response
// has already been written.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, schema validation.JSONSchema) (map[string]interface{}, bool) {
	var body map[string]interface{}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil || body == nil {
		details := "request body must be a JSON object"
		if err != nil {
			details = fmt.Sprintf("%s: %v", details, err)
		}
		h.writeInvalid(w, apperrors.NewInvalidRequestError(details), nil)
		return nil, false
	}

	result := validation.ValidateInput(body, schema)
	if !result.Valid {
		h.writeInvalid(w, apperrors.NewInvalidRequestError(strings.Join(result.GetErrorMessages(), "; ")), result.Errors)
		return nil, false
	}
	return body, true
}

func (h *Handler) writeInvalid(w http.ResponseWriter, err *apperrors.StandardError, fieldErrors []validation.ValidationError) {
	h.logger.Warn("invalid request", map[string]interface{}{"details": err.Details})
	writeJSON(w, apperrors.HTTPStatus(err.Code), ValidationErrorResponse{
		Answer: apperrors.ApologyAnswer,
		Error:  err.Error(),
		Errors: fieldErrors,
	})
}

func (h *Handler) writeFailure(w http.ResponseWriter, operation string, err error) {
	status, payload := h.errors.Handle(operation, err)
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
