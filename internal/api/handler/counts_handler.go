package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"h1b-statistics/internal/model"
	"h1b-statistics/internal/pipeline"
	"h1b-statistics/internal/store"
	"h1b-statistics/pkg/utils"
)

const defaultMaxBodyBytes = 1 << 30

// RunStore is the read side of the run history.
type RunStore interface {
	ListRuns(ctx context.Context) ([]store.Run, error)
	GetRun(ctx context.Context, runID string) (store.Run, error)
}

// Handler serves the counting API
type Handler struct {
	pipeline     *pipeline.Pipeline
	runs         RunStore // nil when run history is disabled
	defaults     model.Config
	MaxBodyBytes int64
}

// New returns a handler counting with defaults unless a request overrides them.
func New(p *pipeline.Pipeline, runs RunStore, defaults model.Config) *Handler {
	return &Handler{
		pipeline:     p,
		runs:         runs,
		defaults:     defaults,
		MaxBodyBytes: defaultMaxBodyBytes,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type EntryResponse struct {
	Value      string  `json:"value"`
	Count      int     `json:"count"`
	Ratio      float64 `json:"ratio"`
	Percentage string  `json:"percentage"`
}

type OutputResponse struct {
	Field       string          `json:"field"`
	ValueColumn string          `json:"value_column"`
	Entries     []EntryResponse `json:"entries"`
}

type CountsResponse struct {
	RunID        string           `json:"run_id"`
	TotalRows    int              `json:"total_rows"`
	FilteredRows int              `json:"filtered_rows"`
	Outputs      []OutputResponse `json:"outputs"`
}

// CreateCounts tallies the uploaded table
// @Summary Top values of a table
// @Tags counts
// @Accept text/csv
// @Produce json
// @Param k query int false "Number of values per field"
// @Param status query string false "Accepted status value"
// @Param status_field query string false "Status column"
// @Success 200 {object} CountsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /counts [post]
func (h *Handler) CreateCounts(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	body := http.MaxBytesReader(w, r.Body, h.MaxBodyBytes)
	defer body.Close()

	res, err := h.pipeline.RunReader(r.Context(), cfg, body)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("Count request failed", "component", "api", "error", err)
		}
		writeError(w, status, err.Error())
		return
	}

	resp := CountsResponse{
		RunID:        res.RunID,
		TotalRows:    res.Total,
		FilteredRows: res.Filtered,
		Outputs:      make([]OutputResponse, 0, len(res.Outputs)),
	}
	for _, out := range res.Outputs {
		o := OutputResponse{
			Field:       out.Field,
			ValueColumn: out.ValueColumn,
			Entries:     make([]EntryResponse, 0, len(out.Entries)),
		}
		for _, e := range out.Entries {
			o.Entries = append(o.Entries, EntryResponse{
				Value:      e.Value,
				Count:      e.Count,
				Ratio:      e.Ratio,
				Percentage: pipeline.FormatPercentage(e.Ratio),
			})
		}
		resp.Outputs = append(resp.Outputs, o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListRuns returns the run history
// @Summary List runs
// @Tags runs
// @Produce json
// @Success 200 {array} store.Run
// @Router /runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeError(w, http.StatusNotFound, "run history is disabled")
		return
	}
	runs, err := h.runs.ListRuns(r.Context())
	if err != nil {
		slog.Error("Failed to list runs", "component", "api", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch runs")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetRun returns one run with its entries
// @Summary Get run
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} store.Run
// @Failure 404 {object} ErrorResponse
// @Router /runs/{id} [get]
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeError(w, http.StatusNotFound, "run history is disabled")
		return
	}

	const prefix = "/api/v1/runs/"
	runID := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if runID == "" || strings.Contains(runID, "/") {
		writeError(w, http.StatusBadRequest, "run ID is required")
		return
	}

	run, err := h.runs.GetRun(r.Context(), runID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		slog.Error("Failed to fetch run", "component", "api", "run_id", runID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// configFromQuery applies k, status and status_field to the defaults. Uploads
// are never written to disk, so output paths are cleared.
func (h *Handler) configFromQuery(r *http.Request) (model.Config, error) {
	cfg := h.defaults
	cfg.InputPath = "upload"
	cfg.Outputs = make([]model.OutputSpec, len(h.defaults.Outputs))
	for i, o := range h.defaults.Outputs {
		o.Path = ""
		cfg.Outputs[i] = o
	}

	q := r.URL.Query()
	k, err := utils.ParseNonNegative(q.Get("k"), h.defaults.TopK)
	if err != nil {
		return model.Config{}, errors.New("k: " + err.Error())
	}
	cfg.TopK = k
	if s := q.Get("status"); s != "" {
		cfg.AcceptedStatus = s
	}
	if s := q.Get("status_field"); s != "" {
		cfg.StatusField = s
	}
	return cfg, cfg.Validate()
}

func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, pipeline.ErrMissingField), errors.Is(err, pipeline.ErrZeroDenominator):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrNoHeader):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}
	var ioErr *pipeline.IOError
	if errors.As(err, &ioErr) && ioErr.Op == "read" {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "component", "api", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
