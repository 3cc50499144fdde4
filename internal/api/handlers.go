package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/linuxmathew/customer-success-workflow/internal/pipeline"
	"github.com/linuxmathew/customer-success-workflow/internal/pkg/httputil"
)

// Runner executes one pipeline invocation.
type Runner interface {
	Run(ctx context.Context, spreadsheetID string, ranges []string, today time.Time) (*pipeline.RunSummary, error)
}

// Handlers holds the HTTP handlers
type Handlers struct {
	runner               Runner
	defaultSpreadsheetID string
	defaultRanges        []string
}

// NewHandlers creates handlers around a pipeline runner.
func NewHandlers(runner Runner, defaultSpreadsheetID string, defaultRanges []string) *Handlers {
	return &Handlers{
		runner:               runner,
		defaultSpreadsheetID: defaultSpreadsheetID,
		defaultRanges:        defaultRanges,
	}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RunPipelineRequest is the body of POST /api/v1/pipeline/run.
type RunPipelineRequest struct {
	SpreadsheetID string   `json:"spreadsheet_id"`
	Ranges        []string `json:"ranges"`
	Today         string   `json:"today"` // YYYY-MM-DD; defaults to the current UTC date
}

// RunPipeline triggers one pipeline run and returns the summary.
func (h *Handlers) RunPipeline(w http.ResponseWriter, r *http.Request) {
	var req RunPipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid JSON body")
		return
	}

	spreadsheetID := req.SpreadsheetID
	if spreadsheetID == "" {
		spreadsheetID = h.defaultSpreadsheetID
	}
	if spreadsheetID == "" {
		httputil.BadRequest(w, "spreadsheet_id is required")
		return
	}

	ranges := req.Ranges
	if len(ranges) == 0 {
		ranges = h.defaultRanges
	}

	// The enrichment stage always receives an explicit reference date; the
	// wall clock is consulted only here, at the outermost boundary.
	today := time.Now().UTC()
	if req.Today != "" {
		parsed, err := time.Parse("2006-01-02", req.Today)
		if err != nil {
			httputil.BadRequest(w, "today must be a YYYY-MM-DD date")
			return
		}
		today = parsed
	}

	summary, err := h.runner.Run(r.Context(), spreadsheetID, ranges, today)
	if err != nil {
		var fetchErr *pipeline.FetchError
		if errors.As(err, &fetchErr) {
			httputil.BadGateway(w, fetchErr.Error())
			return
		}
		httputil.InternalError(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}
