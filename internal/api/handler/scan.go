// Package handler implements the JSON API handlers.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/openquant/hindsight/internal/api/job"
	"github.com/openquant/hindsight/internal/api/response"
	"github.com/openquant/hindsight/internal/app"
	"github.com/openquant/hindsight/internal/backtest"
	"github.com/openquant/hindsight/internal/core"
)

const scanTimeout = 30 * time.Minute

// ScanRequest is the request body for starting a batch scan.
type ScanRequest struct {
	Strategy string      `json:"strategy"`
	Symbols  []string    `json:"symbols,omitempty"`
	Policy   *PolicyBody `json:"policy,omitempty"`
}

// PolicyBody overrides the configured backtest policy per request.
type PolicyBody struct {
	SuccessThreshold *float64 `json:"success_threshold,omitempty"`
	FailureThreshold *float64 `json:"failure_threshold,omitempty"`
	HorizonDays      *int     `json:"horizon_days,omitempty"`
}

// ScanHandler serves async batch scan jobs.
type ScanHandler struct {
	jobs   *job.Store
	app    *app.App
	logger *zap.Logger
}

// NewScanHandler creates a scan handler.
func NewScanHandler(jobs *job.Store, a *app.App, logger *zap.Logger) *ScanHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanHandler{jobs: jobs, app: a, logger: logger}
}

// Create starts a new scan job.
func (h *ScanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	if req.Strategy == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigMissing, nil))
		return
	}
	if _, ok := h.app.Engine().Get(req.Strategy); !ok {
		response.Error(w, http.StatusBadRequest, core.ErrStrategyNotFound)
		return
	}

	policy := h.app.Policy()
	if req.Policy != nil {
		if req.Policy.SuccessThreshold != nil {
			policy.SuccessThreshold = *req.Policy.SuccessThreshold
		}
		if req.Policy.FailureThreshold != nil {
			policy.FailureThreshold = *req.Policy.FailureThreshold
		}
		if req.Policy.HorizonDays != nil {
			policy.HorizonDays = *req.Policy.HorizonDays
		}
	}
	// Reject a bad policy before any work starts.
	if err := policy.Validate(); err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	j := h.jobs.Create("scan")
	go h.runScan(j.ID, req.Strategy, req.Symbols, policy)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": j.ID,
		"status": j.Status,
	})
}

// runScan executes the scan and updates job status.
func (h *ScanHandler) runScan(jobID, strategyID string, symbols []string, policy backtest.Policy) {
	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	report, path, err := h.app.RunScan(ctx, strategyID, symbols, policy)
	if err != nil && report == nil {
		h.logger.Error("scan job failed",
			zap.String("job", jobID),
			zap.Error(err),
		)
		var ce *core.Error
		if !errors.As(err, &ce) {
			ce = core.WrapError(core.ErrBacktestFailed, err)
		}
		h.jobs.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = ce
		})
		return
	}

	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Result = map[string]any{
			"report":       report,
			"archive_path": path,
		}
	})
}

// GetStatus returns the status of a scan job.
func (h *ScanHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.PathValue("id"))
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}

	resp := map[string]any{
		"job_id": j.ID,
		"status": j.Status,
	}
	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
	}

	response.JSON(w, http.StatusOK, resp)
}
