// Package httpapi exposes the gateway over HTTP: the generation endpoint,
// history and usage reads, and the admin surface.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"lingo_gateway/internal/gateway"
	"lingo_gateway/internal/logging"
	"lingo_gateway/internal/middleware"
	"lingo_gateway/internal/utils"
)

// generateRequest is the inbound envelope for POST /v1/generate.
type generateRequest struct {
	Feature string         `json:"feature"`
	Params  map[string]any `json:"params"`
}

// handleGenerate runs one request through the pipeline.
func (d *Dependencies) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start := time.Now()

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Feature == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "missing 'feature' field")
		return
	}

	result, err := d.Orchestrator.Execute(r.Context(), req.Feature, req.Params)
	if err != nil {
		d.archive(r, req.Feature, "", 0, start, err)
		status, message := classifyPipelineError(err)
		utils.RespondWithError(w, status, message)
		return
	}

	d.archive(r, req.Feature, result.Source, result.UsageUnits, start, nil)
	utils.RespondWithJSON(w, http.StatusOK, result)
}

// handleFeatures lists the registered feature names.
func (d *Dependencies) handleFeatures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"features": d.Catalog.Names(),
	})
}

// classifyPipelineError maps a pipeline failure to an HTTP status.
func classifyPipelineError(err error) (int, string) {
	var gerr *gateway.Error
	if !errors.As(err, &gerr) {
		return http.StatusInternalServerError, "internal error"
	}

	switch gerr.Kind {
	case gateway.KindValidation:
		return http.StatusBadRequest, gerr.Cause.Error()
	case gateway.KindParse:
		return http.StatusBadGateway, "provider returned a malformed response"
	case gateway.KindTerminal:
		return http.StatusBadGateway, "provider request failed"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// archive enqueues one archive record; a nil sink-safe no-op when disabled.
func (d *Dependencies) archive(r *http.Request, feature, source string, units int, start time.Time, err error) {
	if d.Archive == nil {
		return
	}

	callerID, _ := middleware.GetCallerID(r.Context())
	rec := &logging.ArchiveRecord{
		Timestamp:  time.Now(),
		RequestID:  uuid.NewString(),
		CallerID:   callerID,
		Feature:    feature,
		Source:     source,
		UsageUnits: units,
		GatewayMs:  time.Since(start).Milliseconds(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	_ = d.Archive.Enqueue(rec)
}
