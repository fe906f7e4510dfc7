package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"lingo_gateway/internal/history"
	"lingo_gateway/internal/utils"
)

// handleHistory serves GET (paginated list) and POST (manual append).
func (d *Dependencies) handleHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		d.listHistory(w, r)
	case http.MethodPost:
		d.appendHistory(w, r)
	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (d *Dependencies) listHistory(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid 'page' parameter")
			return
		}
		page = parsed
	}

	result, err := d.History.List(r.Context(), page)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, result)
}

// appendRequest is the envelope for manually recorded entries.
type appendRequest struct {
	Feature    string `json:"feature"`
	Detail     string `json:"detail"`
	Source     string `json:"source"`
	UsageUnits int    `json:"usage_units"`
}

func (d *Dependencies) appendHistory(w http.ResponseWriter, r *http.Request) {
	var req appendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Feature == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "missing 'feature' field")
		return
	}
	switch req.Source {
	case history.SourceProvider, history.SourceCache, history.SourceError:
	case "":
		req.Source = history.SourceProvider
	default:
		utils.RespondWithError(w, http.StatusBadRequest, "invalid 'source' field")
		return
	}

	record := history.Record{
		Feature:    req.Feature,
		Detail:     req.Detail,
		Source:     req.Source,
		UsageUnits: req.UsageUnits,
	}
	if err := d.History.Append(r.Context(), record); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to append history")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

// handleUsage serves the current period's accumulated units.
func (d *Dependencies) handleUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	total, err := d.Ledger.Total(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to read usage")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"period":      time.Now().Format("2006-01"),
		"usage_units": total,
	})
}
