package httpapi

import (
	"net/http"

	"lingo_gateway/internal/auth"
	"lingo_gateway/internal/middleware"
	"lingo_gateway/internal/utils"
)

// handleAdminToken mints a short-lived admin JWT for an authenticated caller.
// The route sits behind the API key middleware, so only configured keys can
// obtain one.
func (d *Dependencies) handleAdminToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	callerID, ok := middleware.GetCallerID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}

	token, err := auth.GenerateAdminJWT(callerID, d.JWTSecret)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"token": token})
}

// handleAdminHistory clears the audit log.
func (d *Dependencies) handleAdminHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := d.History.Clear(r.Context()); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to clear history")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// handleAdminCache clears the response cache.
func (d *Dependencies) handleAdminCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := d.Cache.Clear(r.Context()); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to clear cache")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// handleAdminUsageReset zeroes the current accounting period.
func (d *Dependencies) handleAdminUsageReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := d.Ledger.Reset(r.Context()); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to reset usage")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// handleAdminDeadLetters lists dead-lettered audit writes.
func (d *Dependencies) handleAdminDeadLetters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if d.Worker == nil {
		utils.RespondWithJSON(w, http.StatusOK, map[string]any{"items": []any{}})
		return
	}

	items, err := d.Worker.DeadLetterItems(r.Context(), 100)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to list dead letter items")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]any{"items": items})
}
