package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"vacancyboard-engine/internal/action"
	"vacancyboard-engine/internal/domain"
)

type ActionsHandler struct {
	Controller *action.Controller
}

type actionRequest struct {
	JobID     string `json:"jobId"`
	Verb      string `json:"verb"`
	Confirmed bool   `json:"confirmed"`
}

type undoRequest struct {
	JobID string `json:"jobId"`
}

func (h ActionsHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.JobID) == "" {
		WriteError(w, r, http.StatusBadRequest, "missing_job_id", "jobId is required")
		return
	}

	err := h.Controller.Apply(r.Context(), req.JobID, domain.Verb(req.Verb), req.Confirmed)
	switch {
	case errors.Is(err, action.ErrUnknownVerb):
		WriteError(w, r, http.StatusBadRequest, "unknown_verb", "unknown verb: "+req.Verb)
	case errors.Is(err, action.ErrConfirmationRequired):
		WriteError(w, r, http.StatusConflict, "confirmation_required", "this verb needs confirmed=true")
	case errors.Is(err, action.ErrNoUndoWindow):
		WriteError(w, r, http.StatusConflict, "no_undo_window", "no undo window open for this listing")
	case err != nil:
		WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
	default:
		writeJSON(w, map[string]any{
			"ok":       true,
			"undoOpen": h.Controller.HasWindow(req.JobID),
			"jobId":    req.JobID,
			"verb":     req.Verb,
		})
	}
}

func (h ActionsHandler) Undo(w http.ResponseWriter, r *http.Request) {
	var req undoRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.JobID) == "" {
		WriteError(w, r, http.StatusBadRequest, "missing_job_id", "jobId is required")
		return
	}

	err := h.Controller.Undo(r.Context(), req.JobID)
	switch {
	case errors.Is(err, action.ErrNoUndoWindow):
		WriteError(w, r, http.StatusConflict, "no_undo_window", "no undo window open for this listing")
	case err != nil:
		WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
	default:
		writeJSON(w, map[string]any{"ok": true, "jobId": req.JobID})
	}
}
