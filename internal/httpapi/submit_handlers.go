package httpapi

import (
	"errors"
	"net/http"

	"vacancyboard-engine/internal/submit"
)

type SubmitHandler struct {
	Svc *submit.Service
}

func (h SubmitHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req submit.Report
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid JSON: "+err.Error())
		return
	}
	h.respond(w, r, h.Svc.SubmitReport(r.Context(), req))
}

func (h SubmitHandler) Missing(w http.ResponseWriter, r *http.Request) {
	var req submit.Missing
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid JSON: "+err.Error())
		return
	}
	h.respond(w, r, h.Svc.SubmitMissing(r.Context(), req))
}

func (h SubmitHandler) respond(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, submit.ErrValidation):
		WriteError(w, r, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, submit.ErrDuplicate):
		WriteError(w, r, http.StatusConflict, "duplicate_submission", "this URL was already submitted in this session")
	case err != nil:
		WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
	default:
		writeJSON(w, map[string]any{"ok": true})
	}
}
