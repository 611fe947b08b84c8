package httpapi

import (
	"net/http"
	"strings"

	"vacancyboard-engine/internal/secrets"
)

type SecretsHandler struct{}

type sinkTokenRequest struct {
	Token string `json:"token"`
}

// SetSinkToken stores the remote sink's bearer token in the OS keychain.
// The token never touches the config file or the database.
func (h SecretsHandler) SetSinkToken(w http.ResponseWriter, r *http.Request) {
	var req sinkTokenRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		WriteError(w, r, http.StatusBadRequest, "empty_token", "token is required")
		return
	}
	if err := secrets.SetSinkToken(req.Token); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "keychain_failed", err.Error())
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (h SecretsHandler) DeleteSinkToken(w http.ResponseWriter, r *http.Request) {
	if err := secrets.DeleteSinkToken(); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "keychain_failed", err.Error())
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}
