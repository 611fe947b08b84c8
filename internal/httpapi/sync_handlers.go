package httpapi

import (
	"net/http"

	"vacancyboard-engine/internal/refresh"
	"vacancyboard-engine/internal/state"
)

type SyncHandler struct {
	Outbox    *state.Outbox
	Refresher *refresh.Refresher
}

// Status reports the retry queue depth and the last snapshot's vitals.
func (h SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	depth, err := h.Outbox.Depth(r.Context())
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "outbox_read_failed", err.Error())
		return
	}
	snap := h.Refresher.Current()
	writeJSON(w, map[string]any{
		"queuedWrites": depth,
		"feedOk":       snap.FeedOK,
		"lastRefresh":  snap.GeneratedAt,
	})
}

type RefreshHandler struct {
	Trigger func()
}

// Run kicks one refresh cycle without waiting for it. The result arrives
// over SSE as board_updated.
func (h RefreshHandler) Run(w http.ResponseWriter, r *http.Request) {
	h.Trigger()
	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}
