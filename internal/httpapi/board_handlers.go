package httpapi

import (
	"net/http"
	"strings"
	"time"

	"vacancyboard-engine/internal/board"
	"vacancyboard-engine/internal/feed"
	"vacancyboard-engine/internal/refresh"
)

type BoardHandler struct {
	Refresher *refresh.Refresher
}

type boardResponse struct {
	FeedOK      bool        `json:"feedOk"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Status      feed.Status `json:"status"`
	Board       board.Board `json:"board"`
}

// Get serves the current snapshot with the request's facet filters
// applied per column. Facets come as repeatable or comma-joined query
// params: ?urgency=urgent,soon&source=linkedin.
func (h BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap := h.Refresher.Current()

	q := r.URL.Query()
	f := board.Facets{
		Urgency:  facetParam(q["urgency"]),
		Qual:     facetParam(q["qual"]),
		Domicile: facetParam(q["domicile"]),
		Source:   facetParam(q["source"]),
	}

	b := snap.Board
	if !f.Empty() {
		b = board.Board{
			Open:    board.Filter(b.Open, f),
			Applied: board.Filter(b.Applied, f),
			Other:   board.Filter(b.Other, f),
		}
	}

	writeJSON(w, boardResponse{
		FeedOK:      snap.FeedOK,
		GeneratedAt: snap.GeneratedAt,
		Status:      snap.Status,
		Board:       b,
	})
}

func facetParam(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
