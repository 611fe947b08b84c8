// Package feed reads the immutable job-list snapshot and the small
// health/status document. Read-only: the engine never writes here.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"vacancyboard-engine/internal/domain"
)

// ErrFeedUnavailable is the only error callers see from Load: fetch
// failures, non-2xx statuses, and malformed bodies all collapse into it.
// Callers render an explicit "no data" state, never stale data.
var ErrFeedUnavailable = errors.New("feed unavailable")

// Document is the feed snapshot wire shape.
type Document struct {
	JobListings []domain.Listing `json:"jobListings"`
	Sections    domain.Sections  `json:"sections"`
}

// Status is the health snapshot shown in the status banner.
type Status struct {
	OK           bool   `json:"ok"`
	LastUpdated  string `json:"lastUpdated"`
	ListingCount int    `json:"listingCount"`
}

type Loader struct {
	feedURL   string
	statusURL string
	hc        *http.Client
	now       func() time.Time
}

// NewLoader builds a loader with an explicit per-attempt timeout. Retry
// policy is the caller's concern, not the loader's.
func NewLoader(feedURL, statusURL string, timeout time.Duration) *Loader {
	return &Loader{
		feedURL:   feedURL,
		statusURL: statusURL,
		hc:        &http.Client{Timeout: timeout},
		now:       time.Now,
	}
}

// Load fetches a fresh copy of the feed. Every call defeats intermediate
// caches with a no-store header and a cache-busting query param.
func (l *Loader) Load(ctx context.Context) (Document, error) {
	var doc Document
	if err := l.getJSON(ctx, l.feedURL, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// LoadStatus fetches the health snapshot. Failures here are non-fatal to
// the board; callers degrade the banner, not the listings.
func (l *Loader) LoadStatus(ctx context.Context) (Status, error) {
	var st Status
	if err := l.getJSON(ctx, l.statusURL, &st); err != nil {
		return Status{}, err
	}
	return st, nil
}

func (l *Loader) getJSON(ctx context.Context, rawURL string, v any) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	q := u.Query()
	q.Set("_", strconv.FormatInt(l.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("User-Agent", "VacancyBoard/1.0 (+local)")

	res, err := l.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrFeedUnavailable, res.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(res.Body, 16<<20)).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	return nil
}
