// Package submit handles the two free-text forms: accuracy reports about
// an existing listing and missing-vacancy submissions. Both are validated
// locally before anything is sent, and an identical normalized URL is
// rejected for the rest of the session without a network call.
package submit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"vacancyboard-engine/internal/remote"
	"vacancyboard-engine/internal/sink"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrDuplicate  = errors.New("duplicate submission")
)

// Report flags one listing as inaccurate.
type Report struct {
	JobID       string `json:"jobId"`
	Reason      string `json:"reason"`
	EvidenceURL string `json:"evidenceUrl,omitempty"`
	Note        string `json:"note,omitempty"`
}

// Missing submits a vacancy the feed does not carry.
type Missing struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	LastDate string `json:"lastDate,omitempty"`
	Note     string `json:"note,omitempty"`
}

// Service validates and dispatches submissions. The seen set is session
// scoped on purpose: it dies with the process.
type Service struct {
	syncer *remote.Syncer
	now    func() time.Time

	mu   sync.Mutex
	seen map[string]bool
}

func NewService(syncer *remote.Syncer) *Service {
	return &Service{syncer: syncer, now: time.Now, seen: make(map[string]bool)}
}

// SubmitReport validates and dispatches one accuracy report.
func (s *Service) SubmitReport(ctx context.Context, r Report) error {
	if strings.TrimSpace(r.JobID) == "" {
		return fmt.Errorf("%w: jobId is required", ErrValidation)
	}
	if strings.TrimSpace(r.Reason) == "" {
		return fmt.Errorf("%w: reason is required", ErrValidation)
	}
	if err := s.claimURL(r.EvidenceURL); err != nil {
		return err
	}

	s.dispatch(sink.ReportEvent(r.JobID, r.Reason, r.EvidenceURL, r.Note, s.now()))
	return nil
}

// SubmitMissing validates and dispatches one missing-vacancy submission.
func (s *Service) SubmitMissing(ctx context.Context, m Missing) error {
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(m.URL) == "" {
		return fmt.Errorf("%w: url is required", ErrValidation)
	}
	if err := s.claimURL(m.URL); err != nil {
		return err
	}

	s.dispatch(sink.MissingEvent(m.Title, m.URL, m.LastDate, m.Note, s.now()))
	return nil
}

// dispatch fires the audit write in the background with its own lifetime,
// so a finished HTTP request cannot cancel it mid-flight.
func (s *Service) dispatch(ev sink.Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.syncer.Audit(ctx, ev)
	}()
}

// claimURL marks a normalized URL as submitted, rejecting repeats.
// Empty URLs are never deduped.
func (s *Service) claimURL(raw string) error {
	key := CanonicalizeURL(raw)
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[key] {
		return ErrDuplicate
	}
	s.seen[key] = true
	return nil
}
