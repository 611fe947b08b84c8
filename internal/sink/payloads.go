// Package sink talks to the remote write proxy: the whole-map action
// state document and the append-only audit log. Payloads crossing this
// boundary are tagged variants validated against JSON Schemas before
// anything is sent.
package sink

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"vacancyboard-engine/internal/domain"
)

// Event is one append-only audit record. Type is the discriminator:
// vote, report, missing, state, or undo_<verb>.
type Event struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	JobID    string `json:"jobId,omitempty"`
	Vote     string `json:"vote,omitempty"`
	Action   string `json:"action,omitempty"`
	Title    string `json:"title,omitempty"`
	URL      string `json:"url,omitempty"`
	LastDate string `json:"lastDate,omitempty"`
	Note     string `json:"note,omitempty"`
	TS       string `json:"ts"`
}

func newEvent(typ string, now time.Time) Event {
	return Event{ID: uuid.NewString(), Type: typ, TS: now.UTC().Format(time.RFC3339)}
}

// VoteEvent records an accuracy vote on a listing.
func VoteEvent(jobID string, vote domain.Vote, now time.Time) Event {
	e := newEvent("vote", now)
	e.JobID = jobID
	e.Vote = string(vote)
	return e
}

// StateEvent records a state-track change (applied / not_interested).
func StateEvent(jobID string, action domain.StateAction, now time.Time) Event {
	e := newEvent("state", now)
	e.JobID = jobID
	e.Action = string(action)
	return e
}

// UndoEvent records the reversal of an earlier verb, e.g. undo_applied.
func UndoEvent(jobID, undone string, now time.Time) Event {
	e := newEvent("undo_"+undone, now)
	e.JobID = jobID
	return e
}

// ReportEvent records a free-text accuracy report about one listing.
func ReportEvent(jobID, title, url, note string, now time.Time) Event {
	e := newEvent("report", now)
	e.JobID = jobID
	e.Title = title
	e.URL = url
	e.Note = note
	return e
}

// MissingEvent records a user-submitted vacancy the feed does not carry.
func MissingEvent(title, url, lastDate, note string, now time.Time) Event {
	e := newEvent("missing", now)
	e.Title = title
	e.URL = url
	e.LastDate = lastDate
	e.Note = note
	return e
}

// Marshal validates the event against its schema and returns the wire
// bytes. Malformed shapes are rejected here, before any network call.
func (e Event) Marshal() (json.RawMessage, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	if err := ValidateEvent(b); err != nil {
		return nil, err
	}
	return b, nil
}
