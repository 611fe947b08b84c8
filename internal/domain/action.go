package domain

import "time"

// StateAction is the state-track value for a listing. Latest wins; an undo
// deletes the record outright, so "undone" and "never acted" look the same.
type StateAction string

const (
	ActionApplied       StateAction = "applied"
	ActionNotInterested StateAction = "not_interested"
	ActionUndo          StateAction = "undo"
)

// Vote is the accuracy-track value, independent of the state track.
type Vote string

const (
	VoteRight Vote = "right"
	VoteWrong Vote = "wrong"
)

// ActionRecord is the current decision for one listing on one track.
// For a given job id at most one current action and one current vote exist.
type ActionRecord struct {
	JobID     string      `json:"jobId"`
	Action    StateAction `json:"action,omitempty"`
	Vote      Vote        `json:"vote,omitempty"`
	Timestamp time.Time   `json:"ts"`
}

// Verb is a user-triggered transition handled by the action controller.
type Verb string

const (
	VerbVoteRight         Verb = "vote_right"
	VerbVoteWrong         Verb = "vote_wrong"
	VerbMarkApplied       Verb = "mark_applied"
	VerbMarkNotInterested Verb = "mark_not_interested"
	VerbUndo              Verb = "undo"
)

// IsStateVerb reports whether v changes the state track (and therefore
// needs the user's explicit confirmation before it is applied).
func (v Verb) IsStateVerb() bool {
	return v == VerbMarkApplied || v == VerbMarkNotInterested
}

// IsVoteVerb reports whether v changes the accuracy track.
func (v Verb) IsVoteVerb() bool {
	return v == VerbVoteRight || v == VerbVoteWrong
}

// Valid reports whether v is one of the known verbs.
func (v Verb) Valid() bool {
	switch v {
	case VerbVoteRight, VerbVoteWrong, VerbMarkApplied, VerbMarkNotInterested, VerbUndo:
		return true
	}
	return false
}
