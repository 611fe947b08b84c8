// Package state is the durable local record of the user's own decisions:
// the current action and vote per listing, plus the outbox of writes that
// have not reached the remote sink yet.
package state

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"vacancyboard-engine/internal/domain"
)

// Store keeps the current action/vote per listing. The in-memory maps are
// authoritative for the running session; sqlite writes are best-effort so
// a failing disk never loses the user's click, only its durability.
type Store struct {
	db *sql.DB

	mu      sync.Mutex
	actions map[string]domain.ActionRecord
	votes   map[string]domain.ActionRecord
}

// New loads the current state from db (which must already be migrated).
func New(db *sql.DB) (*Store, error) {
	s := &Store{
		db:      db,
		actions: make(map[string]domain.ActionRecord),
		votes:   make(map[string]domain.ActionRecord),
	}

	rows, err := db.Query(`SELECT job_id, action, ts FROM actions;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rec domain.ActionRecord
		var action, ts string
		if err := rows.Scan(&rec.JobID, &action, &ts); err != nil {
			return nil, err
		}
		rec.Action = domain.StateAction(action)
		rec.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		s.actions[rec.JobID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	vrows, err := db.Query(`SELECT job_id, vote, ts FROM votes;`)
	if err != nil {
		return nil, err
	}
	defer vrows.Close()
	for vrows.Next() {
		var rec domain.ActionRecord
		var vote, ts string
		if err := vrows.Scan(&rec.JobID, &vote, &ts); err != nil {
			return nil, err
		}
		rec.Vote = domain.Vote(vote)
		rec.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		s.votes[rec.JobID] = rec
	}
	return s, vrows.Err()
}

// Action returns the current state-track record for jobID.
func (s *Store) Action(jobID string) (domain.ActionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.actions[jobID]
	return rec, ok
}

// AllActions returns a copy of the current action map, for merging.
func (s *Store) AllActions() map[string]domain.ActionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.ActionRecord, len(s.actions))
	for k, v := range s.actions {
		out[k] = v
	}
	return out
}

// SetAction replaces the current action for jobID. ActionUndo deletes the
// record outright: an undone listing and a never-touched listing are
// indistinguishable afterwards.
func (s *Store) SetAction(jobID string, action domain.StateAction, now time.Time) {
	s.mu.Lock()
	if action == domain.ActionUndo {
		delete(s.actions, jobID)
	} else {
		s.actions[jobID] = domain.ActionRecord{JobID: jobID, Action: action, Timestamp: now}
	}
	s.mu.Unlock()

	var err error
	if action == domain.ActionUndo {
		_, err = s.db.Exec(`DELETE FROM actions WHERE job_id = ?;`, jobID)
	} else {
		_, err = s.db.Exec(`
INSERT INTO actions (job_id, action, ts) VALUES (?, ?, ?)
ON CONFLICT(job_id) DO UPDATE SET action = excluded.action, ts = excluded.ts;`,
			jobID, string(action), now.Format(time.RFC3339Nano))
	}
	if err != nil {
		log.Printf("level=warn msg=\"action persist failed\" job_id=%s err=%v", jobID, err)
	}
}

// Vote returns the current accuracy-track record for jobID.
func (s *Store) Vote(jobID string) (domain.ActionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.votes[jobID]
	return rec, ok
}

// AllVotes returns a copy of the current vote values, for display.
func (s *Store) AllVotes() map[string]domain.Vote {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.Vote, len(s.votes))
	for k, v := range s.votes {
		out[k] = v.Vote
	}
	return out
}

// SetVote replaces the current vote for jobID, independent of the action.
func (s *Store) SetVote(jobID string, vote domain.Vote, now time.Time) {
	s.mu.Lock()
	s.votes[jobID] = domain.ActionRecord{JobID: jobID, Vote: vote, Timestamp: now}
	s.mu.Unlock()

	_, err := s.db.Exec(`
INSERT INTO votes (job_id, vote, ts) VALUES (?, ?, ?)
ON CONFLICT(job_id) DO UPDATE SET vote = excluded.vote, ts = excluded.ts;`,
		jobID, string(vote), now.Format(time.RFC3339Nano))
	if err != nil {
		log.Printf("level=warn msg=\"vote persist failed\" job_id=%s err=%v", jobID, err)
	}
}

// ClearVote removes the current vote for jobID.
func (s *Store) ClearVote(jobID string) {
	s.mu.Lock()
	delete(s.votes, jobID)
	s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM votes WHERE job_id = ?;`, jobID); err != nil {
		log.Printf("level=warn msg=\"vote delete failed\" job_id=%s err=%v", jobID, err)
	}
}
