package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacancyboard-engine/internal/domain"
)

func setupDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func TestSetActionLatestWins(t *testing.T) {
	db := setupDB(t, "actions1")
	s, err := New(db)
	require.NoError(t, err)

	now := time.Now()
	s.SetAction("j1", domain.ActionApplied, now)
	rec, ok := s.Action("j1")
	require.True(t, ok)
	assert.Equal(t, domain.ActionApplied, rec.Action)

	s.SetAction("j1", domain.ActionNotInterested, now.Add(time.Second))
	rec, ok = s.Action("j1")
	require.True(t, ok)
	assert.Equal(t, domain.ActionNotInterested, rec.Action)

	assert.Len(t, s.AllActions(), 1)
}

func TestUndoDeletesRecordEntirely(t *testing.T) {
	db := setupDB(t, "actions2")
	s, err := New(db)
	require.NoError(t, err)

	s.SetAction("j1", domain.ActionApplied, time.Now())
	s.SetAction("j1", domain.ActionUndo, time.Now())

	_, ok := s.Action("j1")
	assert.False(t, ok, "undone record must be absent, not a tombstone")

	// and gone from disk too
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM actions;`).Scan(&n))
	assert.Zero(t, n)
}

func TestVotesIndependentOfActions(t *testing.T) {
	db := setupDB(t, "votes1")
	s, err := New(db)
	require.NoError(t, err)

	now := time.Now()
	s.SetAction("j1", domain.ActionApplied, now)
	s.SetVote("j1", domain.VoteWrong, now)

	s.SetAction("j1", domain.ActionUndo, now)
	rec, ok := s.Vote("j1")
	require.True(t, ok, "undoing the action must not touch the vote")
	assert.Equal(t, domain.VoteWrong, rec.Vote)

	s.ClearVote("j1")
	_, ok = s.Vote("j1")
	assert.False(t, ok)
}

func TestStateSurvivesReload(t *testing.T) {
	db := setupDB(t, "reload1")
	s, err := New(db)
	require.NoError(t, err)

	now := time.Now()
	s.SetAction("j1", domain.ActionApplied, now)
	s.SetVote("j2", domain.VoteRight, now)

	// a second Store over the same db simulates a restart
	s2, err := New(db)
	require.NoError(t, err)

	rec, ok := s2.Action("j1")
	require.True(t, ok)
	assert.Equal(t, domain.ActionApplied, rec.Action)
	assert.Equal(t, map[string]domain.Vote{"j2": domain.VoteRight}, s2.AllVotes())
}

func TestOutboxLifecycle(t *testing.T) {
	db := setupDB(t, "outbox1")
	ob := NewOutbox(db)
	ctx := context.Background()

	first := time.Now()
	require.NoError(t, ob.Enqueue(ctx, json.RawMessage(`{"type":"vote","vote":"right","jobId":"j1"}`), first))
	require.NoError(t, ob.Enqueue(ctx, json.RawMessage(`{"type":"state"}`), first.Add(time.Second)))

	entries, err := ob.All(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Less(t, entries[0].ID, entries[1].ID, "oldest first")
	assert.Equal(t, 1, entries[0].Attempts)

	require.NoError(t, ob.MarkAttempt(ctx, entries[0].ID))
	entries, err = ob.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, entries[0].Attempts)

	require.NoError(t, ob.Remove(ctx, entries[0].ID))
	depth, err := ob.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, depth)
}
