// Package remote reconciles the local action state with the remote copy
// and owns the outbox of writes that failed on the way out. Nothing here
// ever blocks rendering: pull failures degrade to an empty remote map and
// push failures queue silently.
package remote

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"vacancyboard-engine/internal/domain"
	"vacancyboard-engine/internal/sink"
	"vacancyboard-engine/internal/state"
)

// queuedWrite is the outbox payload envelope: either a whole-map state
// replace or a single audit event.
type queuedWrite struct {
	Kind  string                         `json:"kind"` // state_map | event
	State map[string]domain.ActionRecord `json:"state,omitempty"`
	Event json.RawMessage                `json:"event,omitempty"`
}

// Syncer pushes local state to the sink and replays the outbox.
type Syncer struct {
	store   *state.Store
	outbox  *state.Outbox
	client  sink.Client
	limiter *rate.Limiter
	now     func() time.Time

	mu         sync.Mutex
	lastRemote map[string]domain.ActionRecord // last successfully pulled copy
}

func NewSyncer(store *state.Store, outbox *state.Outbox, client sink.Client, writesPerSec float64) *Syncer {
	return &Syncer{
		store:   store,
		outbox:  outbox,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(writesPerSec), 2),
		now:     time.Now,
	}
}

// Pull fetches the remote action-state map. A failed pull yields an empty
// map so local state alone keeps the board working.
func (s *Syncer) Pull(ctx context.Context) map[string]domain.ActionRecord {
	m, err := s.client.FetchStateMap(ctx)
	if err != nil {
		log.Printf("level=warn msg=\"remote state pull failed\" err=%v", err)
		return map[string]domain.ActionRecord{}
	}
	if m == nil {
		m = map[string]domain.ActionRecord{}
	}

	cp := make(map[string]domain.ActionRecord, len(m))
	for k, v := range m {
		cp[k] = v
	}
	s.mu.Lock()
	s.lastRemote = cp
	s.mu.Unlock()
	return m
}

// Merge overlays local on top of remote. Local wins on conflict by origin
// priority, NOT by timestamp comparison: the remote copy may lag the
// device the user is sitting at, so the local intent is taken as current
// even when the remote record carries a newer ts.
func Merge(local, remote map[string]domain.ActionRecord) map[string]domain.ActionRecord {
	out := make(map[string]domain.ActionRecord, len(local)+len(remote))
	for id, rec := range remote {
		out[id] = rec
	}
	for id, rec := range local {
		out[id] = rec
	}
	return out
}

// Push replaces the remote map with merged, best-effort. On failure the
// write is queued and retried until it lands.
func (s *Syncer) Push(ctx context.Context, merged map[string]domain.ActionRecord) {
	if err := s.client.ReplaceStateMap(ctx, merged); err != nil {
		log.Printf("level=warn msg=\"state push failed, queueing\" err=%v", err)
		s.enqueue(ctx, queuedWrite{Kind: "state_map", State: merged})
	}
}

// PushMerged overlays the local map on the last successfully pulled
// remote copy and pushes the result. The state document is a whole-map
// replace, so pushing the bare local map would erase records that exist
// only on another device. When no remote copy has been seen yet, a
// fresh pull backs the merge; a failed pull never overwrites the
// cached copy.
func (s *Syncer) PushMerged(ctx context.Context) map[string]domain.ActionRecord {
	s.mu.Lock()
	rm := s.lastRemote
	s.mu.Unlock()
	if rm == nil {
		rm = s.Pull(ctx)
	}

	merged := Merge(s.store.AllActions(), rm)
	s.Push(ctx, merged)
	return merged
}

// Audit appends one discrete event record to the audit sink, queueing on
// failure. The audit log and the state map are not transactionally linked.
func (s *Syncer) Audit(ctx context.Context, ev sink.Event) {
	raw, err := ev.Marshal()
	if err != nil {
		// Schema rejection is a programming error, not a network failure;
		// queueing it would retry forever.
		log.Printf("level=error msg=\"audit payload rejected\" type=%s err=%v", ev.Type, err)
		return
	}
	if err := s.client.AppendEvent(ctx, raw); err != nil {
		log.Printf("level=warn msg=\"audit append failed, queueing\" type=%s err=%v", ev.Type, err)
		s.enqueue(ctx, queuedWrite{Kind: "event", Event: raw})
	}
}

func (s *Syncer) enqueue(ctx context.Context, w queuedWrite) {
	b, err := json.Marshal(w)
	if err != nil {
		log.Printf("level=error msg=\"outbox marshal failed\" err=%v", err)
		return
	}
	if err := s.outbox.Enqueue(ctx, b, s.now()); err != nil {
		log.Printf("level=error msg=\"outbox enqueue failed\" err=%v", err)
	}
}

// SyncCycle runs one pull/merge/push round and returns the merged map for
// partitioning.
func (s *Syncer) SyncCycle(ctx context.Context) map[string]domain.ActionRecord {
	remote := s.Pull(ctx)
	merged := Merge(s.store.AllActions(), remote)
	s.Push(ctx, merged)
	return merged
}

// FlushOutbox replays every queued write, oldest first, removing entries
// that finally succeed. Still-failing entries stay queued; there is no
// retry cap. Replays are paced by the limiter so a long backlog cannot
// hammer the sink.
func (s *Syncer) FlushOutbox(ctx context.Context) {
	entries, err := s.outbox.All(ctx)
	if err != nil {
		log.Printf("level=warn msg=\"outbox read failed\" err=%v", err)
		return
	}

	for _, e := range entries {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}

		var w queuedWrite
		if err := json.Unmarshal(e.Payload, &w); err != nil {
			// Unreadable entries can never succeed; drop them.
			log.Printf("level=error msg=\"dropping corrupt outbox entry\" id=%d err=%v", e.ID, err)
			_ = s.outbox.Remove(ctx, e.ID)
			continue
		}

		var sendErr error
		switch w.Kind {
		case "state_map":
			sendErr = s.client.ReplaceStateMap(ctx, w.State)
		case "event":
			sendErr = s.client.AppendEvent(ctx, w.Event)
		default:
			log.Printf("level=error msg=\"dropping unknown outbox kind\" id=%d kind=%s", e.ID, w.Kind)
			_ = s.outbox.Remove(ctx, e.ID)
			continue
		}

		if sendErr != nil {
			_ = s.outbox.MarkAttempt(ctx, e.ID)
			continue
		}
		if err := s.outbox.Remove(ctx, e.ID); err != nil {
			log.Printf("level=warn msg=\"outbox remove failed\" id=%d err=%v", e.ID, err)
		}
	}
}
