// Package refresh owns the render cycle: fetch everything, reconcile,
// partition, publish. Cycles carry a generation token; a slow cycle whose
// data arrives after a newer cycle started is discarded wholesale, so the
// last-issued request's data always wins regardless of arrival order.
package refresh

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"vacancyboard-engine/internal/board"
	"vacancyboard-engine/internal/domain"
	"vacancyboard-engine/internal/events"
	"vacancyboard-engine/internal/feed"
	"vacancyboard-engine/internal/remote"
	"vacancyboard-engine/internal/state"
)

// Snapshot is the fully reconciled view the HTTP layer serves. FeedOK
// false means total feed unavailability: the one condition surfaced to
// the user as a blocking error state.
type Snapshot struct {
	Board       board.Board `json:"board"`
	Status      feed.Status `json:"status"`
	FeedOK      bool        `json:"feedOk"`
	GeneratedAt time.Time   `json:"generatedAt"`
}

type Refresher struct {
	loader     *feed.Loader
	syncer     *remote.Syncer
	store      *state.Store
	hub        *events.Hub
	retryDelay time.Duration
	now        func() time.Time

	gen atomic.Uint64

	mu         sync.Mutex
	snapshot   Snapshot
	haveDoc    bool
	lastDoc    feed.Document
	lastRemote map[string]domain.ActionRecord
}

func NewRefresher(loader *feed.Loader, syncer *remote.Syncer, store *state.Store, hub *events.Hub, retryDelay time.Duration) *Refresher {
	return &Refresher{
		loader:     loader,
		syncer:     syncer,
		store:      store,
		hub:        hub,
		retryDelay: retryDelay,
		now:        time.Now,
	}
}

// Current returns the latest published snapshot.
func (r *Refresher) Current() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}

// Refresh runs one full cycle. Safe to call from anywhere; a newer call
// supersedes any cycle still in flight.
func (r *Refresher) Refresh(ctx context.Context) {
	g := r.gen.Add(1)

	// Resume queued writes on every cycle.
	r.syncer.FlushOutbox(ctx)

	var (
		doc       feed.Document
		feedErr   error
		status    feed.Status
		remoteMap map[string]domain.ActionRecord
	)

	var eg errgroup.Group
	eg.Go(func() error {
		doc, feedErr = r.loadFeedOnce(ctx)
		return nil
	})
	eg.Go(func() error {
		st, err := r.loader.LoadStatus(ctx)
		if err != nil {
			log.Printf("level=warn msg=\"status load failed\" err=%v", err)
			return nil
		}
		status = st
		return nil
	})
	eg.Go(func() error {
		remoteMap = r.syncer.Pull(ctx)
		return nil
	})
	_ = eg.Wait()

	if r.gen.Load() != g {
		// A newer cycle started while we were loading; this data is stale.
		return
	}

	merged := remote.Merge(r.store.AllActions(), remoteMap)
	r.syncer.Push(ctx, merged)

	snap := Snapshot{Status: status, GeneratedAt: r.now()}
	if feedErr != nil {
		log.Printf("level=error msg=\"feed unavailable\" err=%v", feedErr)
	} else {
		snap.FeedOK = true
		snap.Board = board.Partition(doc.JobListings, doc.Sections, merged, r.store.AllVotes(), r.now())
	}

	r.mu.Lock()
	if r.gen.Load() != g {
		r.mu.Unlock()
		return
	}
	r.snapshot = snap
	r.lastRemote = remoteMap
	if feedErr == nil {
		r.lastDoc = doc
		r.haveDoc = true
	}
	r.mu.Unlock()

	if r.hub != nil {
		r.hub.Publish(events.MakeEvent("", "board_updated", 1, map[string]any{"feed_ok": snap.FeedOK}))
	}
}

// Rebuild re-partitions the last fetched feed document against the
// current local state, with no network round trip. Called after every
// verb and undo so the served board reflects the action immediately
// instead of waiting for the next timed cycle. A no-op until a cycle
// has produced a usable document, and while the feed is unavailable:
// the error snapshot must not be papered over with stale listings.
func (r *Refresher) Rebuild() {
	r.mu.Lock()
	if !r.haveDoc || !r.snapshot.FeedOK {
		r.mu.Unlock()
		return
	}
	doc := r.lastDoc
	remoteMap := r.lastRemote
	status := r.snapshot.Status
	r.mu.Unlock()

	merged := remote.Merge(r.store.AllActions(), remoteMap)
	snap := Snapshot{
		Board:       board.Partition(doc.JobListings, doc.Sections, merged, r.store.AllVotes(), r.now()),
		Status:      status,
		FeedOK:      true,
		GeneratedAt: r.now(),
	}

	r.mu.Lock()
	r.snapshot = snap
	r.mu.Unlock()

	if r.hub != nil {
		r.hub.Publish(events.MakeEvent("", "board_updated", 1, map[string]any{"feed_ok": true}))
	}
}

// loadFeedOnce is the feed load with its single bounded retry. The
// loader itself never retries.
func (r *Refresher) loadFeedOnce(ctx context.Context) (feed.Document, error) {
	doc, err := r.loader.Load(ctx)
	if err == nil {
		return doc, nil
	}

	select {
	case <-ctx.Done():
		return feed.Document{}, err
	case <-time.After(r.retryDelay):
	}
	return r.loader.Load(ctx)
}
