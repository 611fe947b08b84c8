package refresh

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacancyboard-engine/internal/domain"
	"vacancyboard-engine/internal/events"
	"vacancyboard-engine/internal/feed"
	"vacancyboard-engine/internal/remote"
	"vacancyboard-engine/internal/state"
)

type staticSink struct {
	mu       sync.Mutex
	stateMap map[string]domain.ActionRecord
	replaced int
}

func (s *staticSink) FetchStateMap(ctx context.Context) (map[string]domain.ActionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.ActionRecord, len(s.stateMap))
	for k, v := range s.stateMap {
		out[k] = v
	}
	return out, nil
}

func (s *staticSink) ReplaceStateMap(ctx context.Context, m map[string]domain.ActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaced++
	return nil
}

func (s *staticSink) AppendEvent(ctx context.Context, payload json.RawMessage) error {
	return nil
}

func feedDoc(titles ...string) feed.Document {
	doc := feed.Document{}
	for i, title := range titles {
		doc.JobListings = append(doc.JobListings, domain.Listing{
			ID:       "j" + string(rune('1'+i)),
			Title:    title,
			Deadline: "2099-01-02",
		})
	}
	return doc
}

func newRefresher(t *testing.T, name string, srv *httptest.Server, sk *staticSink, retryDelay time.Duration) (*Refresher, *events.Hub, *state.Store) {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, state.Migrate(db))

	store, err := state.New(db)
	require.NoError(t, err)

	loader := feed.NewLoader(srv.URL+"/feed", srv.URL+"/status", 2*time.Second)
	syncer := remote.NewSyncer(store, state.NewOutbox(db), sk, 1000)
	hub := events.NewHub()
	return NewRefresher(loader, syncer, store, hub, retryDelay), hub, store
}

func TestRefreshPublishesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed":
			_ = json.NewEncoder(w).Encode(feedDoc("Clerk", "Analyst"))
		case "/status":
			_ = json.NewEncoder(w).Encode(feed.Status{OK: true, ListingCount: 2})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	sk := &staticSink{stateMap: map[string]domain.ActionRecord{
		"j2": {JobID: "j2", Action: domain.ActionApplied, Timestamp: time.Now().UTC()},
	}}
	r, hub, _ := newRefresher(t, "pub", srv, sk, time.Millisecond)

	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	r.Refresh(context.Background())

	snap := r.Current()
	require.True(t, snap.FeedOK)
	assert.False(t, snap.GeneratedAt.IsZero())
	assert.True(t, snap.Status.OK)
	require.Len(t, snap.Board.Open, 1)
	assert.Equal(t, "Clerk", snap.Board.Open[0].Title)
	require.Len(t, snap.Board.Applied, 1)
	assert.Equal(t, "Analyst", snap.Board.Applied[0].Title)

	select {
	case evt := <-ch:
		assert.Contains(t, evt, "board_updated")
	case <-time.After(time.Second):
		t.Fatal("no board_updated event published")
	}

	sk.mu.Lock()
	defer sk.mu.Unlock()
	assert.Equal(t, 1, sk.replaced, "merged map must be pushed back")
}

func TestRefreshFeedUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r, _, _ := newRefresher(t, "down", srv, &staticSink{}, time.Millisecond)
	r.Refresh(context.Background())

	snap := r.Current()
	assert.False(t, snap.FeedOK)
	assert.Empty(t, snap.Board.Open)
	assert.False(t, snap.GeneratedAt.IsZero(), "unavailable still publishes an explicit snapshot")
}

func TestRefreshRetriesFeedOnce(t *testing.T) {
	var feedHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed":
			if feedHits.Add(1) == 1 {
				http.Error(w, "hiccup", http.StatusInternalServerError)
				return
			}
			_ = json.NewEncoder(w).Encode(feedDoc("Clerk"))
		default:
			_ = json.NewEncoder(w).Encode(feed.Status{OK: true})
		}
	}))
	defer srv.Close()

	r, _, _ := newRefresher(t, "retry", srv, &staticSink{}, time.Millisecond)
	r.Refresh(context.Background())

	assert.Equal(t, int32(2), feedHits.Load())
	assert.True(t, r.Current().FeedOK)
}

func TestRebuildAppliesLocalStateWithoutRefetch(t *testing.T) {
	var feedHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed":
			feedHits.Add(1)
			_ = json.NewEncoder(w).Encode(feedDoc("Clerk", "Analyst"))
		default:
			_ = json.NewEncoder(w).Encode(feed.Status{OK: true, ListingCount: 2})
		}
	}))
	defer srv.Close()

	r, hub, store := newRefresher(t, "rebuild", srv, &staticSink{}, time.Millisecond)

	// nothing cached yet: rebuild has nothing to work from
	r.Rebuild()
	assert.True(t, r.Current().GeneratedAt.IsZero())

	r.Refresh(context.Background())
	require.Len(t, r.Current().Board.Open, 2)
	hits := feedHits.Load()

	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	store.SetAction("j1", domain.ActionApplied, time.Now())
	r.Rebuild()

	snap := r.Current()
	require.Len(t, snap.Board.Applied, 1)
	assert.Equal(t, "Clerk", snap.Board.Applied[0].Title)
	require.Len(t, snap.Board.Open, 1)
	assert.Equal(t, hits, feedHits.Load(), "rebuild must not touch the network")

	select {
	case evt := <-ch:
		assert.Contains(t, evt, "board_updated")
	case <-time.After(time.Second):
		t.Fatal("no board_updated event published")
	}
}

func TestRebuildKeepsFeedUnavailableState(t *testing.T) {
	var down atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/feed" && down.Load():
			http.Error(w, "down", http.StatusServiceUnavailable)
		case r.URL.Path == "/feed":
			_ = json.NewEncoder(w).Encode(feedDoc("Clerk"))
		default:
			_ = json.NewEncoder(w).Encode(feed.Status{OK: true})
		}
	}))
	defer srv.Close()

	r, _, store := newRefresher(t, "rebuilddown", srv, &staticSink{}, time.Millisecond)
	ctx := context.Background()

	r.Refresh(ctx)
	require.True(t, r.Current().FeedOK)

	down.Store(true)
	r.Refresh(ctx)
	require.False(t, r.Current().FeedOK)

	// actions during an outage must not dress stale listings up as live
	store.SetAction("j1", domain.ActionApplied, time.Now())
	r.Rebuild()
	assert.False(t, r.Current().FeedOK)
	assert.Empty(t, r.Current().Board.Applied)
}

func TestStaleCycleDiscarded(t *testing.T) {
	var feedHits atomic.Int32
	firstArrived := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed":
			if feedHits.Add(1) == 1 {
				close(firstArrived)
				<-release
				_ = json.NewEncoder(w).Encode(feedDoc("Old"))
				return
			}
			_ = json.NewEncoder(w).Encode(feedDoc("New"))
		default:
			_ = json.NewEncoder(w).Encode(feed.Status{OK: true})
		}
	}))
	defer srv.Close()

	r, _, _ := newRefresher(t, "stale", srv, &staticSink{}, time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Refresh(context.Background())
	}()
	<-firstArrived

	// a newer cycle completes while the first is still in flight
	r.Refresh(context.Background())
	require.Len(t, r.Current().Board.Open, 1)
	assert.Equal(t, "New", r.Current().Board.Open[0].Title)

	close(release)
	<-done

	// the slow cycle's data never lands
	require.Len(t, r.Current().Board.Open, 1)
	assert.Equal(t, "New", r.Current().Board.Open[0].Title)
}
