package submit

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacancyboard-engine/internal/domain"
	"vacancyboard-engine/internal/remote"
	"vacancyboard-engine/internal/sink"
	"vacancyboard-engine/internal/state"
)

type captureSink struct {
	mu       sync.Mutex
	appended []sink.Event
}

func (c *captureSink) FetchStateMap(ctx context.Context) (map[string]domain.ActionRecord, error) {
	return nil, nil
}
func (c *captureSink) ReplaceStateMap(ctx context.Context, m map[string]domain.ActionRecord) error {
	return nil
}
func (c *captureSink) AppendEvent(ctx context.Context, payload json.RawMessage) error {
	var ev sink.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appended = append(c.appended, ev)
	return nil
}

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.appended)
}

func newService(t *testing.T, name string) (*Service, *captureSink) {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, state.Migrate(db))

	store, err := state.New(db)
	require.NoError(t, err)
	cs := &captureSink{}
	return NewService(remote.NewSyncer(store, state.NewOutbox(db), cs, 1000)), cs
}

func TestReportValidation(t *testing.T) {
	s, cs := newService(t, "repval")
	ctx := context.Background()

	err := s.SubmitReport(ctx, Report{Reason: "wrong deadline"})
	assert.ErrorIs(t, err, ErrValidation)

	err = s.SubmitReport(ctx, Report{JobID: "j1"})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Zero(t, cs.count(), "invalid reports must never be sent")

	require.NoError(t, s.SubmitReport(ctx, Report{JobID: "j1", Reason: "wrong deadline"}))
	require.Eventually(t, func() bool { return cs.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestMissingValidation(t *testing.T) {
	s, _ := newService(t, "missval")
	ctx := context.Background()

	assert.ErrorIs(t, s.SubmitMissing(ctx, Missing{URL: "https://example.org/j"}), ErrValidation)
	assert.ErrorIs(t, s.SubmitMissing(ctx, Missing{Title: "Clerk"}), ErrValidation)
	require.NoError(t, s.SubmitMissing(ctx, Missing{Title: "Clerk", URL: "https://example.org/j"}))
}

func TestDuplicateURLRejectedLocally(t *testing.T) {
	s, cs := newService(t, "dup")
	ctx := context.Background()

	require.NoError(t, s.SubmitMissing(ctx, Missing{Title: "Clerk", URL: "https://Example.org/jobs/1?utm_source=x"}))

	// same listing URL modulo case, tracking params and fragment
	err := s.SubmitMissing(ctx, Missing{Title: "Clerk again", URL: "https://example.org/jobs/1#apply"})
	assert.ErrorIs(t, err, ErrDuplicate)

	require.Eventually(t, func() bool { return cs.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, cs.count(), "duplicate must not trigger a network call")
}

func TestCanonicalizeURL(t *testing.T) {
	tests := []struct {
		a, b string
		same bool
	}{
		{"https://Example.org/J?utm_source=a", "https://example.org/J", true},
		{"https://example.org/j#frag", "https://example.org/j", true},
		{"https://example.org/j?b=2&a=1", "https://example.org/j?a=1&b=2", true},
		{"https://example.org/one", "https://example.org/two", false},
	}
	for _, tc := range tests {
		if tc.same {
			assert.Equal(t, CanonicalizeURL(tc.a), CanonicalizeURL(tc.b))
		} else {
			assert.NotEqual(t, CanonicalizeURL(tc.a), CanonicalizeURL(tc.b))
		}
	}
	assert.Empty(t, CanonicalizeURL("  "))
}
