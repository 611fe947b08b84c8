package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOK(t *testing.T) {
	var gotCacheControl string
	var gotQueries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCacheControl = r.Header.Get("Cache-Control")
		gotQueries = append(gotQueries, r.URL.Query().Get("_"))
		_, _ = w.Write([]byte(`{
  "jobListings": [
    {"id": "a", "title": "Clerk", "deadline": "2025-09-23"},
    {"id": "b", "flags": {"hidden": true}}
  ],
  "sections": {"applied": ["a"]}
}`))
	}))
	defer srv.Close()

	l := NewLoader(srv.URL, srv.URL, 5*time.Second)
	doc, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, doc.JobListings, 2)
	assert.Equal(t, "Clerk", doc.JobListings[0].Title)
	assert.True(t, doc.JobListings[1].Flags.Hidden)
	assert.Equal(t, []string{"a"}, doc.Sections.Applied)

	assert.Equal(t, "no-store", gotCacheControl)
	require.NotEmpty(t, gotQueries[0], "cache-busting param must be sent")

	// a second call must be able to observe a fresh copy
	l.now = func() time.Time { return time.Now().Add(time.Minute) }
	_, err = l.Load(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, gotQueries[0], gotQueries[1])
}

func TestLoadNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	l := NewLoader(srv.URL, srv.URL, 5*time.Second)
	_, err := l.Load(context.Background())
	assert.True(t, errors.Is(err, ErrFeedUnavailable))
}

func TestLoadMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>definitely not json</html>`))
	}))
	defer srv.Close()

	l := NewLoader(srv.URL, srv.URL, 5*time.Second)
	_, err := l.Load(context.Background())
	assert.True(t, errors.Is(err, ErrFeedUnavailable), "malformed body must look identical to a failed fetch")
}

func TestLoadUnreachable(t *testing.T) {
	l := NewLoader("http://127.0.0.1:1/feed.json", "http://127.0.0.1:1/status.json", time.Second)
	_, err := l.Load(context.Background())
	assert.True(t, errors.Is(err, ErrFeedUnavailable))
}

func TestLoadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": true, "lastUpdated": "2025-08-30T10:00:00Z", "listingCount": 42}`))
	}))
	defer srv.Close()

	l := NewLoader(srv.URL, srv.URL, 5*time.Second)
	st, err := l.LoadStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, st.OK)
	assert.Equal(t, 42, st.ListingCount)
}
