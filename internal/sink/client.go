package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vacancyboard-engine/internal/domain"
)

// Client is what the synchronizer needs from the write proxy. The state
// document is whole-map fetch/replace; events are append-only and their
// response bodies are not interpreted beyond success.
type Client interface {
	FetchStateMap(ctx context.Context) (map[string]domain.ActionRecord, error)
	ReplaceStateMap(ctx context.Context, m map[string]domain.ActionRecord) error
	AppendEvent(ctx context.Context, payload json.RawMessage) error
}

// HTTPClient talks to the proxy over plain JSON/HTTP with a bearer token.
// A 403 from origin allow-listing looks like any other failed write.
type HTTPClient struct {
	BaseURL    string
	StatePath  string // default /v1/state
	EventsPath string // default /v1/events
	Token      string

	hc *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		BaseURL:    baseURL,
		StatePath:  "/v1/state",
		EventsPath: "/v1/events",
		Token:      token,
		hc:         &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "VacancyBoard/1.0 (+local)")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return c.hc.Do(req)
}

func (c *HTTPClient) FetchStateMap(ctx context.Context) (map[string]domain.ActionRecord, error) {
	res, err := c.do(ctx, http.MethodGet, c.StatePath, nil)
	if err != nil {
		return nil, fmt.Errorf("sink fetch state: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("sink fetch state: status %d", res.StatusCode)
	}

	var m map[string]domain.ActionRecord
	if err := json.NewDecoder(io.LimitReader(res.Body, 4<<20)).Decode(&m); err != nil {
		return nil, fmt.Errorf("sink decode state: %w", err)
	}
	for id, rec := range m {
		rec.JobID = id
		m[id] = rec
	}
	return m, nil
}

func (c *HTTPClient) ReplaceStateMap(ctx context.Context, m map[string]domain.ActionRecord) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	res, err := c.do(ctx, http.MethodPut, c.StatePath, b)
	if err != nil {
		return fmt.Errorf("sink replace state: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("sink replace state: status %d", res.StatusCode)
	}
	return nil
}

func (c *HTTPClient) AppendEvent(ctx context.Context, payload json.RawMessage) error {
	if err := ValidateEvent(payload); err != nil {
		return err
	}
	res, err := c.do(ctx, http.MethodPost, c.EventsPath, payload)
	if err != nil {
		return fmt.Errorf("sink append event: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("sink append event: status %d", res.StatusCode)
	}
	return nil
}
