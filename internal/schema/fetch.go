package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"go.opencensus.io/trace"
	"golang.org/x/xerrors"
)

// Cache is the process-wide, one-shot-per-endpoint schema cache. On
// first need it introspects the endpoint and memoizes the typed schema
// for the life of the process; it never evicts a success. A failed
// introspection is never memoized, so the next call for the same
// endpoint retries it rather than staying poisoned by a transient
// upstream failure.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	schema *Schema
}

// NewCache builds an empty schema cache.
func NewCache() *Cache {
	return &Cache{entries: map[string]*cacheEntry{}}
}

// HTTPClient is the subset of *http.Client the cache needs; tests supply
// a fake.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Get returns the typed schema for endpoint, introspecting it on first
// call and memoizing the typed schema. headers are the merged
// env-default/session headers to send with the introspection request. A
// failed introspection is returned as a structured error and is never
// memoized, so the next call for the same endpoint retries introspection
// instead of replaying the same failure for the rest of the process's
// life.
func (c *Cache) Get(ctx context.Context, client HTTPClient, endpoint string, headers map[string]string) (*Schema, error) {
	c.mu.Lock()
	if entry, ok := c.entries[endpoint]; ok {
		c.mu.Unlock()
		return entry.schema, nil
	}
	c.mu.Unlock()

	ctx, span := trace.StartSpan(ctx, "schema.Introspect")
	defer span.End()
	span.AddAttributes(trace.StringAttribute("endpoint", endpoint))

	sch, err := introspect(ctx, client, endpoint, headers)
	if err != nil {
		span.SetStatus(trace.Status{Code: trace.StatusCodeUnknown, Message: err.Error()})
		return nil, xerrors.Errorf("schema: introspect %s: %w", endpoint, err)
	}
	sch.Endpoint = endpoint

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[endpoint]; ok {
		// Another caller raced us to populate this endpoint first.
		return entry.schema, nil
	}
	c.entries[endpoint] = &cacheEntry{schema: sch}
	return sch, nil
}

func introspect(ctx context.Context, client HTTPClient, endpoint string, headers map[string]string) (*Schema, error) {
	body, err := json.Marshal(map[string]any{"query": IntrospectionQuery})
	if err != nil {
		return nil, xerrors.Errorf("encode introspection request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, xerrors.Errorf("build introspection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, xerrors.Errorf("introspection request failed: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, xerrors.Errorf("read introspection response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, xerrors.Errorf("introspection endpoint returned status %d", resp.StatusCode)
	}
	return Build(respBody)
}

// DefaultHTTPClient is a 30-second-timeout client suitable for the
// introspection fetch, distinct from the executor's per-call timeouts.
func DefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
