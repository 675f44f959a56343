package schema

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
)

type fakeHTTPClient struct {
	calls    atomic.Int32
	status   int
	body     string
	err      error
	headers  http.Header
}

func (f *fakeHTTPClient) Do(req *http.Request) (*http.Response, error) {
	f.calls.Add(1)
	f.headers = req.Header
	if f.err != nil {
		return nil, f.err
	}
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(strings.NewReader(f.body)),
	}, nil
}

func TestCacheGetIntrospectsOnFirstCall(t *testing.T) {
	client := &fakeHTTPClient{status: http.StatusOK, body: sampleIntrospectionJSON}
	c := NewCache()

	sch, err := c.Get(context.Background(), client, "https://example.test/graphql", map[string]string{"Authorization": "Bearer tok"})
	if err != nil {
		t.Fatal(err)
	}
	if sch.QueryTypeName != "Query" {
		t.Errorf("QueryTypeName = %q", sch.QueryTypeName)
	}
	if sch.Endpoint != "https://example.test/graphql" {
		t.Errorf("Endpoint = %q", sch.Endpoint)
	}
	if got := client.headers.Get("Authorization"); got != "Bearer tok" {
		t.Errorf("Authorization header = %q", got)
	}
	if client.calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", client.calls.Load())
	}
}

func TestCacheGetMemoizesSecondCall(t *testing.T) {
	client := &fakeHTTPClient{status: http.StatusOK, body: sampleIntrospectionJSON}
	c := NewCache()
	ctx := context.Background()

	if _, err := c.Get(ctx, client, "https://example.test/graphql", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, client, "https://example.test/graphql", nil); err != nil {
		t.Fatal(err)
	}
	if client.calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (second Get should hit the cache)", client.calls.Load())
	}
}

func TestCacheGetRetriesAfterFailure(t *testing.T) {
	client := &fakeHTTPClient{status: http.StatusInternalServerError, body: ""}
	c := NewCache()
	ctx := context.Background()

	_, err1 := c.Get(ctx, client, "https://example.test/graphql", nil)
	if err1 == nil {
		t.Fatal("want error from failing introspection")
	}
	_, err2 := c.Get(ctx, client, "https://example.test/graphql", nil)
	if err2 == nil {
		t.Fatal("want error from failing introspection on retry")
	}
	if client.calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 (a failed introspection must not be cached, so the next call retries)", client.calls.Load())
	}

	client.status = http.StatusOK
	client.body = sampleIntrospectionJSON
	sch, err3 := c.Get(ctx, client, "https://example.test/graphql", nil)
	if err3 != nil {
		t.Fatalf("want success once the upstream recovers, got: %v", err3)
	}
	if sch.QueryTypeName != "Query" {
		t.Errorf("QueryTypeName = %q", sch.QueryTypeName)
	}
	if client.calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", client.calls.Load())
	}

	if _, err4 := c.Get(ctx, client, "https://example.test/graphql", nil); err4 != nil {
		t.Fatalf("want the now-successful introspection to be memoized: %v", err4)
	}
	if client.calls.Load() != 3 {
		t.Errorf("calls = %d, want 3 (success should be memoized)", client.calls.Load())
	}
}

func TestCacheGetDistinctEndpointsIndependentlyCached(t *testing.T) {
	client := &fakeHTTPClient{status: http.StatusOK, body: sampleIntrospectionJSON}
	c := NewCache()
	ctx := context.Background()

	if _, err := c.Get(ctx, client, "https://a.test/graphql", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, client, "https://b.test/graphql", nil); err != nil {
		t.Fatal(err)
	}
	if client.calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 (distinct endpoints each introspected once)", client.calls.Load())
	}
}
