package store

import (
	"context"
	"encoding/json"
	"testing"

	"querysculptor/internal/querystate"
)

func TestSaveLoadRoundTripsThroughMemoryWhenRedisUnconfigured(t *testing.T) {
	s := New("")
	ctx := context.Background()

	want := querystate.NewQueryState("query", "Query", map[string]string{"Authorization": "Bearer x"})
	if _, err := want.InsertField("", "viewer", ""); err != nil {
		t.Fatal(err)
	}

	if err := s.Save(ctx, "abc123", want); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(ctx, "abc123")
	if err != nil {
		t.Fatal(err)
	}

	wantJSON, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}
	gotJSON, err := json.Marshal(got)
	if err != nil {
		t.Fatal(err)
	}
	if string(wantJSON) != string(gotJSON) {
		t.Errorf("round-tripped state differs:\nwant %s\ngot  %s", wantJSON, gotJSON)
	}
}

func TestLoadUnknownSessionFails(t *testing.T) {
	s := New("")
	if _, err := s.Load(context.Background(), "nope"); err == nil {
		t.Error("Load(unknown session): want error, got nil")
	}
}

func TestDeleteThenLoadFails(t *testing.T) {
	s := New("")
	ctx := context.Background()
	state := querystate.NewQueryState("query", "Query", nil)
	if err := s.Save(ctx, "to-delete", state); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "to-delete"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, "to-delete"); err == nil {
		t.Error("Load after Delete: want error, got nil")
	}
}

func TestInvalidRedisURLFallsBackToMemory(t *testing.T) {
	s := New("not-a-valid-redis-url")
	ctx := context.Background()
	state := querystate.NewQueryState("query", "Query", nil)
	if err := s.Save(ctx, "sess", state); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, "sess"); err != nil {
		t.Errorf("Load after invalid REDIS_URL: %v", err)
	}
	if s.useRedis {
		t.Error("useRedis = true after an invalid REDIS_URL")
	}
}
