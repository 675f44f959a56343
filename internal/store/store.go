// Package store implements the session backing store: Redis-primary,
// in-process-map-fallback, with a single guarded connect-once
// initialization so the live backend never flaps after it has been
// verified once.
package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"querysculptor/internal/apperr"
	"querysculptor/internal/applog"
	"querysculptor/internal/querystate"
)

const (
	sessionTTL   = 3600 * time.Second
	connectDeadline = 2 * time.Second
	keyPrefix    = "querystate:"
)

// Store is the session backing store described by the data model: save,
// load, and delete keyed by session id, Redis-primary with an
// in-process-map fallback.
type Store struct {
	redisURL string

	initOnce sync.Once
	client   *redis.Client
	useRedis bool

	memMu   sync.Mutex
	memData map[string][]byte
}

// New builds a Store. redisURL may be empty, in which case the store
// runs memory-only without ever attempting to connect.
func New(redisURL string) *Store {
	return &Store{
		redisURL: redisURL,
		memData:  map[string][]byte{},
	}
}

// ensureInit performs the single guarded Redis connection attempt: parse
// the URL, connect with a 2-second deadline, then PING. useRedis flips
// to true only if both succeed; any failure before that point leaves the
// store on the memory fallback for the rest of the process lifetime.
func (s *Store) ensureInit(ctx context.Context) {
	s.initOnce.Do(func() {
		if s.redisURL == "" {
			return
		}
		opts, err := redis.ParseURL(s.redisURL)
		if err != nil {
			applog.Warn("store: invalid REDIS_URL, falling back to memory", "error", err)
			return
		}
		client := redis.NewClient(opts)
		cctx, cancel := context.WithTimeout(ctx, connectDeadline)
		defer cancel()
		if err := client.Ping(cctx).Err(); err != nil {
			applog.Warn("store: redis unreachable, falling back to memory", "error", err)
			_ = client.Close()
			return
		}
		s.client = client
		s.useRedis = true
	})
}

func sessionKey(id string) string {
	return keyPrefix + id
}

// Save persists state under id, refreshing its TTL in Redis (SETEX
// semantics) or writing it into the memory map when Redis is not the
// live backend. A per-call Redis error after a verified connection
// degrades silently to the memory map without flipping useRedis.
func (s *Store) Save(ctx context.Context, id string, state *querystate.QueryState) error {
	s.ensureInit(ctx)
	data, err := json.Marshal(state)
	if err != nil {
		return apperr.Newf(apperr.Internal, "store: marshal session %s: %v", id, err)
	}
	if s.useRedis {
		if err := s.client.SetEx(ctx, sessionKey(id), data, sessionTTL).Err(); err != nil {
			applog.Warn("store: redis save failed, writing through to memory", "session", id, "error", err)
		} else {
			s.memSet(id, data)
			return nil
		}
	}
	s.memSet(id, data)
	return nil
}

// Load returns the session state for id, checking Redis first when it is
// the live backend and falling back to (or checking only) the memory
// map, which always serves as a secondary lookup.
func (s *Store) Load(ctx context.Context, id string) (*querystate.QueryState, error) {
	s.ensureInit(ctx)
	var data []byte
	if s.useRedis {
		b, err := s.client.Get(ctx, sessionKey(id)).Bytes()
		switch {
		case err == nil:
			data = b
		case err == redis.Nil:
			// Fall through to the memory map secondary lookup.
		default:
			applog.Warn("store: redis load failed, checking memory", "session", id, "error", err)
		}
	}
	if data == nil {
		b, ok := s.memGet(id)
		if !ok {
			return nil, apperr.Newf(apperr.Session, "Session '%s' not found or expired.", id)
		}
		data = b
	}
	var state querystate.QueryState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, apperr.Newf(apperr.Internal, "store: unmarshal session %s: %v", id, err)
	}
	return &state, nil
}

// Delete removes the session from whichever backends might hold it.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.ensureInit(ctx)
	if s.useRedis {
		if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
			applog.Warn("store: redis delete failed", "session", id, "error", err)
		}
	}
	s.memDelete(id)
	return nil
}

func (s *Store) memSet(id string, data []byte) {
	s.memMu.Lock()
	defer s.memMu.Unlock()
	s.memData[id] = data
}

func (s *Store) memGet(id string) ([]byte, bool) {
	s.memMu.Lock()
	defer s.memMu.Unlock()
	b, ok := s.memData[id]
	return b, ok
}

func (s *Store) memDelete(id string) {
	s.memMu.Lock()
	defer s.memMu.Unlock()
	delete(s.memData, id)
}
