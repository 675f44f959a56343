// Package config reads the small set of environment variables that
// configure the process: the single upstream GraphQL endpoint, its
// default headers, and the session store's Redis URL.
package config

import (
	"encoding/json"
	"os"

	"golang.org/x/xerrors"
)

const (
	maxHeaderKeyLength   = 100
	maxHeaderValueLength = 1000
)

// Config is the process-wide configuration resolved once at startup.
type Config struct {
	// GraphQLEndpoint is the single upstream URL every introspection
	// and execute request targets. Tool inputs never supply a URL: this
	// is the only source of one, by design.
	GraphQLEndpoint string
	// DefaultHeaders are merged under session headers (session wins) on
	// every outbound request.
	DefaultHeaders map[string]string
	// RedisURL configures the session store's primary backend; empty
	// means memory-only.
	RedisURL string
}

// Load reads DEFAULT_GRAPHQL_ENDPOINT, DEFAULT_GRAPHQL_HEADERS, and
// REDIS_URL from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		GraphQLEndpoint: os.Getenv("DEFAULT_GRAPHQL_ENDPOINT"),
		DefaultHeaders:  map[string]string{},
		RedisURL:        os.Getenv("REDIS_URL"),
	}
	if cfg.GraphQLEndpoint == "" {
		return nil, xerrors.New("config: DEFAULT_GRAPHQL_ENDPOINT is required")
	}
	if raw := os.Getenv("DEFAULT_GRAPHQL_HEADERS"); raw != "" {
		headers, err := parseHeaders(raw)
		if err != nil {
			return nil, xerrors.Errorf("config: DEFAULT_GRAPHQL_HEADERS: %w", err)
		}
		cfg.DefaultHeaders = headers
	}
	return cfg, nil
}

func parseHeaders(raw string) (map[string]string, error) {
	var headers map[string]string
	if err := json.Unmarshal([]byte(raw), &headers); err != nil {
		return nil, xerrors.Errorf("not a JSON object of string to string: %w", err)
	}
	for k, v := range headers {
		if len(k) > maxHeaderKeyLength {
			return nil, xerrors.Errorf("header key %q exceeds %d characters", k, maxHeaderKeyLength)
		}
		if len(v) > maxHeaderValueLength {
			return nil, xerrors.Errorf("header value for %q exceeds %d characters", k, maxHeaderValueLength)
		}
	}
	return headers, nil
}

// MergeHeaders merges session headers over the default headers, with
// session values winning on key collision.
func MergeHeaders(defaults, session map[string]string) map[string]string {
	out := make(map[string]string, len(defaults)+len(session))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range session {
		out[k] = v
	}
	return out
}
