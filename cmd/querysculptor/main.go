// Command querysculptor runs the stateful GraphQL query-builder MCP
// server over stdio, talking to the single upstream endpoint named by
// DEFAULT_GRAPHQL_ENDPOINT.
package main

import (
	"os"

	"querysculptor/internal/applog"
	"querysculptor/internal/config"
	"querysculptor/internal/executor"
	"querysculptor/internal/mcpserver"
	"querysculptor/internal/schema"
	"querysculptor/internal/store"
	"querysculptor/internal/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		applog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	cache := schema.NewCache()
	client := schema.DefaultHTTPClient()
	sessionStore := store.New(cfg.RedisURL)
	exec := executor.New(cache, client, cfg)
	app := tools.NewAppContext(cache, sessionStore, exec, cfg, client)

	srv := mcpserver.New(app)
	applog.Info("querysculptor starting", "endpoint", cfg.GraphQLEndpoint)
	if err := srv.ServeStdio(); err != nil {
		applog.Error("server exited", "error", err)
		os.Exit(1)
	}
}
