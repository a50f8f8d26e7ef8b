package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/schemavault/schemavault/catalog"
	"github.com/schemavault/schemavault/config"
	"github.com/schemavault/schemavault/embedding"
	"github.com/schemavault/schemavault/health"
	"github.com/schemavault/schemavault/mcp"
	"github.com/schemavault/schemavault/reconcile"
	"github.com/schemavault/schemavault/store"
	"github.com/schemavault/schemavault/vault"
	"github.com/schemavault/schemavault/vectorindex"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	reset := flag.Bool("reset", false, "delete persisted vectors and schemas before starting")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("config error", "error", err)
		return
	}

	if *reset {
		if err := resetData(cfg.DataDir); err != nil {
			slog.Error("failed to reset data directory", "error", err)
			return
		}
	}

	embedder := embedding.NewClient(cfg.Embedding)

	index, err := vectorindex.Open(cfg.DataDir, embedder.Dimensions(), cfg.Index.MaxElements)
	if err != nil {
		slog.Error("failed to open vector index", "error", err)
		return
	}
	schemas, err := store.Open(cfg.DataDir)
	if err != nil {
		slog.Error("failed to open schema store", "error", err)
		return
	}
	v := vault.New(index, schemas, embedder)
	if dropped, err := v.Repair(); err != nil {
		slog.Error("failed to repair store pairing", "error", err)
		return
	} else if dropped > 0 {
		slog.Warn("dropped orphaned entries from a previous crash", "count", dropped)
	}
	slog.Info("vault ready", "tables", v.Count(), "vectors", index.Len())

	if cfg.Catalog.Type != "" && cfg.Catalog.SyncOnStart {
		if err := syncCatalog(context.Background(), cfg, v); err != nil {
			// The server still serves whatever the last flush left behind.
			slog.Error("catalog sync failed", "error", err)
		}
	}

	if cfg.Server.HealthAddr != "" {
		go func() {
			if err := http.ListenAndServe(cfg.Server.HealthAddr, health.Handler(v)); err != nil {
				slog.Error("health server error", "error", err)
			}
		}()
	}

	s := server.NewMCPServer(
		cfg.Server.Name,
		cfg.Server.Version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)

	mcp.RegisterTools(s, v)

	if err := server.ServeStdio(s); err != nil {
		fmt.Printf("Server error: %v\n", err)
	}
}

func syncCatalog(ctx context.Context, cfg *config.Config, v *vault.Vault) error {
	connStr, err := cfg.Catalog.GetConnectionString()
	if err != nil {
		return err
	}
	source, err := catalog.NewSource(cfg.Catalog.Type, connStr, catalog.ParseFilter(cfg.Catalog.Schemas))
	if err != nil {
		return err
	}
	defer source.Close()

	engine := reconcile.NewEngine(v, source, slog.Default())
	stats, err := engine.Run(ctx)
	if err != nil {
		return err
	}
	slog.Info("catalog sync complete", "stats", stats.String())
	return nil
}

func resetData(dataDir string) error {
	for _, name := range []string{"vectors.index", "schemas.json"} {
		path := filepath.Join(dataDir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		slog.Info("deleted", "path", path)
	}
	return nil
}
