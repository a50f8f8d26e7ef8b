package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/schemavault/schemavault/catalog"
	"github.com/schemavault/schemavault/store"
	"github.com/schemavault/schemavault/types"
	"github.com/schemavault/schemavault/vault"
)

// Stats aggregates one reconciliation pass.
type Stats struct {
	Added     int
	Updated   int
	Unchanged int
	Removed   int
	Failures  []Failure
}

// Failure records a schema whose processing failed; the pass continues with
// the remaining schemas.
type Failure struct {
	Table string
	Err   error
}

func (s Stats) String() string {
	return fmt.Sprintf("added=%d updated=%d unchanged=%d removed=%d failed=%d",
		s.Added, s.Updated, s.Unchanged, s.Removed, len(s.Failures))
}

// Engine reconciles the vault against a catalog source: it applies the
// minimal set of inserts, delete-then-reinsert updates and removals, using
// content hashes so unchanged schemas are never re-embedded.
type Engine struct {
	vault  *vault.Vault
	source catalog.Source
	log    *slog.Logger
}

func NewEngine(v *vault.Vault, source catalog.Source, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{vault: v, source: source, log: logger}
}

// Run loads the current schema set from the catalog source and applies it.
func (e *Engine) Run(ctx context.Context) (Stats, error) {
	schemas, err := e.source.LoadSchemas(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to load schemas from catalog: %w", err)
	}
	e.log.Info("loaded schemas from catalog", "count", len(schemas))
	return e.Apply(ctx, schemas)
}

// Apply makes the vault's content match the supplied schema list.
//
// Each source schema is classified by comparing its content hash with the
// stored hash for its table name: equal means unchanged, different means the
// old entry is retired and the schema reinserted under a fresh vector id,
// and absent means a plain insert. Names known to the vault but missing from
// the source are retired in a final sweep.
//
// Failures are isolated per schema and collected in Stats.Failures; a
// cancelled context aborts between items, leaving the vault in its
// last-completed state.
func (e *Engine) Apply(ctx context.Context, schemas []types.TableSchema) (Stats, error) {
	var stats Stats

	known := make(map[string]bool)
	for _, name := range e.vault.ListTables() {
		known[name] = true
	}
	seen := make(map[string]bool)

	for _, schema := range schemas {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		seen[schema.Table] = true

		hash := store.Hash(schema)
		existing, exists := e.vault.HashByName(schema.Table)
		if exists && existing == hash {
			stats.Unchanged++
			continue
		}

		if exists {
			if err := e.vault.Retire(schema.Table); err != nil {
				stats.Failures = append(stats.Failures, Failure{Table: schema.Table, Err: err})
				e.log.Error("failed to retire stale schema", "table", schema.Table, "error", err)
				continue
			}
		}

		if _, err := e.vault.AddSchema(ctx, schema); err != nil {
			stats.Failures = append(stats.Failures, Failure{Table: schema.Table, Err: err})
			e.log.Error("failed to store schema", "table", schema.Table, "error", err)
			continue
		}

		if exists {
			stats.Updated++
			e.log.Info("updated schema", "table", schema.Table)
		} else {
			stats.Added++
			e.log.Info("added schema", "table", schema.Table)
		}
	}

	for name := range known {
		if seen[name] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := e.vault.Retire(name); err != nil {
			stats.Failures = append(stats.Failures, Failure{Table: name, Err: err})
			e.log.Error("failed to remove schema", "table", name, "error", err)
			continue
		}
		stats.Removed++
		e.log.Info("removed schema", "table", name)
	}

	e.log.Info("reconciliation complete",
		"added", stats.Added,
		"updated", stats.Updated,
		"unchanged", stats.Unchanged,
		"removed", stats.Removed,
		"failed", len(stats.Failures),
	)
	return stats, nil
}
