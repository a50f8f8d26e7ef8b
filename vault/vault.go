package vault

import (
	"context"
	"fmt"
	"sync"

	"github.com/schemavault/schemavault/store"
	"github.com/schemavault/schemavault/types"
	"github.com/schemavault/schemavault/vectorindex"
)

// Embedder produces fixed-dimension vectors for text. Satisfied by
// *embedding.Client; tests supply fakes.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// QueryK is how many nearest schemas a semantic query returns.
const QueryK = 3

// Vault pairs the vector index with the schema record store and keeps the
// two consistent: every live vector id has exactly one schema record and
// vice versa. A coarse read/write lock serializes mutations against reads;
// embedding calls happen outside the lock.
type Vault struct {
	mu       sync.RWMutex
	index    *vectorindex.Index
	store    *store.SchemaStore
	embedder Embedder
}

func New(index *vectorindex.Index, schemas *store.SchemaStore, embedder Embedder) *Vault {
	return &Vault{index: index, store: schemas, embedder: embedder}
}

// AddSchema validates, hashes, renders, embeds and stores a schema, and
// returns its new vector id. It always creates a new entry; deduplicating
// against existing entries with the same name is the caller's concern.
func (v *Vault) AddSchema(ctx context.Context, schema types.TableSchema) (uint64, error) {
	if err := schema.Validate(); err != nil {
		return 0, fmt.Errorf("invalid schema: %w", err)
	}
	hash := store.Hash(schema)
	vec, err := v.embedder.Embed(ctx, store.Text(schema))
	if err != nil {
		return 0, fmt.Errorf("failed to embed schema for table %q: %w", schema.Table, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	id, err := v.index.Insert(vec)
	if err != nil {
		return 0, fmt.Errorf("failed to index schema for table %q: %w", schema.Table, err)
	}
	if err := v.store.Put(id, schema, hash); err != nil {
		// Retire the orphaned vector so the id has no half-entry.
		_ = v.index.SoftDelete(id)
		return 0, fmt.Errorf("failed to store schema for table %q: %w", schema.Table, err)
	}
	return id, nil
}

// Query resolves text against the store. An exact case-insensitive table
// name match returns that one schema without touching the embedder;
// otherwise the text is embedded and the schemas of the QueryK nearest live
// vectors come back in ascending distance order. Ids whose record is missing
// are skipped. An empty slice means nothing matched.
func (v *Vault) Query(ctx context.Context, text string) ([]types.TableSchema, error) {
	v.mu.RLock()
	if exact, ok := v.store.GetByName(text); ok {
		v.mu.RUnlock()
		return []types.TableSchema{exact}, nil
	}
	v.mu.RUnlock()

	vec, err := v.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	hits, err := v.index.Search(vec, QueryK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	results := make([]types.TableSchema, 0, len(hits))
	for _, hit := range hits {
		if schema, ok := v.store.Get(hit.ID); ok {
			results = append(results, schema)
		}
	}
	return results, nil
}

// ListTables returns all stored table names.
func (v *Vault) ListTables() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.store.ListNames()
}

// Count returns the number of stored schemas.
func (v *Vault) Count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.store.Len()
}

// HashByName returns the content hash stored for a table name.
func (v *Vault) HashByName(name string) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.store.HashByName(name)
}

// Repair restores the pairing invariant after a crash that landed between
// the two files' flushes: vectors without a schema record are soft-deleted
// and records without a live vector are removed. Returns how many entries
// were dropped. Meant to run once at startup, before any other operation.
func (v *Vault) Repair() (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	dropped := 0
	for _, id := range v.index.LiveIDs() {
		if _, ok := v.store.Get(id); ok {
			continue
		}
		if err := v.index.SoftDelete(id); err != nil {
			return dropped, fmt.Errorf("failed to drop orphaned vector %d: %w", id, err)
		}
		dropped++
	}
	for _, id := range v.store.IDs() {
		if v.index.Contains(id) {
			continue
		}
		if err := v.store.Remove(id); err != nil {
			return dropped, fmt.Errorf("failed to drop orphaned record %d: %w", id, err)
		}
		dropped++
	}
	return dropped, nil
}

// Retire removes the entry for a table name: the vector is soft-deleted and
// the record removed under a single lock acquisition. Retiring an unknown
// name is a no-op. The reconciliation engine is the only caller; the tool
// surface exposes no delete.
func (v *Vault) Retire(name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	id, ok := v.store.IDByName(name)
	if !ok {
		return nil
	}
	if err := v.index.SoftDelete(id); err != nil {
		return fmt.Errorf("failed to retire vector %d for table %q: %w", id, name, err)
	}
	if err := v.store.Remove(id); err != nil {
		return fmt.Errorf("failed to remove record %d for table %q: %w", id, name, err)
	}
	return nil
}
