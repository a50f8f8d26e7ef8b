package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/schemavault/schemavault/types"
)

const schemaFileName = "schemas.json"

// Record pairs a stored schema with the content hash it was indexed under.
type Record struct {
	Schema types.TableSchema `json:"schema"`
	Hash   string            `json:"hash"`
}

// SchemaStore is a durable mapping from vector id to schema record, backed
// by a single JSON document that is fully rewritten on every mutation.
//
// Name lookups are case-insensitive and scan ids in ascending order, so when
// several records share a table name the lowest id wins. SchemaStore is not
// safe for concurrent use; callers serialize access.
type SchemaStore struct {
	path    string
	records map[uint64]Record
}

// Open loads the record file under dataDir, or starts empty if none exists.
func Open(dataDir string) (*SchemaStore, error) {
	s := &SchemaStore{
		path:    filepath.Join(dataDir, schemaFileName),
		records: make(map[uint64]Record),
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	var raw map[string]Record
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", s.path, err)
	}
	for k, rec := range raw {
		id, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("schema file %s: bad record id %q: %w", s.path, k, err)
		}
		s.records[id] = rec
	}
	return s, nil
}

// Put upserts the record for id and flushes the store.
func (s *SchemaStore) Put(id uint64, schema types.TableSchema, hash string) error {
	prev, existed := s.records[id]
	s.records[id] = Record{Schema: schema, Hash: hash}
	if err := s.save(); err != nil {
		if existed {
			s.records[id] = prev
		} else {
			delete(s.records, id)
		}
		return err
	}
	return nil
}

// Get returns the schema stored under id, or false if absent.
func (s *SchemaStore) Get(id uint64) (types.TableSchema, bool) {
	rec, ok := s.records[id]
	return rec.Schema, ok
}

// GetByName returns the schema whose table name matches case-insensitively.
func (s *SchemaStore) GetByName(name string) (types.TableSchema, bool) {
	id, ok := s.IDByName(name)
	if !ok {
		return types.TableSchema{}, false
	}
	return s.records[id].Schema, true
}

// IDByName returns the vector id for a table name.
func (s *SchemaStore) IDByName(name string) (uint64, bool) {
	for _, id := range s.sortedIDs() {
		if strings.EqualFold(s.records[id].Schema.Table, name) {
			return id, true
		}
	}
	return 0, false
}

// HashByName returns the content hash stored for a table name.
func (s *SchemaStore) HashByName(name string) (string, bool) {
	id, ok := s.IDByName(name)
	if !ok {
		return "", false
	}
	return s.records[id].Hash, true
}

// Remove deletes the record for id and flushes the store. Removing an absent
// id is a no-op.
func (s *SchemaStore) Remove(id uint64) error {
	rec, ok := s.records[id]
	if !ok {
		return nil
	}
	delete(s.records, id)
	if err := s.save(); err != nil {
		s.records[id] = rec
		return err
	}
	return nil
}

// ListNames returns all stored table names in ascending id order.
func (s *SchemaStore) ListNames() []string {
	ids := s.sortedIDs()
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, s.records[id].Schema.Table)
	}
	return names
}

// IDs returns all record ids in ascending order.
func (s *SchemaStore) IDs() []uint64 { return s.sortedIDs() }

// Len returns the number of stored records.
func (s *SchemaStore) Len() int { return len(s.records) }

func (s *SchemaStore) sortedIDs() []uint64 {
	ids := make([]uint64, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids
}

// save rewrites the full record file via a temp file and rename, so a crash
// leaves either the old or the new document, never a torn one.
func (s *SchemaStore) save() error {
	raw := make(map[string]Record, len(s.records))
	for id, rec := range s.records {
		raw[strconv.FormatUint(id, 10)] = rec
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema records: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write schema file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace schema file: %w", err)
	}
	return nil
}
