package vectorindex

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// ErrCapacityExceeded is returned by Insert when the index already holds its
// configured maximum number of elements, live and soft-deleted combined.
// Recover with Rebuild.
var ErrCapacityExceeded = errors.New("vector index capacity exceeded")

const (
	indexFileName      = "vectors.index"
	DefaultMaxElements = 10000
)

type entry struct {
	id      uint64
	vec     []float32
	mag     float64
	deleted bool
}

// Hit is a single search result: the vector id and its cosine distance from
// the query (0 = identical direction, 2 = opposite).
type Hit struct {
	ID       uint64
	Distance float64
}

// Index stores fixed-dimension embeddings keyed by monotonically assigned
// ids and answers k-nearest queries by cosine distance. Soft-deleted entries
// stay on disk but are excluded from search; ids are never reused. The full
// state is rewritten to disk after every mutation.
//
// Index is not safe for concurrent use; callers serialize access.
type Index struct {
	path        string
	dim         int
	maxElements int
	nextID      uint64
	entries     []entry
}

// Open loads the index persisted under dataDir, or creates an empty one if
// no file exists yet. dim is the embedding dimension every inserted vector
// must match. maxElements <= 0 selects DefaultMaxElements.
func Open(dataDir string, dim, maxElements int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("vector index dimension must be positive, got %d", dim)
	}
	if maxElements <= 0 {
		maxElements = DefaultMaxElements
	}
	idx := &Index{
		path:        filepath.Join(dataDir, indexFileName),
		dim:         dim,
		maxElements: maxElements,
	}
	data, err := os.ReadFile(idx.path)
	if errors.Is(err, os.ErrNotExist) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}
	if err := idx.unmarshal(data); err != nil {
		return nil, fmt.Errorf("failed to load index file %s: %w", idx.path, err)
	}
	return idx, nil
}

// Dimensions returns the configured embedding dimension.
func (i *Index) Dimensions() int { return i.dim }

// Len returns the number of live (not soft-deleted) vectors.
func (i *Index) Len() int {
	n := 0
	for _, e := range i.entries {
		if !e.deleted {
			n++
		}
	}
	return n
}

// Contains reports whether id is present and live.
func (i *Index) Contains(id uint64) bool {
	for _, e := range i.entries {
		if e.id == id {
			return !e.deleted
		}
	}
	return false
}

// LiveIDs returns the ids of all live vectors in insertion order.
func (i *Index) LiveIDs() []uint64 {
	var ids []uint64
	for _, e := range i.entries {
		if !e.deleted {
			ids = append(ids, e.id)
		}
	}
	return ids
}

// Insert stores a copy of vec under the next monotonic id and flushes the
// index. Returns ErrCapacityExceeded when the index is full.
func (i *Index) Insert(vec []float32) (uint64, error) {
	if len(vec) != i.dim {
		return 0, fmt.Errorf("vector dimension %d does not match index dimension %d", len(vec), i.dim)
	}
	if len(i.entries) >= i.maxElements {
		return 0, ErrCapacityExceeded
	}
	id := i.nextID
	i.nextID++
	i.entries = append(i.entries, entry{
		id:  id,
		vec: append([]float32(nil), vec...),
		mag: magnitude(vec),
	})
	if err := i.save(); err != nil {
		// Roll back so in-memory state matches the last flush.
		i.entries = i.entries[:len(i.entries)-1]
		i.nextID = id
		return 0, err
	}
	return id, nil
}

// SoftDelete marks id unreachable for future searches. Deleting an unknown
// or already-deleted id is a no-op. Only persistence failures are errors.
func (i *Index) SoftDelete(id uint64) error {
	for n := range i.entries {
		if i.entries[n].id == id {
			if i.entries[n].deleted {
				return nil
			}
			i.entries[n].deleted = true
			if err := i.save(); err != nil {
				i.entries[n].deleted = false
				return err
			}
			return nil
		}
	}
	return nil
}

// Search returns up to k live vectors nearest to vec by cosine distance,
// closest first. An empty index, k <= 0, or a zero-magnitude query yields an
// empty result.
func (i *Index) Search(vec []float32, k int) ([]Hit, error) {
	if len(vec) != i.dim {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(vec), i.dim)
	}
	if k <= 0 {
		return nil, nil
	}
	qm := magnitude(vec)
	if qm == 0 {
		return nil, nil
	}
	var hits []Hit
	for _, e := range i.entries {
		if e.deleted || e.mag == 0 {
			continue
		}
		sim := dot(vec, e.vec) / (qm * e.mag)
		if math.IsNaN(sim) {
			continue
		}
		hits = append(hits, Hit{ID: e.id, Distance: 1 - sim})
	}
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Distance != hits[b].Distance {
			return hits[a].Distance < hits[b].Distance
		}
		return hits[a].ID < hits[b].ID
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Rebuild re-creates the index with a new capacity, dropping soft-deleted
// entries while keeping live ids and the id counter. This is the documented
// recovery path for ErrCapacityExceeded and the only way storage held by
// deleted vectors is reclaimed.
func (i *Index) Rebuild(maxElements int) error {
	if maxElements <= 0 {
		maxElements = DefaultMaxElements
	}
	live := make([]entry, 0, len(i.entries))
	for _, e := range i.entries {
		if !e.deleted {
			live = append(live, e)
		}
	}
	if len(live) > maxElements {
		return fmt.Errorf("cannot rebuild with capacity %d: %d live vectors", maxElements, len(live))
	}
	old, oldMax := i.entries, i.maxElements
	i.entries, i.maxElements = live, maxElements
	if err := i.save(); err != nil {
		i.entries, i.maxElements = old, oldMax
		return err
	}
	return nil
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func magnitude(v []float32) float64 { return math.Sqrt(dot(v, v)) }
