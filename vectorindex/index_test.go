package vectorindex

import (
	"errors"
	"testing"
)

func openTestIndex(t *testing.T, dim, maxElements int) (*Index, string) {
	t.Helper()
	dir := t.TempDir()
	idx, err := Open(dir, dim, maxElements)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return idx, dir
}

func mustInsert(t *testing.T, idx *Index, vec []float32) uint64 {
	t.Helper()
	id, err := idx.Insert(vec)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	return id
}

func TestInsertAssignsMonotonicIDs(t *testing.T) {
	idx, _ := openTestIndex(t, 3, 0)

	for want := uint64(0); want < 5; want++ {
		id := mustInsert(t, idx, []float32{1, 0, 0})
		if id != want {
			t.Errorf("expected id %d, got %d", want, id)
		}
	}
}

func TestIDsNotReusedAfterDelete(t *testing.T) {
	idx, _ := openTestIndex(t, 2, 0)

	a := mustInsert(t, idx, []float32{1, 0})
	b := mustInsert(t, idx, []float32{0, 1})
	if err := idx.SoftDelete(b); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	c := mustInsert(t, idx, []float32{1, 1})
	if c <= b || c <= a {
		t.Errorf("expected fresh id after delete, got %d (previous %d, %d)", c, a, b)
	}
}

func TestSearchOrdersByDistance(t *testing.T) {
	idx, _ := openTestIndex(t, 2, 0)

	east := mustInsert(t, idx, []float32{1, 0})
	north := mustInsert(t, idx, []float32{0, 1})
	diag := mustInsert(t, idx, []float32{1, 1})

	hits, err := idx.Search([]float32{1, 0.1}, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].ID != east || hits[1].ID != diag || hits[2].ID != north {
		t.Errorf("unexpected order: %v", hits)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Distance < hits[i-1].Distance {
			t.Errorf("distances not ascending: %v", hits)
		}
	}
}

func TestSearchEdgeCases(t *testing.T) {
	idx, _ := openTestIndex(t, 2, 0)

	hits, err := idx.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search on empty index failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits from empty index, got %v", hits)
	}

	mustInsert(t, idx, []float32{1, 0})
	mustInsert(t, idx, []float32{0, 1})

	if hits, _ = idx.Search([]float32{1, 0}, 0); len(hits) != 0 {
		t.Errorf("expected no hits for k=0, got %v", hits)
	}
	if hits, _ = idx.Search([]float32{1, 0}, -1); len(hits) != 0 {
		t.Errorf("expected no hits for negative k, got %v", hits)
	}
	// Fewer live vectors than k returns all of them.
	if hits, _ = idx.Search([]float32{1, 0}, 10); len(hits) != 2 {
		t.Errorf("expected 2 hits for k=10, got %d", len(hits))
	}
	if _, err := idx.Search([]float32{1, 0, 0}, 1); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestSoftDeleteExcludesFromSearch(t *testing.T) {
	idx, _ := openTestIndex(t, 2, 0)

	east := mustInsert(t, idx, []float32{1, 0})
	north := mustInsert(t, idx, []float32{0, 1})

	if err := idx.SoftDelete(east); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	hits, err := idx.Search([]float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != north {
		t.Errorf("expected only live vector %d, got %v", north, hits)
	}
}

func TestSoftDeleteIdempotent(t *testing.T) {
	idx, _ := openTestIndex(t, 2, 0)

	id := mustInsert(t, idx, []float32{1, 0})
	for i := 0; i < 2; i++ {
		if err := idx.SoftDelete(id); err != nil {
			t.Fatalf("SoftDelete #%d failed: %v", i+1, err)
		}
	}
	// Unknown id is a no-op too.
	if err := idx.SoftDelete(999); err != nil {
		t.Fatalf("SoftDelete of unknown id failed: %v", err)
	}
	if idx.Len() != 0 {
		t.Errorf("expected 0 live vectors, got %d", idx.Len())
	}
}

func TestCapacityExceeded(t *testing.T) {
	idx, _ := openTestIndex(t, 2, 2)

	mustInsert(t, idx, []float32{1, 0})
	deleted := mustInsert(t, idx, []float32{0, 1})
	if err := idx.SoftDelete(deleted); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}

	// Soft-deleted entries still occupy capacity.
	if _, err := idx.Insert([]float32{1, 1}); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	// Rebuild drops the dead entry and makes room again.
	if err := idx.Rebuild(3); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	id := mustInsert(t, idx, []float32{1, 1})
	if id <= deleted {
		t.Errorf("rebuild must not reset the id counter: got %d", id)
	}
}

func TestRebuildRejectsTooSmallCapacity(t *testing.T) {
	idx, _ := openTestIndex(t, 2, 0)
	mustInsert(t, idx, []float32{1, 0})
	mustInsert(t, idx, []float32{0, 1})

	if err := idx.Rebuild(1); err == nil {
		t.Error("expected error rebuilding below live count")
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(dir, 2, 0)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	a := mustInsert(t, idx, []float32{1, 0})
	b := mustInsert(t, idx, []float32{0, 1})
	if err := idx.SoftDelete(a); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}

	reopened, err := Open(dir, 2, 0)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if reopened.Len() != 1 {
		t.Fatalf("expected 1 live vector after reopen, got %d", reopened.Len())
	}
	if reopened.Contains(a) {
		t.Error("deleted vector came back live after reopen")
	}
	if !reopened.Contains(b) {
		t.Error("live vector lost after reopen")
	}
	// The id space resumes where it left off.
	c := mustInsert(t, reopened, []float32{1, 1})
	if c != b+1 {
		t.Errorf("expected id %d after reopen, got %d", b+1, c)
	}
}

func TestOpenRejectsDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(dir, 2, 0)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	mustInsert(t, idx, []float32{1, 0})

	if _, err := Open(dir, 3, 0); err == nil {
		t.Error("expected error opening with different dimension")
	}
}
