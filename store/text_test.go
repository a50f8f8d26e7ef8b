package store

import (
	"testing"

	"github.com/schemavault/schemavault/types"
)

func TestTextRendering(t *testing.T) {
	schema := ordersSchema()
	want := "Table: main.sales.orders. Columns: id (int), amount (decimal). Description: customer orders"
	if got := Text(schema); got != want {
		t.Errorf("Text =\n%q\nwant\n%q", got, want)
	}

	schema.Description = nil
	want = "Table: main.sales.orders. Columns: id (int), amount (decimal)."
	if got := Text(schema); got != want {
		t.Errorf("Text without description =\n%q\nwant\n%q", got, want)
	}
}

func TestHashDeterministic(t *testing.T) {
	a := ordersSchema()
	b := ordersSchema()
	if Hash(a) != Hash(b) {
		t.Error("equal schemas must hash equally")
	}
}

func TestHashSensitivity(t *testing.T) {
	base := ordersSchema()

	mutations := map[string]func(*types.TableSchema){
		"table name":          func(s *types.TableSchema) { s.Table = "main.sales.order" },
		"column added":        func(s *types.TableSchema) { s.Columns = append(s.Columns, types.NewColumn("note", "text")) },
		"column type":         func(s *types.TableSchema) { s.Columns[1].Type = "float" },
		"column order":        func(s *types.TableSchema) { s.Columns[0], s.Columns[1] = s.Columns[1], s.Columns[0] },
		"nullability flipped": func(s *types.TableSchema) { s.Columns[1].Nullable = false },
		"primary flipped":     func(s *types.TableSchema) { s.Columns[0].Primary = false },
		"description cleared": func(s *types.TableSchema) { s.Description = nil },
		"column description":  func(s *types.TableSchema) { s.Columns[0].Description = strptr("pk") },
	}

	for name, mutate := range mutations {
		mutated := ordersSchema()
		mutate(&mutated)
		if Hash(base) == Hash(mutated) {
			t.Errorf("%s: hash did not change", name)
		}
	}
}
