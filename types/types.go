package types

import "fmt"

type Column struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Primary     bool    `json:"primary"`
	Nullable    bool    `json:"nullable"`
	Description *string `json:"description"`
}

// TableSchema describes one table: a fully-qualified name
// (e.g. "main.sales.orders"), its columns in declaration order,
// and an optional free-form description.
type TableSchema struct {
	Table       string   `json:"table"`
	Columns     []Column `json:"columns"`
	Description *string  `json:"description"`
}

// Validate rejects schemas missing required fields before any embedding or
// storage work happens.
func (s TableSchema) Validate() error {
	if s.Table == "" {
		return fmt.Errorf("schema is missing a table name")
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("schema for table %q has no columns", s.Table)
	}
	for i, c := range s.Columns {
		if c.Name == "" {
			return fmt.Errorf("table %q: column %d is missing a name", s.Table, i)
		}
		if c.Type == "" {
			return fmt.Errorf("table %q: column %q is missing a type", s.Table, c.Name)
		}
	}
	return nil
}

// NewColumn builds a Column with the source defaults: not primary,
// nullable, no description.
func NewColumn(name, typ string) Column {
	return Column{Name: name, Type: typ, Nullable: true}
}
