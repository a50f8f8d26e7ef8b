package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/schemavault/schemavault/types"
)

// Source enumerates the current schema set from an external catalog. Tables
// without column metadata are skipped, never reported as empty schemas.
type Source interface {
	Ping(ctx context.Context) error
	LoadSchemas(ctx context.Context) ([]types.TableSchema, error)
	Close() error
}

// Filter restricts which schema namespaces a source enumerates. A zero
// Filter (or one parsed from "" / "*") matches everything.
type Filter struct {
	schemas []string
}

// ParseFilter parses a comma-separated schema list. Empty and "*" match all.
func ParseFilter(spec string) Filter {
	spec = strings.TrimSpace(spec)
	if spec == "" || spec == "*" {
		return Filter{}
	}
	var schemas []string
	for _, part := range strings.Split(spec, ",") {
		if part = strings.TrimSpace(part); part != "" {
			schemas = append(schemas, part)
		}
	}
	return Filter{schemas: schemas}
}

// Match reports whether a schema name passes the filter.
func (f Filter) Match(schema string) bool {
	if len(f.schemas) == 0 {
		return true
	}
	for _, s := range f.schemas {
		if strings.EqualFold(s, schema) {
			return true
		}
	}
	return false
}

// QualifiedName joins non-empty name parts with dots, e.g.
// ("mydb", "sales", "orders") -> "mydb.sales.orders".
func QualifiedName(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

// NewSource builds a catalog source for the configured database type.
// connectionString is the driver DSN; for sqlite it is the database file
// path.
func NewSource(dbType, connectionString string, filter Filter) (Source, error) {
	switch dbType {
	case "postgres":
		return NewPostgresSource(connectionString, filter)
	case "mysql":
		return NewMySQLSource(connectionString, filter)
	case "sqlite":
		return NewSQLiteSource(connectionString, filter)
	default:
		return nil, fmt.Errorf("unsupported catalog type: %s", dbType)
	}
}
