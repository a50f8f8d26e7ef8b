package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/schemavault/schemavault/types"
)

// Text renders the canonical embedding text for a schema:
// "Table: {table}. Columns: {name} ({type}), ...." plus the description when
// present. Column order is preserved, so identical schemas always produce
// identical text.
func Text(schema types.TableSchema) string {
	cols := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		cols[i] = fmt.Sprintf("%s (%s)", c.Name, c.Type)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Table: %s. Columns: %s.", schema.Table, strings.Join(cols, ", "))
	if schema.Description != nil && *schema.Description != "" {
		fmt.Fprintf(&b, " Description: %s", *schema.Description)
	}
	return b.String()
}

// Hash returns the SHA-256 hex digest of the schema's full JSON
// serialization. Optional fields serialize as explicit nulls, so adding or
// clearing a description, or flipping nullability, changes the digest.
func Hash(schema types.TableSchema) string {
	data, _ := json.Marshal(schema)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
