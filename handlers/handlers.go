package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/schemavault/schemavault/types"
	"github.com/schemavault/schemavault/vault"
)

// columnArg mirrors types.Column but keeps nullable optional so an omitted
// value defaults to true, matching the data model default.
type columnArg struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Primary     bool    `json:"primary"`
	Nullable    *bool   `json:"nullable"`
	Description *string `json:"description"`
}

type addSchemaArgs struct {
	Table       string      `json:"table"`
	Columns     []columnArg `json:"columns"`
	Description *string     `json:"description"`
}

// AddSchemaHandler creates a handler for the add_schema tool
func AddSchemaHandler(v *vault.Vault) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := json.Marshal(request.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}
		var args addSchemaArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		schema := types.TableSchema{
			Table:       args.Table,
			Columns:     make([]types.Column, len(args.Columns)),
			Description: args.Description,
		}
		for i, c := range args.Columns {
			nullable := true
			if c.Nullable != nil {
				nullable = *c.Nullable
			}
			schema.Columns[i] = types.Column{
				Name:        c.Name,
				Type:        c.Type,
				Primary:     c.Primary,
				Nullable:    nullable,
				Description: c.Description,
			}
		}

		id, err := v.AddSchema(ctx, schema)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to store schema: %v", err)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("Stored schema for table '%s' with ID %d", schema.Table, id)), nil
	}
}

// QueryModelHandler creates a handler for the query_model tool
func QueryModelHandler(v *vault.Vault) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Missing query parameter: %v", err)), nil
		}

		results, err := v.Query(ctx, query)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Query failed: %v", err)), nil
		}
		if len(results) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No schemas found for '%s'", query)), nil
		}

		blocks := make([]string, len(results))
		for i, schema := range results {
			blocks[i] = RenderSchema(schema)
		}
		return mcp.NewToolResultText(strings.Join(blocks, "\n\n")), nil
	}
}

// ListModelsHandler creates a handler for the list_models tool
func ListModelsHandler(v *vault.Vault) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tables := v.ListTables()
		if len(tables) == 0 {
			return mcp.NewToolResultText("No schemas stored yet"), nil
		}

		var b strings.Builder
		b.WriteString("Stored tables:")
		for _, t := range tables {
			b.WriteString("\n  - ")
			b.WriteString(t)
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

// RenderSchema formats one schema for tool output: the table line, an
// optional description, then one bullet per column with a PK marker.
func RenderSchema(schema types.TableSchema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table: %s", schema.Table)
	if schema.Description != nil && *schema.Description != "" {
		fmt.Fprintf(&b, "\n  Description: %s", *schema.Description)
	}
	b.WriteString("\n  Columns:")
	for _, c := range schema.Columns {
		fmt.Fprintf(&b, "\n  - %s: %s", c.Name, c.Type)
		if c.Primary {
			b.WriteString(" (PK)")
		}
	}
	return b.String()
}
