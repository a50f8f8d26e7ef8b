package mcp

import (
	goMCP "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/schemavault/schemavault/handlers"
	"github.com/schemavault/schemavault/vault"
)

func RegisterTools(s *server.MCPServer, v *vault.Vault) {
	// Add tool
	addTool := goMCP.NewTool("add_schema",
		goMCP.WithDescription("Store a database table schema"),
		goMCP.WithString("table",
			goMCP.Required(),
			goMCP.Description("Fully-qualified table name"),
		),
		goMCP.WithArray("columns",
			goMCP.Required(),
			goMCP.Description("Table columns in order"),
			goMCP.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":        map[string]any{"type": "string"},
					"type":        map[string]any{"type": "string"},
					"primary":     map[string]any{"type": "boolean"},
					"nullable":    map[string]any{"type": "boolean"},
					"description": map[string]any{"type": "string"},
				},
				"required": []string{"name", "type"},
			}),
		),
		goMCP.WithString("description",
			goMCP.Description("Table description"),
		),
	)

	// Query tool
	queryTool := goMCP.NewTool("query_model",
		goMCP.WithDescription("Get schema info for a table/model by name or semantic search"),
		goMCP.WithString("query",
			goMCP.Required(),
			goMCP.Description("Table name or natural-language search query"),
		),
	)

	// List tool
	listTool := goMCP.NewTool("list_models",
		goMCP.WithDescription("List all stored table schemas"),
	)

	s.AddTool(addTool, handlers.AddSchemaHandler(v))
	s.AddTool(queryTool, handlers.QueryModelHandler(v))
	s.AddTool(listTool, handlers.ListModelsHandler(v))
}
