package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/schemavault/schemavault/types"
)

// sqliteSchemaName is the single namespace a SQLite database exposes; tables
// are qualified as main.<table> and the schema filter is matched against it.
const sqliteSchemaName = "main"

// SQLiteSource enumerates tables from sqlite_master and columns via
// PRAGMA table_info.
type SQLiteSource struct {
	db     *sqlx.DB
	filter Filter
}

func NewSQLiteSource(file string, filter Filter) (*SQLiteSource, error) {
	db, err := sqlx.Open("sqlite3", file)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	source := &SQLiteSource{db: db, filter: filter}
	if err := source.Ping(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return source, nil
}

func (s *SQLiteSource) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

func (s *SQLiteSource) LoadSchemas(ctx context.Context) ([]types.TableSchema, error) {
	if !s.filter.Match(sqliteSchemaName) {
		return nil, nil
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Commit()

	rows, err := tx.QueryContext(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tables: %w", err)
	}

	var schemas []types.TableSchema
	for _, name := range names {
		columns, err := s.loadColumns(ctx, tx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load columns for table %s: %w", name, err)
		}
		if len(columns) == 0 {
			continue
		}
		schemas = append(schemas, types.TableSchema{
			Table:   QualifiedName(sqliteSchemaName, name),
			Columns: columns,
		})
	}
	return schemas, nil
}

func (s *SQLiteSource) loadColumns(ctx context.Context, tx *sqlx.Tx, tableName string) ([]types.Column, error) {
	rows, err := tx.QueryContext(ctx, `SELECT name, type, "notnull", pk FROM pragma_table_info(?) ORDER BY cid`, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []types.Column
	for rows.Next() {
		var name, dataType string
		var notNull, pk int
		if err := rows.Scan(&name, &dataType, &notNull, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, types.Column{
			Name:     name,
			Type:     dataType,
			Primary:  pk > 0,
			Nullable: notNull == 0,
		})
	}
	return columns, rows.Err()
}
