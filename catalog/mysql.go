package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/schemavault/schemavault/types"
)

// MySQLSource enumerates tables and columns from information_schema,
// fully qualified as schema.table.
type MySQLSource struct {
	db     *sqlx.DB
	filter Filter
}

func NewMySQLSource(connectionString string, filter Filter) (*MySQLSource, error) {
	if _, err := mysql.ParseDSN(connectionString); err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	db, err := sqlx.Open("mysql", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	source := &MySQLSource{db: db, filter: filter}
	if err := source.Ping(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return source, nil
}

func (s *MySQLSource) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *MySQLSource) Close() error {
	return s.db.Close()
}

func (s *MySQLSource) LoadSchemas(ctx context.Context) ([]types.TableSchema, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Commit()

	rows, err := tx.QueryContext(ctx, `
		SELECT table_schema, table_name, table_comment
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
		AND table_schema NOT IN ('mysql', 'information_schema', 'performance_schema', 'sys')
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	type tableRef struct {
		schema, name, comment string
	}
	var refs []tableRef
	for rows.Next() {
		var ref tableRef
		if err := rows.Scan(&ref.schema, &ref.name, &ref.comment); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		if s.filter.Match(ref.schema) {
			refs = append(refs, ref)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tables: %w", err)
	}

	var schemas []types.TableSchema
	for _, ref := range refs {
		columns, err := s.loadColumns(ctx, tx, ref.schema, ref.name)
		if err != nil {
			return nil, fmt.Errorf("failed to load columns for table %s.%s: %w", ref.schema, ref.name, err)
		}
		if len(columns) == 0 {
			continue
		}
		schema := types.TableSchema{
			Table:   QualifiedName(ref.schema, ref.name),
			Columns: columns,
		}
		if ref.comment != "" {
			comment := ref.comment
			schema.Description = &comment
		}
		schemas = append(schemas, schema)
	}
	return schemas, nil
}

func (s *MySQLSource) loadColumns(ctx context.Context, tx *sqlx.Tx, tableSchema, tableName string) ([]types.Column, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT column_name, column_type, is_nullable, column_key, column_comment
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`, tableSchema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []types.Column
	for rows.Next() {
		var name, columnType, isNullable, columnKey, comment string
		if err := rows.Scan(&name, &columnType, &isNullable, &columnKey, &comment); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		col := types.Column{
			Name:     name,
			Type:     columnType,
			Primary:  columnKey == "PRI",
			Nullable: isNullable == "YES",
		}
		if comment != "" {
			c := comment
			col.Description = &c
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}
