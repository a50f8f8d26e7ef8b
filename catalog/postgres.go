package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/schemavault/schemavault/types"
)

// PostgresSource enumerates tables and columns from information_schema,
// fully qualified as database.schema.table.
type PostgresSource struct {
	db     *sqlx.DB
	filter Filter
}

func NewPostgresSource(connectionString string, filter Filter) (*PostgresSource, error) {
	config, err := pgx.ParseConfig(connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	config.PreferSimpleProtocol = true

	db := sqlx.NewDb(stdlib.OpenDB(*config), "pgx")
	source := &PostgresSource{db: db, filter: filter}

	if err := source.Ping(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return source, nil
}

func (s *PostgresSource) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresSource) Close() error {
	return s.db.Close()
}

func (s *PostgresSource) LoadSchemas(ctx context.Context) ([]types.TableSchema, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Commit()

	var dbName string
	if err := tx.GetContext(ctx, &dbName, "SELECT current_database()"); err != nil {
		return nil, fmt.Errorf("failed to resolve database name: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT t.table_schema, t.table_name,
		       obj_description(format('%I.%I', t.table_schema, t.table_name)::regclass, 'pg_class')
		FROM information_schema.tables t
		WHERE t.table_type = 'BASE TABLE'
		AND t.table_schema NOT IN ('pg_catalog', 'information_schema')
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	type tableRef struct {
		schema, name string
		comment      *string
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
		schemas = append(schemas, types.TableSchema{
			Table:       QualifiedName(dbName, ref.schema, ref.name),
			Columns:     columns,
			Description: ref.comment,
		})
	}
	return schemas, nil
}

func (s *PostgresSource) loadColumns(ctx context.Context, tx *sqlx.Tx, tableSchema, tableName string) ([]types.Column, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT c.column_name, c.data_type, c.is_nullable,
		       EXISTS (
		           SELECT 1
		           FROM information_schema.table_constraints tc
		           JOIN information_schema.key_column_usage kcu
		             ON kcu.constraint_name = tc.constraint_name
		            AND kcu.table_schema = tc.table_schema
		           WHERE tc.constraint_type = 'PRIMARY KEY'
		           AND tc.table_schema = c.table_schema
		           AND tc.table_name = c.table_name
		           AND kcu.column_name = c.column_name
		       ) AS is_primary,
		       col_description(format('%I.%I', c.table_schema, c.table_name)::regclass, c.ordinal_position)
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`, tableSchema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []types.Column
	for rows.Next() {
		var name, dataType, isNullable string
		var isPrimary bool
		var comment *string
		if err := rows.Scan(&name, &dataType, &isNullable, &isPrimary, &comment); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, types.Column{
			Name:        name,
			Type:        dataType,
			Primary:     isPrimary,
			Nullable:    isNullable == "YES",
			Description: comment,
		})
	}
	return columns, rows.Err()
}
