// Package postgresh implements handler.Handler against PostgreSQL using
// pgx/v5's pgxpool, kept from the teacher's own
// internal/tools/postgres/schema_analyzer.go and internal/tool/postgres
// (both already pgxpool-based).
package postgresh

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koopa0/nlqagent/internal/apperrors"
	"github.com/koopa0/nlqagent/internal/handler"
)

// Describe returns the recognised ConnectionConfig fields for postgresql.
func Describe() []handler.FieldSchema {
	return []handler.FieldSchema{
		{Name: "host", Label: "Host", Widget: handler.WidgetText, Required: true},
		{Name: "port", Label: "Port", Widget: handler.WidgetNumber, Required: false},
		{Name: "database", Label: "Database", Widget: handler.WidgetText, Required: true},
		{Name: "username", Label: "Username", Widget: handler.WidgetText, Required: true},
		{Name: "password", Label: "Password", Widget: handler.WidgetPassword, Required: false},
		{Name: "ssl", Label: "Use TLS", Widget: handler.WidgetBool, Required: false},
		{Name: "schema", Label: "Schema", Widget: handler.WidgetText, Required: false},
	}
}

type postgresHandler struct {
	cfg    handler.ConnectionConfig
	logger *slog.Logger
	pool   *pgxpool.Pool
}

// New constructs a postgresh Handler. It does not connect; Connect does.
func New(cfg handler.ConnectionConfig, logger *slog.Logger) (handler.Handler, error) {
	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.Schema == "" {
		cfg.Schema = "public"
	}
	return &postgresHandler{cfg: cfg, logger: logger}, nil
}

func (h *postgresHandler) connString() string {
	sslmode := "disable"
	if h.cfg.SSL {
		sslmode = "require"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		h.cfg.Username, h.cfg.Password, h.cfg.Host, h.cfg.Port, h.cfg.Database, sslmode)
}

func (h *postgresHandler) Connect(ctx context.Context) error {
	pool, err := pgxpool.New(ctx, h.connString())
	if err != nil {
		return apperrors.NewConnectFailed(err, "postgresql")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return apperrors.NewConnectFailed(err, "postgresql")
	}
	h.pool = pool
	return nil
}

func (h *postgresHandler) Disconnect(ctx context.Context) error {
	if h.pool == nil {
		return nil
	}
	h.pool.Close()
	h.pool = nil
	return nil
}

func (h *postgresHandler) Test(ctx context.Context) handler.TestResult {
	start := time.Now()
	if h.pool == nil {
		if err := h.Connect(ctx); err != nil {
			return handler.TestResult{Success: false, Latency: time.Since(start), Error: err.Error()}
		}
	}
	var version string
	if err := h.pool.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return handler.TestResult{Success: false, Latency: time.Since(start), Error: err.Error()}
	}
	return handler.TestResult{Success: true, Latency: time.Since(start), Version: version}
}

// Schema lists tables in cfg.Schema. When includeColumns is false, row
// counts come from pg_stat_user_tables.n_live_tup rather than SELECT
// COUNT(*), per spec.md §4.3's statistics-catalogue optimisation; tables
// lacking statistics are skipped rather than listed with an unknown count.
func (h *postgresHandler) Schema(ctx context.Context, includeColumns bool) (handler.SchemaSnapshot, error) {
	if h.pool == nil {
		return handler.SchemaSnapshot{}, apperrors.NewNotConnected(h.cfg.ID)
	}

	if !includeColumns {
		return h.fastTableList(ctx)
	}
	return h.fullSchema(ctx)
}

func (h *postgresHandler) fastTableList(ctx context.Context) (handler.SchemaSnapshot, error) {
	rows, err := h.pool.Query(ctx, `
		SELECT t.tablename, pg_stat_user_tables.n_live_tup
		FROM pg_tables t
		JOIN pg_stat_user_tables ON
			pg_stat_user_tables.schemaname = t.schemaname AND
			pg_stat_user_tables.relname = t.tablename
		WHERE t.schemaname = $1
		ORDER BY t.tablename`, h.cfg.Schema)
	if err != nil {
		return handler.SchemaSnapshot{}, apperrors.NewQueryFailed(err, "postgresql")
	}
	defer rows.Close()

	var tables []handler.TableDescriptor
	for rows.Next() {
		var name string
		var liveTup int64
		if err := rows.Scan(&name, &liveTup); err != nil {
			return handler.SchemaSnapshot{}, apperrors.NewQueryFailed(err, "postgresql")
		}
		tables = append(tables, handler.TableDescriptor{
			Name:             name,
			SchemaNamespace:  h.cfg.Schema,
			RowCountEstimate: &liveTup,
		})
	}
	return handler.SchemaSnapshot{Tables: tables}, rows.Err()
}

func (h *postgresHandler) fullSchema(ctx context.Context) (handler.SchemaSnapshot, error) {
	rows, err := h.pool.Query(ctx, `SELECT tablename FROM pg_tables WHERE schemaname = $1 ORDER BY tablename`, h.cfg.Schema)
	if err != nil {
		return handler.SchemaSnapshot{}, apperrors.NewQueryFailed(err, "postgresql")
	}
	defer rows.Close()

	var tables []handler.TableDescriptor
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return handler.SchemaSnapshot{}, apperrors.NewQueryFailed(err, "postgresql")
		}
		cols, err := h.columnsOf(ctx, name)
		if err != nil {
			return handler.SchemaSnapshot{}, err
		}
		tables = append(tables, handler.TableDescriptor{Name: name, SchemaNamespace: h.cfg.Schema, Columns: cols})
	}
	return handler.SchemaSnapshot{Tables: tables}, rows.Err()
}

func (h *postgresHandler) columnsOf(ctx context.Context, table string) ([]handler.ColumnDescriptor, error) {
	rows, err := h.pool.Query(ctx, `
		SELECT c.column_name, c.data_type, c.is_nullable,
			EXISTS (
				SELECT 1 FROM information_schema.key_column_usage k
				JOIN information_schema.table_constraints tc
					ON tc.constraint_name = k.constraint_name AND tc.constraint_type = 'PRIMARY KEY'
				WHERE k.table_schema = c.table_schema AND k.table_name = c.table_name AND k.column_name = c.column_name
			) AS is_primary_key
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`, h.cfg.Schema, table)
	if err != nil {
		return nil, apperrors.NewQueryFailed(err, "postgresql")
	}
	defer rows.Close()

	var cols []handler.ColumnDescriptor
	for rows.Next() {
		var name, typ, nullable string
		var pk bool
		if err := rows.Scan(&name, &typ, &nullable, &pk); err != nil {
			return nil, apperrors.NewQueryFailed(err, "postgresql")
		}
		cols = append(cols, handler.ColumnDescriptor{Name: name, TypeString: typ, Nullable: nullable == "YES", PrimaryKey: pk})
	}
	return cols, rows.Err()
}

func (h *postgresHandler) Execute(ctx context.Context, query handler.Query) (handler.QueryResult, error) {
	if h.pool == nil {
		return handler.QueryResult{}, apperrors.NewNotConnected(h.cfg.ID)
	}

	start := time.Now()
	rows, err := h.pool.Query(ctx, query.SQL, query.Params...)
	if err != nil {
		return handler.QueryResult{Success: false, Error: err.Error()}, nil
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return handler.QueryResult{Success: false, Error: err.Error()}, nil
	}
	result.ExecutionTimeMs = time.Since(start).Milliseconds()
	result.Success = true
	return result, nil
}

func scanRows(rows pgx.Rows) (handler.QueryResult, error) {
	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = string(f.Name)
	}

	result := handler.QueryResult{Columns: columns}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return handler.QueryResult{}, err
		}
		row := make(map[string]handler.Cell, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result.Rows = append(result.Rows, row)
	}
	result.RowCount = len(result.Rows)
	return result, rows.Err()
}

func (h *postgresHandler) SupportedOperations() []handler.Operation {
	return []handler.Operation{handler.OpSelect, handler.OpInsert, handler.OpUpdate, handler.OpDelete, handler.OpAggregate}
}
