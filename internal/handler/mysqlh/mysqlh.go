// Package mysqlh implements handler.Handler against a MySQL backend using
// database/sql with github.com/go-sql-driver/mysql, grounded on the same
// driver choice used by the Text2SQL-shaped agents in the example corpus
// (Zqzqsb-ReActSqlExp, kadirpekel-hector) for their own MySQL adapters.
package mysqlh

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/koopa0/nlqagent/internal/apperrors"
	"github.com/koopa0/nlqagent/internal/handler"
)

// Describe returns the recognised ConnectionConfig fields for mysql, per
// spec.md §6's field table.
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

type mysqlHandler struct {
	cfg    handler.ConnectionConfig
	logger *slog.Logger
	db     *sql.DB
}

// New constructs a mysqlh Handler. It does not connect; Connect does.
func New(cfg handler.ConnectionConfig, logger *slog.Logger) (handler.Handler, error) {
	if cfg.Port == 0 {
		cfg.Port = 3306
	}
	return &mysqlHandler{cfg: cfg, logger: logger}, nil
}

func (h *mysqlHandler) dsn() string {
	tls := "false"
	if h.cfg.SSL {
		tls = "true"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&tls=%s",
		h.cfg.Username, h.cfg.Password, h.cfg.Host, h.cfg.Port, h.cfg.Database, tls)
}

func (h *mysqlHandler) Connect(ctx context.Context) error {
	db, err := sql.Open("mysql", h.dsn())
	if err != nil {
		return apperrors.NewConnectFailed(err, "mysql")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return apperrors.NewConnectFailed(err, "mysql")
	}
	h.db = db
	return nil
}

func (h *mysqlHandler) Disconnect(ctx context.Context) error {
	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}

func (h *mysqlHandler) Test(ctx context.Context) handler.TestResult {
	start := time.Now()
	if h.db == nil {
		if err := h.Connect(ctx); err != nil {
			return handler.TestResult{Success: false, Latency: time.Since(start), Error: err.Error()}
		}
	}
	var version string
	if err := h.db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version); err != nil {
		return handler.TestResult{Success: false, Latency: time.Since(start), Error: err.Error()}
	}
	return handler.TestResult{Success: true, Latency: time.Since(start), Version: version}
}

func (h *mysqlHandler) Schema(ctx context.Context, includeColumns bool) (handler.SchemaSnapshot, error) {
	if h.db == nil {
		return handler.SchemaSnapshot{}, apperrors.NewNotConnected(h.cfg.ID)
	}

	rows, err := h.db.QueryContext(ctx, "SELECT table_name FROM information_schema.tables WHERE table_schema = ?", h.cfg.Database)
	if err != nil {
		return handler.SchemaSnapshot{}, apperrors.NewQueryFailed(err, "mysql")
	}
	defer rows.Close()

	var tables []handler.TableDescriptor
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return handler.SchemaSnapshot{}, apperrors.NewQueryFailed(err, "mysql")
		}
		desc := handler.TableDescriptor{Name: name, SchemaNamespace: h.cfg.Database}
		if includeColumns {
			cols, err := h.columnsOf(ctx, name)
			if err != nil {
				return handler.SchemaSnapshot{}, err
			}
			desc.Columns = cols
		}
		tables = append(tables, desc)
	}
	return handler.SchemaSnapshot{Tables: tables}, nil
}

func (h *mysqlHandler) columnsOf(ctx context.Context, table string) ([]handler.ColumnDescriptor, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT column_name, column_type, is_nullable, column_key
		FROM information_schema.columns WHERE table_schema = ? AND table_name = ? ORDER BY ordinal_position`,
		h.cfg.Database, table)
	if err != nil {
		return nil, apperrors.NewQueryFailed(err, "mysql")
	}
	defer rows.Close()

	var cols []handler.ColumnDescriptor
	for rows.Next() {
		var name, typ, nullable, key string
		if err := rows.Scan(&name, &typ, &nullable, &key); err != nil {
			return nil, apperrors.NewQueryFailed(err, "mysql")
		}
		cols = append(cols, handler.ColumnDescriptor{
			Name:       name,
			TypeString: typ,
			Nullable:   nullable == "YES",
			PrimaryKey: key == "PRI",
		})
	}
	return cols, nil
}

func (h *mysqlHandler) Execute(ctx context.Context, query handler.Query) (handler.QueryResult, error) {
	if h.db == nil {
		return handler.QueryResult{}, apperrors.NewNotConnected(h.cfg.ID)
	}

	start := time.Now()
	rows, err := h.db.QueryContext(ctx, query.SQL, query.Params...)
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

// scanRows materialises *sql.Rows into a QueryResult; the other relational
// handlers build the same shape from their own row types.
func scanRows(rows *sql.Rows) (handler.QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return handler.QueryResult{}, err
	}

	result := handler.QueryResult{Columns: columns}
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for rows.Next() {
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return handler.QueryResult{}, err
		}
		row := make(map[string]handler.Cell, len(columns))
		for i, col := range columns {
			row[col] = normalizeCell(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	result.RowCount = len(result.Rows)
	return result, rows.Err()
}

func normalizeCell(v any) handler.Cell {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func (h *mysqlHandler) SupportedOperations() []handler.Operation {
	return []handler.Operation{handler.OpSelect, handler.OpInsert, handler.OpUpdate, handler.OpDelete, handler.OpAggregate}
}
