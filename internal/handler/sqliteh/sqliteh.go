// Package sqliteh implements handler.Handler against a SQLite file using
// modernc.org/sqlite, the pure-Go cgo-free driver also used by the
// Text2SQL-shaped agents in the example corpus and, separately, by
// internal/workspace as its own in-memory SQL engine.
package sqliteh

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/koopa0/nlqagent/internal/apperrors"
	"github.com/koopa0/nlqagent/internal/handler"
)

// Describe returns the recognised ConnectionConfig fields for sqlite.
func Describe() []handler.FieldSchema {
	return []handler.FieldSchema{
		{Name: "filePath", Label: "File path", Widget: handler.WidgetText, Required: true},
		{Name: "mode", Label: "Mode", Widget: handler.WidgetSelect, Required: false,
			Options: []string{"readonly", "readwrite", "readwritecreate"}},
	}
}

type sqliteHandler struct {
	cfg    handler.ConnectionConfig
	logger *slog.Logger
	db     *sql.DB
}

// New constructs a sqliteh Handler. It does not open the file; Connect does.
func New(cfg handler.ConnectionConfig, logger *slog.Logger) (handler.Handler, error) {
	if cfg.Mode == "" {
		cfg.Mode = "readwritecreate"
	}
	return &sqliteHandler{cfg: cfg, logger: logger}, nil
}

func (h *sqliteHandler) dsn() string {
	switch h.cfg.Mode {
	case "readonly":
		return fmt.Sprintf("file:%s?mode=ro", h.cfg.FilePath)
	case "readwrite":
		return fmt.Sprintf("file:%s?mode=rw", h.cfg.FilePath)
	default:
		return fmt.Sprintf("file:%s?mode=rwc", h.cfg.FilePath)
	}
}

func (h *sqliteHandler) Connect(ctx context.Context) error {
	db, err := sql.Open("sqlite", h.dsn())
	if err != nil {
		return apperrors.NewConnectFailed(err, "sqlite")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return apperrors.NewConnectFailed(err, "sqlite")
	}
	h.db = db
	return nil
}

func (h *sqliteHandler) Disconnect(ctx context.Context) error {
	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}

func (h *sqliteHandler) Test(ctx context.Context) handler.TestResult {
	start := time.Now()
	if h.db == nil {
		if err := h.Connect(ctx); err != nil {
			return handler.TestResult{Success: false, Latency: time.Since(start), Error: err.Error()}
		}
	}
	var version string
	if err := h.db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return handler.TestResult{Success: false, Latency: time.Since(start), Error: err.Error()}
	}
	return handler.TestResult{Success: true, Latency: time.Since(start), Version: version}
}

func (h *sqliteHandler) Schema(ctx context.Context, includeColumns bool) (handler.SchemaSnapshot, error) {
	if h.db == nil {
		return handler.SchemaSnapshot{}, apperrors.NewNotConnected(h.cfg.ID)
	}

	rows, err := h.db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return handler.SchemaSnapshot{}, apperrors.NewQueryFailed(err, "sqlite")
	}
	defer rows.Close()

	var tables []handler.TableDescriptor
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return handler.SchemaSnapshot{}, apperrors.NewQueryFailed(err, "sqlite")
		}
		desc := handler.TableDescriptor{Name: name}
		if includeColumns {
			cols, err := h.columnsOf(ctx, name)
			if err != nil {
				return handler.SchemaSnapshot{}, err
			}
			desc.Columns = cols
		}
		tables = append(tables, desc)
	}
	return handler.SchemaSnapshot{Tables: tables}, rows.Err()
}

func (h *sqliteHandler) columnsOf(ctx context.Context, table string) ([]handler.ColumnDescriptor, error) {
	rows, err := h.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, apperrors.NewQueryFailed(err, "sqlite")
	}
	defer rows.Close()

	var cols []handler.ColumnDescriptor
	for rows.Next() {
		var cid int
		var name, typ string
		var notNull, pk int
		var dflt any
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, apperrors.NewQueryFailed(err, "sqlite")
		}
		cols = append(cols, handler.ColumnDescriptor{Name: name, TypeString: typ, Nullable: notNull == 0, PrimaryKey: pk > 0})
	}
	return cols, rows.Err()
}

func (h *sqliteHandler) Execute(ctx context.Context, query handler.Query) (handler.QueryResult, error) {
	if h.db == nil {
		return handler.QueryResult{}, apperrors.NewNotConnected(h.cfg.ID)
	}

	start := time.Now()
	rows, err := h.db.QueryContext(ctx, query.SQL, query.Params...)
	if err != nil {
		return handler.QueryResult{Success: false, Error: err.Error()}, nil
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return handler.QueryResult{Success: false, Error: err.Error()}, nil
	}

	result := handler.QueryResult{Columns: columns}
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for rows.Next() {
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return handler.QueryResult{Success: false, Error: err.Error()}, nil
		}
		row := make(map[string]handler.Cell, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result.Rows = append(result.Rows, row)
	}
	result.RowCount = len(result.Rows)
	result.ExecutionTimeMs = time.Since(start).Milliseconds()
	result.Success = true
	return result, nil
}

func (h *sqliteHandler) SupportedOperations() []handler.Operation {
	return []handler.Operation{handler.OpSelect, handler.OpInsert, handler.OpUpdate, handler.OpDelete, handler.OpAggregate}
}
