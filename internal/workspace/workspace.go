// Package workspace implements the Tabular Workspace + SQL Executor (C4):
// a per-request, in-memory modernc.org/sqlite database that QueryResults
// from any handler are registered into as named tables, queryable by
// plain SQL so later orchestrator steps can join/aggregate across
// heterogeneous sources.
//
// modernc.org/sqlite is the same pure-Go driver internal/handler/sqliteh
// uses against on-disk files; here it backs a private ":memory:"
// database opened once per run and closed at run end, satisfying the
// "embedded file-less" requirement.
package workspace

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/koopa0/nlqagent/internal/apperrors"
	"github.com/koopa0/nlqagent/internal/handler"
)

var identifierDisallowed = regexp.MustCompile(`[^a-z0-9_]`)

// TableInfo is one entry of Describe()'s output: the columns and row
// count of a registered table.
type TableInfo struct {
	Columns  []string
	RowCount int
}

// Workspace is a single orchestrator run's private SQL context. Not safe
// for concurrent use by multiple goroutines simultaneously registering
// tables; per spec.md §5 it is per-request and single-owner.
type Workspace struct {
	db     *sql.DB
	mu     sync.Mutex
	tables map[string]TableInfo
	// contents tracks, per table name, a content hash for register's
	// idempotence law: re-registering identical content under the same
	// name is a no-op; different content replaces the table.
	contents map[string]string
}

// New opens a fresh in-memory SQLite connection for one orchestrator run.
func New(ctx context.Context) (*Workspace, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, apperrors.NewWorkspaceSQLError(err, "open workspace")
	}
	// A ":memory:" database belongs to the single connection that opened
	// it; pin the pool to one connection so the schema survives for the
	// run's lifetime and no other Workspace can see it.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewWorkspaceSQLError(err, "open workspace")
	}
	return &Workspace{db: db, tables: make(map[string]TableInfo), contents: make(map[string]string)}, nil
}

// Close releases the workspace's tables at run end.
func (w *Workspace) Close() error {
	return w.db.Close()
}

// Register normalises name, infers column types from result.Rows, creates
// the table, and bulk-inserts the rows. Returns the final table name
// actually used (after normalisation/collision-suffixing).
//
// Idempotent for identical content and name; re-registering different
// content under the same name replaces the table.
func (w *Workspace) Register(ctx context.Context, name string, result handler.QueryResult) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	normalized := normalizeTableName(name)
	hash := contentHash(result)

	if existing, ok := w.contents[normalized]; ok && existing == hash {
		return normalized, nil
	}

	finalName := normalized
	if _, exists := w.tables[finalName]; exists && w.contents[finalName] != hash {
		finalName = disambiguate(normalized, w.tables)
	}

	types := inferColumnTypes(result)
	if err := w.createAndInsert(ctx, finalName, result, types); err != nil {
		return "", err
	}

	w.tables[finalName] = TableInfo{Columns: result.Columns, RowCount: result.RowCount}
	w.contents[finalName] = hash
	return finalName, nil
}

func (w *Workspace) createAndInsert(ctx context.Context, table string, result handler.QueryResult, types map[string]string) error {
	if _, err := w.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %q", table)); err != nil {
		return apperrors.NewWorkspaceSQLError(err, "drop table "+table)
	}

	var cols []string
	for _, col := range result.Columns {
		cols = append(cols, fmt.Sprintf("%q %s", col, types[col]))
	}
	createSQL := fmt.Sprintf("CREATE TABLE %q (%s)", table, strings.Join(cols, ", "))
	if _, err := w.db.ExecContext(ctx, createSQL); err != nil {
		return apperrors.NewWorkspaceSQLError(err, createSQL)
	}

	if len(result.Rows) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?, ", len(result.Columns))
	placeholders = strings.TrimSuffix(placeholders, ", ")
	insertSQL := fmt.Sprintf("INSERT INTO %q VALUES (%s)", table, placeholders)

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewWorkspaceSQLError(err, insertSQL)
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		tx.Rollback()
		return apperrors.NewWorkspaceSQLError(err, insertSQL)
	}
	defer stmt.Close()

	for _, row := range result.Rows {
		values := make([]any, len(result.Columns))
		for i, col := range result.Columns {
			values[i] = serializeCell(row[col])
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			tx.Rollback()
			return apperrors.NewWorkspaceSQLError(err, insertSQL)
		}
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewWorkspaceSQLError(err, insertSQL)
	}
	return nil
}

// SQL executes a pure SQL query against the workspace.
func (w *Workspace) SQL(ctx context.Context, query string) (handler.QueryResult, error) {
	rows, err := w.db.QueryContext(ctx, query)
	if err != nil {
		return handler.QueryResult{}, apperrors.NewWorkspaceSQLError(err, query)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return handler.QueryResult{}, apperrors.NewWorkspaceSQLError(err, query)
	}

	result := handler.QueryResult{Columns: columns, Success: true}
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for rows.Next() {
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return handler.QueryResult{}, apperrors.NewWorkspaceSQLError(err, query)
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

// Describe returns the columns and row count of every registered table,
// the context given to the LLM when it must write SQL.
func (w *Workspace) Describe() map[string]TableInfo {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(map[string]TableInfo, len(w.tables))
	for name, info := range w.tables {
		out[name] = info
	}
	return out
}

// Exists reports whether table is currently registered.
func (w *Workspace) Exists(table string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.tables[table]
	return ok
}

// normalizeTableName lowercases, replaces non-identifier characters with
// underscore, and truncates to 63 characters, per spec.md §4.4.
func normalizeTableName(name string) string {
	lower := strings.ToLower(name)
	normalized := identifierDisallowed.ReplaceAllString(lower, "_")
	if len(normalized) > 63 {
		normalized = normalized[:63]
	}
	if normalized == "" {
		normalized = "t"
	}
	return normalized
}

// disambiguate appends a numeric suffix until the name doesn't collide,
// truncating the base further if needed to stay within 63 characters.
func disambiguate(base string, existing map[string]TableInfo) string {
	for i := 2; ; i++ {
		suffix := "_" + strconv.Itoa(i)
		candidate := base
		if len(candidate)+len(suffix) > 63 {
			candidate = candidate[:63-len(suffix)]
		}
		candidate += suffix
		if _, exists := existing[candidate]; !exists {
			return candidate
		}
	}
}

// inferColumnTypes infers integer/real/text per column, per spec.md
// §4.4: integer if all non-null cells are integer-valued, real if all
// non-null cells are numeric, otherwise text.
func inferColumnTypes(result handler.QueryResult) map[string]string {
	types := make(map[string]string, len(result.Columns))
	for _, col := range result.Columns {
		types[col] = inferColumnType(result, col)
	}
	return types
}

func inferColumnType(result handler.QueryResult, col string) string {
	allInt, allNumeric, sawValue := true, true, false
	for _, row := range result.Rows {
		v := row[col]
		if v == nil {
			continue
		}
		sawValue = true
		switch n := v.(type) {
		case int, int32, int64:
			_ = n
		case float64:
			if n != float64(int64(n)) {
				allInt = false
			}
		case float32:
			if float64(n) != float64(int64(n)) {
				allInt = false
			}
		default:
			allInt, allNumeric = false, false
		}
	}
	if !sawValue {
		return "TEXT"
	}
	if allInt {
		return "INTEGER"
	}
	if allNumeric {
		return "REAL"
	}
	return "TEXT"
}

// serializeCell stores JSON-like (map/slice) cells as their serialised
// string form, per spec.md §4.4.
func serializeCell(v handler.Cell) any {
	switch v.(type) {
	case map[string]any, []any:
		return fmt.Sprintf("%v", v)
	default:
		return v
	}
}

// contentHash produces a cheap content fingerprint for Register's
// idempotence check: same columns + same serialised rows hash equal.
func contentHash(result handler.QueryResult) string {
	var b strings.Builder
	b.WriteString(strings.Join(result.Columns, ","))
	for _, row := range result.Rows {
		for _, col := range result.Columns {
			fmt.Fprintf(&b, "|%v", row[col])
		}
		b.WriteByte(';')
	}
	return b.String()
}
