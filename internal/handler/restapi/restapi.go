// Package restapi implements handler.Handler as the generic APIHandler of
// spec.md §4.3: a base URL plus config-declared virtual tables, optional
// basic-auth, optional API-key header. Unlike kosis, its virtual tables
// are not fixed in code but declared per-connection via
// ConnectionConfig.VirtualTables.
package restapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/koopa0/nlqagent/internal/apperrors"
	"github.com/koopa0/nlqagent/internal/handler"
	"github.com/koopa0/nlqagent/internal/handler/apibase"
)

// Describe returns the recognised ConnectionConfig fields for external_api.
func Describe() []handler.FieldSchema {
	return []handler.FieldSchema{
		{Name: "base_url", Label: "Base URL", Widget: handler.WidgetText, Required: true},
		{Name: "api_key", Label: "API key", Widget: handler.WidgetPassword, Required: false},
		{Name: "username", Label: "Username (basic auth)", Widget: handler.WidgetText, Required: false},
		{Name: "password", Label: "Password (basic auth)", Widget: handler.WidgetPassword, Required: false},
	}
}

type restAPIHandler struct {
	cfg    handler.ConnectionConfig
	logger *slog.Logger
	client *http.Client
}

// New constructs a restapi Handler.
func New(cfg handler.ConnectionConfig, logger *slog.Logger) (handler.Handler, error) {
	return &restAPIHandler{cfg: cfg, logger: logger, client: &http.Client{Timeout: 30 * time.Second}}, nil
}

func (h *restAPIHandler) Connect(ctx context.Context) error {
	result := h.Test(ctx)
	if !result.Success {
		return apperrors.NewConnectFailed(fmt.Errorf("%s", result.Error), "external_api")
	}
	return nil
}

func (h *restAPIHandler) Disconnect(ctx context.Context) error { return nil }

func (h *restAPIHandler) Test(ctx context.Context) handler.TestResult {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.cfg.BaseURL, nil)
	if err != nil {
		return handler.TestResult{Success: false, Latency: time.Since(start), Error: err.Error()}
	}
	h.applyAuth(req)
	resp, err := h.client.Do(req)
	if err != nil {
		return handler.TestResult{Success: false, Latency: time.Since(start), Error: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return handler.TestResult{Success: false, Latency: time.Since(start), Error: fmt.Sprintf("http %d", resp.StatusCode)}
	}
	return handler.TestResult{Success: true, Latency: time.Since(start)}
}

func (h *restAPIHandler) Schema(ctx context.Context, includeColumns bool) (handler.SchemaSnapshot, error) {
	var tables []handler.TableDescriptor
	for name := range h.cfg.VirtualTables {
		tables = append(tables, handler.TableDescriptor{Name: name})
	}
	return handler.SchemaSnapshot{Tables: tables}, nil
}

// Execute parses a SQL-like query (or accepts an equivalent Structured
// query), maps the WHERE predicates to request parameters via the
// matching VirtualTableSpec, performs the HTTP call, and flattens the
// response.
func (h *restAPIHandler) Execute(ctx context.Context, query handler.Query) (handler.QueryResult, error) {
	start := time.Now()

	var table string
	var predicates map[string]string
	var projection []string

	if query.SQL != "" {
		parsed, err := apibase.Parse(query.SQL)
		if err != nil {
			return handler.QueryResult{Success: false, Error: err.Error()}, nil
		}
		table, predicates, projection = parsed.Table, parsed.Predicates, parsed.Projection
	} else if query.Structured != nil {
		table = query.Structured.Collection
		predicates = toStringMap(query.Structured.Filter)
		projection = query.Structured.Projection
	} else {
		return handler.QueryResult{Success: false, Error: "external_api handler requires a SQL-like or structured query"}, nil
	}

	spec, ok := h.cfg.VirtualTables[table]
	if !ok {
		return handler.QueryResult{Success: false, Error: fmt.Sprintf("unknown virtual table %q", table)}, nil
	}

	values := url.Values{}
	for name, def := range spec.DefaultParams {
		values.Set(name, def)
	}
	for field, value := range predicates {
		param := field
		if mapped, ok := spec.ParamMapping[field]; ok {
			param = mapped
		}
		values.Set(param, value)
	}

	endpoint := h.cfg.BaseURL + spec.Endpoint
	if len(values) > 0 {
		endpoint += "?" + values.Encode()
	}

	method := spec.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return handler.QueryResult{Success: false, Error: err.Error()}, nil
	}
	h.applyAuth(req)

	resp, err := h.client.Do(req)
	if err != nil {
		return handler.QueryResult{Success: false, Error: err.Error()}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return handler.QueryResult{Success: false, Error: err.Error()}, nil
	}
	if resp.StatusCode >= 400 {
		return handler.QueryResult{Success: false, Error: fmt.Sprintf("http %d: %s", resp.StatusCode, string(body))}, nil
	}

	result, err := flattenResponse(body, projection)
	if err != nil {
		return handler.QueryResult{Success: false, Error: err.Error()}, nil
	}
	result.ExecutionTimeMs = time.Since(start).Milliseconds()
	result.Success = true
	return result, nil
}

func (h *restAPIHandler) applyAuth(req *http.Request) {
	if h.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.cfg.APIKey)
	}
	if h.cfg.Username != "" {
		req.SetBasicAuth(h.cfg.Username, h.cfg.Password)
	}
}

func toStringMap(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}

func flattenResponse(body []byte, projection []string) (handler.QueryResult, error) {
	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		var single map[string]any
		if err2 := json.Unmarshal(body, &single); err2 != nil {
			return handler.QueryResult{}, fmt.Errorf("decode response: %w", err)
		}
		rows = []map[string]any{single}
	}

	seen := map[string]bool{}
	var columns []string
	for _, row := range rows {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}
	if len(projection) > 0 {
		columns = projection
	}

	resultRows := make([]map[string]handler.Cell, len(rows))
	for i, row := range rows {
		out := make(map[string]handler.Cell, len(columns))
		for _, col := range columns {
			out[col] = row[col]
		}
		resultRows[i] = out
	}

	return handler.QueryResult{Columns: columns, Rows: resultRows, RowCount: len(resultRows)}, nil
}

func (h *restAPIHandler) SupportedOperations() []handler.Operation {
	return []handler.Operation{handler.OpSelect}
}
