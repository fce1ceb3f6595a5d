// Package kosis implements handler.Handler against the Korean Statistical
// Information Service (KOSIS) open API as a set of fixed virtual tables,
// per spec.md §4.3/§6. Queries are parsed by apibase into
// {table, predicates, projection} and translated into one HTTP GET per
// table's declared parameter mapping.
package kosis

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

const defaultBaseURL = "https://kosis.kr/openapi"

// Describe returns the recognised ConnectionConfig fields for kosis_api.
func Describe() []handler.FieldSchema {
	return []handler.FieldSchema{
		{Name: "api_key", Label: "API key", Widget: handler.WidgetPassword, Required: true},
		{Name: "base_url", Label: "Base URL", Widget: handler.WidgetText, Required: false},
	}
}

// virtualTable describes one of the fixed KOSIS endpoints: its path and
// the query parameters it accepts, keyed the same as the WHERE-clause
// field name a caller would use.
type virtualTable struct {
	endpoint string
	params   []string
	// defaults supplies safe values for parameters the backend requires
	// but a caller may omit, per spec.md §4.3/§9 (objL1, itmId).
	defaults map[string]string
}

var virtualTables = map[string]virtualTable{
	"statistics_search": {endpoint: "statisticsSearch.do", params: []string{"searchNm"}},
	"statistics_list":   {endpoint: "statisticsList.do", params: []string{"vwCd", "parentListId"}},
	"statistics_data": {
		endpoint: "statisticsData.do",
		params:   []string{"orgId", "tblId", "prdSe", "startPrdDe", "endPrdDe", "objL1", "itmId"},
		defaults: map[string]string{"objL1": "ALL", "itmId": "ALL"},
	},
	"statistics_bigdata":          {endpoint: "statisticsBigData.do", params: []string{"userStatsId", "format"}},
	"statistics_explanation":      {endpoint: "statisticsExplanation.do", params: []string{"statId"}},
	"statistics_table_detail":     {endpoint: "statisticsTableDetail.do", params: []string{"tblId"}},
	"statistics_main_indicator":   {endpoint: "statisticsMainIndicator.do", params: nil},
}

type kosisHandler struct {
	cfg     handler.ConnectionConfig
	logger  *slog.Logger
	client  *http.Client
	baseURL string
}

// New constructs a kosis Handler.
func New(cfg handler.ConnectionConfig, logger *slog.Logger) (handler.Handler, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &kosisHandler{
		cfg:     cfg,
		logger:  logger,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
	}, nil
}

func (h *kosisHandler) Connect(ctx context.Context) error {
	result := h.Test(ctx)
	if !result.Success {
		return apperrors.NewConnectFailed(fmt.Errorf("%s", result.Error), "kosis_api")
	}
	return nil
}

func (h *kosisHandler) Disconnect(ctx context.Context) error { return nil }

func (h *kosisHandler) Test(ctx context.Context) handler.TestResult {
	start := time.Now()
	req, err := h.buildRequest(ctx, virtualTables["statistics_main_indicator"], nil)
	if err != nil {
		return handler.TestResult{Success: false, Latency: time.Since(start), Error: err.Error()}
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return handler.TestResult{Success: false, Latency: time.Since(start), Error: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return handler.TestResult{Success: false, Latency: time.Since(start), Error: fmt.Sprintf("http %d", resp.StatusCode)}
	}
	return handler.TestResult{Success: true, Latency: time.Since(start), Version: "openapi"}
}

// Schema lists the fixed virtual tables; columns are not introspectable
// since each endpoint's response shape varies by query.
func (h *kosisHandler) Schema(ctx context.Context, includeColumns bool) (handler.SchemaSnapshot, error) {
	var tables []handler.TableDescriptor
	for name := range virtualTables {
		tables = append(tables, handler.TableDescriptor{Name: name})
	}
	return handler.SchemaSnapshot{Tables: tables}, nil
}

// Execute accepts either a SQL-like "SELECT ... FROM <table> WHERE ..."
// string or an equivalent Structured query, parses/translates it into the
// table's HTTP call, and flattens the JSON response into columns/rows.
func (h *kosisHandler) Execute(ctx context.Context, query handler.Query) (handler.QueryResult, error) {
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
		return handler.QueryResult{Success: false, Error: "kosis handler requires a SQL-like or structured query"}, nil
	}

	vt, ok := virtualTables[table]
	if !ok {
		return handler.QueryResult{Success: false, Error: fmt.Sprintf("unknown virtual table %q", table)}, nil
	}

	params := map[string]string{}
	for name, def := range vt.defaults {
		params[name] = def
	}
	for field, value := range predicates {
		params[field] = value
	}
	if missing := missingRequired(vt, params); missing != "" {
		return handler.QueryResult{Success: false, Error: fmt.Sprintf("required parameter %s missing", missing)}, nil
	}

	req, err := h.buildRequest(ctx, vt, params)
	if err != nil {
		return handler.QueryResult{Success: false, Error: err.Error()}, nil
	}
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

func missingRequired(vt virtualTable, params map[string]string) string {
	for _, name := range vt.params {
		if _, ok := params[name]; !ok {
			return name
		}
	}
	return ""
}

func (h *kosisHandler) buildRequest(ctx context.Context, vt virtualTable, params map[string]string) (*http.Request, error) {
	values := url.Values{}
	values.Set("apiKey", h.cfg.APIKey)
	values.Set("format", "json")
	for k, v := range params {
		values.Set(k, v)
	}
	endpoint := h.baseURL + "/" + vt.endpoint + "?" + values.Encode()
	return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
}

func toStringMap(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}

// flattenResponse decodes a KOSIS JSON array/object response into rows,
// applying an explicit column projection when one was requested.
func flattenResponse(body []byte, projection []string) (handler.QueryResult, error) {
	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		var single map[string]any
		if err2 := json.Unmarshal(body, &single); err2 != nil {
			return handler.QueryResult{}, fmt.Errorf("decode kosis response: %w", err)
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

func (h *kosisHandler) SupportedOperations() []handler.Operation {
	return []handler.Operation{handler.OpSelect}
}
