package workspace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/nlqagent/internal/handler"
)

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	ws, err := New(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func sampleResult() handler.QueryResult {
	return handler.QueryResult{
		Success:  true,
		Columns:  []string{"id", "name"},
		RowCount: 2,
		Rows: []map[string]handler.Cell{
			{"id": int64(1), "name": "alice"},
			{"id": int64(2), "name": "bob"},
		},
	}
}

// Registering identical content under the same name twice is a no-op: it
// returns the same table name without creating an alternate one.
func TestWorkspace_RegisterIdempotence(t *testing.T) {
	ws := newTestWorkspace(t)
	ctx := context.Background()

	first, err := ws.Register(ctx, "step1_query", sampleResult())
	require.NoError(t, err)

	second, err := ws.Register(ctx, "step1_query", sampleResult())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, ws.Describe(), 1)
}

// Registering different content under a name already in use disambiguates
// with a numeric suffix rather than overwriting the earlier table.
func TestWorkspace_RegisterDisambiguatesOnDifferentContent(t *testing.T) {
	ws := newTestWorkspace(t)
	ctx := context.Background()

	first, err := ws.Register(ctx, "step1_query", sampleResult())
	require.NoError(t, err)

	differentContent := handler.QueryResult{
		Success:  true,
		Columns:  []string{"id", "name"},
		RowCount: 1,
		Rows: []map[string]handler.Cell{
			{"id": int64(99), "name": "carol"},
		},
	}
	second, err := ws.Register(ctx, "step1_query", differentContent)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, ws.Exists(first))
	assert.True(t, ws.Exists(second))
}

func TestWorkspace_NormalizeTableName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Step1_Query", "step1_query"},
		{"replaces disallowed chars", "step 1-query!", "step_1_query_"},
		{"empty falls back to t", "", "t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeTableName(tt.in))
		})
	}
}

// Column type inference: all-integer columns are INTEGER, columns with a
// non-integral numeric value are REAL, and columns with any non-numeric
// value are TEXT.
func TestWorkspace_TypeInference(t *testing.T) {
	result := handler.QueryResult{
		Columns: []string{"count", "ratio", "label"},
		Rows: []map[string]handler.Cell{
			{"count": int64(1), "ratio": 1.5, "label": "a"},
			{"count": int64(2), "ratio": 2.0, "label": "b"},
		},
	}

	types := inferColumnTypes(result)
	assert.Equal(t, "INTEGER", types["count"])
	assert.Equal(t, "REAL", types["ratio"])
	assert.Equal(t, "TEXT", types["label"])
}

func TestWorkspace_TypeInference_AllNullDefaultsText(t *testing.T) {
	result := handler.QueryResult{
		Columns: []string{"maybe"},
		Rows: []map[string]handler.Cell{
			{"maybe": nil},
		},
	}

	types := inferColumnTypes(result)
	assert.Equal(t, "TEXT", types["maybe"])
}

// SQL executes a query against previously registered tables and Describe
// reflects the registered set.
func TestWorkspace_SQLAndDescribe(t *testing.T) {
	ws := newTestWorkspace(t)
	ctx := context.Background()

	table, err := ws.Register(ctx, "people", sampleResult())
	require.NoError(t, err)

	result, err := ws.SQL(ctx, "SELECT COUNT(*) AS n FROM "+quoteIdent(table))
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, int64(2), result.Rows[0]["n"])

	info, ok := ws.Describe()[table]
	require.True(t, ok)
	assert.Equal(t, 2, info.RowCount)
}

// Chartify picks a line chart when the label column looks like a time
// period, a bar chart for an ordinary categorical label with multiple
// numeric datasets, and a pie chart for a single dataset whose values sum
// to roughly 100 (shares of a whole).
func TestWorkspace_Chartify_SelectsChartKind(t *testing.T) {
	ctx := context.Background()

	t.Run("time column selects line", func(t *testing.T) {
		ws := newTestWorkspace(t)
		result := handler.QueryResult{
			Columns: []string{"year", "revenue"},
			Rows: []map[string]handler.Cell{
				{"year": "2023", "revenue": 100.0},
				{"year": "2024", "revenue": 150.0},
			},
		}
		table, err := ws.Register(ctx, "revenue_by_year", result)
		require.NoError(t, err)

		chart, err := ws.Chartify(ctx, table, Hint{})
		require.NoError(t, err)
		assert.Equal(t, ChartLine, chart.ChartKind)
	})

	t.Run("categorical multi-series selects bar", func(t *testing.T) {
		ws := newTestWorkspace(t)
		result := handler.QueryResult{
			Columns: []string{"region", "revenue", "cost"},
			Rows: []map[string]handler.Cell{
				{"region": "east", "revenue": 10.0, "cost": 4.0},
				{"region": "west", "revenue": 20.0, "cost": 6.0},
			},
		}
		table, err := ws.Register(ctx, "region_totals", result)
		require.NoError(t, err)

		chart, err := ws.Chartify(ctx, table, Hint{})
		require.NoError(t, err)
		assert.Equal(t, ChartBar, chart.ChartKind)
	})

	t.Run("single share-of-whole dataset selects pie", func(t *testing.T) {
		ws := newTestWorkspace(t)
		result := handler.QueryResult{
			Columns: []string{"category", "share"},
			Rows: []map[string]handler.Cell{
				{"category": "a", "share": 40.0},
				{"category": "b", "share": 60.0},
			},
		}
		table, err := ws.Register(ctx, "category_shares", result)
		require.NoError(t, err)

		chart, err := ws.Chartify(ctx, table, Hint{})
		require.NoError(t, err)
		assert.Equal(t, ChartPie, chart.ChartKind)
	})
}

func TestWorkspace_Chartify_UnknownTable(t *testing.T) {
	ws := newTestWorkspace(t)
	_, err := ws.Chartify(context.Background(), "does_not_exist", Hint{})
	assert.Error(t, err)
}
