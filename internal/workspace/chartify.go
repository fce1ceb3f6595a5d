package workspace

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/koopa0/nlqagent/internal/apperrors"
)

// ChartKind is the chart shape chartify selects.
type ChartKind string

const (
	ChartLine     ChartKind = "line"
	ChartBar      ChartKind = "bar"
	ChartPie      ChartKind = "pie"
	ChartDoughnut ChartKind = "doughnut"
)

// Dataset is one series of a ChartData projection.
type Dataset struct {
	Label  string
	Values []float64
}

// ChartData is the chart-ready projection chartify produces.
type ChartData struct {
	ChartKind ChartKind
	Labels    []string
	Datasets  []Dataset
	Title     string
}

// Hint carries the optional explicit column selection a visualization
// step may supply.
type Hint struct {
	LabelColumn  string
	ValueColumns []string
	Title        string
}

var timeColumnPattern = regexp.MustCompile(`(?i)^(year|date|time|period|month|day|yr|prd)`)

// Chartify projects table into a ChartData per spec.md §4.4's selection
// policy: explicit hint columns when given; otherwise the first
// non-numeric column as labels and all numeric columns as datasets,
// choosing line for time/period labels, bar for categorical, pie/doughnut
// when there is exactly one dataset whose values are shares of a whole.
func (w *Workspace) Chartify(ctx context.Context, table string, hint Hint) (ChartData, error) {
	result, err := w.SQL(ctx, "SELECT * FROM "+quoteIdent(table))
	if err != nil {
		return ChartData{}, err
	}
	if len(result.Columns) == 0 {
		return ChartData{}, apperrors.NewWorkspaceSQLError(nil, "chartify: table "+table+" has no columns")
	}

	labelCol, valueCols := selectColumns(result.Columns, result.Rows, hint)
	if labelCol == "" || len(valueCols) == 0 {
		return ChartData{}, apperrors.NewWorkspaceSQLError(nil, "chartify: could not select label/value columns for "+table)
	}

	labels := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		labels = append(labels, toLabel(row[labelCol]))
	}

	datasets := make([]Dataset, 0, len(valueCols))
	for _, col := range valueCols {
		values := make([]float64, 0, len(result.Rows))
		for _, row := range result.Rows {
			values = append(values, toFloat(row[col]))
		}
		datasets = append(datasets, Dataset{Label: col, Values: values})
	}

	kind := selectChartKind(labelCol, datasets)

	return ChartData{ChartKind: kind, Labels: labels, Datasets: datasets, Title: hint.Title}, nil
}

func selectColumns(columns []string, rows []map[string]any, hint Hint) (string, []string) {
	if hint.LabelColumn != "" && len(hint.ValueColumns) > 0 {
		return hint.LabelColumn, hint.ValueColumns
	}

	var labelCol string
	var numericCols []string
	for _, col := range columns {
		if isNumericColumn(col, rows) {
			numericCols = append(numericCols, col)
		} else if labelCol == "" {
			labelCol = col
		}
	}
	if labelCol == "" && len(columns) > 0 {
		labelCol = columns[0]
	}
	return labelCol, numericCols
}

func isNumericColumn(col string, rows []map[string]any) bool {
	sawValue := false
	for _, row := range rows {
		v := row[col]
		if v == nil {
			continue
		}
		sawValue = true
		switch v.(type) {
		case int, int32, int64, float32, float64:
		default:
			return false
		}
	}
	return sawValue
}

func selectChartKind(labelCol string, datasets []Dataset) ChartKind {
	if timeColumnPattern.MatchString(labelCol) {
		return ChartLine
	}
	if len(datasets) == 1 && isShareOfWhole(datasets[0].Values) {
		return ChartPie
	}
	return ChartBar
}

// isShareOfWhole treats a dataset as shares of a whole when every value
// is non-negative and they sum to roughly 100 or roughly 1.
func isShareOfWhole(values []float64) bool {
	var sum float64
	for _, v := range values {
		if v < 0 {
			return false
		}
		sum += v
	}
	return approxEqual(sum, 100) || approxEqual(sum, 1)
}

func approxEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < b*0.05+0.01
}

func toLabel(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return ""
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
