package orchestrator

import (
	"fmt"

	"github.com/koopa0/nlqagent/internal/connection"
	"github.com/koopa0/nlqagent/internal/handler"
)

// toolNameExecuteSQL is the tool every connected SQL-family backend
// exposes for planning purposes. Document-family backends (mongodb) get
// a structured-query variant instead; see buildTools.
const (
	toolNameExecuteSQL      = "execute_sql"
	toolNameExecuteQuery    = "execute_query"
	toolNameFetchKOSISData  = "fetch_kosis_data"
)

// buildTools derives the ToolSpecs offered to the planner from the
// active connection's Kind. A nil conn (no
// active connection) yields an empty tool set, which the planner
// reflects to the caller as an error if a data_analysis plan is
// requested with nothing to query.
func buildTools(conn *connection.Connection) map[string]ToolSpec {
	tools := make(map[string]ToolSpec)
	if conn == nil || conn.Handler == nil {
		return tools
	}

	switch conn.Config.Kind {
	case handler.KindMongoDB:
		tools[toolNameExecuteQuery] = ToolSpec{
			Name:        toolNameExecuteQuery,
			Description: "Run a structured find/aggregate query against the active document connection.",
			Parameters: []ParameterSchema{
				{Name: "collection", Type: "string", Required: true, Description: "Collection name"},
				{Name: "operation", Type: "string", Required: true, Description: `"SELECT" for find, "AGGREGATE" for an aggregation pipeline`},
				{Name: "filter", Type: "object", Required: false, Description: "Find filter document"},
				{Name: "pipeline", Type: "array", Required: false, Description: "Aggregation pipeline stages"},
			},
		}

	case handler.KindKOSISAPI:
		tools[toolNameFetchKOSISData] = ToolSpec{
			Name:        toolNameFetchKOSISData,
			Description: "Fetch data from a KOSIS virtual table (statistics_search, statistics_list, statistics_data, statistics_bigdata, statistics_explanation, statistics_table_detail, statistics_main_indicator).",
			Parameters: []ParameterSchema{
				{Name: "table", Type: "string", Required: true, Description: "KOSIS virtual table name"},
				{Name: "parameters", Type: "object", Required: false, Description: "Virtual table parameters, e.g. orgId, tblId"},
			},
		}

	case handler.KindExternalAPI:
		tools[toolNameExecuteQuery] = ToolSpec{
			Name:        toolNameExecuteQuery,
			Description: "Fetch data from a configured external REST virtual table.",
			Parameters: []ParameterSchema{
				{Name: "table", Type: "string", Required: true, Description: "Virtual table name as configured on the connection"},
				{Name: "parameters", Type: "object", Required: false, Description: "Request parameters"},
			},
		}

	default: // SQL-family: mysql, postgresql, sqlite
		tools[toolNameExecuteSQL] = ToolSpec{
			Name:        toolNameExecuteSQL,
			Description: fmt.Sprintf("Run a read-only SQL query against the active %s connection.", conn.Config.Kind),
			Parameters: []ParameterSchema{
				{Name: "sql", Type: "string", Required: true, Description: "SQL SELECT statement"},
			},
		}
	}

	return tools
}
