package orchestrator

import "strings"

// dataAnalysisKeywords are matched case-insensitively against the
// utterance; a hit routes to data_analysis, otherwise general, per
// spec.md §4.5's routing heuristic.
var dataAnalysisKeywords = []string{
	"select", "query", "table", "database", "row", "rows", "column", "columns",
	"chart", "plot", "graph", "visuali", "aggregate", "group by", "join",
	"sum", "average", "count", "how many", "trend", "compare", "data",
	"schema", "report", "dataset", "statistics", "kosis",
}

// classify routes an utterance to general or data_analysis. It is a
// keyword heuristic, not an LLM call: spec.md §9 leaves the exact
// boundary an open question, resolved here by erring toward
// data_analysis whenever the utterance plausibly references stored data,
// since routing a real data question to general never recovers: the
// general path makes one LLM call with no tools or Workspace.
func classify(utterance string) Classification {
	lower := strings.ToLower(utterance)
	for _, kw := range dataAnalysisKeywords {
		if strings.Contains(lower, kw) {
			return ClassificationDataAnalysis
		}
	}
	return ClassificationGeneral
}
