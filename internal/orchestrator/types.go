// Package orchestrator implements the Plan-Execute-Reflect Orchestrator
// (C5): it classifies an utterance, asks the configured ai.Provider for a
// plan, validates and executes it step by step against the active
// connection and the run's Workspace, reflects on failure, and streams
// typed StreamEvents for the caller, per spec.md §4.5.
package orchestrator

// StepKind is the kind of one Plan Step.
type StepKind string

const (
	StepToolCall      StepKind = "tool_call"
	StepQuery         StepKind = "query"
	StepVisualization StepKind = "visualization"
)

// Step is one entry of a Plan. Exactly the kind-specific fields relevant
// to Kind are populated by the LLM.
type Step struct {
	Index       int            `json:"index"`
	Kind        StepKind       `json:"kind"`
	Description string         `json:"description"`

	// tool_call
	ToolName  string         `json:"tool_name,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`

	// query
	SQL         string `json:"sql,omitempty"`
	Subquestion string `json:"subquestion,omitempty"`

	// visualization
	TableName string `json:"table_name,omitempty"`
	ChartHint string `json:"chart_hint,omitempty"`
}

// Plan is an ordered sequence of Steps returned by the LLM.
type Plan struct {
	Steps []Step `json:"steps"`
}

// ParameterSchema describes one ToolSpec parameter.
type ParameterSchema struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
}

// ToolSpec is the description exposed to the LLM when planning, built by
// buildTools from the active connection's Kind.
type ToolSpec struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Parameters  []ParameterSchema `json:"parameters"`
}

// EventType names a StreamEvent variant.
type EventType string

const (
	EventStart         EventType = "start"
	EventPlanning      EventType = "planning"
	EventStepStarted   EventType = "step_started"
	EventToolCall      EventType = "tool_call"
	EventQuery         EventType = "query"
	EventVisualization EventType = "visualization"
	EventResult        EventType = "result"
	EventError         EventType = "error"
	EventDone          EventType = "done"
)

// StepStatus is the status carried by tool_call/query events.
type StepStatus string

const (
	StatusCompleted StepStatus = "completed"
	StatusError     StepStatus = "error"
)

// StreamEvent is a typed message emitted to the caller, per spec.md §3.
// Only the fields relevant to Type are populated.
type StreamEvent struct {
	Type EventType `json:"type"`

	// planning
	Steps []Step `json:"steps,omitempty"`

	// step_started
	Index       int      `json:"index,omitempty"`
	Kind        StepKind `json:"kind,omitempty"`
	Description string   `json:"description,omitempty"`

	// tool_call / query
	ToolName string     `json:"tool_name,omitempty"`
	SQL      string      `json:"sql,omitempty"`
	Status   StepStatus  `json:"status,omitempty"`
	Data     any         `json:"data,omitempty"`

	// visualization
	ChartData any `json:"chart_data,omitempty"`

	// result; also set on the budget-exhausted error, carrying partial results
	Final *AggregateResult `json:"final,omitempty"`

	// error
	Message string `json:"message,omitempty"`
}

// AggregateResult is the final payload of a completed (or partially
// completed) run: every table produced, preserved even when a later step
// failed, so the caller can display partial results.
type AggregateResult struct {
	OK          bool              `json:"ok"`
	Tables      map[string]string `json:"tables"` // step label -> workspace table name
	ExecutedSQL []string          `json:"executed_sql"`
	Summary     string            `json:"summary,omitempty"`
}

// Classification is the routing heuristic's result.
type Classification string

const (
	ClassificationGeneral      Classification = "general"
	ClassificationDataAnalysis Classification = "data_analysis"
)

// DefaultBudget is the reflection budget N of spec.md §4.5/§8.
const DefaultBudget = 3
