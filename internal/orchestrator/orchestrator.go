package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/koopa0/nlqagent/internal/ai"
	"github.com/koopa0/nlqagent/internal/apperrors"
	"github.com/koopa0/nlqagent/internal/connection"
	"github.com/koopa0/nlqagent/internal/handler"
	"github.com/koopa0/nlqagent/internal/workspace"
)

// Orchestrator drives the Plan-Execute-Reflect loop of spec.md §4.5: for
// each utterance it classifies, plans, executes steps against the active
// connection and a per-request Workspace, reflects on failure with at
// most Budget plan attempts in total, and streams a typed StreamEvent per transition, mirroring
// the teacher's ai.Service.GenerateResponseStream channel pattern.
type Orchestrator struct {
	ai          *ai.Service
	connections *connection.Manager
	logger      *slog.Logger
	budget      int
}

// New builds an Orchestrator. budget <= 0 falls back to DefaultBudget.
func New(aiService *ai.Service, connections *connection.Manager, logger *slog.Logger, budget int) *Orchestrator {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Orchestrator{ai: aiService, connections: connections, logger: logger, budget: budget}
}

// planAttempt records one planning round's outcome, fed back into the
// next reflection prompt.
type planAttempt struct {
	plan  Plan
	err   string
	table string // non-empty when the plan as a whole succeeded
}

// Run executes one request's state machine and returns a receive-only
// channel of StreamEvents. The channel is closed after the final `done`
// event (or after cancellation's trailing error+done pair).
func (o *Orchestrator) Run(ctx context.Context, utterance string, connectionID string) <-chan StreamEvent {
	events := make(chan StreamEvent, 16)
	go o.run(ctx, utterance, connectionID, events)
	return events
}

func (o *Orchestrator) run(ctx context.Context, utterance, connectionID string, events chan<- StreamEvent) {
	defer close(events)

	events <- StreamEvent{Type: EventStart}

	if ctx.Err() != nil {
		o.emitCancelled(events)
		return
	}

	class := classify(utterance)
	if class == ClassificationGeneral {
		o.runGeneral(ctx, utterance, events)
		return
	}
	o.runDataAnalysis(ctx, utterance, connectionID, events)
}

// runGeneral bypasses the plan loop: one direct LLM call, no Workspace.
func (o *Orchestrator) runGeneral(ctx context.Context, utterance string, events chan<- StreamEvent) {
	resp, err := o.ai.GenerateResponse(ctx, &ai.GenerateRequest{
		Messages: []ai.Message{{Role: "user", Content: utterance}},
	})
	if err != nil {
		if ctx.Err() != nil {
			o.emitCancelled(events)
			return
		}
		events <- StreamEvent{Type: EventError, Message: err.Error()}
		events <- StreamEvent{Type: EventDone}
		return
	}

	events <- StreamEvent{Type: EventResult, Final: &AggregateResult{OK: true, Tables: map[string]string{}, Summary: resp.Content}}
	events <- StreamEvent{Type: EventDone}
}

func (o *Orchestrator) runDataAnalysis(ctx context.Context, utterance, connectionID string, events chan<- StreamEvent) {
	ws, err := workspace.New(ctx)
	if err != nil {
		events <- StreamEvent{Type: EventError, Message: err.Error()}
		events <- StreamEvent{Type: EventDone}
		return
	}
	defer ws.Close()

	conn, schemaDesc := o.resolveConnection(ctx, connectionID)
	tools := buildTools(conn)

	var history []planAttempt
	aggregate := &AggregateResult{Tables: map[string]string{}}

	for attempt := 1; attempt <= o.budget; attempt++ {
		if ctx.Err() != nil {
			o.emitCancelled(events)
			return
		}

		planJSON, err := o.requestPlan(ctx, utterance, schemaDesc, tools, ws, history)
		if err != nil {
			if ctx.Err() != nil {
				o.emitCancelled(events)
				return
			}
			history = append(history, planAttempt{err: err.Error()})
			continue
		}

		plan, err := decodePlan([]byte(planJSON))
		if err == nil {
			existing := ws.Describe()
			workspaceTables := make(map[string]bool, len(existing))
			for name := range existing {
				workspaceTables[name] = true
			}
			err = validatePlan(plan, tools, workspaceTables)
		}
		if err != nil {
			history = append(history, planAttempt{err: err.Error()})
			continue
		}

		events <- StreamEvent{Type: EventPlanning, Steps: plan.Steps}

		ok, stepErr := o.executeSteps(ctx, conn, ws, plan, aggregate, events)
		if ctx.Err() != nil {
			o.emitCancelled(events)
			return
		}
		if ok {
			aggregate.OK = true
			events <- StreamEvent{Type: EventResult, Final: aggregate}
			events <- StreamEvent{Type: EventDone}
			return
		}

		history = append(history, planAttempt{plan: plan, err: stepErr})
	}

	aggregate.OK = false
	events <- StreamEvent{Type: EventError, Message: fmt.Sprintf("reflection budget exhausted after %d attempts: %s", o.budget, apperrors.NewBudgetExhausted(o.budget).Error()), Final: aggregate}
	events <- StreamEvent{Type: EventDone}
}

// executeSteps runs plan's steps in strict order, stopping at the first
// failure. It returns ok=true only if every step completed successfully.
func (o *Orchestrator) executeSteps(ctx context.Context, conn *connection.Connection, ws *workspace.Workspace, plan Plan, aggregate *AggregateResult, events chan<- StreamEvent) (bool, string) {
	for _, step := range plan.Steps {
		if ctx.Err() != nil {
			return false, "cancelled"
		}

		events <- StreamEvent{Type: EventStepStarted, Index: step.Index, Kind: step.Kind, Description: step.Description}

		switch step.Kind {
		case StepToolCall:
			if !o.executeToolCall(ctx, conn, ws, step, aggregate, events) {
				return false, "tool_call failed at step " + fmt.Sprint(step.Index)
			}
		case StepQuery:
			if !o.executeQuery(ctx, ws, step, aggregate, events) {
				return false, "query failed at step " + fmt.Sprint(step.Index)
			}
		case StepVisualization:
			if !o.executeVisualization(ctx, ws, step, events) {
				return false, "visualization failed at step " + fmt.Sprint(step.Index)
			}
		}
	}
	return true, ""
}

func (o *Orchestrator) executeToolCall(ctx context.Context, conn *connection.Connection, ws *workspace.Workspace, step Step, aggregate *AggregateResult, events chan<- StreamEvent) bool {
	if conn == nil {
		events <- StreamEvent{Type: EventToolCall, ToolName: step.ToolName, Status: StatusError, Data: "no active connection"}
		return false
	}

	query := translateToolArguments(conn.Config.Kind, step)
	result, err := o.connections.Execute(ctx, conn.Config.ID, query)
	if err != nil || !result.Success {
		msg := errMessage(err, result.Error)
		events <- StreamEvent{Type: EventToolCall, ToolName: step.ToolName, Status: StatusError, Data: msg}
		return false
	}

	table := stepTableName(step)
	finalTable, err := ws.Register(ctx, table, result)
	if err != nil {
		events <- StreamEvent{Type: EventToolCall, ToolName: step.ToolName, Status: StatusError, Data: err.Error()}
		return false
	}

	aggregate.Tables[fmt.Sprintf("step%d", step.Index)] = finalTable
	events <- StreamEvent{Type: EventToolCall, ToolName: step.ToolName, Status: StatusCompleted, Data: map[string]any{"table_name": finalTable, "row_count": result.RowCount}}
	return true
}

func (o *Orchestrator) executeQuery(ctx context.Context, ws *workspace.Workspace, step Step, aggregate *AggregateResult, events chan<- StreamEvent) bool {
	sql := step.SQL
	if sql == "" {
		generated, err := o.requestSQL(ctx, step.Subquestion, ws)
		if err != nil {
			events <- StreamEvent{Type: EventQuery, Status: StatusError, Data: err.Error()}
			return false
		}
		sql = generated
	}

	result, err := ws.SQL(ctx, sql)
	if err != nil {
		events <- StreamEvent{Type: EventQuery, SQL: sql, Status: StatusError, Data: err.Error()}
		return false
	}

	table := stepTableName(step)
	finalTable, err := ws.Register(ctx, table, result)
	if err != nil {
		events <- StreamEvent{Type: EventQuery, SQL: sql, Status: StatusError, Data: err.Error()}
		return false
	}

	aggregate.Tables[fmt.Sprintf("step%d", step.Index)] = finalTable
	aggregate.ExecutedSQL = append(aggregate.ExecutedSQL, sql)
	events <- StreamEvent{Type: EventQuery, SQL: sql, Status: StatusCompleted, Data: map[string]any{"table_name": finalTable, "row_count": result.RowCount}}
	return true
}

func (o *Orchestrator) executeVisualization(ctx context.Context, ws *workspace.Workspace, step Step, events chan<- StreamEvent) bool {
	hint := workspace.Hint{}
	if step.ChartHint != "" {
		hint.Title = step.ChartHint
	}
	chart, err := ws.Chartify(ctx, step.TableName, hint)
	if err != nil {
		events <- StreamEvent{Type: EventVisualization, Status: StatusError, Data: err.Error()}
		return false
	}
	events <- StreamEvent{Type: EventVisualization, Status: StatusCompleted, ChartData: chart}
	return true
}

func (o *Orchestrator) resolveConnection(ctx context.Context, connectionID string) (*connection.Connection, handler.SchemaSnapshot) {
	id := connectionID
	if id == "" {
		id = o.connections.Active()
	}
	if id == "" {
		return nil, handler.SchemaSnapshot{}
	}
	conn, ok := o.connections.Get(id)
	if !ok {
		return nil, handler.SchemaSnapshot{}
	}
	schema, err := o.connections.Schema(ctx, id, true)
	if err != nil {
		o.logger.Warn("schema lookup failed while planning", slog.String("connection_id", id), slog.Any("error", err))
		return &conn, handler.SchemaSnapshot{}
	}
	return &conn, schema
}

func (o *Orchestrator) emitCancelled(events chan<- StreamEvent) {
	events <- StreamEvent{Type: EventError, Message: "cancelled"}
	events <- StreamEvent{Type: EventDone}
}

func errMessage(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}

// translateToolArguments maps a tool_call Step's generic arguments into
// the handler.Query shape the active connection's Kind expects.
func translateToolArguments(kind handler.Kind, step Step) handler.Query {
	switch kind {
	case handler.KindMongoDB:
		operation, _ := step.Arguments["operation"].(string)
		collection, _ := step.Arguments["collection"].(string)
		filter, _ := step.Arguments["filter"].(map[string]any)
		var pipeline []map[string]any
		if raw, ok := step.Arguments["pipeline"].([]any); ok {
			for _, stage := range raw {
				if m, ok := stage.(map[string]any); ok {
					pipeline = append(pipeline, m)
				}
			}
		}
		return handler.Query{Structured: &handler.StructuredQuery{
			Operation:  operation,
			Collection: collection,
			Filter:     filter,
			Pipeline:   pipeline,
		}}

	case handler.KindKOSISAPI, handler.KindExternalAPI:
		table, _ := step.Arguments["table"].(string)
		params, _ := step.Arguments["parameters"].(map[string]any)
		return handler.Query{Structured: &handler.StructuredQuery{Collection: table, Filter: params}}

	default:
		sql, _ := step.Arguments["sql"].(string)
		return handler.Query{SQL: sql}
	}
}

// requestPlan asks the LLM for a (possibly revised) plan and returns its
// raw JSON text.
func (o *Orchestrator) requestPlan(ctx context.Context, utterance string, schema handler.SchemaSnapshot, tools map[string]ToolSpec, ws *workspace.Workspace, history []planAttempt) (string, error) {
	prompt := buildPlanPrompt(utterance, schema, tools, ws.Describe(), history)
	resp, err := o.ai.GenerateResponse(ctx, &ai.GenerateRequest{
		Messages:     []ai.Message{{Role: "user", Content: prompt}},
		SystemPrompt: strPtr(planSystemPrompt),
	})
	if err != nil {
		return "", err
	}
	return extractJSON(resp.Content), nil
}

// requestSQL asks the LLM for one SQL statement answering subquestion
// against the Workspace's current tables.
func (o *Orchestrator) requestSQL(ctx context.Context, subquestion string, ws *workspace.Workspace) (string, error) {
	prompt := buildSQLPrompt(subquestion, ws.Describe())
	resp, err := o.ai.GenerateResponse(ctx, &ai.GenerateRequest{
		Messages:     []ai.Message{{Role: "user", Content: prompt}},
		SystemPrompt: strPtr(sqlSystemPrompt),
	})
	if err != nil {
		return "", err
	}
	sql := strings.TrimSpace(resp.Content)
	sql = strings.TrimPrefix(sql, "```sql")
	sql = strings.TrimPrefix(sql, "```")
	sql = strings.TrimSuffix(sql, "```")
	return strings.TrimSpace(sql), nil
}

const planSystemPrompt = `You are the planning component of a data analysis assistant. Respond with a single JSON object of the shape {"steps": [...]} and nothing else. Each step has an integer "index" starting at 1, a "kind" of "tool_call", "query", or "visualization", and a "description". Use only the tools listed. Reference only tables that exist or that an earlier step in the same plan produces.`

const sqlSystemPrompt = `You write one SQLite SELECT statement answering the question against the described tables. Respond with SQL only, no explanation.`

func buildPlanPrompt(utterance string, schema handler.SchemaSnapshot, tools map[string]ToolSpec, ws map[string]workspace.TableInfo, history []planAttempt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Utterance: %s\n\n", utterance)

	if len(schema.Tables) == 0 {
		b.WriteString("Active connection schema: none\n\n")
	} else {
		b.WriteString("Active connection schema:\n")
		for _, t := range schema.Tables {
			fmt.Fprintf(&b, "- %s\n", t.Name)
		}
		b.WriteString("\n")
	}

	b.WriteString("Available tools:\n")
	for _, spec := range tools {
		fmt.Fprintf(&b, "- %s: %s\n", spec.Name, spec.Description)
	}
	b.WriteString("\n")

	if len(ws) == 0 {
		b.WriteString("Workspace tables: none yet\n\n")
	} else {
		b.WriteString("Workspace tables:\n")
		for name, info := range ws {
			fmt.Fprintf(&b, "- %s(%s)\n", name, strings.Join(info.Columns, ", "))
		}
		b.WriteString("\n")
	}

	if len(history) > 0 {
		b.WriteString("Prior attempts (revise to address the failure):\n")
		for i, h := range history {
			fmt.Fprintf(&b, "%d. error: %s\n", i+1, h.err)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func buildSQLPrompt(subquestion string, ws map[string]workspace.TableInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nTables:\n", subquestion)
	for name, info := range ws {
		fmt.Fprintf(&b, "- %s(%s)\n", name, strings.Join(info.Columns, ", "))
	}
	return b.String()
}

// extractJSON strips a ```json fenced block if the LLM wrapped its
// response in one, otherwise returns content unchanged.
func extractJSON(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}
	return trimmed
}

func strPtr(s string) *string { return &s }
