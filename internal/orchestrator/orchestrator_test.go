package orchestrator

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/nlqagent/internal/ai"
	"github.com/koopa0/nlqagent/internal/connection"
	"github.com/koopa0/nlqagent/internal/handler"
	"github.com/koopa0/nlqagent/internal/persistence"
	"github.com/koopa0/nlqagent/internal/testutil"
)

// scriptedProvider is a minimal ai.Provider that replays a fixed sequence
// of response bodies, repeating the last one once exhausted, mirroring
// the teacher's mock storage clients used to drive assistant tests
// without a live backend.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []string
	calls     int
}

func (p *scriptedProvider) Name() string { return "fake" }

func (p *scriptedProvider) GenerateResponse(ctx context.Context, request *ai.GenerateRequest) (*ai.GenerateResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.calls
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	p.calls++
	return &ai.GenerateResponse{Content: p.responses[idx], Provider: "fake"}, nil
}

func (p *scriptedProvider) Health(ctx context.Context) error { return nil }
func (p *scriptedProvider) Close(ctx context.Context) error   { return nil }
func (p *scriptedProvider) GetUsage(ctx context.Context) (*ai.UsageStats, error) {
	return &ai.UsageStats{}, nil
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newTestOrchestrator(t *testing.T, budget int, responses ...string) (*Orchestrator, *scriptedProvider) {
	t.Helper()

	logger := testutil.NewSilentLogger()
	provider := &scriptedProvider{responses: responses}
	svc := ai.NewServiceForTesting(map[string]ai.Provider{"fake": provider}, "fake", logger)

	store, err := persistence.NewStore(filepath.Join(t.TempDir(), "connections.json"), "")
	require.NoError(t, err)

	registry := handler.NewRegistry(logger)
	connections, err := connection.NewManager(registry, store, logger)
	require.NoError(t, err)

	return New(svc, connections, logger, budget), provider
}

func drain(events <-chan StreamEvent) []StreamEvent {
	var out []StreamEvent
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

// A general (non-data) utterance bypasses the plan loop entirely: one
// direct LLM call, result, done.
func TestOrchestrator_RunGeneral_EventOrdering(t *testing.T) {
	orch, provider := newTestOrchestrator(t, DefaultBudget, "Hi! How can I help?")

	events := drain(orch.Run(context.Background(), "hello there", ""))

	require.Len(t, events, 3)
	assert.Equal(t, EventStart, events[0].Type)
	assert.Equal(t, EventResult, events[1].Type)
	require.NotNil(t, events[1].Final)
	assert.True(t, events[1].Final.OK)
	assert.Equal(t, "Hi! How can I help?", events[1].Final.Summary)
	assert.Equal(t, EventDone, events[2].Type)
	assert.Equal(t, 1, provider.callCount())
}

// A data-analysis utterance with a valid single-step plan streams
// planning, step, query, result, and done events in that order, and the
// final aggregate carries the step's produced table and executed SQL.
func TestOrchestrator_RunDataAnalysis_EventOrdering(t *testing.T) {
	plan := `{"steps": [{"index": 1, "kind": "query", "description": "count rows", "sql": "SELECT 1 AS n"}]}`
	orch, provider := newTestOrchestrator(t, DefaultBudget, plan)

	events := drain(orch.Run(context.Background(), "select data from table", ""))

	require.Len(t, events, 6)
	assert.Equal(t, EventStart, events[0].Type)
	assert.Equal(t, EventPlanning, events[1].Type)
	require.Len(t, events[1].Steps, 1)
	assert.Equal(t, EventStepStarted, events[2].Type)
	assert.Equal(t, StepQuery, events[2].Kind)
	assert.Equal(t, EventQuery, events[3].Type)
	assert.Equal(t, StatusCompleted, events[3].Status)
	assert.Equal(t, EventResult, events[4].Type)
	require.NotNil(t, events[4].Final)
	assert.True(t, events[4].Final.OK)
	assert.Len(t, events[4].Final.Tables, 1)
	assert.Equal(t, []string{"SELECT 1 AS n"}, events[4].Final.ExecutedSQL)
	assert.Equal(t, EventDone, events[5].Type)
	assert.Equal(t, 1, provider.callCount())
}

// When every planning attempt fails validation, the orchestrator
// exhausts its reflection budget, emits exactly one error event naming
// the budget, and never executes a step.
func TestOrchestrator_BudgetExhausted(t *testing.T) {
	invalidPlan := `{"steps": []}`
	const budget = 2
	orch, provider := newTestOrchestrator(t, budget, invalidPlan)

	var events []StreamEvent
	for ev := range orch.Run(context.Background(), "select count(*) from a table", "") {
		events = append(events, ev)
	}

	require.Len(t, events, 3)
	assert.Equal(t, EventStart, events[0].Type)
	assert.Equal(t, EventError, events[1].Type)
	assert.Contains(t, events[1].Message, "budget exhausted")
	assert.Equal(t, EventDone, events[2].Type)
	assert.Equal(t, budget, provider.callCount())
}

// A context already cancelled before Run begins short-circuits before
// classification or any LLM call, emitting start, a cancelled error, and
// done.
func TestOrchestrator_Cancellation(t *testing.T) {
	orch, provider := newTestOrchestrator(t, DefaultBudget, "unused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := drain(orch.Run(ctx, "select data from a table", ""))

	require.Len(t, events, 3)
	assert.Equal(t, EventStart, events[0].Type)
	assert.Equal(t, EventError, events[1].Type)
	assert.Equal(t, "cancelled", events[1].Message)
	assert.Equal(t, EventDone, events[2].Type)
	assert.Equal(t, 0, provider.callCount())
}
