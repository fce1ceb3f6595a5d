package handler

import "context"

// Handler is the uniform query contract every backend kind implements,
// per spec.md §4.3: relational engines, the document store, the embedded
// file store, and REST-API-as-table handlers all satisfy this one
// interface so the orchestrator (and the Connection Manager) never branch
// on kind.
type Handler interface {
	// Connect establishes the backend connection. Failure is reported as
	// apperrors.NewConnectFailed, never a panic.
	Connect(ctx context.Context) error

	// Disconnect tears the connection down. Idempotent.
	Disconnect(ctx context.Context) error

	// Test performs a cheap round-trip and reports latency/version
	// without mutating Connection Manager state.
	Test(ctx context.Context) TestResult

	// Schema lists the backend's tables/collections. When includeColumns
	// is false the handler may skip per-column introspection.
	Schema(ctx context.Context, includeColumns bool) (SchemaSnapshot, error)

	// Execute runs a Query and returns its result. Handlers never panic
	// across this boundary; failures are reported as
	// QueryResult{Success: false, Error: ...}.
	Execute(ctx context.Context, query Query) (QueryResult, error)

	// SupportedOperations reports which verbs this handler understands;
	// informational only.
	SupportedOperations() []Operation
}
