package apperrors

// Error codes, one per spec.md §7 taxonomy entry.
const (
	CodeConfigInvalid     = "CONFIG_INVALID"
	CodeUnsupportedKind   = "UNSUPPORTED_KIND"
	CodeConnectFailed     = "CONNECT_FAILED"
	CodeNotConnected      = "NOT_CONNECTED"
	CodeQueryFailed       = "QUERY_FAILED"
	CodeTimeout           = "TIMEOUT"
	CodeCancelled         = "CANCELLED"
	CodePlanInvalid       = "PLAN_INVALID"
	CodeToolCallFailed    = "TOOL_CALL_FAILED"
	CodeWorkspaceSQLError = "WORKSPACE_SQL_ERROR"
	CodeBudgetExhausted   = "BUDGET_EXHAUSTED"

	// Connection Manager specific, referenced by the propagation policy of
	// §7 ("converts missing-id/state errors into NotConnected/NotFound").
	CodeNotFound    = "NOT_FOUND"
	CodeDuplicateID = "DUPLICATE_ID"
)

// NewConfigInvalid reports a ConnectionConfig missing required fields or
// failing a field validator. fields names the offending fields.
func NewConfigInvalid(message string, fields ...string) *AssistantError {
	err := newError(CodeConfigInvalid, message, nil).
		WithCategory(CategoryValidation).
		WithSeverity(SeverityLow)
	if len(fields) > 0 {
		err.WithContext("fields", fields)
	}
	return err
}

// NewUnsupportedKind reports a backend kind with no installed handler.
func NewUnsupportedKind(kind string) *AssistantError {
	return newError(CodeUnsupportedKind, "no handler installed for kind: "+kind, nil).
		WithCategory(CategoryHandler).
		WithSeverity(SeverityLow).
		WithContext("kind", kind)
}

// NewConnectFailed reports a handler connect() failure, including the
// backend-supplied diagnostic as cause.
func NewConnectFailed(cause error, backend string) *AssistantError {
	return newError(CodeConnectFailed, "failed to connect to backend: "+backend, cause).
		WithCategory(CategoryHandler).
		WithSeverity(SeverityHigh).
		WithRetryable(true).
		WithContext("backend", backend)
}

// NewNotConnected reports an operation attempted against a non-active or
// disconnected connection.
func NewNotConnected(id string) *AssistantError {
	return newError(CodeNotConnected, "connection is not connected: "+id, nil).
		WithCategory(CategoryConnection).
		WithSeverity(SeverityMedium).
		WithContext("connection_id", id)
}

// NewNotFound reports a Connection Manager operation against an unknown id.
func NewNotFound(id string) *AssistantError {
	return newError(CodeNotFound, "connection not found: "+id, nil).
		WithCategory(CategoryConnection).
		WithSeverity(SeverityLow).
		WithContext("connection_id", id)
}

// NewDuplicateID reports create() called with an id already in use.
func NewDuplicateID(id string) *AssistantError {
	return newError(CodeDuplicateID, "connection id already exists: "+id, nil).
		WithCategory(CategoryConnection).
		WithSeverity(SeverityLow).
		WithContext("connection_id", id)
}

// NewQueryFailed reports a handler returning success=false: syntax error,
// permission error, upstream 4xx/5xx.
func NewQueryFailed(cause error, backend string) *AssistantError {
	return newError(CodeQueryFailed, "query failed against backend: "+backend, cause).
		WithCategory(CategoryHandler).
		WithSeverity(SeverityMedium).
		WithContext("backend", backend)
}

// NewTimeout reports an external call exceeding its deadline.
func NewTimeout(operation string, cause error) *AssistantError {
	return newError(CodeTimeout, "operation timed out: "+operation, cause).
		WithCategory(CategoryInfrastructure).
		WithSeverity(SeverityMedium).
		WithRetryable(true).
		WithOperation(operation)
}

// NewCancelled reports caller-initiated cancellation of a request.
func NewCancelled() *AssistantError {
	return newError(CodeCancelled, "cancelled", nil).
		WithCategory(CategoryOrchestrator).
		WithSeverity(SeverityLow)
}

// NewPlanInvalid reports an LLM plan failing validation: structure, unknown
// tool, missing required argument, dangling table reference.
func NewPlanInvalid(reason string) *AssistantError {
	return newError(CodePlanInvalid, reason, nil).
		WithCategory(CategoryOrchestrator).
		WithSeverity(SeverityMedium)
}

// NewToolCallFailed reports a statically registered tool raising an error.
func NewToolCallFailed(toolName string, cause error) *AssistantError {
	return newError(CodeToolCallFailed, "tool call failed: "+toolName, cause).
		WithCategory(CategoryOrchestrator).
		WithSeverity(SeverityMedium).
		WithContext("tool_name", toolName)
}

// NewWorkspaceSQLError reports the in-memory SQL executor rejecting a query.
func NewWorkspaceSQLError(cause error, query string) *AssistantError {
	return newError(CodeWorkspaceSQLError, "workspace SQL execution failed", cause).
		WithCategory(CategoryWorkspace).
		WithSeverity(SeverityMedium).
		WithContext("query", query)
}

// NewBudgetExhausted reports the reflection budget N reached without a
// successful plan.
func NewBudgetExhausted(attempts int) *AssistantError {
	return newError(CodeBudgetExhausted, "reflection budget exhausted after all attempts", nil).
		WithCategory(CategoryOrchestrator).
		WithSeverity(SeverityMedium).
		WithContext("attempts", attempts)
}
