package ai

// RequestMetadata carries request-scoped tracing/correlation fields through
// a GenerateRequest.
type RequestMetadata struct {
	RequestID      string            `json:"request_id,omitempty"`
	ConversationID string            `json:"conversation_id,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	Features       map[string]string `json:"features,omitempty"`
}

// ResponseMetadata carries provider/debug information alongside a
// GenerateResponse.
type ResponseMetadata struct {
	Provider     string     `json:"provider"`
	Model        string     `json:"model"`
	ModelVersion string     `json:"model_version,omitempty"`
	Debug        *DebugInfo `json:"debug,omitempty"`
}

// DebugInfo contains debugging information useful during development.
type DebugInfo struct {
	PromptTokens     int                `json:"prompt_tokens"`
	CompletionTokens int                `json:"completion_tokens"`
	InternalMetrics  map[string]float64 `json:"internal_metrics,omitempty"`
	Warnings         []string           `json:"warnings,omitempty"`
}

// ToolParameterSchema represents the JSON Schema for tool parameters.
type ToolParameterSchema struct {
	Type        string                       `json:"type"` // "object"
	Properties  map[string]ParameterProperty `json:"properties"`
	Required    []string                     `json:"required,omitempty"`
	Description string                       `json:"description,omitempty"`
}

// ParameterProperty represents one property in a tool's parameter schema.
type ParameterProperty struct {
	Type        string      `json:"type"` // "string", "number", "boolean", "array", "object"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
	Enum        []string    `json:"enum,omitempty"`
}

// ToolArguments represents the arguments a provider supplied for a tool
// call, as a generic string-keyed bag; the orchestrator decodes these into
// the concrete parameters a handler operation expects.
type ToolArguments struct {
	Parameters map[string]string `json:"parameters,omitempty"`
}
