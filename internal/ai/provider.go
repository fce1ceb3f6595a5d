package ai

import (
	"context"
	"time"
)

// Provider is the interface every LLM backend satisfies. It is deliberately
// narrow: generate a response, report health, report usage, and release
// resources. Streaming is a separate, optional capability (see stream.go).
type Provider interface {
	// Name returns the provider's identifier, e.g. "claude" or "gemini".
	Name() string

	// GenerateResponse generates a response for the given messages.
	GenerateResponse(ctx context.Context, request *GenerateRequest) (*GenerateResponse, error)

	// Health checks if the provider is reachable and authenticated.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close(ctx context.Context) error

	// GetUsage returns cumulative usage statistics for the provider.
	GetUsage(ctx context.Context) (*UsageStats, error)
}

// StreamingProvider is implemented by providers that can stream partial
// content as it is generated. Not every langchaingo-backed llms.Model
// supports streaming equally well; the Service falls back to a single
// blocking call, chunked after the fact, for providers that don't.
type StreamingProvider interface {
	Provider
	GenerateResponseStream(ctx context.Context, request *GenerateRequest, onChunk StreamCallback) (*GenerateResponse, error)
}

// Message represents one turn in a conversation.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// GenerateRequest represents a request to generate a response.
type GenerateRequest struct {
	Messages     []Message        `json:"messages"`
	MaxTokens    int              `json:"max_tokens,omitempty"`
	Temperature  float64          `json:"temperature,omitempty"`
	Model        string           `json:"model,omitempty"`
	SystemPrompt *string          `json:"system_prompt,omitempty"`
	Tools        []Tool           `json:"tools,omitempty"`
	Metadata     *RequestMetadata `json:"metadata,omitempty"`
}

// GenerateResponse represents a response from the AI provider.
type GenerateResponse struct {
	Content      string            `json:"content"`
	Model        string            `json:"model"`
	Provider     string            `json:"provider"`
	TokensUsed   TokenUsage        `json:"tokens_used"`
	FinishReason string            `json:"finish_reason"`
	ResponseTime time.Duration     `json:"response_time"`
	RequestID    string            `json:"request_id,omitempty"`
	Metadata     *ResponseMetadata `json:"metadata,omitempty"`
	ToolCalls    []ToolCall        `json:"tool_calls,omitempty"`
}

// TokenUsage represents token usage information.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Tool represents a tool the provider may call during generation. It is a
// lighter sibling of orchestrator.ToolSpec, shaped for direct use in the
// langchaingo FunctionCall options.
type Tool struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Parameters  *ToolParameterSchema `json:"parameters"`
}

// ToolCall represents a tool call made by the provider.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments *ToolArguments `json:"arguments"`
}

// UsageStats represents usage statistics for a provider.
type UsageStats struct {
	TotalRequests   int64         `json:"total_requests"`
	TotalTokens     int64         `json:"total_tokens"`
	InputTokens     int64         `json:"input_tokens"`
	OutputTokens    int64         `json:"output_tokens"`
	AverageLatency  time.Duration `json:"average_latency"`
	ErrorRate       float64       `json:"error_rate"`
	LastRequestTime *time.Time    `json:"last_request_time,omitempty"`
}

// ProviderConfig represents configuration for constructing an AI provider.
type ProviderConfig struct {
	APIKey      string        `json:"api_key"`
	BaseURL     string        `json:"base_url"`
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Timeout     time.Duration `json:"timeout"`
}

// Error types for AI providers.
const (
	ErrorTypeAuthentication = "authentication_error"
	ErrorTypeRateLimit      = "rate_limit_error"
	ErrorTypeQuotaExceeded  = "quota_exceeded_error"
	ErrorTypeInvalidRequest = "invalid_request_error"
	ErrorTypeServerError    = "server_error"
	ErrorTypeTimeout        = "timeout_error"
	ErrorTypeNetworkError   = "network_error"
	ErrorTypeUnknown        = "unknown_error"
)

// ProviderError represents an error surfaced directly by a provider, before
// it is wrapped into an apperrors.AssistantError by errors.go.
type ProviderError struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Provider  string `json:"provider"`
	RequestID string `json:"request_id,omitempty"`
	Retryable bool   `json:"retryable"`
}

func (e *ProviderError) Error() string {
	return e.Message
}

// IsRetryable returns whether the error is retryable.
func (e *ProviderError) IsRetryable() bool {
	return e.Retryable
}

// NewProviderError creates a new provider error.
func NewProviderError(errorType, message, provider string) *ProviderError {
	retryable := false
	switch errorType {
	case ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeTimeout, ErrorTypeNetworkError:
		retryable = true
	}

	return &ProviderError{
		Type:      errorType,
		Message:   message,
		Provider:  provider,
		Retryable: retryable,
	}
}
