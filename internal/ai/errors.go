package ai

import (
	"fmt"
	"time"

	"github.com/koopa0/nlqagent/internal/apperrors"
)

// AI provider error codes, layered on top of the shared apperrors taxonomy
// for failures specific to the langchaingo-backed Provider.
const (
	CodeProviderInitialization = "AI_PROVIDER_INITIALIZATION"
	CodeProviderAuthentication = "AI_PROVIDER_AUTHENTICATION"
	CodeProviderQuotaExceeded  = "AI_PROVIDER_QUOTA_EXCEEDED"
	CodeProviderTimeout        = "AI_PROVIDER_TIMEOUT"
	CodeInvalidPrompt          = "AI_INVALID_PROMPT"
	CodeTokenCountExceeded     = "AI_TOKEN_COUNT_EXCEEDED"
	CodeMalformedPlan          = "AI_MALFORMED_PLAN"
)

func newAIError(code, message string, cause error) *apperrors.AssistantError {
	return (&apperrors.AssistantError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Category:  apperrors.CategoryHandler,
		Severity:  apperrors.SeverityMedium,
		Timestamp: time.Now(),
	}).WithComponent("ai")
}

// NewProviderInitializationError reports a Provider construction failure
// (missing API key, unreachable base URL).
func NewProviderInitializationError(provider string, cause error) *apperrors.AssistantError {
	return newAIError(CodeProviderInitialization, "AI provider initialization failed", cause).
		WithSeverity(apperrors.SeverityHigh).
		WithContext("provider", provider).
		WithUserMessage("AI service is temporarily unavailable. Please try again.")
}

// NewProviderAuthenticationError reports an upstream auth rejection.
func NewProviderAuthenticationError(provider string, cause error) *apperrors.AssistantError {
	return newAIError(CodeProviderAuthentication, "AI provider authentication failed", cause).
		WithSeverity(apperrors.SeverityHigh).
		WithContext("provider", provider).
		WithUserMessage("AI service authentication failed. Please contact support.")
}

// NewProviderQuotaExceededError reports a rate-limit or quota rejection.
func NewProviderQuotaExceededError(provider string, resetAfter time.Duration) *apperrors.AssistantError {
	return newAIError(CodeProviderQuotaExceeded, "AI provider quota exceeded", nil).
		WithContext("provider", provider).
		WithUserMessage("AI service quota exceeded. Please wait before trying again.").
		WithRetryAfter(resetAfter)
}

// NewProviderTimeoutError reports a provider call exceeding its deadline.
func NewProviderTimeoutError(provider string, timeout time.Duration, cause error) *apperrors.AssistantError {
	return newAIError(CodeProviderTimeout, "AI provider request timed out", cause).
		WithCategory(apperrors.CategoryInfrastructure).
		WithContext("provider", provider).
		WithContext("timeout", timeout.String()).
		WithRetryAfter(30 * time.Second).
		WithUserMessage("AI request timed out. Please try again.")
}

// NewInvalidPromptError reports a prompt rejected before it reaches the
// provider (empty, over length limits).
func NewInvalidPromptError(reason string, promptLength int) *apperrors.AssistantError {
	return newAIError(CodeInvalidPrompt, fmt.Sprintf("invalid prompt: %s", reason), nil).
		WithCategory(apperrors.CategoryValidation).
		WithSeverity(apperrors.SeverityLow).
		WithContext("reason", reason).
		WithContext("prompt_length", promptLength)
}

// NewTokenCountExceededError reports a message set exceeding the model's
// context window as estimated by tiktoken-go.
func NewTokenCountExceededError(tokens, limit int) *apperrors.AssistantError {
	return newAIError(CodeTokenCountExceeded, "token count exceeds model limit", nil).
		WithCategory(apperrors.CategoryValidation).
		WithSeverity(apperrors.SeverityLow).
		WithContext("tokens", tokens).
		WithContext("limit", limit).
		WithUserMessage(fmt.Sprintf("Request is too long (%d/%d tokens).", tokens, limit))
}

// NewMalformedPlanError reports a plan/SQL-wrapper response from the LLM
// that failed JSON-schema validation before any execution.
func NewMalformedPlanError(cause error) *apperrors.AssistantError {
	return newAIError(CodeMalformedPlan, "LLM returned a structure that failed schema validation", cause).
		WithCategory(apperrors.CategoryValidation)
}

// IsRetryableProviderError reports whether a provider error should be
// retried by the orchestrator's reflection loop.
func IsRetryableProviderError(err error) bool {
	ae := apperrors.Get(err)
	if ae == nil {
		return false
	}
	switch ae.Code {
	case CodeProviderInitialization, CodeProviderTimeout:
		return true
	case CodeProviderQuotaExceeded:
		return ae.RetryAfter != nil
	default:
		return false
	}
}
