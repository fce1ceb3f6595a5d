package config

import (
	"fmt"

	"github.com/koopa0/nlqagent/internal/apperrors"
)

// Configuration-specific error codes.
const (
	CodeConfigFileReadError    = "CONFIG_FILE_READ_ERROR"
	CodeConfigParseError       = "CONFIG_PARSE_ERROR"
	CodeConfigMissingRequired  = "CONFIG_MISSING_REQUIRED"
	CodeConfigValidationFailed = "CONFIG_VALIDATION_FAILED"
	CodeSecretKeyInvalid       = "CONFIG_SECRET_KEY_INVALID"
)

func newConfigError(code, message string, cause error) *apperrors.AssistantError {
	return (&apperrors.AssistantError{
		Code:     code,
		Message:  message,
		Cause:    cause,
		Category: apperrors.CategoryValidation,
		Severity: apperrors.SeverityHigh,
	}).WithComponent("config")
}

// NewConfigFileReadError reports an unreadable YAML config file. Absent
// candidate files are skipped before this point; a file named explicitly
// (LoaderOptions.ConfigFile or CONFIG_FILE) that cannot be read ends up
// here, and Load returns it as an error.
func NewConfigFileReadError(path string, cause error) *apperrors.AssistantError {
	return newConfigError(CodeConfigFileReadError, "failed to read configuration file", cause).
		WithOperation("load_file").
		WithContext("path", path)
}

// NewConfigParseError reports a YAML or env-tag parse failure.
func NewConfigParseError(path string, cause error) *apperrors.AssistantError {
	return newConfigError(CodeConfigParseError, "failed to parse configuration", cause).
		WithOperation("parse").
		WithContext("path", path)
}

// NewConfigMissingRequiredError reports a required field left unset after
// YAML + environment layering.
func NewConfigMissingRequiredError(field string) *apperrors.AssistantError {
	return newConfigError(CodeConfigMissingRequired, fmt.Sprintf("missing required configuration: %s", field), nil).
		WithOperation("validate").
		WithContext("field", field)
}

// NewConfigValidationFailedError reports a structurally present but
// semantically invalid field (bad enum value, out-of-range number).
func NewConfigValidationFailedError(field, reason string) *apperrors.AssistantError {
	return newConfigError(CodeConfigValidationFailed, fmt.Sprintf("configuration validation failed: %s", reason), nil).
		WithOperation("validate").
		WithContext("field", field).
		WithContext("reason", reason)
}

// NewSecretKeyInvalidError reports a chacha20poly1305 seal key that is not
// exactly 32 bytes once decoded.
func NewSecretKeyInvalidError(cause error) *apperrors.AssistantError {
	return newConfigError(CodeSecretKeyInvalid, "persistence seal key must decode to 32 bytes", cause).
		WithOperation("validate")
}
