package config

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"
)

// ValidationError represents a single field-level validation failure,
// collected so ValidateConfigWithObservability can report all of them at
// once instead of failing on the first.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	Code    string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", ve.Field, ve.Message)
}

// ValidationContext carries the environment a Validator is checking against,
// since some rules (TLS, log level) only apply in production.
type ValidationContext struct {
	Mode        string
	ValidateAll bool
}

// Validator accumulates ValidationErrors across a full configuration pass
// instead of returning on the first failure, the way Validate does.
type Validator struct {
	context ValidationContext
	errors  []ValidationError
}

// NewValidator creates a configuration validator for the given context.
func NewValidator(ctx ValidationContext) *Validator {
	return &Validator{context: ctx, errors: make([]ValidationError, 0)}
}

// ValidateConfigWithObservability validates cfg and logs the outcome,
// along with the validation duration at debug level.
func ValidateConfigWithObservability(cfg *Config) error {
	start := time.Now()
	defer func() {
		slog.Debug("configuration validation completed", "duration", time.Since(start), "mode", cfg.Mode)
	}()

	validator := NewValidator(ValidationContext{Mode: cfg.Mode, ValidateAll: true})
	if err := validator.ValidateConfig(cfg); err != nil {
		slog.Error("configuration validation failed", "error", err, "error_count", len(validator.errors))
		return err
	}

	slog.Info("configuration validation successful", "mode", cfg.Mode)
	return nil
}

// ValidateConfig runs every section-level check and cross-component rule,
// collecting ValidationErrors rather than stopping at the first one.
func (v *Validator) ValidateConfig(cfg *Config) error {
	v.validateRequired(cfg)
	v.validateBusinessLogic(cfg)
	v.validateDependencies(cfg)
	v.validateEnvironmentRequirements(cfg)

	if len(v.errors) > 0 {
		return v.formatErrors()
	}
	return nil
}

func (v *Validator) validateRequired(cfg *Config) {
	v.validateRequiredRecursive(reflect.ValueOf(cfg).Elem(), reflect.TypeOf(cfg).Elem(), "")
}

func (v *Validator) validateRequiredRecursive(val reflect.Value, typ reflect.Type, prefix string) {
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		fieldName := fieldType.Name
		if prefix != "" {
			fieldName = prefix + "." + fieldName
		}

		if field.Kind() == reflect.Struct {
			v.validateRequiredRecursive(field, fieldType.Type, fieldName)
			continue
		}

		if fieldType.Tag.Get("required") != "true" {
			continue
		}
		if v.isEmptyValue(field) {
			message := "required field is empty"
			if envTag := fieldType.Tag.Get("env"); envTag != "" {
				message += fmt.Sprintf(". Set environment variable %s", envTag)
			}
			v.addError(fieldName, "", message, "REQUIRED_FIELD_EMPTY")
		}
	}
}

func (v *Validator) validateBusinessLogic(cfg *Config) {
	validModes := []string{"development", "staging", "production"}
	if !contains(validModes, cfg.Mode) {
		v.addError("Mode", cfg.Mode, fmt.Sprintf("must be one of: %s", strings.Join(validModes, ", ")), "INVALID_MODE")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, cfg.LogLevel) {
		v.addError("LogLevel", cfg.LogLevel, fmt.Sprintf("must be one of: %s", strings.Join(validLogLevels, ", ")), "INVALID_LOG_LEVEL")
	}

	if cfg.Mode == "production" {
		if cfg.LogLevel == "debug" {
			v.addError("LogLevel", cfg.LogLevel, "debug logging should not be used in production", "PRODUCTION_DEBUG_LOG")
		}
		if cfg.LogFormat != "json" {
			v.addError("LogFormat", cfg.LogFormat, "production should use JSON logging format", "PRODUCTION_LOG_FORMAT")
		}
	}
}

func (v *Validator) validateDependencies(cfg *Config) {
	if v.context.Mode == "production" {
		if cfg.AI.DefaultProvider == "claude" && cfg.AI.Claude.APIKey == "" {
			v.addError("AI.Claude.APIKey", "", "API key required when Claude is the default provider", "MISSING_PROVIDER_KEY")
		}
		if cfg.AI.DefaultProvider == "gemini" && cfg.AI.Gemini.APIKey == "" {
			v.addError("AI.Gemini.APIKey", "", "API key required when Gemini is the default provider", "MISSING_PROVIDER_KEY")
		}
		if cfg.Persistence.SealKeyBase64 == "" {
			v.addError("Persistence.SealKeyBase64", "", "a seal key is required in production so stored credentials are encrypted at rest", "MISSING_SEAL_KEY")
		}
	}

	if cfg.Server.EnableTLS {
		if cfg.Server.TLSCertFile == "" {
			v.addError("Server.TLSCertFile", "", "TLS certificate file required when TLS is enabled", "MISSING_TLS_CERT")
		}
		if cfg.Server.TLSKeyFile == "" {
			v.addError("Server.TLSKeyFile", "", "TLS key file required when TLS is enabled", "MISSING_TLS_KEY")
		}
	}
}

func (v *Validator) validateEnvironmentRequirements(cfg *Config) {
	if cfg.Mode == "production" && !cfg.Server.EnableTLS {
		v.addError("Server.EnableTLS", false, "TLS should be enabled in production", "PRODUCTION_NO_TLS")
	}
}

func (v *Validator) isEmptyValue(val reflect.Value) bool {
	switch val.Kind() {
	case reflect.String:
		return strings.TrimSpace(val.String()) == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if val.Type() == reflect.TypeOf(time.Duration(0)) {
			return false
		}
		return val.Int() == 0
	case reflect.Float32, reflect.Float64:
		return val.Float() == 0
	case reflect.Bool:
		return false
	case reflect.Slice, reflect.Map, reflect.Array:
		return val.Len() == 0
	case reflect.Interface, reflect.Ptr:
		return val.IsNil()
	default:
		return false
	}
}

func (v *Validator) addError(field string, value interface{}, message, code string) {
	v.errors = append(v.errors, ValidationError{Field: field, Value: value, Message: message, Code: code})
}

func (v *Validator) formatErrors() error {
	if len(v.errors) == 0 {
		return nil
	}
	messages := make([]string, 0, len(v.errors))
	for _, err := range v.errors {
		messages = append(messages, fmt.Sprintf("- %s", err.Error()))
	}
	return fmt.Errorf("configuration validation failed:\n%s", strings.Join(messages, "\n"))
}
