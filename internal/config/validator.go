package config

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"regexp"
	"strings"
	"time"
)

// Validate runs structural validation across every configuration section.
func Validate(cfg *Config) error {
	if err := validateRequired(cfg); err != nil {
		return fmt.Errorf("required field validation failed: %w", err)
	}
	if err := validateServer(cfg.Server); err != nil {
		return fmt.Errorf("server configuration validation failed: %w", err)
	}
	if err := validateAI(cfg.AI); err != nil {
		return fmt.Errorf("AI configuration validation failed: %w", err)
	}
	if err := validateHandlers(cfg.Handlers); err != nil {
		return fmt.Errorf("handlers configuration validation failed: %w", err)
	}
	if err := validatePersistence(cfg.Persistence); err != nil {
		return fmt.Errorf("persistence configuration validation failed: %w", err)
	}
	return nil
}

func validateRequired(cfg *Config) error {
	return validateRequiredRecursive(reflect.ValueOf(cfg).Elem(), reflect.TypeOf(cfg).Elem(), "")
}

func validateRequiredRecursive(v reflect.Value, t reflect.Type, prefix string) error {
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		fieldName := fieldType.Name
		if prefix != "" {
			fieldName = prefix + "." + fieldName
		}

		if field.Kind() == reflect.Struct {
			if err := validateRequiredRecursive(field, fieldType.Type, fieldName); err != nil {
				return err
			}
			continue
		}

		if fieldType.Tag.Get("required") != "true" {
			continue
		}
		if isEmptyValue(field) {
			return fmt.Errorf("required field %s is empty", fieldName)
		}
	}
	return nil
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Type() == reflect.TypeOf(time.Duration(0)) {
			return false
		}
		return v.Int() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	default:
		return false
	}
}

func validateServer(cfg ServerConfig) error {
	if cfg.Address == "" {
		return fmt.Errorf("server address is required")
	}
	if !isValidAddress(cfg.Address) {
		return fmt.Errorf("invalid address format %q, use :port or host:port", cfg.Address)
	}

	if cfg.EnableTLS {
		if cfg.TLSCertFile == "" || cfg.TLSKeyFile == "" {
			return fmt.Errorf("tls_cert_file and tls_key_file are required when TLS is enabled")
		}
		if _, err := os.Stat(cfg.TLSCertFile); os.IsNotExist(err) {
			return fmt.Errorf("TLS cert file does not exist: %s", cfg.TLSCertFile)
		}
		if _, err := os.Stat(cfg.TLSKeyFile); os.IsNotExist(err) {
			return fmt.Errorf("TLS key file does not exist: %s", cfg.TLSKeyFile)
		}
	}

	if cfg.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be greater than 0")
	}
	if cfg.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be greater than 0")
	}
	if cfg.IdleTimeout <= 0 {
		return fmt.Errorf("idle_timeout must be greater than 0")
	}

	return nil
}

func isValidAddress(address string) bool {
	portOnlyPattern := regexp.MustCompile(`^:[1-9][0-9]*$`)
	hostPortPattern := regexp.MustCompile(`^[a-zA-Z0-9.-]+:[1-9][0-9]*$`)
	return portOnlyPattern.MatchString(address) || hostPortPattern.MatchString(address)
}

// validateAI validates AI configuration: one supported provider and, when
// that provider's API key is set, sane model parameters.
func validateAI(cfg AIConfig) error {
	validProviders := []string{"claude", "gemini"}
	if !contains(validProviders, cfg.DefaultProvider) {
		return fmt.Errorf("invalid default provider: %s (must be one of: %s)",
			cfg.DefaultProvider, strings.Join(validProviders, ", "))
	}

	if cfg.Claude.APIKey == "" && cfg.Gemini.APIKey == "" {
		return fmt.Errorf("at least one AI provider (Claude or Gemini) must be configured with an API key")
	}

	if cfg.Claude.APIKey != "" {
		if err := validateProviderConfig("Claude", cfg.Claude.MaxTokens, cfg.Claude.Temperature, cfg.Claude.BaseURL); err != nil {
			return err
		}
	}
	if cfg.Gemini.APIKey != "" {
		if err := validateProviderConfig("Gemini", cfg.Gemini.MaxTokens, cfg.Gemini.Temperature, ""); err != nil {
			return err
		}
	}
	if cfg.CallTimeout <= 0 {
		return fmt.Errorf("call_timeout must be greater than 0")
	}
	if cfg.PlanBudget <= 0 {
		return fmt.Errorf("plan_budget must be greater than 0")
	}

	return nil
}

func validateProviderConfig(name string, maxTokens int, temperature float64, baseURL string) error {
	if maxTokens <= 0 {
		return fmt.Errorf("%s max_tokens must be greater than 0", name)
	}
	if temperature < 0 || temperature > 2 {
		return fmt.Errorf("%s temperature must be between 0 and 2", name)
	}
	if baseURL != "" {
		if _, err := url.Parse(baseURL); err != nil {
			return fmt.Errorf("%s invalid base_url: %w", name, err)
		}
	}
	return nil
}

func validateHandlers(cfg HandlersConfig) error {
	if cfg.MySQL.DefaultPort <= 0 || cfg.MySQL.DefaultPort > 65535 {
		return fmt.Errorf("mysql default_port out of range")
	}
	if cfg.PostgreSQL.DefaultPort <= 0 || cfg.PostgreSQL.DefaultPort > 65535 {
		return fmt.Errorf("postgresql default_port out of range")
	}
	if cfg.MongoDB.DefaultPort <= 0 || cfg.MongoDB.DefaultPort > 65535 {
		return fmt.Errorf("mongodb default_port out of range")
	}
	if cfg.ExecuteTimeout <= 0 {
		return fmt.Errorf("execute_timeout must be greater than 0")
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be greater than 0")
	}
	if cfg.KOSIS.BaseURL != "" {
		if _, err := url.Parse(cfg.KOSIS.BaseURL); err != nil {
			return fmt.Errorf("kosis invalid base_url: %w", err)
		}
	}
	return nil
}

func validatePersistence(cfg PersistenceConfig) error {
	if cfg.ConnectionsPath == "" {
		return fmt.Errorf("connections_path is required")
	}
	if cfg.SealKeyBase64 != "" {
		if _, err := decodeSealKey(cfg.SealKeyBase64); err != nil {
			return fmt.Errorf("seal_key_base64: %w", err)
		}
	}
	return nil
}

// decodeSealKey decodes and size-checks the chacha20poly1305 seal key. The
// cipher requires exactly 32 bytes.
func decodeSealKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("decoded key is %d bytes, want 32", len(key))
	}
	return key, nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
