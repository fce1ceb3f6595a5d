package config

import (
	"os"
	"strings"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	clearTestEnv(t)
	t.Setenv("CLAUDE_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Address != ":8080" {
		t.Errorf("expected default address :8080, got %s", cfg.Server.Address)
	}
	if cfg.Mode != "development" {
		t.Errorf("expected default mode development, got %s", cfg.Mode)
	}
	if cfg.AI.DefaultProvider != "claude" {
		t.Errorf("expected default provider claude, got %s", cfg.AI.DefaultProvider)
	}
	if cfg.AI.PlanBudget != 3 {
		t.Errorf("expected default plan budget 3, got %d", cfg.AI.PlanBudget)
	}
	if cfg.Handlers.PostgreSQL.DefaultPort != 5432 {
		t.Errorf("expected default postgresql port 5432, got %d", cfg.Handlers.PostgreSQL.DefaultPort)
	}
	if cfg.Persistence.ConnectionsPath != "./data/connections.json" {
		t.Errorf("expected default connections path, got %s", cfg.Persistence.ConnectionsPath)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		expectError bool
		errorSubstr string
	}{
		{
			name: "valid_config",
			setupEnv: func(t *testing.T) {
				clearTestEnv(t)
				t.Setenv("CLAUDE_API_KEY", "test-key")
			},
			expectError: false,
		},
		{
			name: "missing_ai_key",
			setupEnv: func(t *testing.T) {
				clearTestEnv(t)
			},
			expectError: true,
			errorSubstr: "API key",
		},
		{
			name: "invalid_server_address",
			setupEnv: func(t *testing.T) {
				clearTestEnv(t)
				t.Setenv("CLAUDE_API_KEY", "test-key")
				t.Setenv("SERVER_ADDRESS", "invalid-address")
			},
			expectError: true,
			errorSubstr: "address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv(t)

			_, err := Load()

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
					return
				}
				if tt.errorSubstr != "" && !strings.Contains(err.Error(), tt.errorSubstr) {
					t.Errorf("expected error containing %q, got: %v", tt.errorSubstr, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	clearTestEnv(t)

	testAddress := ":9090"
	testAPIKey := "prod-api-key"

	t.Setenv("SERVER_ADDRESS", testAddress)
	t.Setenv("CLAUDE_API_KEY", testAPIKey)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Address != testAddress {
		t.Errorf("expected address %s, got %s", testAddress, cfg.Server.Address)
	}
	if cfg.AI.Claude.APIKey != testAPIKey {
		t.Errorf("expected API key %s, got %s", testAPIKey, cfg.AI.Claude.APIKey)
	}
}

func TestConfigValidationEdgeCases(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		expectError bool
	}{
		{
			name: "valid_minimal_config",
			setupEnv: func(t *testing.T) {
				clearTestEnv(t)
				t.Setenv("CLAUDE_API_KEY", "test-key")
			},
			expectError: false,
		},
		{
			name: "zero_timeout_values",
			setupEnv: func(t *testing.T) {
				clearTestEnv(t)
				t.Setenv("CLAUDE_API_KEY", "test-key")
				t.Setenv("SERVER_READ_TIMEOUT", "0")
				t.Setenv("SERVER_WRITE_TIMEOUT", "0")
			},
			expectError: true,
		},
		{
			name: "invalid_seal_key",
			setupEnv: func(t *testing.T) {
				clearTestEnv(t)
				t.Setenv("CLAUDE_API_KEY", "test-key")
				t.Setenv("PERSISTENCE_SEAL_KEY", "not-valid-base64-and-wrong-length")
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv(t)

			cfg, err := Load()

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
			} else {
				if err != nil {
					t.Errorf("expected valid config but got error: %v", err)
				}
				if cfg == nil {
					t.Errorf("expected config but got nil")
				}
			}
		})
	}
}

func TestConfigSensitiveDataHandling(t *testing.T) {
	clearTestEnv(t)

	sensitiveKey := "super-secret-api-key"
	t.Setenv("CLAUDE_API_KEY", sensitiveKey)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.AI.Claude.APIKey != sensitiveKey {
		t.Errorf("API key not loaded correctly")
	}

	if strings.Contains(cfg.String(), sensitiveKey) {
		t.Errorf("Config.String() exposes sensitive API key")
	}
}

func TestTimeoutParsing(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		expectError bool
	}{
		{"valid_seconds", "30s", false},
		{"valid_minutes", "5m", false},
		{"valid_milliseconds", "500ms", false},
		{"invalid_format", "invalid", true},
		{"negative_value", "-10s", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)
			t.Setenv("CLAUDE_API_KEY", "test-key")
			t.Setenv("SERVER_READ_TIMEOUT", tt.value)

			_, err := Load()

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error for value %q but got none", tt.value)
				}
			} else if err != nil {
				t.Errorf("unexpected error for value %q: %v", tt.value, err)
			}
		})
	}
}

func BenchmarkConfigLoad(b *testing.B) {
	os.Setenv("CLAUDE_API_KEY", "test-key")
	defer os.Unsetenv("CLAUDE_API_KEY")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Load(); err != nil {
			b.Fatalf("config load failed: %v", err)
		}
	}
}

func TestValidateAIConfiguration(t *testing.T) {
	tests := []struct {
		name        string
		ai          AIConfig
		expectErr   bool
		errContains string
	}{
		{
			name: "valid_claude_config",
			ai: AIConfig{
				DefaultProvider: "claude",
				CallTimeout:     60_000_000_000,
				PlanBudget:      3,
				Claude: ClaudeConfig{
					APIKey:      "test-key",
					MaxTokens:   4000,
					Temperature: 0.7,
					BaseURL:     "https://api.anthropic.com",
				},
			},
			expectErr: false,
		},
		{
			name: "missing_api_key",
			ai: AIConfig{
				DefaultProvider: "claude",
				CallTimeout:     60_000_000_000,
				PlanBudget:      3,
				Claude: ClaudeConfig{
					MaxTokens:   4000,
					Temperature: 0.7,
					BaseURL:     "https://api.anthropic.com",
				},
			},
			expectErr:   true,
			errContains: "API key",
		},
		{
			name: "invalid_temperature",
			ai: AIConfig{
				DefaultProvider: "claude",
				CallTimeout:     60_000_000_000,
				PlanBudget:      3,
				Claude: ClaudeConfig{
					APIKey:      "test-key",
					MaxTokens:   4000,
					Temperature: 2.1,
					BaseURL:     "https://api.anthropic.com",
				},
			},
			expectErr:   true,
			errContains: "temperature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ai.Validate()

			if tt.expectErr {
				if err == nil {
					t.Errorf("expected error but got none")
				} else if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("expected error containing %q, got: %v", tt.errContains, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func clearTestEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"SERVER_ADDRESS", "APP_MODE", "CLAUDE_API_KEY", "GEMINI_API_KEY",
		"SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "PERSISTENCE_SEAL_KEY",
	}
	for _, env := range envVars {
		os.Unsetenv(env)
	}
}
