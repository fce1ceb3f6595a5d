// Package config provides application configuration management with support
// for environment variables, YAML files, and validation.
package config

import (
	"time"
)

// Config represents the application configuration.
type Config struct {
	Mode        string            `yaml:"mode" env:"APP_MODE" default:"development"`
	LogLevel    string            `yaml:"log_level" env:"LOG_LEVEL" default:"info"`
	LogFormat   string            `yaml:"log_format" env:"LOG_FORMAT" default:"json"`
	Server      ServerConfig      `yaml:"server"`
	CLI         CLIConfig         `yaml:"cli"`
	AI          AIConfig          `yaml:"ai"`
	Handlers    HandlersConfig    `yaml:"handlers"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Security    SecurityConfig    `yaml:"security"`
}

// ServerConfig holds HTTP API server configuration.
type ServerConfig struct {
	Address         string        `yaml:"address" env:"SERVER_ADDRESS" default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	EnableTLS       bool          `yaml:"enable_tls" env:"SERVER_ENABLE_TLS" default:"false"`
	TLSCertFile     string        `yaml:"tls_cert_file" env:"SERVER_TLS_CERT_FILE"`
	TLSKeyFile      string        `yaml:"tls_key_file" env:"SERVER_TLS_KEY_FILE"`
}

// CLIConfig holds CLI-specific configuration.
type CLIConfig struct {
	HistoryFile      string `yaml:"history_file" env:"CLI_HISTORY_FILE" default:".nlqagent_history"`
	MaxHistorySize   int    `yaml:"max_history_size" env:"CLI_MAX_HISTORY_SIZE" default:"1000"`
	EnableColors     bool   `yaml:"enable_colors" env:"CLI_ENABLE_COLORS" default:"true"`
	PromptTemplate   string `yaml:"prompt_template" env:"CLI_PROMPT_TEMPLATE" default:"nlq> "`
	ShowExecutedSQL  bool   `yaml:"show_executed_sql" env:"CLI_SHOW_EXECUTED_SQL" default:"true"`
	ShowTokenUsage   bool   `yaml:"show_token_usage" env:"CLI_SHOW_TOKEN_USAGE" default:"true"`
	Theme            string `yaml:"theme" env:"CLI_THEME" default:"dark"`
}

// AIConfig holds LLM provider configuration for planning, SQL generation,
// and direct (general-utterance) answers.
type AIConfig struct {
	DefaultProvider string        `yaml:"default_provider" env:"AI_DEFAULT_PROVIDER" default:"claude"`
	DefaultModel    string        `yaml:"default_model" env:"AI_DEFAULT_MODEL" default:"claude-3-5-sonnet-20241022"`
	Claude          ClaudeConfig  `yaml:"claude"`
	Gemini          GeminiConfig  `yaml:"gemini"`
	CallTimeout     time.Duration `yaml:"call_timeout" env:"AI_CALL_TIMEOUT" default:"60s"`
	PlanBudget      int           `yaml:"plan_budget" env:"AI_PLAN_BUDGET" default:"3"`
}

// ClaudeConfig holds Anthropic-backed langchaingo client configuration.
type ClaudeConfig struct {
	APIKey      string  `yaml:"api_key" env:"CLAUDE_API_KEY"`
	Model       string  `yaml:"model" env:"CLAUDE_MODEL" default:"claude-3-5-sonnet-20241022"`
	MaxTokens   int     `yaml:"max_tokens" env:"CLAUDE_MAX_TOKENS" default:"4096"`
	Temperature float64 `yaml:"temperature" env:"CLAUDE_TEMPERATURE" default:"0.2"`
	BaseURL     string  `yaml:"base_url" env:"CLAUDE_BASE_URL" default:"https://api.anthropic.com"`
}

// GeminiConfig holds Google-backed langchaingo client configuration.
type GeminiConfig struct {
	APIKey      string  `yaml:"api_key" env:"GEMINI_API_KEY"`
	Model       string  `yaml:"model" env:"GEMINI_MODEL" default:"gemini-1.5-pro"`
	MaxTokens   int     `yaml:"max_tokens" env:"GEMINI_MAX_TOKENS" default:"4096"`
	Temperature float64 `yaml:"temperature" env:"GEMINI_TEMPERATURE" default:"0.2"`
}

// HandlersConfig holds per-kind backend defaults (spec.md §6 field tables)
// and the fixed timeouts of §5.
type HandlersConfig struct {
	MySQL          MySQLDefaults    `yaml:"mysql"`
	PostgreSQL     PostgresDefaults `yaml:"postgresql"`
	MongoDB        MongoDefaults    `yaml:"mongodb"`
	KOSIS          KOSISConfig      `yaml:"kosis"`
	ExecuteTimeout time.Duration    `yaml:"execute_timeout" env:"HANDLER_EXECUTE_TIMEOUT" default:"30s"`
	HTTPTimeout    time.Duration    `yaml:"http_timeout" env:"HANDLER_HTTP_TIMEOUT" default:"30s"`
}

// MySQLDefaults holds the default port for the mysql backend kind.
type MySQLDefaults struct {
	DefaultPort int `yaml:"default_port" default:"3306"`
}

// PostgresDefaults holds the default port/schema for the postgresql kind.
type PostgresDefaults struct {
	DefaultPort   int    `yaml:"default_port" default:"5432"`
	DefaultSchema string `yaml:"default_schema" default:"public"`
}

// MongoDefaults holds the default port/authSource for the mongodb kind.
type MongoDefaults struct {
	DefaultPort       int    `yaml:"default_port" default:"27017"`
	DefaultAuthSource string `yaml:"default_auth_source" default:"admin"`
}

// KOSISConfig holds the kosis_api handler's own API key and base URL,
// independent of any one connection's ConnectionConfig, since the key is
// typically shared across connections.
type KOSISConfig struct {
	APIKey  string `yaml:"api_key" env:"KOSIS_API_KEY"`
	BaseURL string `yaml:"base_url" env:"KOSIS_BASE_URL" default:"https://kosis.kr/openapi"`
}

// PersistenceConfig holds the location and seal key for the connections
// JSON file of spec.md §6.
type PersistenceConfig struct {
	ConnectionsPath string `yaml:"connections_path" env:"PERSISTENCE_CONNECTIONS_PATH" default:"./data/connections.json"`
	SealKeyBase64   string `yaml:"seal_key_base64" env:"PERSISTENCE_SEAL_KEY"`
}

// SecurityConfig holds CORS and other transport-level security settings.
// Authentication itself is an out-of-scope collaborator interface.
type SecurityConfig struct {
	EnableCORS     bool     `yaml:"enable_cors" env:"ENABLE_CORS" default:"true"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
}

// String returns a string representation of the Config, with sensitive data
// masked.
func (c Config) String() string {
	return "<Config with masked sensitive data>"
}

// Validate validates the AI configuration section.
func (cfg AIConfig) Validate() error {
	return validateAI(cfg)
}
