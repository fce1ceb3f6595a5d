package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// LoaderOptions configures a ConfigLoader.
type LoaderOptions struct {
	ConfigFile      string
	SkipEnvFile     bool
	WatchChanges    bool
	ValidateSecrets bool
}

// ConfigLoader loads configuration from YAML + environment layers and can
// watch for changes.
type ConfigLoader struct {
	options  LoaderOptions
	current  *Config
	mutex    sync.RWMutex
	watchers []chan<- *Config
	cancel   context.CancelFunc
}

// NewConfigLoader creates a new configuration loader.
func NewConfigLoader(opts LoaderOptions) *ConfigLoader {
	return &ConfigLoader{
		options:  opts,
		watchers: make([]chan<- *Config, 0),
	}
}

// Load loads configuration using the default loader options.
func Load() (*Config, error) {
	loader := NewConfigLoader(LoaderOptions{ValidateSecrets: true})
	return loader.Load(context.Background())
}

// Load loads configuration: .env, then YAML, then environment overrides.
func (cl *ConfigLoader) Load(ctx context.Context) (*Config, error) {
	cfg := &Config{}

	if !cl.options.SkipEnvFile {
		if err := cl.loadEnvFile(); err != nil {
			slog.Debug("no .env file found, continuing with system environment", "error", err)
		}
	}

	if err := cl.loadFromYAML(cfg); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}

	// cleanenv.ReadEnv applies struct-tag defaults and then overrides with
	// whatever environment variables are set.
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if err := cl.validateSecuritySettings(cfg); err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}

	cl.mutex.Lock()
	cl.current = cfg
	cl.mutex.Unlock()

	if cl.options.WatchChanges {
		watchCtx, cancel := context.WithCancel(ctx)
		cl.mutex.Lock()
		cl.cancel = cancel
		cl.mutex.Unlock()
		go cl.watchForChanges(watchCtx)
	}

	return cfg, nil
}

func (cl *ConfigLoader) loadEnvFile() error {
	envFiles := []string{".env.local", ".env"}
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}
			slog.Debug("loaded environment file", "file", envFile)
			return nil
		}
	}
	return fmt.Errorf("no .env file found")
}

func (cl *ConfigLoader) loadFromYAML(cfg *Config) error {
	configFile := cl.determineConfigFile()
	if configFile == "" {
		slog.Info("no configuration file found, using defaults and environment variables")
		return nil
	}

	slog.Info("loading configuration file", "file", configFile)
	if err := cleanenv.ReadConfig(configFile, cfg); err != nil {
		return NewConfigFileReadError(configFile, err)
	}

	return nil
}

func (cl *ConfigLoader) determineConfigFile() string {
	if cl.options.ConfigFile != "" {
		return cl.options.ConfigFile
	}
	if configFile := os.Getenv("CONFIG_FILE"); configFile != "" {
		return configFile
	}

	env := os.Getenv("APP_MODE")
	if env == "" {
		env = "development"
	}

	environmentConfig := filepath.Join("configs", env+".yaml")
	if _, err := os.Stat(environmentConfig); err == nil {
		return environmentConfig
	}

	candidates := []string{
		"configs/development.yaml",
		"configs/production.yaml",
		"config.yaml",
		".config.yaml",
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

// validateSecuritySettings validates the persistence seal key and falls
// through to the full structural Validate.
func (cl *ConfigLoader) validateSecuritySettings(cfg *Config) error {
	if cl.options.ValidateSecrets && cfg.Persistence.SealKeyBase64 != "" {
		if _, err := decodeSealKey(cfg.Persistence.SealKeyBase64); err != nil {
			return NewSecretKeyInvalidError(err)
		}
	}
	return Validate(cfg)
}

// watchForChanges polls for environment-driven configuration changes and
// notifies registered watchers. There is no file-system watcher: the YAML
// config files this loader reads are expected to be static per deployment.
func (cl *ConfigLoader) watchForChanges(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := cl.checkAndReload(); err != nil {
				slog.Error("failed to reload configuration", "error", err)
			}
		}
	}
}

func (cl *ConfigLoader) checkAndReload() error {
	cfg := &Config{}
	if err := cl.loadFromYAML(cfg); err != nil {
		return err
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return err
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	if cl.current.Mode != cfg.Mode || cl.current.LogLevel != cfg.LogLevel {
		cl.current = cfg
		for _, watcher := range cl.watchers {
			select {
			case watcher <- cfg:
			default:
			}
		}
		slog.Info("configuration reloaded")
	}

	return nil
}

// Watch registers a channel that receives the new Config whenever
// watchForChanges detects a mode or log-level change.
func (cl *ConfigLoader) Watch() <-chan *Config {
	ch := make(chan *Config, 1)
	cl.mutex.Lock()
	cl.watchers = append(cl.watchers, ch)
	cl.mutex.Unlock()
	return ch
}

// Stop cancels the watch loop and closes all registered watcher channels.
func (cl *ConfigLoader) Stop() {
	if cl.cancel != nil {
		cl.cancel()
	}
	cl.mutex.Lock()
	for _, watcher := range cl.watchers {
		close(watcher)
	}
	cl.watchers = nil
	cl.mutex.Unlock()
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		return configDir
	}
	return "configs"
}

// GetConfigFile returns the full path to the environment-specific config file.
func GetConfigFile(env string) string {
	return filepath.Join(GetConfigDir(), fmt.Sprintf("%s.yaml", env))
}

// LoadWithLoader loads configuration with explicit loader options, returning
// the loader so the caller can Watch() or Stop() it.
func LoadWithLoader(opts LoaderOptions) (*Config, *ConfigLoader, error) {
	loader := NewConfigLoader(opts)
	cfg, err := loader.Load(context.Background())
	if err != nil {
		return nil, nil, err
	}
	return cfg, loader, nil
}
