package ai

import (
	"context"
	"log/slog"

	"github.com/koopa0/nlqagent/internal/config"
)

// Factory builds the set of configured Providers from AIConfig, the way the
// teacher's provider factory built Claude/Gemini clients from its own
// config block, adapted here to construct langchaingo-backed providers.
type Factory struct {
	logger *slog.Logger
}

// NewFactory creates a provider factory.
func NewFactory(logger *slog.Logger) *Factory {
	return &Factory{logger: logger}
}

// Build constructs every provider with a non-empty API key in cfg and
// returns them keyed by name. It is an error if none are configured.
func (f *Factory) Build(ctx context.Context, cfg config.AIConfig) (map[string]Provider, error) {
	providers := make(map[string]Provider)

	if cfg.Claude.APIKey != "" {
		p, err := newClaudeProvider(cfg.Claude, f.logger)
		if err != nil {
			return nil, err
		}
		providers["claude"] = p
		f.logger.Info("claude provider initialized", slog.String("model", cfg.Claude.Model))
	}

	if cfg.Gemini.APIKey != "" {
		p, err := newGeminiProvider(ctx, cfg.Gemini, f.logger)
		if err != nil {
			return nil, err
		}
		providers["gemini"] = p
		f.logger.Info("gemini provider initialized", slog.String("model", cfg.Gemini.Model))
	}

	if len(providers) == 0 {
		return nil, NewProviderInitializationError("none", nil).WithContext("reason", "no provider API key configured")
	}

	return providers, nil
}
