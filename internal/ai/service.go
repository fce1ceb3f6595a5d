package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/koopa0/nlqagent/internal/config"
	"github.com/koopa0/nlqagent/internal/observability"
)

// Service multiplexes calls across the configured Providers, applying a
// default provider, recording AIMetrics, and exposing aggregate health and
// usage across all of them. It is the one dependency the orchestrator (C5)
// takes on this package.
type Service struct {
	providers       map[string]Provider
	defaultProvider string
	logger          *slog.Logger
	metrics         *observability.AIMetrics
}

// NewService builds a Service from AIConfig, constructing one Provider per
// configured API key via Factory.
func NewService(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.AIMetrics) (*Service, error) {
	providers, err := NewFactory(logger).Build(ctx, cfg.AI)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		providers:       providers,
		defaultProvider: cfg.AI.DefaultProvider,
		logger:          logger,
		metrics:         metrics,
	}

	if _, ok := providers[svc.defaultProvider]; !ok {
		for name := range providers {
			svc.defaultProvider = name
			break
		}
		logger.Warn("configured default AI provider unavailable, falling back",
			slog.String("configured", cfg.AI.DefaultProvider),
			slog.String("fallback", svc.defaultProvider))
	}

	logger.Info("AI service initialized",
		slog.String("default_provider", svc.defaultProvider),
		slog.Any("available_providers", svc.GetAvailableProviders()))

	return svc, nil
}

// NewServiceForTesting builds a Service around already-constructed
// providers, bypassing Factory/config entirely — the same test-injection
// seam the teacher's mock storage clients provide for the assistant
// package's tests.
func NewServiceForTesting(providers map[string]Provider, defaultProvider string, logger *slog.Logger) *Service {
	return &Service{providers: providers, defaultProvider: defaultProvider, logger: logger}
}

func (s *Service) resolveProvider(providerName ...string) string {
	if len(providerName) > 0 && providerName[0] != "" {
		return providerName[0]
	}
	return s.defaultProvider
}

// GenerateResponse generates a response using the named or default
// provider, recording AIMetrics for the call.
func (s *Service) GenerateResponse(ctx context.Context, request *GenerateRequest, providerName ...string) (*GenerateResponse, error) {
	name := s.resolveProvider(providerName...)
	provider, ok := s.providers[name]
	if !ok {
		return nil, NewProviderError(ErrorTypeInvalidRequest, "unknown provider: "+name, name)
	}

	start := time.Now()
	resp, err := provider.GenerateResponse(ctx, request)

	if s.metrics != nil {
		tokenUsage := map[string]int{}
		errorType := ""
		if err == nil {
			tokenUsage["input"] = resp.TokensUsed.InputTokens
			tokenUsage["output"] = resp.TokensUsed.OutputTokens
			tokenUsage["total"] = resp.TokensUsed.TotalTokens
		} else {
			errorType = ErrorTypeServerError
		}
		s.metrics.RecordRequest(name, request.Model, start, err == nil, tokenUsage, errorType)
	}

	return resp, err
}

// GetAvailableProviders returns the names of every configured provider.
func (s *Service) GetAvailableProviders() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	return names
}

// GetDefaultProvider returns the default provider name.
func (s *Service) GetDefaultProvider() string {
	return s.defaultProvider
}

// Health checks every configured provider.
func (s *Service) Health(ctx context.Context) error {
	for name, provider := range s.providers {
		if err := provider.Health(ctx); err != nil {
			return NewProviderInitializationError(name, err).WithContext("operation", "health")
		}
	}
	return nil
}

// GetUsageStats returns usage statistics for every configured provider.
func (s *Service) GetUsageStats(ctx context.Context) (map[string]*UsageStats, error) {
	stats := make(map[string]*UsageStats)
	for name, provider := range s.providers {
		providerStats, err := provider.GetUsage(ctx)
		if err != nil {
			s.logger.Warn("failed to get usage stats", slog.String("provider", name), slog.Any("error", err))
			continue
		}
		stats[name] = providerStats
	}
	return stats, nil
}

// Close closes every configured provider.
func (s *Service) Close(ctx context.Context) error {
	var lastErr error
	for name, provider := range s.providers {
		if err := provider.Close(ctx); err != nil {
			s.logger.Error("failed to close provider", slog.String("provider", name), slog.Any("error", err))
			lastErr = err
		}
	}
	return lastErr
}
