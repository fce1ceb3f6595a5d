package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/koopa0/nlqagent/internal/config"
)

// langchainProvider adapts a langchaingo llms.Model to the Provider
// interface. Planning calls, SQL-generation calls and direct answers to
// general utterances all go through this one abstraction regardless of
// which vendor backs it.
type langchainProvider struct {
	llm      llms.Model
	name     string
	model    string
	logger   *slog.Logger
	counter  *TokenCounter
	mu       sync.Mutex
	requests int64
	errors   int64
	totalIn  int64
	totalOut int64
	lastCall time.Time
	latency  time.Duration
}

// newClaudeProvider builds a Provider backed by Anthropic's Claude through
// langchaingo's anthropic.New constructor.
func newClaudeProvider(cfg config.ClaudeConfig, logger *slog.Logger) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, NewProviderInitializationError("claude", fmt.Errorf("missing API key"))
	}

	llm, err := anthropic.New(
		anthropic.WithToken(cfg.APIKey),
		anthropic.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, NewProviderInitializationError("claude", err)
	}

	return &langchainProvider{
		llm:     llm,
		name:    "claude",
		model:   cfg.Model,
		logger:  logger,
		counter: NewTokenCounter(cfg.Model),
	}, nil
}

// newGeminiProvider builds a Provider backed by Google's Gemini through
// langchaingo's googleai.New constructor.
func newGeminiProvider(ctx context.Context, cfg config.GeminiConfig, logger *slog.Logger) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, NewProviderInitializationError("gemini", fmt.Errorf("missing API key"))
	}

	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, NewProviderInitializationError("gemini", err)
	}

	return &langchainProvider{
		llm:     llm,
		name:    "gemini",
		model:   cfg.Model,
		logger:  logger,
		counter: NewTokenCounter(cfg.Model),
	}, nil
}

func (p *langchainProvider) Name() string { return p.name }

func (p *langchainProvider) GenerateResponse(ctx context.Context, request *GenerateRequest) (*GenerateResponse, error) {
	start := time.Now()

	prompt := renderPrompt(request)
	opts := callOptions(request)

	content, err := p.llm.Call(ctx, prompt, opts...)
	elapsed := time.Since(start)

	atomic.AddInt64(&p.requests, 1)
	p.mu.Lock()
	p.lastCall = time.Now()
	p.latency = elapsed
	p.mu.Unlock()

	if err != nil {
		atomic.AddInt64(&p.errors, 1)
		p.logger.Error("llm call failed",
			slog.String("provider", p.name),
			slog.Any("error", err))
		return nil, NewProviderInitializationError(p.name, err).WithContext("operation", "generate")
	}

	inputTokens := p.counter.EstimateMessages(request.Messages)
	outputTokens := p.counter.Estimate(content)
	atomic.AddInt64(&p.totalIn, int64(inputTokens))
	atomic.AddInt64(&p.totalOut, int64(outputTokens))

	model := request.Model
	if model == "" {
		model = p.model
	}

	return &GenerateResponse{
		Content:  content,
		Model:    model,
		Provider: p.name,
		TokensUsed: TokenUsage{
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			TotalTokens:  inputTokens + outputTokens,
		},
		FinishReason: "stop",
		ResponseTime: elapsed,
	}, nil
}

// GenerateResponseStream streams the response by invoking the provider with
// llms.WithStreamingFunc and passing each chunk the provider delivers to
// onChunk as it arrives, satisfying StreamingProvider.
func (p *langchainProvider) GenerateResponseStream(ctx context.Context, request *GenerateRequest, onChunk StreamCallback) (*GenerateResponse, error) {
	start := time.Now()
	prompt := renderPrompt(request)

	var buf strings.Builder
	streamErr := make(chan error, 1)

	opts := callOptions(request)
	opts = append(opts, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
		buf.Write(chunk)
		return onChunk(StreamChunk{Content: string(chunk)})
	}))

	content, err := p.llm.Call(ctx, prompt, opts...)
	close(streamErr)

	atomic.AddInt64(&p.requests, 1)
	if err != nil {
		atomic.AddInt64(&p.errors, 1)
		return nil, NewProviderInitializationError(p.name, err).WithContext("operation", "generate_stream")
	}

	if content == "" {
		content = buf.String()
	}

	inputTokens := p.counter.EstimateMessages(request.Messages)
	outputTokens := p.counter.Estimate(content)
	atomic.AddInt64(&p.totalIn, int64(inputTokens))
	atomic.AddInt64(&p.totalOut, int64(outputTokens))

	return &GenerateResponse{
		Content:  content,
		Model:    p.model,
		Provider: p.name,
		TokensUsed: TokenUsage{
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			TotalTokens:  inputTokens + outputTokens,
		},
		FinishReason: "stop",
		ResponseTime: time.Since(start),
	}, nil
}

func (p *langchainProvider) Health(ctx context.Context) error {
	_, err := p.llm.Call(ctx, "ping", llms.WithMaxTokens(1))
	if err != nil {
		return NewProviderInitializationError(p.name, err).WithContext("operation", "health")
	}
	return nil
}

func (p *langchainProvider) Close(ctx context.Context) error {
	return nil
}

func (p *langchainProvider) GetUsage(ctx context.Context) (*UsageStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	requests := atomic.LoadInt64(&p.requests)
	errs := atomic.LoadInt64(&p.errors)
	var errRate float64
	if requests > 0 {
		errRate = float64(errs) / float64(requests)
	}

	var lastCall *time.Time
	if !p.lastCall.IsZero() {
		t := p.lastCall
		lastCall = &t
	}

	return &UsageStats{
		TotalRequests:   requests,
		TotalTokens:     atomic.LoadInt64(&p.totalIn) + atomic.LoadInt64(&p.totalOut),
		InputTokens:     atomic.LoadInt64(&p.totalIn),
		OutputTokens:    atomic.LoadInt64(&p.totalOut),
		AverageLatency:  p.latency,
		ErrorRate:       errRate,
		LastRequestTime: lastCall,
	}, nil
}

// renderPrompt flattens a GenerateRequest's messages and optional system
// prompt into the single string langchaingo's Call convenience API expects.
func renderPrompt(request *GenerateRequest) string {
	var b strings.Builder
	if request.SystemPrompt != nil && *request.SystemPrompt != "" {
		b.WriteString("System: ")
		b.WriteString(*request.SystemPrompt)
		b.WriteString("\n")
	}
	for _, msg := range request.Messages {
		switch msg.Role {
		case "assistant":
			b.WriteString("Assistant: ")
		case "system":
			b.WriteString("System: ")
		default:
			b.WriteString("Human: ")
		}
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func callOptions(request *GenerateRequest) []llms.CallOption {
	opts := make([]llms.CallOption, 0, 3)
	if request.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(request.MaxTokens))
	}
	if request.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(request.Temperature))
	}
	if request.Model != "" {
		opts = append(opts, llms.WithModel(request.Model))
	}
	return opts
}
