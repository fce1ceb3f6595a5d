package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat represents the logging format
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// ContextKey represents a context key for logging
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	UserIDKey    ContextKey = "user_id"
	TraceIDKey   ContextKey = "trace_id"
	SpanIDKey    ContextKey = "span_id"
)

// SetupLogging configures and returns a structured logger writing to stdout.
func SetupLogging(level, format string) *slog.Logger {
	return SetupLoggingWithWriter(os.Stdout, level, format)
}

// SetupLoggingWithWriter configures and returns a structured logger with a
// custom writer, used by tests to capture output.
func SetupLoggingWithWriter(writer io.Writer, level, format string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{Key: "timestamp", Value: slog.StringValue(a.Value.Time().Format(time.RFC3339))}
			}
			return a
		},
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text":
		handler = slog.NewTextHandler(writer, opts)
	default:
		handler = slog.NewJSONHandler(writer, opts)
	}

	return slog.New(handler)
}

// WithContext enriches logger with OpenTelemetry trace/span IDs and any
// request/user IDs carried on ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	attrs := make([]slog.Attr, 0)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		attrs = append(attrs,
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}

	if requestID := ctx.Value(RequestIDKey); requestID != nil {
		attrs = append(attrs, slog.String("request_id", requestID.(string)))
	}
	if userID := ctx.Value(UserIDKey); userID != nil {
		attrs = append(attrs, slog.String("user_id", userID.(string)))
	}

	if len(attrs) == 0 {
		return logger
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return logger.With(args...)
}

// LogError logs an error with request/trace context attached.
func LogError(ctx context.Context, logger *slog.Logger, msg string, err error, attrs ...slog.Attr) {
	allAttrs := make([]slog.Attr, 0, len(attrs)+1)
	allAttrs = append(allAttrs, slog.Any("error", err))
	allAttrs = append(allAttrs, attrs...)
	WithContext(ctx, logger).LogAttrs(ctx, slog.LevelError, msg, allAttrs...)
}

// LogInfo logs an info message with request/trace context attached.
func LogInfo(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	WithContext(ctx, logger).LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

// LogDebug logs a debug message with request/trace context attached.
func LogDebug(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	WithContext(ctx, logger).LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

// LogWarn logs a warning message with request/trace context attached.
func LogWarn(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	WithContext(ctx, logger).LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
}

// RequestLogger creates a logger scoped to a single HTTP request.
func RequestLogger(logger *slog.Logger, method, path, requestID string) *slog.Logger {
	return logger.With(
		slog.String("method", method),
		slog.String("path", path),
		slog.String("request_id", requestID),
	)
}

// DatabaseLogger creates a logger scoped to a handler backend operation.
func DatabaseLogger(logger *slog.Logger, operation, table string) *slog.Logger {
	return logger.With(
		slog.String("component", "handler"),
		slog.String("operation", operation),
		slog.String("table", table),
	)
}

// ToolLogger creates a logger scoped to an orchestrator tool call.
func ToolLogger(logger *slog.Logger, toolName, operation string) *slog.Logger {
	return logger.With(
		slog.String("component", "tool"),
		slog.String("tool", toolName),
		slog.String("operation", operation),
	)
}

// AILogger creates a logger scoped to an AI provider call.
func AILogger(logger *slog.Logger, provider, model string) *slog.Logger {
	return logger.With(
		slog.String("component", "ai"),
		slog.String("provider", provider),
		slog.String("model", model),
	)
}

// ServerLogger creates a logger scoped to an HTTP server subcomponent.
func ServerLogger(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(
		slog.String("component", "server"),
		slog.String("subcomponent", component),
	)
}

// CLILogger creates a logger scoped to a CLI command.
func CLILogger(logger *slog.Logger, command string) *slog.Logger {
	return logger.With(
		slog.String("component", "cli"),
		slog.String("command", command),
	)
}
