package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ConfigEvent records a single configuration lifecycle event for the
// ConfigObserver's rolling history.
type ConfigEvent struct {
	Timestamp time.Time              `json:"timestamp"`
	EventType string                 `json:"event_type"`
	Source    string                 `json:"source"`
	Field     string                 `json:"field,omitempty"`
	OldValue  interface{}            `json:"old_value,omitempty"`
	NewValue  interface{}            `json:"new_value,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ConfigMetrics holds the OpenTelemetry instruments for configuration
// loading and validation.
type ConfigMetrics struct {
	ConfigLoads            metric.Int64Counter
	ConfigLoadDuration      metric.Float64Histogram
	ConfigValidations      metric.Int64Counter
	ConfigValidationErrors metric.Int64Counter
	ConfigReloads          metric.Int64Counter
}

// ConfigObserver tracks configuration load/validation/reload events and
// exposes them as both OpenTelemetry metrics and a bounded in-memory history.
type ConfigObserver struct {
	events      []ConfigEvent
	eventsMutex sync.RWMutex
	maxEvents   int
	listeners   []func(ConfigEvent)
	metrics     *ConfigMetrics
}

// NewConfigObserver creates a configuration observer backed by the global
// OpenTelemetry meter provider.
func NewConfigObserver(maxEvents int) (*ConfigObserver, error) {
	meter := otel.Meter("nlqagent.config")

	metrics, err := newConfigMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create config metrics: %w", err)
	}

	return &ConfigObserver{
		events:    make([]ConfigEvent, 0, maxEvents),
		maxEvents: maxEvents,
		listeners: make([]func(ConfigEvent), 0),
		metrics:   metrics,
	}, nil
}

func newConfigMetrics(meter metric.Meter) (*ConfigMetrics, error) {
	configLoads, err := meter.Int64Counter("config_loads_total",
		metric.WithDescription("Total number of configuration loads"))
	if err != nil {
		return nil, err
	}

	configLoadDuration, err := meter.Float64Histogram("config_load_duration_seconds",
		metric.WithDescription("Configuration load duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	configValidations, err := meter.Int64Counter("config_validations_total",
		metric.WithDescription("Total number of configuration validations"))
	if err != nil {
		return nil, err
	}

	configValidationErrors, err := meter.Int64Counter("config_validation_errors_total",
		metric.WithDescription("Total number of configuration validation errors"))
	if err != nil {
		return nil, err
	}

	configReloads, err := meter.Int64Counter("config_reloads_total",
		metric.WithDescription("Total number of configuration reloads"))
	if err != nil {
		return nil, err
	}

	return &ConfigMetrics{
		ConfigLoads:            configLoads,
		ConfigLoadDuration:     configLoadDuration,
		ConfigValidations:      configValidations,
		ConfigValidationErrors: configValidationErrors,
		ConfigReloads:          configReloads,
	}, nil
}

// RecordLoad records a configuration load attempt.
func (co *ConfigObserver) RecordLoad(ctx context.Context, source string, duration time.Duration, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("source", source),
		attribute.Bool("success", success),
	}
	co.metrics.ConfigLoads.Add(ctx, 1, metric.WithAttributes(attrs...))
	co.metrics.ConfigLoadDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	co.recordEvent(ConfigEvent{
		Timestamp: time.Now(),
		EventType: "config_load",
		Source:    source,
		Metadata: map[string]interface{}{
			"duration_ms": duration.Milliseconds(),
			"success":     success,
		},
	})
	slog.Info("configuration load recorded", "source", source, "duration", duration, "success", success)
}

// RecordValidation records a configuration validation pass.
func (co *ConfigObserver) RecordValidation(ctx context.Context, errs []ValidationError) {
	hasErrors := len(errs) > 0
	attrs := []attribute.KeyValue{
		attribute.Bool("has_errors", hasErrors),
		attribute.Int("error_count", len(errs)),
	}
	co.metrics.ConfigValidations.Add(ctx, 1, metric.WithAttributes(attrs...))
	if hasErrors {
		co.metrics.ConfigValidationErrors.Add(ctx, int64(len(errs)), metric.WithAttributes(attrs...))
	}

	event := ConfigEvent{
		Timestamp: time.Now(),
		EventType: "config_validation",
		Source:    "validator",
		Metadata: map[string]interface{}{
			"error_count": len(errs),
			"has_errors":  hasErrors,
		},
	}
	if hasErrors {
		details := make([]map[string]interface{}, len(errs))
		for i, e := range errs {
			details[i] = map[string]interface{}{"field": e.Field, "message": e.Message, "code": e.Code}
		}
		event.Metadata["errors"] = details
	}
	co.recordEvent(event)

	if hasErrors {
		slog.Warn("configuration validation completed with errors", "error_count", len(errs))
	} else {
		slog.Info("configuration validation successful")
	}
}

// RecordReload records a hot-reload attempt triggered by the config watcher.
func (co *ConfigObserver) RecordReload(ctx context.Context, trigger string, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("trigger", trigger),
		attribute.Bool("success", success),
	}
	co.metrics.ConfigReloads.Add(ctx, 1, metric.WithAttributes(attrs...))

	co.recordEvent(ConfigEvent{
		Timestamp: time.Now(),
		EventType: "config_reload",
		Source:    trigger,
		Metadata:  map[string]interface{}{"success": success},
	})
	slog.Info("configuration reload recorded", "trigger", trigger, "success", success)
}

// AddListener registers a callback invoked (in its own goroutine) for every
// recorded event.
func (co *ConfigObserver) AddListener(listener func(ConfigEvent)) {
	co.eventsMutex.Lock()
	defer co.eventsMutex.Unlock()
	co.listeners = append(co.listeners, listener)
}

// GetEvents returns the most recent events, newest last, up to limit.
func (co *ConfigObserver) GetEvents(limit int) []ConfigEvent {
	co.eventsMutex.RLock()
	defer co.eventsMutex.RUnlock()

	if limit <= 0 || limit > len(co.events) {
		limit = len(co.events)
	}
	start := len(co.events) - limit
	if start < 0 {
		start = 0
	}
	events := make([]ConfigEvent, limit)
	copy(events, co.events[start:])
	return events
}

func (co *ConfigObserver) recordEvent(event ConfigEvent) {
	co.eventsMutex.Lock()
	defer co.eventsMutex.Unlock()

	co.events = append(co.events, event)
	if len(co.events) > co.maxEvents {
		copy(co.events, co.events[len(co.events)-co.maxEvents:])
		co.events = co.events[:co.maxEvents]
	}

	for _, listener := range co.listeners {
		go listener(event)
	}
}

// ExportEvents serializes the observer's event history as JSON.
func (co *ConfigObserver) ExportEvents() ([]byte, error) {
	co.eventsMutex.RLock()
	defer co.eventsMutex.RUnlock()
	return json.MarshalIndent(co.events, "", "  ")
}

// ClearEvents discards the observer's event history.
func (co *ConfigObserver) ClearEvents() {
	co.eventsMutex.Lock()
	defer co.eventsMutex.Unlock()
	co.events = co.events[:0]
	slog.Info("configuration event history cleared")
}
