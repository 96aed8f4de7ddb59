// interfaces.go: public collaborator interfaces for tiercache
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package tiercache

import (
	"context"
	"log/slog"
)

// Store is the durable key-value collaborator backing the cold tier.
// Values are opaque strings; the cache owns the record format.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored under key.
	// A missing key is reported as found == false with a nil error.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// RemoveMany deletes every key in keys. Missing keys are ignored.
	RemoveMany(ctx context.Context, keys []string) error

	// ListKeys returns every key currently held by the store, including
	// keys that do not belong to the cache.
	ListKeys(ctx context.Context) ([]string, error)
}

// Logger defines a minimal structured logging interface.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keyvals ...interface{})

	// Info logs an info message with optional key-value pairs.
	Info(msg string, keyvals ...interface{})

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keyvals ...interface{})

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keyvals ...interface{})
}

// NoOpLogger is a logger that does nothing. Used as default to avoid nil checks.
type NoOpLogger struct{}

// Debug does nothing (no-op implementation).
func (NoOpLogger) Debug(msg string, keyvals ...interface{}) {}

// Info does nothing (no-op implementation).
func (NoOpLogger) Info(msg string, keyvals ...interface{}) {}

// Warn does nothing (no-op implementation).
func (NoOpLogger) Warn(msg string, keyvals ...interface{}) {}

// Error does nothing (no-op implementation).
func (NoOpLogger) Error(msg string, keyvals ...interface{}) {}

// slogLogger adapts a *slog.Logger to Logger.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger returns a Logger writing through l.
// A nil l uses slog.Default().
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return slogLogger{l: l}
}

func (s slogLogger) Debug(msg string, keyvals ...interface{}) { s.l.Debug(msg, keyvals...) }
func (s slogLogger) Info(msg string, keyvals ...interface{})  { s.l.Info(msg, keyvals...) }
func (s slogLogger) Warn(msg string, keyvals ...interface{})  { s.l.Warn(msg, keyvals...) }
func (s slogLogger) Error(msg string, keyvals ...interface{}) { s.l.Error(msg, keyvals...) }

// TimeProvider provides current time with caching for performance.
type TimeProvider interface {
	// Now returns the current time in nanoseconds since epoch.
	Now() int64
}

// MetricsCollector receives per-operation events from the Service.
// Implementations can forward them to OpenTelemetry, Prometheus or any
// other monitoring system.
//
// Thread-safety:
//   - All methods must be safe for concurrent use
//   - Methods are never called while the hot tier lock is held
type MetricsCollector interface {
	// RecordGet records a Get with its latency and hit/miss result.
	RecordGet(latencyNs int64, hit bool)

	// RecordSet records a Set with its latency.
	RecordSet(latencyNs int64)

	// RecordRemove records a Remove with its latency.
	RecordRemove(latencyNs int64)

	// RecordEviction records n items evicted from the hot tier.
	RecordEviction(n int)

	// RecordExpiration records n items purged because their TTL elapsed.
	RecordExpiration(n int)

	// RecordError records a caught serialization or durable I/O failure.
	RecordError()
}

// NoOpMetricsCollector is a metrics collector that does nothing.
type NoOpMetricsCollector struct{}

// RecordGet does nothing.
func (NoOpMetricsCollector) RecordGet(latencyNs int64, hit bool) {}

// RecordSet does nothing.
func (NoOpMetricsCollector) RecordSet(latencyNs int64) {}

// RecordRemove does nothing.
func (NoOpMetricsCollector) RecordRemove(latencyNs int64) {}

// RecordEviction does nothing.
func (NoOpMetricsCollector) RecordEviction(n int) {}

// RecordExpiration does nothing.
func (NoOpMetricsCollector) RecordExpiration(n int) {}

// RecordError does nothing.
func (NoOpMetricsCollector) RecordError() {}
