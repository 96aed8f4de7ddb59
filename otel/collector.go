// collector.go: OpenTelemetry MetricsCollector for tiercache
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package otel

import (
	"context"

	"github.com/agilira/tiercache"
	"go.opentelemetry.io/otel/metric"
)

// DefaultMeterName is the meter name used unless WithMeterName is given.
const DefaultMeterName = "github.com/agilira/tiercache"

// OTelMetricsCollector implements tiercache.MetricsCollector using OpenTelemetry.
//
// Thread-safety: Safe for concurrent use by multiple goroutines.
// The underlying OTEL instruments are thread-safe.
type OTelMetricsCollector struct {
	getLatency    metric.Int64Histogram
	setLatency    metric.Int64Histogram
	removeLatency metric.Int64Histogram
	hits          metric.Int64Counter
	misses        metric.Int64Counter
	evictions     metric.Int64Counter
	expirations   metric.Int64Counter
	errors        metric.Int64Counter
}

// Options for configuring OTelMetricsCollector.
type Options struct {
	// MeterName is the name of the OpenTelemetry meter.
	// Default: DefaultMeterName
	MeterName string
}

// Option is a functional option for configuring OTelMetricsCollector.
type Option func(*Options)

// WithMeterName sets a custom meter name, useful to tell apart several
// Service instances in one process.
func WithMeterName(name string) Option {
	return func(o *Options) {
		o.MeterName = name
	}
}

// NewOTelMetricsCollector creates a collector recording to provider.
//
// Instruments created:
//   - tiercache_get_latency_ns, tiercache_set_latency_ns,
//     tiercache_remove_latency_ns: Int64Histogram
//   - tiercache_get_hits_total, tiercache_get_misses_total,
//     tiercache_evictions_total, tiercache_expirations_total,
//     tiercache_errors_total: Int64Counter
//
// Example:
//
//	reader := sdkmetric.NewManualReader()
//	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
//	collector, err := otel.NewOTelMetricsCollector(provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc, err := tiercache.New(ctx, tiercache.Config{MetricsCollector: collector})
func NewOTelMetricsCollector(provider metric.MeterProvider, opts ...Option) (*OTelMetricsCollector, error) {
	if provider == nil {
		return nil, tiercache.NewErrInvalidConfig("MeterProvider", nil)
	}

	options := Options{MeterName: DefaultMeterName}
	for _, opt := range opts {
		opt(&options)
	}
	meter := provider.Meter(options.MeterName)

	c := &OTelMetricsCollector{}
	var err error

	histograms := []struct {
		dst  *metric.Int64Histogram
		name string
		desc string
	}{
		{&c.getLatency, "tiercache_get_latency_ns", "Latency of Get operations in nanoseconds"},
		{&c.setLatency, "tiercache_set_latency_ns", "Latency of Set operations in nanoseconds"},
		{&c.removeLatency, "tiercache_remove_latency_ns", "Latency of Remove operations in nanoseconds"},
	}
	for _, h := range histograms {
		*h.dst, err = meter.Int64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit("ns"))
		if err != nil {
			return nil, err
		}
	}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&c.hits, "tiercache_get_hits_total", "Total number of lookups answered by either tier"},
		{&c.misses, "tiercache_get_misses_total", "Total number of lookups that found nothing"},
		{&c.evictions, "tiercache_evictions_total", "Total number of hot tier evictions"},
		{&c.expirations, "tiercache_expirations_total", "Total number of TTL-based expirations"},
		{&c.errors, "tiercache_errors_total", "Total number of caught serialization and durable I/O failures"},
	}
	for _, ctr := range counters {
		*ctr.dst, err = meter.Int64Counter(ctr.name, metric.WithDescription(ctr.desc))
		if err != nil {
			return nil, err
		}
	}

	return c, nil
}

// RecordGet records a lookup latency and its outcome.
func (c *OTelMetricsCollector) RecordGet(latencyNs int64, hit bool) {
	ctx := context.Background()
	c.getLatency.Record(ctx, latencyNs)
	if hit {
		c.hits.Add(ctx, 1)
	} else {
		c.misses.Add(ctx, 1)
	}
}

// RecordSet records a Set latency.
func (c *OTelMetricsCollector) RecordSet(latencyNs int64) {
	c.setLatency.Record(context.Background(), latencyNs)
}

// RecordRemove records a Remove latency.
func (c *OTelMetricsCollector) RecordRemove(latencyNs int64) {
	c.removeLatency.Record(context.Background(), latencyNs)
}

// RecordEviction adds n evictions.
func (c *OTelMetricsCollector) RecordEviction(n int) {
	c.evictions.Add(context.Background(), int64(n))
}

// RecordExpiration adds n expirations.
func (c *OTelMetricsCollector) RecordExpiration(n int) {
	c.expirations.Add(context.Background(), int64(n))
}

// RecordError counts one caught failure.
func (c *OTelMetricsCollector) RecordError() {
	c.errors.Add(context.Background(), 1)
}

var _ tiercache.MetricsCollector = (*OTelMetricsCollector)(nil)
