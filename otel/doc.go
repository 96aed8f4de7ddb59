// Package otel provides OpenTelemetry integration for tiercache metrics.
//
// # Overview
//
// OTelMetricsCollector implements tiercache.MetricsCollector. Pass it as
// Config.MetricsCollector and every Get, Set and Remove latency is recorded
// to a histogram, while hits, misses, evictions, expirations and caught
// errors are recorded to counters. Percentiles are computed by whatever
// backend the MeterProvider exports to.
//
// # Quick Start
//
//	import (
//	    "github.com/agilira/tiercache"
//	    tierotel "github.com/agilira/tiercache/otel"
//	    "go.opentelemetry.io/otel/exporters/prometheus"
//	    "go.opentelemetry.io/otel/sdk/metric"
//	)
//
//	exporter, err := prometheus.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//
//	collector, err := tierotel.NewOTelMetricsCollector(provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	svc, err := tiercache.New(ctx, tiercache.Config{
//	    MetricsCollector: collector,
//	})
//
// # Metrics Exposed
//
//   - tiercache_get_latency_ns: Histogram of Get latencies
//   - tiercache_set_latency_ns: Histogram of Set latencies
//   - tiercache_remove_latency_ns: Histogram of Remove latencies
//   - tiercache_get_hits_total: Counter of lookups answered by either tier
//   - tiercache_get_misses_total: Counter of lookups that found nothing
//   - tiercache_evictions_total: Counter of hot tier evictions and shrink drops
//   - tiercache_expirations_total: Counter of TTL-based expirations
//   - tiercache_errors_total: Counter of caught failures
//
// Example PromQL for the hit ratio:
//
//	rate(tiercache_get_hits_total[5m]) /
//	  (rate(tiercache_get_hits_total[5m]) + rate(tiercache_get_misses_total[5m]))
//
// # Thread Safety
//
// All methods are safe for concurrent use.
package otel
