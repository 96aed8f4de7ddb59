// stats.go: operation counters and statistics snapshots
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package tiercache

import "sync/atomic"

// Stats provides a snapshot of cache activity and hot tier usage.
type Stats struct {
	// Requests is the number of Get lookups served
	Requests uint64

	// Hits is the number of lookups answered by either tier
	Hits uint64

	// Misses is the number of lookups that found nothing
	Misses uint64

	// Sets is the number of Set calls that completed without error
	Sets uint64

	// Removes is the number of Remove calls that completed without error
	Removes uint64

	// Evictions is the number of hot tier items dropped for capacity or
	// by a footprint shrink
	Evictions uint64

	// Expirations is the number of items purged because their TTL elapsed
	Expirations uint64

	// Hydrated is the number of durable records admitted into the hot tier
	Hydrated uint64

	// Errors is the number of caught serialization and durable I/O failures
	Errors uint64

	// ItemCount is the current number of hot tier items
	ItemCount int

	// MemoryBytes is the current hot tier byte usage
	MemoryBytes int64

	// MemoryBudget is the hot tier byte budget
	MemoryBudget int64
}

// HitRate returns the hit rate as a percentage (0-100).
// Returns 0.0 if no lookups have been performed yet.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// MemoryUsage returns MemoryBytes as a percentage of MemoryBudget.
func (s Stats) MemoryUsage() float64 {
	if s.MemoryBudget <= 0 {
		return 0
	}
	return float64(s.MemoryBytes) / float64(s.MemoryBudget) * 100
}

// statsCollector holds the atomic counters behind Stats and forwards
// events to the configured MetricsCollector.
type statsCollector struct {
	requests    atomic.Uint64
	hits        atomic.Uint64
	misses      atomic.Uint64
	sets        atomic.Uint64
	removes     atomic.Uint64
	evictions   atomic.Uint64
	expirations atomic.Uint64
	hydrated    atomic.Uint64
	errors      atomic.Uint64

	metrics MetricsCollector
}

func newStatsCollector(metrics MetricsCollector) *statsCollector {
	return &statsCollector{metrics: metrics}
}

func (s *statsCollector) recordGet(latencyNs int64, hit bool) {
	s.requests.Add(1)
	if hit {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
	s.metrics.RecordGet(latencyNs, hit)
}

func (s *statsCollector) recordSet(latencyNs int64, ok bool) {
	if ok {
		s.sets.Add(1)
	}
	s.metrics.RecordSet(latencyNs)
}

func (s *statsCollector) recordRemove(latencyNs int64, ok bool) {
	if ok {
		s.removes.Add(1)
	}
	s.metrics.RecordRemove(latencyNs)
}

func (s *statsCollector) recordEvictions(n int) {
	if n <= 0 {
		return
	}
	s.evictions.Add(uint64(n)) // #nosec G115 - n is positive
	s.metrics.RecordEviction(n)
}

func (s *statsCollector) recordExpirations(n int) {
	if n <= 0 {
		return
	}
	s.expirations.Add(uint64(n)) // #nosec G115 - n is positive
	s.metrics.RecordExpiration(n)
}

func (s *statsCollector) recordHydrated(n int) {
	if n > 0 {
		s.hydrated.Add(uint64(n)) // #nosec G115 - n is positive
	}
}

func (s *statsCollector) recordError() {
	s.errors.Add(1)
	s.metrics.RecordError()
}

func (s *statsCollector) snapshot() Stats {
	return Stats{
		Requests:    s.requests.Load(),
		Hits:        s.hits.Load(),
		Misses:      s.misses.Load(),
		Sets:        s.sets.Load(),
		Removes:     s.removes.Load(),
		Evictions:   s.evictions.Load(),
		Expirations: s.expirations.Load(),
		Hydrated:    s.hydrated.Load(),
		Errors:      s.errors.Load(),
	}
}
