// config.go: configuration for tiercache
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package tiercache

import (
	"time"

	"github.com/agilira/go-timecache"
)

// Config holds configuration parameters for a Service.
type Config struct {
	// Registry maps namespaces to policies.
	// If nil, DefaultRegistry() is used.
	Registry *Registry

	// MemoryBudget is the hot tier byte budget.
	// Must be > 0. Default: DefaultMemoryBudget.
	MemoryBudget int64

	// HostProfile scales MemoryBudget and namespace caps once at startup.
	// Default: HostStandard.
	HostProfile HostProfile

	// Store is the durable tier. If nil, persisting namespaces behave as
	// hot-tier-only namespaces.
	Store Store

	// Lifecycle delivers foreground/background transitions.
	// If nil, no footprint shrinking happens.
	Lifecycle LifecycleSource

	// SweepInterval is how often expired items are purged from both tiers.
	// Negative disables the background sweeper. Default: DefaultSweepInterval.
	SweepInterval time.Duration

	// ShrinkThreshold is the resident item count above which a background
	// transition shrinks the hot tier. Default: DefaultShrinkThreshold.
	ShrinkThreshold int

	// ShrinkTarget is the item cap applied by a footprint shrink.
	// Default: DefaultShrinkTarget.
	ShrinkTarget int

	// SkipHydration disables the startup hydration pass.
	SkipHydration bool

	// Sizer estimates item sizes and encodes values for the durable tier.
	// If nil, JSONSizer is used.
	Sizer SizeEstimator

	// Logger is used for debugging and monitoring.
	// If nil, NoOpLogger is used.
	Logger Logger

	// TimeProvider provides current time for TTL calculations.
	// If nil, a go-timecache backed clock is used.
	TimeProvider TimeProvider

	// MetricsCollector receives per-operation events.
	// If nil, NoOpMetricsCollector is used.
	MetricsCollector MetricsCollector
}

// Validate checks configuration parameters and applies defaults.
//
// Default values applied:
//   - Registry: DefaultRegistry() if nil
//   - MemoryBudget: DefaultMemoryBudget if 0
//   - SweepInterval: DefaultSweepInterval if 0
//   - ShrinkThreshold: DefaultShrinkThreshold if 0
//   - ShrinkTarget: DefaultShrinkTarget if 0
//   - Sizer: JSONSizer{} if nil
//   - Logger: NoOpLogger{} if nil
//   - TimeProvider: go-timecache clock if nil
//   - MetricsCollector: NoOpMetricsCollector{} if nil
//
// Negative budgets, thresholds and targets are rejected.
func (c *Config) Validate() error {
	if c.MemoryBudget < 0 {
		return NewErrInvalidConfig("MemoryBudget", c.MemoryBudget)
	}
	if c.ShrinkThreshold < 0 {
		return NewErrInvalidConfig("ShrinkThreshold", c.ShrinkThreshold)
	}
	if c.ShrinkTarget < 0 {
		return NewErrInvalidConfig("ShrinkTarget", c.ShrinkTarget)
	}

	if c.Registry == nil {
		c.Registry = DefaultRegistry()
	}

	if c.MemoryBudget == 0 {
		c.MemoryBudget = DefaultMemoryBudget
	}

	if c.SweepInterval == 0 {
		c.SweepInterval = DefaultSweepInterval
	}

	if c.ShrinkThreshold == 0 {
		c.ShrinkThreshold = DefaultShrinkThreshold
	}

	if c.ShrinkTarget == 0 {
		c.ShrinkTarget = DefaultShrinkTarget
	}

	if c.Sizer == nil {
		c.Sizer = JSONSizer{}
	}

	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}

	if c.TimeProvider == nil {
		c.TimeProvider = &systemTimeProvider{}
	}

	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults and no durable store.
func DefaultConfig() Config {
	return Config{
		Registry:         DefaultRegistry(),
		MemoryBudget:     DefaultMemoryBudget,
		SweepInterval:    DefaultSweepInterval,
		ShrinkThreshold:  DefaultShrinkThreshold,
		ShrinkTarget:     DefaultShrinkTarget,
		Sizer:            JSONSizer{},
		Logger:           NoOpLogger{},
		TimeProvider:     &systemTimeProvider{},
		MetricsCollector: NoOpMetricsCollector{},
	}
}

// systemTimeProvider is the default time provider using go-timecache.
type systemTimeProvider struct{}

func (t *systemTimeProvider) Now() int64 {
	return timecache.CachedTimeNano()
}
