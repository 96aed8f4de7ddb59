// Package tiercache provides a two-tier performance cache: a volatile in-memory
// tier backed by a durable key-value tier, governed by per-namespace policies.
//
// Example usage:
//
//	svc, err := tiercache.New(ctx, tiercache.Config{
//		Registry: tiercache.DefaultRegistry(),
//		Store:    memstore.New(),
//	})
//
//	tiercache.Set(ctx, svc, "appointments", "apt-1", appointment)
//	apt, found := tiercache.Get[Appointment](ctx, svc, "appointments", "apt-1")
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package tiercache

import "time"

const (
	// Version of the tiercache library
	Version = "v0.1.0-dev"

	// KeyPrefix is the first segment of every flattened cache key.
	KeyPrefix = "cache"

	// DefaultMemoryBudget is the default hot tier byte budget (8 MiB)
	DefaultMemoryBudget = 8 << 20

	// DefaultSweepInterval is how often expired items are purged from both tiers
	DefaultSweepInterval = 5 * time.Minute

	// DefaultShrinkThreshold is the resident item count above which a
	// background transition shrinks the hot tier
	DefaultShrinkThreshold = 50

	// DefaultShrinkTarget is the maximum number of items kept by a footprint shrink
	DefaultShrinkTarget = 75
)
