// sweeper.go: periodic expiration of both tiers
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package tiercache

import (
	"context"
	"sync"
	"time"
)

// sweeper runs a function on a fixed interval until stopped.
type sweeper struct {
	interval time.Duration
	run      func(ctx context.Context)

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func newSweeper(interval time.Duration, run func(ctx context.Context)) *sweeper {
	return &sweeper{interval: interval, run: run}
}

// start launches the ticker goroutine.
func (sw *sweeper) start() {
	ctx, cancel := context.WithCancel(context.Background())
	sw.cancel = cancel
	sw.wg.Add(1)
	go func() {
		defer sw.wg.Done()
		ticker := time.NewTicker(sw.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sw.run(ctx)
			}
		}
	}()
}

// stop cancels an in-flight run and waits for the goroutine to exit.
func (sw *sweeper) stop() {
	sw.once.Do(func() {
		if sw.cancel != nil {
			sw.cancel()
		}
		sw.wg.Wait()
	})
}

// SweepReport describes one expiration pass over both tiers.
type SweepReport struct {
	// MemoryExpired is the number of hot tier items purged
	MemoryExpired int

	// DurableScanned is the number of durable cache records inspected
	DurableScanned int

	// DurableExpired is the number of durable records past their TTL
	DurableExpired int

	// DurableCorrupt is the number of durable records that failed to parse
	DurableCorrupt int

	// DurableOrphaned is the number of durable records of namespaces that
	// do not persist
	DurableOrphaned int

	// DurableRemoved is the number of durable records deleted
	DurableRemoved int

	// Errors is the number of durable I/O failures met during the pass
	Errors int
}

// Sweep purges expired items from the hot tier, then removes expired,
// corrupt and orphaned records from the durable tier. The pass is not
// transactional: interrupted progress is picked up by the next access or
// sweep.
func (s *Service) Sweep(ctx context.Context) SweepReport {
	var rep SweepReport
	if s.destroyed.Load() {
		return rep
	}

	now := s.now()
	s.mu.Lock()
	rep.MemoryExpired = s.memory.removeExpired(now)
	s.mu.Unlock()
	s.stats.recordExpirations(rep.MemoryExpired)

	if s.durable == nil {
		return rep
	}

	scan, err := s.durable.scan(ctx, now, s.registry.Persists, nil)
	if err != nil {
		rep.Errors++
		s.fail("durable sweep failed", err)
		return rep
	}
	rep.DurableScanned = scan.scanned
	rep.DurableExpired = scan.expired
	rep.DurableCorrupt = scan.corrupt
	rep.DurableOrphaned = scan.orphaned
	rep.DurableRemoved = scan.removed
	rep.Errors = len(scan.errs)
	for _, e := range scan.errs {
		s.fail("durable sweep step failed", e)
	}
	s.stats.recordExpirations(scan.expired)

	s.logger.Debug("sweep completed",
		"memory_expired", rep.MemoryExpired,
		"durable_scanned", rep.DurableScanned,
		"durable_removed", rep.DurableRemoved,
		"errors", rep.Errors)
	return rep
}
