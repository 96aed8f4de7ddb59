// metrics_test.go: tests for metrics forwarding, statistics and logging adapters
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package tiercache

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNoOpMetricsCollector_Concurrent(t *testing.T) {
	collector := NoOpMetricsCollector{}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				collector.RecordGet(int64(j), j%2 == 0)
				collector.RecordSet(int64(j))
				collector.RecordRemove(int64(j))
				collector.RecordEviction(1)
				collector.RecordExpiration(1)
				collector.RecordError()
			}
		}()
	}
	wg.Wait()
}

func TestMetricsCollector_Forwarding(t *testing.T) {
	ctx := context.Background()
	metrics := &mockMetricsCollector{}
	reg := testRegistry(t, map[string]Policy{
		"small": {TTL: time.Second, MaxItems: 2, Priority: PriorityLow},
	})
	svc, clock := newTestService(t, Config{Registry: reg, MetricsCollector: metrics})

	svc.Set(ctx, "small", "a", 1)
	svc.Set(ctx, "small", "b", 2)
	svc.Set(ctx, "small", "c", 3) // evicts one
	svc.Get(ctx, "small", "c")
	svc.Get(ctx, "small", "missing")
	svc.Remove(ctx, "small", "c")
	svc.Set(ctx, "small", "", 1) // invalid key
	clock.Advance(2 * time.Second)
	svc.Sweep(ctx)

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if metrics.sets != 4 {
		t.Errorf("sets = %d, want 4", metrics.sets)
	}
	if metrics.gets != 2 || metrics.hits != 1 || metrics.misses != 1 {
		t.Errorf("gets=%d hits=%d misses=%d", metrics.gets, metrics.hits, metrics.misses)
	}
	if metrics.removes != 1 {
		t.Errorf("removes = %d, want 1", metrics.removes)
	}
	if metrics.evictions != 1 {
		t.Errorf("evictions = %d, want 1", metrics.evictions)
	}
	if metrics.expirations != 1 {
		t.Errorf("expirations = %d, want 1", metrics.expirations)
	}
	if metrics.errors != 1 {
		t.Errorf("errors = %d, want 1", metrics.errors)
	}
}

func TestStats_Percentages(t *testing.T) {
	tests := []struct {
		name     string
		stats    Stats
		hitRate  float64
		memUsage float64
	}{
		{"empty", Stats{}, 0, 0},
		{"all hits", Stats{Hits: 4, MemoryBytes: 50, MemoryBudget: 100}, 100, 50},
		{"quarter", Stats{Hits: 1, Misses: 3, MemoryBytes: 100, MemoryBudget: 100}, 25, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stats.HitRate(); got != tt.hitRate {
				t.Errorf("HitRate() = %v, want %v", got, tt.hitRate)
			}
			if got := tt.stats.MemoryUsage(); got != tt.memUsage {
				t.Errorf("MemoryUsage() = %v, want %v", got, tt.memUsage)
			}
		})
	}
}

func TestStatsCollector_IgnoresNonPositive(t *testing.T) {
	s := newStatsCollector(NoOpMetricsCollector{})
	s.recordEvictions(0)
	s.recordEvictions(-2)
	s.recordExpirations(0)
	s.recordHydrated(-1)
	s.recordSet(10, false)
	s.recordRemove(10, false)

	snap := s.snapshot()
	if snap.Evictions != 0 || snap.Expirations != 0 || snap.Hydrated != 0 {
		t.Errorf("non-positive counts must be ignored: %+v", snap)
	}
	if snap.Sets != 0 || snap.Removes != 0 {
		t.Errorf("failed operations are not counted: %+v", snap)
	}
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	l.Debug("d", "k", 1)
	l.Info("i")
	l.Warn("w")
	l.Error("e", "code", "X")

	out := buf.String()
	for _, want := range []string{"level=DEBUG", "k=1", "level=INFO", "level=WARN", "level=ERROR", "code=X"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if NewSlogLogger(nil) == nil {
		t.Error("nil slog logger should fall back to the default")
	}
}

func TestService_LogsFailures(t *testing.T) {
	logger := &recordingLogger{}
	svc, _ := newTestService(t, Config{Logger: logger})

	svc.Get(context.Background(), "bad:ns", "k")
	if !logger.hasCode(string(ErrCodeInvalidNamespace)) {
		t.Error("invalid namespace should be logged with its code")
	}
	if logger.count("info") == 0 {
		t.Error("startup should be logged at info")
	}
}
