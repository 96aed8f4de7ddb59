// helpers_test.go: shared fakes for tiercache tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package tiercache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testEpoch is the fake clock origin; records need insertedAt > 0.
const testEpoch = int64(1_700_000_000_000_000_000)

// fakeClock is a TimeProvider moved by hand.
type fakeClock struct {
	now atomic.Int64
}

func newFakeClock() *fakeClock {
	c := &fakeClock{}
	c.now.Store(testEpoch)
	return c
}

func (c *fakeClock) Now() int64 {
	return c.now.Load()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now.Add(int64(d))
}

var errInjected = errors.New("injected store failure")

// mapStore is a Store over a map with switchable failures.
type mapStore struct {
	mu     sync.Mutex
	values map[string]string

	failGet    atomic.Bool
	failSet    atomic.Bool
	failRemove atomic.Bool
	failList   atomic.Bool

	gets atomic.Int64
	sets atomic.Int64
}

func newMapStore() *mapStore {
	return &mapStore{values: make(map[string]string)}
}

func (m *mapStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.gets.Add(1)
	if m.failGet.Load() {
		return "", false, errInjected
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mapStore) Set(ctx context.Context, key, value string) error {
	m.sets.Add(1)
	if m.failSet.Load() {
		return errInjected
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *mapStore) Remove(ctx context.Context, key string) error {
	if m.failRemove.Load() {
		return errInjected
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *mapStore) RemoveMany(ctx context.Context, keys []string) error {
	if m.failRemove.Load() {
		return errInjected
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *mapStore) ListKeys(ctx context.Context) ([]string, error) {
	if m.failList.Load() {
		return nil, errInjected
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *mapStore) raw(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *mapStore) put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

func (m *mapStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}

// logEntry is one call captured by recordingLogger.
type logEntry struct {
	level   string
	msg     string
	keyvals []interface{}
}

// recordingLogger keeps every log call for inspection.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) log(level, msg string, keyvals []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, keyvals: keyvals})
}

func (l *recordingLogger) Debug(msg string, keyvals ...interface{}) { l.log("debug", msg, keyvals) }
func (l *recordingLogger) Info(msg string, keyvals ...interface{})  { l.log("info", msg, keyvals) }
func (l *recordingLogger) Warn(msg string, keyvals ...interface{})  { l.log("warn", msg, keyvals) }
func (l *recordingLogger) Error(msg string, keyvals ...interface{}) { l.log("error", msg, keyvals) }

// count returns how many entries were logged at level.
func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

// hasCode reports whether an error entry carried code.
func (l *recordingLogger) hasCode(code string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		for i := 0; i+1 < len(e.keyvals); i += 2 {
			if e.keyvals[i] == "code" && e.keyvals[i+1] == code {
				return true
			}
		}
	}
	return false
}

// mockMetricsCollector counts MetricsCollector calls.
type mockMetricsCollector struct {
	mu          sync.Mutex
	gets        int
	hits        int
	misses      int
	sets        int
	removes     int
	evictions   int
	expirations int
	errors      int
}

func (m *mockMetricsCollector) RecordGet(latencyNs int64, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func (m *mockMetricsCollector) RecordSet(latencyNs int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
}

func (m *mockMetricsCollector) RecordRemove(latencyNs int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removes++
}

func (m *mockMetricsCollector) RecordEviction(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictions += n
}

func (m *mockMetricsCollector) RecordExpiration(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expirations += n
}

func (m *mockMetricsCollector) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors++
}

// newTestService builds a Service with a fake clock and no background
// sweeper unless cfg says otherwise. Destroy runs at cleanup.
func newTestService(t *testing.T, cfg Config) (*Service, *fakeClock) {
	t.Helper()
	clock, ok := cfg.TimeProvider.(*fakeClock)
	if !ok {
		clock = newFakeClock()
		cfg.TimeProvider = clock
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = -1
	}
	svc, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(svc.Destroy)
	return svc, clock
}

// testRegistry builds a Registry from policies, failing the test on error.
func testRegistry(t *testing.T, policies map[string]Policy) *Registry {
	t.Helper()
	r, err := NewRegistry(DefaultPolicy, policies)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return r
}

// checkAccounting verifies the byte counter and namespace index against
// the resident entries.
func checkAccounting(t *testing.T, s *Service) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	indexed := 0
	for _, e := range s.memory.entries {
		sum += e.sizeBytes
	}
	for ns, idx := range s.memory.byNamespace {
		for k, e := range idx {
			if s.memory.entries[k] != e {
				t.Errorf("index %s holds %s which is not resident", ns, k)
			}
		}
		indexed += len(idx)
	}
	if sum != s.memory.bytes {
		t.Errorf("byte counter = %d, sum of sizes = %d", s.memory.bytes, sum)
	}
	if indexed != len(s.memory.entries) {
		t.Errorf("index holds %d entries, map holds %d", indexed, len(s.memory.entries))
	}
	if s.memory.bytes > s.budget {
		t.Errorf("byte counter %d exceeds budget %d", s.memory.bytes, s.budget)
	}
}

func keyN(i int) string {
	return fmt.Sprintf("k%03d", i)
}
