// service.go: the two-tier cache facade
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package tiercache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Service composes the hot tier, the durable tier, the sweeper and the
// lifecycle observer behind a fail-open API: no method returns cache
// subsystem errors or panics because the durable store misbehaves.
// Failures are counted in Stats().Errors and logged.
//
// A Service is built once at process start with New and torn down with
// Destroy. All methods are safe for concurrent use.
type Service struct {
	// mu guards memory. No I/O happens while it is held.
	mu     sync.Mutex
	memory *memoryStore

	durable  *persistentTier
	registry *Registry
	sizer    SizeEstimator
	logger   Logger
	clock    TimeProvider
	stats    *statsCollector
	budget   int64

	shrinkThreshold int
	shrinkTarget    int

	sweeper      *sweeper
	lifecycle    LifecycleSource
	subscription SubscriptionHandle

	preloads  singleflight.Group
	destroyed atomic.Bool
}

// SetOptions overrides the namespace policy for a single Set.
type SetOptions struct {
	// TTL replaces the namespace TTL when > 0.
	TTL time.Duration

	// Priority replaces the namespace priority when valid.
	Priority Priority
}

// New builds a Service from cfg, hydrates high-priority durable records,
// starts the expiration sweeper and subscribes to lifecycle transitions.
// Only configuration errors are returned; hydration failures are counted
// and logged.
func New(ctx context.Context, cfg Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	applyHostProfile(&cfg)

	s := &Service{
		memory:          newMemoryStore(cfg.MemoryBudget),
		registry:        cfg.Registry,
		sizer:           cfg.Sizer,
		logger:          cfg.Logger,
		clock:           cfg.TimeProvider,
		stats:           newStatsCollector(cfg.MetricsCollector),
		budget:          cfg.MemoryBudget,
		shrinkThreshold: cfg.ShrinkThreshold,
		shrinkTarget:    cfg.ShrinkTarget,
		lifecycle:       cfg.Lifecycle,
	}
	if cfg.Store != nil {
		s.durable = &persistentTier{store: cfg.Store}
	}

	if s.durable != nil && !cfg.SkipHydration {
		s.hydrate(ctx)
	}

	if cfg.SweepInterval > 0 {
		s.sweeper = newSweeper(cfg.SweepInterval, func(ctx context.Context) {
			s.Sweep(ctx)
		})
		s.sweeper.start()
	}

	if s.lifecycle != nil {
		s.subscription = s.lifecycle.Subscribe(s.onTransition)
	}

	s.logger.Info("cache service started",
		"memory_budget", s.budget,
		"host_profile", cfg.HostProfile.String(),
		"persistent", s.durable != nil,
		"items", s.memory.len())
	return s, nil
}

// hydrate admits unexpired records of high-priority namespaces into the
// hot tier while they fit, and deletes expired or corrupt records.
func (s *Service) hydrate(ctx context.Context) {
	now := s.now()
	admitted := 0
	rep, err := s.durable.scan(ctx, now, s.registry.Persists, func(e *entry) {
		policy := s.registry.Lookup(e.namespace)
		if policy.Priority != PriorityHigh {
			return
		}
		s.mu.Lock()
		if !s.memory.contains(e.key) && s.memory.canAdmit(e, policy.MaxItems) {
			s.memory.insert(e)
			admitted++
		}
		s.mu.Unlock()
	})
	if err != nil {
		s.fail("hydration failed", err)
		return
	}
	for _, e := range rep.errs {
		s.fail("hydration step failed", e)
	}
	s.stats.recordHydrated(admitted)
	s.stats.recordExpirations(rep.expired)
	s.logger.Info("hydration completed",
		"scanned", rep.scanned,
		"admitted", admitted,
		"expired", rep.expired,
		"corrupt", rep.corrupt,
		"orphaned", rep.orphaned)
}

// Get returns the value stored under (namespace, key).
// Values read back from the durable tier are decoded into their generic
// JSON form; use the typed Get for concrete types.
func (s *Service) Get(ctx context.Context, namespace, key string) (any, bool) {
	p, _, found := s.lookup(ctx, namespace, key, "Get", true)
	if !found {
		return nil, false
	}
	if p.decoded {
		return p.value, true
	}
	var v any
	if err := s.sizer.Decode(p.raw, &v); err != nil {
		s.fail("cached value decode failed", NewErrTypeMismatch(FlattenKey(namespace, key), "any", err))
		return nil, false
	}
	return v, true
}

// Has reports whether (namespace, key) is present in either tier. It does
// not count as a lookup and does not update access bookkeeping.
func (s *Service) Has(ctx context.Context, namespace, key string) bool {
	_, _, found := s.lookup(ctx, namespace, key, "Has", false)
	return found
}

// lookup implements the tier fallthrough. counted lookups update hit/miss
// statistics and access bookkeeping.
func (s *Service) lookup(ctx context.Context, namespace, key, op string, counted bool) (payload, itemMeta, bool) {
	start := time.Now()
	p, m, found := s.lookupTiers(ctx, namespace, key, op, counted)
	if counted {
		s.stats.recordGet(time.Since(start).Nanoseconds(), found)
	}
	return p, m, found
}

func (s *Service) lookupTiers(ctx context.Context, namespace, key, op string, counted bool) (payload, itemMeta, bool) {
	if s.destroyed.Load() {
		return payload{}, itemMeta{}, false
	}
	if err := validateKey(namespace, key, op); err != nil {
		s.fail("invalid cache key", err)
		return payload{}, itemMeta{}, false
	}

	flat := FlattenKey(namespace, key)
	now := s.now()

	s.mu.Lock()
	e, expired := s.memory.get(flat, now)
	if e != nil {
		if counted {
			e.touch(now)
		}
		p, m := e.payload(), e.meta()
		s.mu.Unlock()
		return p, m, true
	}
	s.mu.Unlock()
	if expired {
		s.stats.recordExpirations(1)
	}

	policy := s.registry.Lookup(namespace)
	if !policy.Persist || s.durable == nil {
		return payload{}, itemMeta{}, false
	}

	de, outcome, err := s.durable.read(ctx, flat, now)
	if err != nil {
		s.fail("durable read failed", err)
	}
	switch outcome {
	case readExpired:
		s.stats.recordExpirations(1)
	case readCorrupt:
		s.logger.Warn("corrupt durable record removed", "key", flat)
	}
	if outcome != readFound {
		return payload{}, itemMeta{}, false
	}

	if counted {
		de.touch(now)
	}
	s.mu.Lock()
	if cur := s.memory.entries[flat]; cur != nil && !cur.expired(now) {
		// a concurrent Set won the race; it is newer than the durable copy
		if counted {
			cur.touch(now)
		}
		p, m := cur.payload(), cur.meta()
		s.mu.Unlock()
		return p, m, true
	}
	admitted := !s.destroyed.Load() && s.memory.canAdmit(de, policy.MaxItems)
	if admitted {
		s.memory.insert(de)
	}
	p, m := de.payload(), de.meta()
	s.mu.Unlock()

	if admitted {
		s.stats.recordHydrated(1)
	}
	return p, m, true
}

// Set stores data under (namespace, key) with the namespace policy.
func (s *Service) Set(ctx context.Context, namespace, key string, data any) bool {
	return s.SetWithOptions(ctx, namespace, key, data, SetOptions{})
}

// SetWithOptions stores data under (namespace, key). The item is admitted
// into the hot tier if it fits, evicting from a full namespace first, and
// written through to the durable tier when the namespace persists.
//
// It returns false only when data cannot be serialized or the durable
// write fails. An item too large for the hot tier is not an error.
func (s *Service) SetWithOptions(ctx context.Context, namespace, key string, data any, opts SetOptions) bool {
	start := time.Now()
	ok := s.set(ctx, namespace, key, data, opts)
	s.stats.recordSet(time.Since(start).Nanoseconds(), ok)
	return ok
}

func (s *Service) set(ctx context.Context, namespace, key string, data any, opts SetOptions) bool {
	if s.destroyed.Load() {
		return false
	}
	if err := validateKey(namespace, key, "Set"); err != nil {
		s.fail("invalid cache key", err)
		return false
	}

	flat := FlattenKey(namespace, key)
	policy := s.registry.Lookup(namespace)

	raw, err := s.sizer.Encode(data)
	if err != nil {
		s.fail("value serialization failed", NewErrSerializationFailed(flat, err))
		return false
	}

	ttl := policy.TTL
	if opts.TTL > 0 {
		ttl = opts.TTL
	}
	priority := policy.Priority
	if opts.Priority.Valid() {
		priority = opts.Priority
	}

	now := s.now()
	e := &entry{
		namespace:      namespace,
		key:            flat,
		value:          data,
		decoded:        true,
		insertedAt:     now,
		ttl:            int64(ttl),
		priority:       priority,
		accessCount:    1,
		lastAccessedAt: now,
		sizeBytes:      int64(len(raw)),
	}

	persist := policy.Persist && s.durable != nil
	var rec string
	if persist {
		// encoded before e is shared with readers
		rec, err = encodeRecord(e, raw)
		if err != nil {
			s.fail("record serialization failed", NewErrSerializationFailed(flat, err))
			return false
		}
	}

	s.mu.Lock()
	// Destroy may have cleared the hot tier since the check above
	if s.destroyed.Load() {
		s.mu.Unlock()
		return false
	}
	evicted, admitted := s.memory.admit(e, policy.MaxItems)
	if !admitted {
		// never leave an older value visible behind a rejected write
		s.memory.remove(flat)
	}
	s.mu.Unlock()

	s.stats.recordEvictions(evicted)
	if !admitted {
		s.logger.Debug("hot tier admission skipped", "key", flat, "size", e.sizeBytes)
	}

	if persist {
		if err := s.durable.put(ctx, flat, rec); err != nil {
			s.fail("durable write failed", err)
			return false
		}
	}
	return true
}

// Remove deletes (namespace, key) from both tiers. Removing a missing key
// succeeds. It returns false if the durable removal fails.
func (s *Service) Remove(ctx context.Context, namespace, key string) bool {
	start := time.Now()
	ok := s.remove(ctx, namespace, key)
	s.stats.recordRemove(time.Since(start).Nanoseconds(), ok)
	return ok
}

func (s *Service) remove(ctx context.Context, namespace, key string) bool {
	if s.destroyed.Load() {
		return false
	}
	if err := validateKey(namespace, key, "Remove"); err != nil {
		s.fail("invalid cache key", err)
		return false
	}
	flat := FlattenKey(namespace, key)

	s.mu.Lock()
	s.memory.remove(flat)
	s.mu.Unlock()

	if s.durable != nil && s.registry.Persists(namespace) {
		if err := s.durable.remove(ctx, flat); err != nil {
			s.fail("durable remove failed", err)
			return false
		}
	}
	return true
}

// ClearNamespace deletes every item of namespace from both tiers.
func (s *Service) ClearNamespace(ctx context.Context, namespace string) bool {
	if s.destroyed.Load() {
		return false
	}
	if err := ValidateNamespace(namespace); err != nil {
		s.fail("invalid namespace", err)
		return false
	}

	s.mu.Lock()
	n := s.memory.clearNamespace(namespace)
	s.mu.Unlock()
	s.logger.Debug("namespace cleared", "namespace", namespace, "items", n)

	return s.clearDurable(ctx, NamespacePrefix(namespace))
}

// ClearAll deletes every cache item from both tiers. Durable keys that do
// not carry the cache prefix are left alone.
func (s *Service) ClearAll(ctx context.Context) bool {
	if s.destroyed.Load() {
		return false
	}

	s.mu.Lock()
	n := s.memory.clear()
	s.mu.Unlock()
	s.logger.Debug("cache cleared", "items", n)

	return s.clearDurable(ctx, KeyPrefix+":")
}

func (s *Service) clearDurable(ctx context.Context, prefix string) bool {
	if s.durable == nil {
		return true
	}
	keys, err := s.durable.keysWithPrefix(ctx, prefix)
	if err != nil {
		s.fail("durable key listing failed", err)
		return false
	}
	if err := s.durable.removeMany(ctx, keys); err != nil {
		s.fail("durable remove failed", err)
		return false
	}
	return true
}

// GetBatch looks up every key of namespace and returns the values found.
func (s *Service) GetBatch(ctx context.Context, namespace string, keys []string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := s.Get(ctx, namespace, k); ok {
			out[k] = v
		}
	}
	return out
}

// SetBatch stores every item of namespace. There is no cross-key
// atomicity; it returns true only if every Set succeeded.
func (s *Service) SetBatch(ctx context.Context, namespace string, items map[string]any) bool {
	all := true
	for k, v := range items {
		if !s.Set(ctx, namespace, k, v) {
			all = false
		}
	}
	return all
}

// Stats returns a snapshot of counters and hot tier usage.
func (s *Service) Stats() Stats {
	st := s.stats.snapshot()
	s.mu.Lock()
	st.ItemCount = s.memory.len()
	st.MemoryBytes = s.memory.usedBytes()
	s.mu.Unlock()
	st.MemoryBudget = s.budget
	return st
}

// Registry returns the namespace policies in effect.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Destroy stops the sweeper, unsubscribes from lifecycle transitions and
// clears the hot tier. The durable tier is left intact. Destroy is
// terminal: later calls are no-ops returning a miss or false.
func (s *Service) Destroy() {
	if !s.destroyed.CompareAndSwap(false, true) {
		return
	}
	if s.sweeper != nil {
		s.sweeper.stop()
	}
	if s.lifecycle != nil {
		s.lifecycle.Unsubscribe(s.subscription)
	}
	s.mu.Lock()
	s.memory.clear()
	s.mu.Unlock()
	s.logger.Info("cache service destroyed")
}

// Destroyed reports whether Destroy has been called.
func (s *Service) Destroyed() bool {
	return s.destroyed.Load()
}

func (s *Service) now() int64 {
	return s.clock.Now()
}

// fail counts and logs a caught failure.
func (s *Service) fail(msg string, err error) {
	s.stats.recordError()
	s.logger.Error(msg, "error", err, "code", string(GetErrorCode(err)))
}

func validateKey(namespace, key, op string) error {
	if err := ValidateNamespace(namespace); err != nil {
		return err
	}
	if key == "" {
		return NewErrInvalidKey(namespace, op)
	}
	return nil
}
