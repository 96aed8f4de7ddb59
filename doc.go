// Package tiercache provides a process-wide, two-tier performance cache: a
// volatile in-memory hot tier in front of a durable key-value cold tier,
// governed by per-namespace policies and a global byte budget.
//
// # Overview
//
// Every item lives in a namespace. A namespace Policy decides how long items
// stay valid (TTL), how many may be resident in memory (MaxItems), how hard
// they fight eviction (Priority) and whether they are mirrored to the durable
// tier (Persist). Policies are fixed for the life of a Service.
//
//	svc, err := tiercache.New(ctx, tiercache.Config{
//	    Registry: tiercache.DefaultRegistry(),
//	    Store:    sqlitestore.MustOpen("cache.db"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Destroy()
//
//	tiercache.Set(ctx, svc, "appointments", "apt-1", appointment)
//	apt, found := tiercache.Get[Appointment](ctx, svc, "appointments", "apt-1")
//
// # Tiers
//
// The hot tier is a map keyed by "cache:{namespace}:{key}" with a
// per-namespace index and a running byte counter. An item enters the hot
// tier only if its namespace is below its cap and the byte budget has room.
// A Set on a full namespace first evicts the weakest item of that
// namespace: lower priority first, then least recently accessed, then
// least accessed, then oldest.
//
// The cold tier is any Store implementation. Subpackages provide three:
//   - store/memstore: a map, for tests and ephemeral processes
//   - store/fsstore: one file per key on a go-billy filesystem
//   - store/sqlitestore: a single SQLite table
//
// Items of persisting namespaces are written through on Set, read through
// on a hot miss and hydrated at startup when their namespace has high
// priority. Durable records are JSON documents carrying the item's
// bookkeeping; corrupt or expired records are deleted wherever they are met.
//
// # Expiration
//
// An item is expired when now - insertedAt > ttl; a zero TTL never expires.
// Expired items are never returned. They are removed lazily on access and in
// bulk by a background sweeper (every DefaultSweepInterval unless
// configured), which also removes durable records of namespaces that no
// longer persist. Service.Sweep runs the same pass on demand.
//
// # Lifecycle
//
// Hosts with a foreground/background notion pass a LifecycleSource. When the
// application leaves the foreground with more than ShrinkThreshold items
// resident, the hot tier keeps at most ShrinkTarget high and medium
// priority items and drops everything else.
//
// # Error Handling
//
// The facade fails open: Get reports a miss and Set/Remove report false
// instead of returning errors. Every caught failure is counted in
// Stats().Errors and logged through the configured Logger with a stable
// error code:
//
//	if !svc.Set(ctx, "shops", id, shop) {
//	    // serialization or durable write failed, see logs
//	}
//
// GetOrSet and Preload return loader errors to the caller, since the
// loader result is authoritative.
//
// # Observability
//
// Stats returns counters and hot tier usage. The otel subpackage implements
// MetricsCollector with OpenTelemetry instruments, and the prom subpackage
// exposes Stats as a Prometheus collector.
//
// # Packages
//
//   - github.com/agilira/tiercache: core service
//   - github.com/agilira/tiercache/store/...: durable backends
//   - github.com/agilira/tiercache/otel: OpenTelemetry metrics
//   - github.com/agilira/tiercache/prom: Prometheus collector
//   - github.com/agilira/tiercache/cmd/tierctl: offline store inspection
//
// # License
//
// See LICENSE file in the repository.
package tiercache
