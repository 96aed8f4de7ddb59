// memory.go: hot tier storage, admission and eviction
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package tiercache

import (
	"sort"
)

// memoryStore is the hot tier: a flat-key map, a per-namespace index over
// the same entries and a running byte counter.
//
// memoryStore is not safe for concurrent use; the Service serializes every
// call under its mutex. Each method leaves the map, the index and the
// counter consistent before returning.
type memoryStore struct {
	entries     map[string]*entry
	byNamespace map[string]map[string]*entry
	bytes       int64
	budget      int64
	seq         uint64
}

func newMemoryStore(budget int64) *memoryStore {
	return &memoryStore{
		entries:     make(map[string]*entry),
		byNamespace: make(map[string]map[string]*entry),
		budget:      budget,
	}
}

// get returns the entry stored under flat. An expired entry is removed and
// reported with expired == true.
func (m *memoryStore) get(flat string, now int64) (e *entry, expired bool) {
	e = m.entries[flat]
	if e == nil {
		return nil, false
	}
	if e.expired(now) {
		m.removeEntry(e)
		return nil, true
	}
	return e, false
}

// has reports whether an unexpired entry is stored under flat without
// touching it.
func (m *memoryStore) has(flat string, now int64) bool {
	e := m.entries[flat]
	return e != nil && !e.expired(now)
}

// contains reports whether any entry, expired or not, is stored under flat.
func (m *memoryStore) contains(flat string) bool {
	return m.entries[flat] != nil
}

// canAdmit reports whether candidate fits without breaking the namespace
// cap or the byte budget. Replacing an existing key does not change the
// namespace count and frees the old item's bytes.
func (m *memoryStore) canAdmit(candidate *entry, maxItems int) bool {
	var freed int64
	if old := m.entries[candidate.key]; old != nil {
		freed = old.sizeBytes
	} else if len(m.byNamespace[candidate.namespace]) >= maxItems {
		return false
	}
	return m.bytes-freed+candidate.sizeBytes <= m.budget
}

// insert stores e, replacing any entry under the same key.
// The caller must have checked canAdmit.
func (m *memoryStore) insert(e *entry) {
	if old := m.entries[e.key]; old != nil {
		m.removeEntry(old)
	}
	m.seq++
	e.seq = m.seq
	m.entries[e.key] = e
	ns := m.byNamespace[e.namespace]
	if ns == nil {
		ns = make(map[string]*entry)
		m.byNamespace[e.namespace] = ns
	}
	ns[e.key] = e
	m.bytes += e.sizeBytes
}

// remove deletes the entry under flat and reports whether one existed.
func (m *memoryStore) remove(flat string) bool {
	e := m.entries[flat]
	if e == nil {
		return false
	}
	m.removeEntry(e)
	return true
}

func (m *memoryStore) removeEntry(e *entry) {
	delete(m.entries, e.key)
	if ns := m.byNamespace[e.namespace]; ns != nil {
		delete(ns, e.key)
		if len(ns) == 0 {
			delete(m.byNamespace, e.namespace)
		}
	}
	m.bytes -= e.sizeBytes
}

// evict removes victims from namespace until at most target entries remain.
// It returns the number of entries removed.
func (m *memoryStore) evict(namespace string, target int) int {
	victims := m.victims(namespace, target)
	for _, e := range victims {
		m.removeEntry(e)
	}
	return len(victims)
}

// victims returns the entries evict would remove from namespace to get
// down to target entries, in eviction order. Nothing is removed.
func (m *memoryStore) victims(namespace string, target int) []*entry {
	if target < 0 {
		target = 0
	}
	ns := m.byNamespace[namespace]
	if len(ns) <= target {
		return nil
	}
	all := make([]*entry, 0, len(ns))
	for _, e := range ns {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool {
		return evictsBefore(all[i], all[j])
	})
	return all[:len(all)-target]
}

// admit inserts candidate, first evicting its namespace down to
// maxItems-1 entries when a new key arrives at a full namespace. The
// budget is checked against the bytes left after those evictions, and
// when the candidate still does not fit nothing is evicted or inserted.
func (m *memoryStore) admit(candidate *entry, maxItems int) (evicted int, ok bool) {
	if old := m.entries[candidate.key]; old != nil {
		if m.bytes-old.sizeBytes+candidate.sizeBytes > m.budget {
			return 0, false
		}
		m.insert(candidate)
		return 0, true
	}

	victims := m.victims(candidate.namespace, maxItems-1)
	var freed int64
	for _, e := range victims {
		freed += e.sizeBytes
	}
	if m.bytes-freed+candidate.sizeBytes > m.budget {
		return 0, false
	}
	for _, e := range victims {
		m.removeEntry(e)
	}
	m.insert(candidate)
	return len(victims), true
}

// evictsBefore orders eviction victims: lower priority first, then least
// recently accessed, then least accessed, then earliest admitted.
func evictsBefore(a, b *entry) bool {
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	if a.lastAccessedAt != b.lastAccessedAt {
		return a.lastAccessedAt < b.lastAccessedAt
	}
	if a.accessCount != b.accessCount {
		return a.accessCount < b.accessCount
	}
	return a.seq < b.seq
}

// shrinkToFootprint keeps at most maxItems high or medium priority entries
// across all namespaces and drops everything else. It returns the number
// of entries removed.
func (m *memoryStore) shrinkToFootprint(maxItems int) int {
	keep := make([]*entry, 0, len(m.entries))
	drop := make([]*entry, 0)
	for _, e := range m.entries {
		if e.priority >= PriorityMedium {
			keep = append(keep, e)
		} else {
			drop = append(drop, e)
		}
	}
	if maxItems < 0 {
		maxItems = 0
	}
	if len(keep) > maxItems {
		// best survivors first
		sort.Slice(keep, func(i, j int) bool {
			return evictsBefore(keep[j], keep[i])
		})
		drop = append(drop, keep[maxItems:]...)
	}
	for _, e := range drop {
		m.removeEntry(e)
	}
	return len(drop)
}

// removeExpired drops every entry past its TTL and returns how many.
func (m *memoryStore) removeExpired(now int64) int {
	n := 0
	for _, e := range m.entries {
		if e.expired(now) {
			m.removeEntry(e)
			n++
		}
	}
	return n
}

// clearNamespace drops every entry of namespace and returns how many.
func (m *memoryStore) clearNamespace(namespace string) int {
	ns := m.byNamespace[namespace]
	n := len(ns)
	for _, e := range ns {
		m.removeEntry(e)
	}
	return n
}

// clear drops every entry.
func (m *memoryStore) clear() int {
	n := len(m.entries)
	m.entries = make(map[string]*entry)
	m.byNamespace = make(map[string]map[string]*entry)
	m.bytes = 0
	return n
}

func (m *memoryStore) len() int {
	return len(m.entries)
}

func (m *memoryStore) count(namespace string) int {
	return len(m.byNamespace[namespace])
}

func (m *memoryStore) usedBytes() int64 {
	return m.bytes
}
