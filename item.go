// item.go: cache items and key flattening
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package tiercache

import (
	"strings"
	"time"
)

// Item is a typed snapshot of a cached value and its bookkeeping.
type Item[T any] struct {
	Data           T
	InsertedAt     time.Time
	TTL            time.Duration
	Priority       Priority
	AccessCount    int64
	LastAccessedAt time.Time
	SizeBytes      int64
}

// Expired reports whether the item is past its TTL at now.
func (it Item[T]) Expired(now time.Time) bool {
	return it.TTL > 0 && now.Sub(it.InsertedAt) > it.TTL
}

// entry is the hot tier representation of an item.
// An entry built from a durable record carries only raw until decoded.
type entry struct {
	namespace string
	key       string

	value   any
	decoded bool
	raw     []byte

	insertedAt     int64
	ttl            int64
	priority       Priority
	accessCount    int64
	lastAccessedAt int64
	sizeBytes      int64

	// seq orders entries by admission for eviction tie-breaks.
	seq uint64
}

// expired reports whether now - insertedAt > ttl. A zero ttl never expires.
func (e *entry) expired(now int64) bool {
	return isExpired(e.insertedAt, e.ttl, now)
}

func isExpired(insertedAt, ttl, now int64) bool {
	return ttl > 0 && now-insertedAt > ttl
}

// touch records a hit.
func (e *entry) touch(now int64) {
	e.accessCount++
	e.lastAccessedAt = now
}

// payload is a copy of the value-carrying fields of an entry, taken under
// the hot tier lock and converted outside it.
type payload struct {
	value   any
	decoded bool
	raw     []byte
}

func (e *entry) payload() payload {
	return payload{value: e.value, decoded: e.decoded, raw: e.raw}
}

// itemMeta is the bookkeeping part of an entry.
type itemMeta struct {
	insertedAt     int64
	ttl            int64
	priority       Priority
	accessCount    int64
	lastAccessedAt int64
	sizeBytes      int64
}

func (e *entry) meta() itemMeta {
	return itemMeta{
		insertedAt:     e.insertedAt,
		ttl:            e.ttl,
		priority:       e.priority,
		accessCount:    e.accessCount,
		lastAccessedAt: e.lastAccessedAt,
		sizeBytes:      e.sizeBytes,
	}
}

// FlattenKey builds the single-string key used by both tiers:
// cache:{namespace}:{key}.
func FlattenKey(namespace, key string) string {
	return KeyPrefix + ":" + namespace + ":" + key
}

// NamespacePrefix returns the flat key prefix shared by every key of namespace.
func NamespacePrefix(namespace string) string {
	return KeyPrefix + ":" + namespace + ":"
}

// SplitKey reverses FlattenKey. Keys without the cache prefix, without a
// namespace or without a local key are rejected.
func SplitKey(flat string) (namespace, key string, ok bool) {
	rest, found := strings.CutPrefix(flat, KeyPrefix+":")
	if !found {
		return "", "", false
	}
	namespace, key, found = strings.Cut(rest, ":")
	if !found || namespace == "" || key == "" {
		return "", "", false
	}
	return namespace, key, true
}
