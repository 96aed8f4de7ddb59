// generic.go: type-safe access to the cache
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package tiercache

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Get retrieves the value stored under (namespace, key) as a T.
//
// Values set in this process are returned as stored. Values read back
// from the durable tier are decoded from their JSON form into T. A value
// that cannot be represented as T is reported as a miss and counted in
// Stats().Errors.
//
// Example:
//
//	profile, found := tiercache.Get[Profile](ctx, svc, "user_profile", "u-42")
func Get[T any](ctx context.Context, s *Service, namespace, key string) (T, bool) {
	var zero T
	p, _, found := s.lookup(ctx, namespace, key, "Get", true)
	if !found {
		return zero, false
	}
	v, err := convert[T](s.sizer, p)
	if err != nil {
		s.fail("cached value type mismatch", NewErrTypeMismatch(FlattenKey(namespace, key), typeName[T](), err))
		return zero, false
	}
	return v, true
}

// GetItem is like Get but also returns the item's bookkeeping.
func GetItem[T any](ctx context.Context, s *Service, namespace, key string) (Item[T], bool) {
	p, m, found := s.lookup(ctx, namespace, key, "GetItem", true)
	if !found {
		return Item[T]{}, false
	}
	v, err := convert[T](s.sizer, p)
	if err != nil {
		s.fail("cached value type mismatch", NewErrTypeMismatch(FlattenKey(namespace, key), typeName[T](), err))
		return Item[T]{}, false
	}
	return Item[T]{
		Data:           v,
		InsertedAt:     time.Unix(0, m.insertedAt),
		TTL:            time.Duration(m.ttl),
		Priority:       m.priority,
		AccessCount:    m.accessCount,
		LastAccessedAt: time.Unix(0, m.lastAccessedAt),
		SizeBytes:      m.sizeBytes,
	}, true
}

// Set stores a T under (namespace, key). See Service.SetWithOptions.
func Set[T any](ctx context.Context, s *Service, namespace, key string, value T) bool {
	return s.SetWithOptions(ctx, namespace, key, value, SetOptions{})
}

// GetBatch looks up every key of namespace and returns the values found.
func GetBatch[T any](ctx context.Context, s *Service, namespace string, keys []string) map[string]T {
	out := make(map[string]T, len(keys))
	for _, k := range keys {
		if v, ok := Get[T](ctx, s, namespace, k); ok {
			out[k] = v
		}
	}
	return out
}

// SetBatch stores every item of namespace and returns true only if every
// Set succeeded.
func SetBatch[T any](ctx context.Context, s *Service, namespace string, items map[string]T) bool {
	all := true
	for k, v := range items {
		if !Set(ctx, s, namespace, k, v) {
			all = false
		}
	}
	return all
}

// convert turns a cached payload into a T.
func convert[T any](sizer SizeEstimator, p payload) (T, error) {
	var out T
	if p.decoded {
		if v, ok := p.value.(T); ok {
			return v, nil
		}
		raw, err := sizer.Encode(p.value)
		if err != nil {
			return out, err
		}
		err = sizer.Decode(raw, &out)
		return out, err
	}
	err := sizer.Decode(p.raw, &out)
	return out, err
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

// Namespace is a typed handle on one namespace.
//
// Example:
//
//	shops := tiercache.NewNamespace[int, Shop](svc, "shops")
//	shops.Set(ctx, 7, shop)
//	if s, found := shops.Get(ctx, 7); found {
//	    fmt.Println(s.Name)
//	}
type Namespace[K comparable, V any] struct {
	svc  *Service
	name string
}

// NewNamespace returns a typed handle on namespace.
func NewNamespace[K comparable, V any](s *Service, namespace string) *Namespace[K, V] {
	return &Namespace[K, V]{svc: s, name: namespace}
}

// Name returns the namespace name.
func (n *Namespace[K, V]) Name() string {
	return n.name
}

// Policy returns the policy governing the namespace.
func (n *Namespace[K, V]) Policy() Policy {
	return n.svc.registry.Lookup(n.name)
}

func (n *Namespace[K, V]) Get(ctx context.Context, key K) (V, bool) {
	return Get[V](ctx, n.svc, n.name, keyToString(key))
}

func (n *Namespace[K, V]) Set(ctx context.Context, key K, value V) bool {
	return Set(ctx, n.svc, n.name, keyToString(key), value)
}

func (n *Namespace[K, V]) SetWithOptions(ctx context.Context, key K, value V, opts SetOptions) bool {
	return n.svc.SetWithOptions(ctx, n.name, keyToString(key), value, opts)
}

func (n *Namespace[K, V]) Has(ctx context.Context, key K) bool {
	return n.svc.Has(ctx, n.name, keyToString(key))
}

func (n *Namespace[K, V]) Remove(ctx context.Context, key K) bool {
	return n.svc.Remove(ctx, n.name, keyToString(key))
}

// GetOrSet returns the cached value for key or stores the fallback result.
func (n *Namespace[K, V]) GetOrSet(ctx context.Context, key K, fallback func(context.Context) (V, error)) (V, error) {
	return GetOrSet(ctx, n.svc, n.name, keyToString(key), fallback)
}

// Clear removes every item of the namespace from both tiers.
func (n *Namespace[K, V]) Clear(ctx context.Context) bool {
	return n.svc.ClearNamespace(ctx, n.name)
}

// keyToString converts a key of any comparable type to string.
// Common types avoid fmt; everything else is formatted with %v.
func keyToString[K comparable](key K) string {
	switch v := any(key).(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	default:
		return fmt.Sprintf("%v", key)
	}
}
