// registry.go: per-namespace cache policies
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package tiercache

import (
	"sort"
	"strings"
	"time"
)

// Priority ranks items for eviction and footprint shrinking.
// Higher values survive longer.
type Priority int8

const (
	// PriorityLow items are evicted first and dropped by a footprint shrink.
	PriorityLow Priority = iota + 1
	// PriorityMedium items survive a footprint shrink if room remains.
	PriorityMedium
	// PriorityHigh items are evicted last and hydrated eagerly at startup.
	PriorityHigh
)

// String returns the wire name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Valid reports whether p is one of the three defined priorities.
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityHigh
}

// ParsePriority converts a wire name into a Priority.
func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, true
	case "medium":
		return PriorityMedium, true
	case "high":
		return PriorityHigh, true
	}
	return 0, false
}

// Policy governs every item stored in one namespace.
type Policy struct {
	// TTL is how long an item stays valid after insertion.
	// Zero means items never expire.
	TTL time.Duration

	// MaxItems caps the number of hot tier items of the namespace. Must be > 0.
	MaxItems int

	// Priority is assigned to items unless a Set overrides it.
	Priority Priority

	// Persist mirrors items into the durable tier.
	Persist bool
}

// Validate checks the policy fields.
func (p Policy) Validate(namespace string) error {
	if p.TTL < 0 {
		return NewErrInvalidPolicy(namespace, "ttl must be non-negative")
	}
	if p.MaxItems <= 0 {
		return NewErrInvalidPolicy(namespace, "max items must be greater than 0")
	}
	if !p.Priority.Valid() {
		return NewErrInvalidPolicy(namespace, "unknown priority")
	}
	return nil
}

// DefaultPolicy is used for namespaces missing from a Registry.
var DefaultPolicy = Policy{
	TTL:      10 * time.Minute,
	MaxItems: 50,
	Priority: PriorityMedium,
	Persist:  false,
}

// Registry maps namespace names to policies. It is immutable once built.
type Registry struct {
	fallback Policy
	policies map[string]Policy
}

// NewRegistry validates and builds a Registry.
// fallback is returned by Lookup for unregistered namespaces.
func NewRegistry(fallback Policy, policies map[string]Policy) (*Registry, error) {
	if err := fallback.Validate("default"); err != nil {
		return nil, err
	}
	r := &Registry{
		fallback: fallback,
		policies: make(map[string]Policy, len(policies)),
	}
	for ns, p := range policies {
		if err := ValidateNamespace(ns); err != nil {
			return nil, err
		}
		if err := p.Validate(ns); err != nil {
			return nil, err
		}
		r.policies[ns] = p
	}
	return r, nil
}

// DefaultRegistry returns the policies used by the booking application.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultPolicy, map[string]Policy{
		"appointments": {TTL: 5 * time.Minute, MaxItems: 100, Priority: PriorityHigh, Persist: true},
		"services":     {TTL: 30 * time.Minute, MaxItems: 200, Priority: PriorityHigh, Persist: true},
		"shops":        {TTL: 15 * time.Minute, MaxItems: 50, Priority: PriorityMedium, Persist: true},
		"user_profile": {TTL: time.Hour, MaxItems: 10, Priority: PriorityHigh, Persist: true},
		"availability": {TTL: time.Minute, MaxItems: 100, Priority: PriorityMedium, Persist: false},
		"payments":     {TTL: 2 * time.Minute, MaxItems: 50, Priority: PriorityMedium, Persist: false},
		"templates":    {TTL: 24 * time.Hour, MaxItems: 30, Priority: PriorityLow, Persist: true},
		"images":       {TTL: 6 * time.Hour, MaxItems: 100, Priority: PriorityLow, Persist: false},
	})
	if err != nil {
		panic(err) // static table
	}
	return r
}

// Lookup returns the policy of namespace, or the fallback policy.
func (r *Registry) Lookup(namespace string) Policy {
	if p, ok := r.policies[namespace]; ok {
		return p
	}
	return r.fallback
}

// Fallback returns the policy used for unregistered namespaces.
func (r *Registry) Fallback() Policy {
	return r.fallback
}

// Namespaces returns the registered namespace names in sorted order.
func (r *Registry) Namespaces() []string {
	names := make([]string, 0, len(r.policies))
	for ns := range r.policies {
		names = append(names, ns)
	}
	sort.Strings(names)
	return names
}

// Persists reports whether items of namespace are mirrored to the durable tier.
func (r *Registry) Persists(namespace string) bool {
	return r.Lookup(namespace).Persist
}

// Scale returns a copy of r with every MaxItems multiplied by factor,
// never below 1. TTL, priority and persistence are unchanged.
func (r *Registry) Scale(factor float64) *Registry {
	scaled := &Registry{
		fallback: scalePolicy(r.fallback, factor),
		policies: make(map[string]Policy, len(r.policies)),
	}
	for ns, p := range r.policies {
		scaled.policies[ns] = scalePolicy(p, factor)
	}
	return scaled
}

func scalePolicy(p Policy, factor float64) Policy {
	p.MaxItems = int(float64(p.MaxItems) * factor)
	if p.MaxItems < 1 {
		p.MaxItems = 1
	}
	return p
}

// ValidateNamespace checks that namespace can be embedded in a flat key.
func ValidateNamespace(namespace string) error {
	if namespace == "" || strings.Contains(namespace, ":") {
		return NewErrInvalidNamespace(namespace)
	}
	return nil
}
