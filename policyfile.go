// policyfile.go: namespace policies from YAML or JSON files
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package tiercache

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// LoadRegistryFile reads a policy file and builds a Registry from it.
// Files ending in .json are parsed as JSON, everything else as YAML.
//
// Example policy file (YAML):
//
//	default:
//	  ttl: "10m"
//	  max_items: 50
//	  priority: medium
//	namespaces:
//	  appointments:
//	    ttl: "5m"
//	    max_items: 100
//	    priority: high
//	    persist: true
//
// Fields missing from a namespace are inherited from the default policy,
// and a missing default section uses DefaultPolicy.
func LoadRegistryFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path) // #nosec G304 - path chosen by the host
	if err != nil {
		return nil, NewErrPolicyFileRead(path, err)
	}

	data := make(map[string]interface{})
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &data)
	default:
		err = yaml.Unmarshal(raw, &data)
	}
	if err != nil {
		return nil, NewErrInvalidPolicy("default", "unparsable policy file: "+err.Error())
	}
	return ParseRegistry(data)
}

// ParseRegistry builds a Registry from a decoded policy document.
// The document may also be nested under a top-level "cache" key.
func ParseRegistry(data map[string]interface{}) (*Registry, error) {
	if section, ok := data["cache"].(map[string]interface{}); ok {
		data = section
	}

	fallback := DefaultPolicy
	if section, ok := data["default"]; ok {
		m, ok := section.(map[string]interface{})
		if !ok {
			return nil, NewErrInvalidPolicy("default", "section must be a mapping")
		}
		p, err := parsePolicy("default", m, DefaultPolicy)
		if err != nil {
			return nil, err
		}
		fallback = p
	}

	policies := make(map[string]Policy)
	if section, ok := data["namespaces"]; ok && section != nil {
		namespaces, ok := section.(map[string]interface{})
		if !ok {
			return nil, NewErrInvalidPolicy("namespaces", "section must be a mapping")
		}
		for ns, v := range namespaces {
			m, ok := v.(map[string]interface{})
			if !ok {
				return nil, NewErrInvalidPolicy(ns, "policy must be a mapping")
			}
			p, err := parsePolicy(ns, m, fallback)
			if err != nil {
				return nil, err
			}
			policies[ns] = p
		}
	}

	return NewRegistry(fallback, policies)
}

// parsePolicy overlays the fields present in m on base.
func parsePolicy(namespace string, m map[string]interface{}, base Policy) (Policy, error) {
	p := base
	if v, ok := m["ttl"]; ok {
		ttl, ok := parseDuration(v)
		if !ok {
			return p, NewErrInvalidPolicy(namespace, "ttl must be a duration")
		}
		p.TTL = ttl
	}
	if v, ok := m["max_items"]; ok {
		n, ok := parsePositiveInt(v)
		if !ok {
			return p, NewErrInvalidPolicy(namespace, "max_items must be a positive integer")
		}
		p.MaxItems = n
	}
	if v, ok := m["priority"]; ok {
		s, _ := v.(string)
		prio, ok := ParsePriority(s)
		if !ok {
			return p, NewErrInvalidPolicy(namespace, "priority must be low, medium or high")
		}
		p.Priority = prio
	}
	if v, ok := m["persist"]; ok {
		b, ok := v.(bool)
		if !ok {
			return p, NewErrInvalidPolicy(namespace, "persist must be a boolean")
		}
		p.Persist = b
	}
	return p, p.Validate(namespace)
}

// parsePositiveInt extracts a positive integer from interface{} value.
// Supports both int and float64 types (YAML/JSON may vary).
func parsePositiveInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		if v > 0 {
			return v, true
		}
	case int64:
		if v > 0 {
			return int(v), true
		}
	case float64:
		if v > 0 && v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}

// parseDuration extracts a non-negative time.Duration from a duration
// string ("5m") or a number of seconds.
func parseDuration(value interface{}) (time.Duration, bool) {
	var d time.Duration
	switch v := value.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return 0, false
		}
		d = parsed
	case int:
		d = time.Duration(v) * time.Second
	case int64:
		d = time.Duration(v) * time.Second
	case float64:
		d = time.Duration(v * float64(time.Second))
	default:
		return 0, false
	}
	if d < 0 {
		return 0, false
	}
	return d, true
}
