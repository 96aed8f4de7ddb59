// hot-reload_test.go: tests for policy file watching
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package tiercache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writePolicyFile(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write policy file: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("Failed to rename policy file: %v", err)
	}
}

func TestNewPolicyWatcher_EmptyPath(t *testing.T) {
	if _, err := NewPolicyWatcher(PolicyWatcherOptions{}); !IsConfigError(err) {
		t.Errorf("expected a config error for an empty path, got %v", err)
	}
}

func TestPolicyWatcher_HandleChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.json")
	writePolicyFile(t, path, `{"namespaces": {}}`)

	logger := &recordingLogger{}
	var seen []*Registry
	pw, err := NewPolicyWatcher(PolicyWatcherOptions{
		Path:    path,
		Logger:  logger,
		Initial: testRegistry(t, nil),
		OnReload: func(oldRegistry, newRegistry *Registry) {
			seen = append(seen, oldRegistry, newRegistry)
		},
	})
	if err != nil {
		t.Fatalf("NewPolicyWatcher() error = %v", err)
	}
	_ = pw.Stop()

	initial := pw.Registry()
	reloads := pw.Reloads()
	seen = nil

	pw.handleChange(map[string]interface{}{
		"namespaces": map[string]interface{}{
			"shops": map[string]interface{}{"ttl": "1m", "max_items": float64(5), "priority": "high"},
		},
	})
	if pw.Reloads() != reloads+1 {
		t.Errorf("Reloads() = %d, want %d", pw.Reloads(), reloads+1)
	}
	next := pw.Registry()
	if next == initial || next.Lookup("shops").MaxItems != 5 {
		t.Errorf("registry not swapped: %+v", next.Lookup("shops"))
	}
	if len(seen) != 2 || seen[0] != initial || seen[1] != next {
		t.Error("OnReload should receive the previous and the new registry")
	}

	pw.handleChange(map[string]interface{}{
		"namespaces": map[string]interface{}{
			"shops": map[string]interface{}{"priority": "urgent"},
		},
	})
	if pw.Registry() != next || pw.Reloads() != reloads+1 {
		t.Error("an invalid document must keep the previous registry")
	}
	if logger.count("warn") != 1 {
		t.Errorf("expected one warning, got %d", logger.count("warn"))
	}
}

func TestPolicyWatcher_StartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.json")
	writePolicyFile(t, path, `{"namespaces": {}}`)

	pw, err := NewPolicyWatcher(PolicyWatcherOptions{Path: path, PollInterval: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewPolicyWatcher() error = %v", err)
	}
	if err := pw.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !pw.watcher.IsRunning() {
		t.Fatal("watcher is not running after Start()")
	}
	time.Sleep(50 * time.Millisecond)
	if err := pw.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestPolicyWatcher_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.json")
	writePolicyFile(t, path, `{"namespaces": {"shops": {"ttl": "1m", "max_items": 10, "priority": "medium"}}}`)

	reloadCh := make(chan *Registry, 4)
	pw, err := NewPolicyWatcher(PolicyWatcherOptions{
		Path:         path,
		PollInterval: 50 * time.Millisecond,
		OnReload: func(_, newRegistry *Registry) {
			select {
			case reloadCh <- newRegistry:
			default:
			}
		},
	})
	if err != nil {
		t.Fatalf("NewPolicyWatcher() error = %v", err)
	}
	defer func() { _ = pw.Stop() }()
	if err := pw.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case reg := <-reloadCh:
		if reg.Lookup("shops").MaxItems != 10 {
			t.Fatalf("initial load: shops cap = %d", reg.Lookup("shops").MaxItems)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for the initial load")
	}

	// let the mtime move on filesystems with coarse timestamps
	time.Sleep(1500 * time.Millisecond)
	writePolicyFile(t, path, `{"namespaces": {"shops": {"ttl": "2m", "max_items": 20, "priority": "high", "persist": true}}}`)

	select {
	case reg := <-reloadCh:
		want := Policy{TTL: 2 * time.Minute, MaxItems: 20, Priority: PriorityHigh, Persist: true}
		if got := reg.Lookup("shops"); got != want {
			t.Errorf("reloaded policy = %+v, want %+v", got, want)
		}
		if pw.Registry() != reg {
			t.Error("Registry() should return the reloaded registry")
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("timeout waiting for reload, reloads=%d", pw.Reloads())
	}
}
