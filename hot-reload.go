// hot-reload.go: policy file watching with Argus integration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package tiercache

import (
	"sync"
	"time"

	"github.com/agilira/argus"
)

// PolicyWatcher watches a policy file with Argus and keeps the latest
// valid Registry parsed from it.
//
// A running Service never changes its policies. Hosts use OnReload to
// decide when to build a new Service with the reloaded Registry, usually
// at the next cold start.
type PolicyWatcher struct {
	watcher *argus.Watcher
	logger  Logger

	mu       sync.RWMutex
	registry *Registry
	reloads  int

	// onReload must be fast and non-blocking.
	onReload func(oldRegistry, newRegistry *Registry)
}

// PolicyWatcherOptions configures a PolicyWatcher.
type PolicyWatcherOptions struct {
	// Path is the policy file to watch.
	// Supports the formats Argus detects (JSON, YAML, TOML, ...).
	Path string

	// PollInterval is how often to check the file for changes.
	// Default: 1 second. Minimum: 100ms.
	PollInterval time.Duration

	// Initial is the Registry reported until the file is first parsed.
	// Default: DefaultRegistry().
	Initial *Registry

	// OnReload is called after the file is successfully reloaded.
	OnReload func(oldRegistry, newRegistry *Registry)

	// Logger for reload events. Default: NoOpLogger.
	Logger Logger
}

// NewPolicyWatcher creates a watcher on opts.Path. Argus starts polling
// immediately; Start is a no-op while the watcher is running.
func NewPolicyWatcher(opts PolicyWatcherOptions) (*PolicyWatcher, error) {
	if opts.Path == "" {
		return nil, NewErrInvalidConfig("Path", opts.Path)
	}

	if opts.PollInterval == 0 {
		opts.PollInterval = 1 * time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = NoOpLogger{}
	}
	if opts.Initial == nil {
		opts.Initial = DefaultRegistry()
	}

	pw := &PolicyWatcher{
		logger:   opts.Logger,
		registry: opts.Initial,
		onReload: opts.OnReload,
	}

	watcher, err := argus.UniversalConfigWatcherWithConfig(opts.Path, pw.handleChange, argus.Config{
		PollInterval: opts.PollInterval,
	})
	if err != nil {
		return nil, err
	}
	pw.watcher = watcher
	return pw, nil
}

// Start begins watching the policy file.
func (pw *PolicyWatcher) Start() error {
	if pw.watcher.IsRunning() {
		return nil
	}
	return pw.watcher.Start()
}

// Stop stops watching the policy file.
func (pw *PolicyWatcher) Stop() error {
	return pw.watcher.Stop()
}

// Registry returns the latest valid Registry.
func (pw *PolicyWatcher) Registry() *Registry {
	pw.mu.RLock()
	defer pw.mu.RUnlock()
	return pw.registry
}

// Reloads returns how many times the file was successfully applied.
func (pw *PolicyWatcher) Reloads() int {
	pw.mu.RLock()
	defer pw.mu.RUnlock()
	return pw.reloads
}

// handleChange is called by Argus with the decoded file content.
// An invalid document is logged and the previous Registry is kept.
func (pw *PolicyWatcher) handleChange(data map[string]interface{}) {
	next, err := ParseRegistry(data)
	if err != nil {
		pw.logger.Warn("policy reload rejected", "error", err, "code", string(GetErrorCode(err)))
		return
	}

	pw.mu.Lock()
	prev := pw.registry
	pw.registry = next
	pw.reloads++
	pw.mu.Unlock()

	pw.logger.Info("policies reloaded", "namespaces", len(next.Namespaces()))
	if pw.onReload != nil {
		pw.onReload(prev, next)
	}
}
