// main_test.go: tests for tierctl commands
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agilira/tiercache"
	"github.com/agilira/tiercache/store/sqlitestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	store, err := sqlitestore.Open(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	svc, err := tiercache.New(ctx, tiercache.Config{Store: store, SweepInterval: -1})
	require.NoError(t, err)
	require.True(t, svc.Set(ctx, "shops", "1", map[string]string{"name": "north"}))
	require.True(t, svc.Set(ctx, "shops", "2", map[string]string{"name": "south"}))
	require.True(t, svc.Set(ctx, "services", "cut", 25))
	svc.Destroy()

	require.NoError(t, store.Set(ctx, "cache:templates:broken", "{not json"))
	require.NoError(t, store.Set(ctx, "session", "token"))
	return path
}

func runCmd(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCmd(t, "keys")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "usage")

	code, _, _ = runCmd(t, "-backend", "tape", "-path", t.TempDir(), "keys")
	assert.Equal(t, 1, code)
}

func TestRun_Keys(t *testing.T) {
	path := seed(t)
	code, stdout, _ := runCmd(t, "-path", path, "keys")
	require.Equal(t, 0, code)
	assert.Equal(t, []string{
		"cache:services:cut",
		"cache:shops:1",
		"cache:shops:2",
		"cache:templates:broken",
	}, strings.Fields(stdout))
}

func TestRun_Get(t *testing.T) {
	path := seed(t)

	code, stdout, _ := runCmd(t, "-path", path, "get", "shops", "2")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `"name": "south"`)
	assert.Contains(t, stdout, `"priority": "medium"`)

	code, _, stderr := runCmd(t, "-path", path, "get", "shops", "9")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "not found")
}

func TestRun_SweepRemovesCorrupt(t *testing.T) {
	path := seed(t)

	code, stdout, _ := runCmd(t, "-path", path, "sweep")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "corrupt=1")
	assert.Contains(t, stdout, "removed=1")

	_, stdout, _ = runCmd(t, "-path", path, "keys")
	assert.NotContains(t, stdout, "broken")
}

func TestRun_Clear(t *testing.T) {
	path := seed(t)

	code, _, _ := runCmd(t, "-path", path, "clear", "shops")
	require.Equal(t, 0, code)
	_, stdout, _ := runCmd(t, "-path", path, "keys")
	assert.NotContains(t, stdout, "shops")
	assert.Contains(t, stdout, "services")

	code, _, _ = runCmd(t, "-path", path, "clear-all")
	require.Equal(t, 0, code)
	_, stdout, _ = runCmd(t, "-path", path, "keys")
	assert.Empty(t, strings.TrimSpace(stdout))

	store, err := sqlitestore.Open(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	_, found, err := store.Get(context.Background(), "session")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestRun_StatsWithPolicyFile(t *testing.T) {
	path := seed(t)
	policy := filepath.Join(t.TempDir(), "policies.yaml")
	require.NoError(t, os.WriteFile(policy, []byte(`
namespaces:
  shops:
    ttl: 1h
    max_items: 10
    priority: high
    persist: true
`), 0o600))

	code, stdout, _ := runCmd(t, "-path", path, "-policy", policy, "stats")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "records=2 persist=true priority=high ttl=1h0m0s")
	assert.Contains(t, stdout, "total records=4")
}

func TestRun_BadCommand(t *testing.T) {
	path := seed(t)
	code, _, stderr := runCmd(t, "-path", path, "get", "shops")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "bad command")
}
