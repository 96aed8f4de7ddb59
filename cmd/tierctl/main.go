// main.go: offline inspection of a tiercache durable store
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

// Command tierctl inspects and maintains the durable tier of a tiercache
// deployment while the host application is stopped.
//
// Usage:
//
//	tierctl -backend sqlite -path cache.db [-policy policies.yaml] <command>
//
// Commands:
//
//	keys             list durable cache keys
//	get NS KEY       print the value stored under NS/KEY
//	sweep            remove expired, corrupt and orphaned records
//	clear NS         remove every record of NS
//	clear-all        remove every cache record
//	stats            count durable records per namespace
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/agilira/tiercache"
	"github.com/agilira/tiercache/store/fsstore"
	"github.com/agilira/tiercache/store/sqlitestore"
	"github.com/goccy/go-json"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	backend string
	path    string
	policy  string
	verbose bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tierctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.StringVar(&opts.backend, "backend", "sqlite", "durable backend: sqlite or fs")
	fs.StringVar(&opts.path, "path", "", "database file (sqlite) or directory (fs)")
	fs.StringVar(&opts.policy, "policy", "", "policy file (YAML or JSON); default policies if empty")
	fs.BoolVar(&opts.verbose, "v", false, "log cache events to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if opts.path == "" || fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: tierctl -backend sqlite|fs -path P [-policy file] keys|get NS KEY|sweep|clear NS|clear-all|stats")
		return 2
	}

	store, closeStore, err := openStore(opts.backend, opts.path)
	if err != nil {
		fmt.Fprintf(stderr, "tierctl: %v\n", err)
		return 1
	}
	defer closeStore()

	registry := tiercache.DefaultRegistry()
	if opts.policy != "" {
		registry, err = tiercache.LoadRegistryFile(opts.policy)
		if err != nil {
			fmt.Fprintf(stderr, "tierctl: %v\n", err)
			return 1
		}
	}

	cfg := tiercache.Config{
		Registry:      registry,
		Store:         store,
		SweepInterval: -1,
		SkipHydration: true,
	}
	if opts.verbose {
		cfg.Logger = tiercache.NewSlogLogger(slog.New(slog.NewTextHandler(stderr, nil)))
	}
	svc, err := tiercache.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "tierctl: %v\n", err)
		return 1
	}
	defer svc.Destroy()

	c := &commands{svc: svc, store: store, out: stdout, errOut: stderr}
	return c.dispatch(ctx, fs.Args())
}

func openStore(backend, path string) (tiercache.Store, func(), error) {
	switch backend {
	case "sqlite":
		s, err := sqlitestore.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "fs":
		s, err := fsstore.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}
}

type commands struct {
	svc    *tiercache.Service
	store  tiercache.Store
	out    io.Writer
	errOut io.Writer
}

func (c *commands) dispatch(ctx context.Context, args []string) int {
	name, rest := args[0], args[1:]
	switch {
	case name == "keys" && len(rest) == 0:
		return c.keys(ctx)
	case name == "get" && len(rest) == 2:
		return c.get(ctx, rest[0], rest[1])
	case name == "sweep" && len(rest) == 0:
		return c.sweep(ctx)
	case name == "clear" && len(rest) == 1:
		return c.result(c.svc.ClearNamespace(ctx, rest[0]))
	case name == "clear-all" && len(rest) == 0:
		return c.result(c.svc.ClearAll(ctx))
	case name == "stats" && len(rest) == 0:
		return c.stats(ctx)
	}
	fmt.Fprintf(c.errOut, "tierctl: bad command %q\n", name)
	return 2
}

func (c *commands) cacheKeys(ctx context.Context) ([]string, error) {
	all, err := c.store.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(all))
	for _, k := range all {
		if _, _, ok := tiercache.SplitKey(k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (c *commands) keys(ctx context.Context) int {
	keys, err := c.cacheKeys(ctx)
	if err != nil {
		fmt.Fprintf(c.errOut, "tierctl: %v\n", err)
		return 1
	}
	for _, k := range keys {
		fmt.Fprintln(c.out, k)
	}
	return 0
}

func (c *commands) get(ctx context.Context, namespace, key string) int {
	item, found := tiercache.GetItem[any](ctx, c.svc, namespace, key)
	if !found {
		fmt.Fprintf(c.errOut, "tierctl: %s not found\n", tiercache.FlattenKey(namespace, key))
		return 1
	}
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	err := enc.Encode(map[string]any{
		"data":        item.Data,
		"insertedAt":  item.InsertedAt,
		"ttl":         item.TTL.String(),
		"priority":    item.Priority.String(),
		"accessCount": item.AccessCount,
		"sizeBytes":   item.SizeBytes,
	})
	if err != nil {
		fmt.Fprintf(c.errOut, "tierctl: %v\n", err)
		return 1
	}
	return 0
}

func (c *commands) sweep(ctx context.Context) int {
	rep := c.svc.Sweep(ctx)
	fmt.Fprintf(c.out, "scanned=%d expired=%d corrupt=%d orphaned=%d removed=%d errors=%d\n",
		rep.DurableScanned, rep.DurableExpired, rep.DurableCorrupt,
		rep.DurableOrphaned, rep.DurableRemoved, rep.Errors)
	if rep.Errors > 0 {
		return 1
	}
	return 0
}

func (c *commands) stats(ctx context.Context) int {
	keys, err := c.cacheKeys(ctx)
	if err != nil {
		fmt.Fprintf(c.errOut, "tierctl: %v\n", err)
		return 1
	}
	counts := make(map[string]int)
	for _, k := range keys {
		ns, _, _ := tiercache.SplitKey(k)
		counts[ns]++
	}
	names := make([]string, 0, len(counts))
	for ns := range counts {
		names = append(names, ns)
	}
	sort.Strings(names)

	registry := c.svc.Registry()
	for _, ns := range names {
		p := registry.Lookup(ns)
		fmt.Fprintf(c.out, "%-16s records=%d persist=%t priority=%s ttl=%s\n",
			ns, counts[ns], p.Persist, p.Priority, p.TTL)
	}
	fmt.Fprintf(c.out, "total records=%d\n", len(keys))
	return 0
}

func (c *commands) result(ok bool) int {
	if !ok {
		fmt.Fprintln(c.errOut, "tierctl: operation failed")
		return 1
	}
	return 0
}
