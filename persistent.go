// persistent.go: durable tier adapter and record format
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package tiercache

import (
	"context"
	"strings"

	"github.com/goccy/go-json"
)

// record is the wire format of a durable item. Timestamps and ttl are
// nanoseconds; data is the JSON document produced by the SizeEstimator.
type record struct {
	Data           json.RawMessage `json:"data"`
	InsertedAt     int64           `json:"insertedAt"`
	TTL            int64           `json:"ttl"`
	Priority       string          `json:"priority"`
	AccessCount    int64           `json:"accessCount"`
	LastAccessedAt int64           `json:"lastAccessedAt"`
	SizeBytes      int64           `json:"sizeBytes"`
}

// encodeRecord serializes e with its already encoded value.
func encodeRecord(e *entry, raw []byte) (string, error) {
	b, err := json.Marshal(record{
		Data:           raw,
		InsertedAt:     e.insertedAt,
		TTL:            e.ttl,
		Priority:       e.priority.String(),
		AccessCount:    e.accessCount,
		LastAccessedAt: e.lastAccessedAt,
		SizeBytes:      e.sizeBytes,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeRecord parses and validates the record stored under flat.
func decodeRecord(flat, value string) (*entry, error) {
	namespace, _, ok := SplitKey(flat)
	if !ok {
		return nil, NewErrCorruptedRecord(flat, "malformed key")
	}
	var rec record
	if err := json.Unmarshal([]byte(value), &rec); err != nil {
		return nil, NewErrCorruptedRecord(flat, err.Error())
	}
	priority, ok := ParsePriority(rec.Priority)
	switch {
	case !ok:
		return nil, NewErrCorruptedRecord(flat, "unknown priority")
	case len(rec.Data) == 0:
		return nil, NewErrCorruptedRecord(flat, "missing data")
	case rec.InsertedAt <= 0:
		return nil, NewErrCorruptedRecord(flat, "missing insertedAt")
	case rec.TTL < 0:
		return nil, NewErrCorruptedRecord(flat, "negative ttl")
	case rec.AccessCount < 1:
		return nil, NewErrCorruptedRecord(flat, "accessCount below 1")
	case rec.SizeBytes < 0:
		return nil, NewErrCorruptedRecord(flat, "negative sizeBytes")
	}
	// the stored size is informational; accounting uses the bytes we hold
	size := int64(len(rec.Data))
	return &entry{
		namespace:      namespace,
		key:            flat,
		raw:            []byte(rec.Data),
		insertedAt:     rec.InsertedAt,
		ttl:            rec.TTL,
		priority:       priority,
		accessCount:    rec.AccessCount,
		lastAccessedAt: rec.LastAccessedAt,
		sizeBytes:      size,
	}, nil
}

// readOutcome classifies a durable read.
type readOutcome int

const (
	readMissing readOutcome = iota
	readFound
	readExpired
	readCorrupt
)

// persistentTier wraps the durable Store collaborator.
type persistentTier struct {
	store Store
}

// put writes an encoded record through to the store.
func (p *persistentTier) put(ctx context.Context, flat, value string) error {
	if err := p.store.Set(ctx, flat, value); err != nil {
		return NewErrStoreWrite(flat, err)
	}
	return nil
}

// read fetches the record under flat. Expired and corrupt records are
// deleted before returning; a failed deletion is reported as err alongside
// the outcome.
func (p *persistentTier) read(ctx context.Context, flat string, now int64) (*entry, readOutcome, error) {
	value, found, err := p.store.Get(ctx, flat)
	if err != nil {
		return nil, readMissing, NewErrStoreRead(flat, err)
	}
	if !found {
		return nil, readMissing, nil
	}
	e, err := decodeRecord(flat, value)
	if err != nil {
		return nil, readCorrupt, p.remove(ctx, flat)
	}
	if e.expired(now) {
		return nil, readExpired, p.remove(ctx, flat)
	}
	return e, readFound, nil
}

func (p *persistentTier) remove(ctx context.Context, flat string) error {
	if err := p.store.Remove(ctx, flat); err != nil {
		return NewErrStoreRemove([]string{flat}, err)
	}
	return nil
}

func (p *persistentTier) removeMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := p.store.RemoveMany(ctx, keys); err != nil {
		return NewErrStoreRemove(keys, err)
	}
	return nil
}

// keysWithPrefix lists the durable keys starting with prefix.
func (p *persistentTier) keysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	all, err := p.store.ListKeys(ctx)
	if err != nil {
		return nil, NewErrStoreRead(prefix+"*", err)
	}
	keys := make([]string, 0, len(all))
	for _, k := range all {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// scanReport summarizes a full pass over the durable cache keys.
type scanReport struct {
	scanned  int
	expired  int
	corrupt  int
	orphaned int
	removed  int
	errs     []error
}

// scan visits every valid, unexpired record of a persisting namespace and
// deletes expired records, corrupt records and records of namespaces that
// no longer persist. A list failure aborts the scan; per-key read failures
// are collected in the report.
func (p *persistentTier) scan(ctx context.Context, now int64, persists func(namespace string) bool, visit func(e *entry)) (scanReport, error) {
	var rep scanReport
	keys, err := p.keysWithPrefix(ctx, KeyPrefix+":")
	if err != nil {
		return rep, err
	}

	stale := make([]string, 0)
	for _, flat := range keys {
		if ctx.Err() != nil {
			break
		}
		rep.scanned++
		namespace, _, ok := SplitKey(flat)
		if !ok {
			rep.corrupt++
			stale = append(stale, flat)
			continue
		}
		if !persists(namespace) {
			rep.orphaned++
			stale = append(stale, flat)
			continue
		}
		value, found, err := p.store.Get(ctx, flat)
		if err != nil {
			rep.errs = append(rep.errs, NewErrStoreRead(flat, err))
			continue
		}
		if !found {
			continue
		}
		e, err := decodeRecord(flat, value)
		if err != nil {
			rep.corrupt++
			stale = append(stale, flat)
			continue
		}
		if e.expired(now) {
			rep.expired++
			stale = append(stale, flat)
			continue
		}
		if visit != nil {
			visit(e)
		}
	}

	if err := p.removeMany(ctx, stale); err != nil {
		rep.errs = append(rep.errs, err)
	} else {
		rep.removed = len(stale)
	}
	return rep, nil
}
