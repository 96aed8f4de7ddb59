// fsstore.go: file-per-key durable tier on a go-billy filesystem
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

// Package fsstore provides a tiercache.Store that keeps one file per key
// on a go-billy filesystem. File names are the hex SHA-256 of the key, so
// every name has the same short length whatever the key. Each file starts
// with a header line holding the base64url encoded key, followed by the
// value. Writes go to a temporary file that is renamed over the target, so
// readers never see a partial record.
package fsstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/agilira/tiercache"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

const (
	recordExt  = ".rec"
	tempPrefix = ".tmp-"
)

// Store is a tiercache.Store on a billy.Filesystem.
type Store struct {
	fs  billy.Filesystem
	dir string

	// mu serializes mutations; memfs is not safe for concurrent writers.
	mu sync.RWMutex
}

// New returns a Store keeping records under dir of fs, creating dir if needed.
func New(fs billy.Filesystem, dir string) (*Store, error) {
	if fs == nil {
		return nil, fmt.Errorf("filesystem cannot be nil")
	}
	if dir == "" {
		dir = "."
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory %q: %w", dir, err)
	}
	return &Store{fs: fs, dir: dir}, nil
}

// Open returns a Store rooted at path on the OS filesystem.
func Open(path string) (*Store, error) {
	return New(osfs.New(path), ".")
}

func (s *Store) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return s.fs.Join(s.dir, hex.EncodeToString(sum[:])+recordExt)
}

// encodeFile prefixes value with the key header line.
func encodeFile(key, value string) []byte {
	header := base64.RawURLEncoding.EncodeToString([]byte(key))
	buf := make([]byte, 0, len(header)+1+len(value))
	buf = append(buf, header...)
	buf = append(buf, '\n')
	return append(buf, value...)
}

// decodeFile splits a record file into its key and value.
func decodeFile(data []byte) (key, value string, ok bool) {
	header, rest, found := bytes.Cut(data, []byte{'\n'})
	if !found {
		return "", "", false
	}
	k, err := base64.RawURLEncoding.DecodeString(string(header))
	if err != nil {
		return "", "", false
	}
	return string(k), string(rest), true
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	data, err := util.ReadFile(s.fs, s.path(key))
	s.mu.RUnlock()
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	stored, value, ok := decodeFile(data)
	if !ok {
		return "", false, fmt.Errorf("malformed record file for %q", key)
	}
	if stored != key {
		// hash collision with another key
		return "", false, nil
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := s.fs.TempFile(s.dir, tempPrefix)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	_, werr := tmp.Write(encodeFile(key, value))
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write %q: %w", key, errors.Join(werr, cerr))
	}
	if err := s.fs.Rename(tmpName, s.path(key)); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file for %q: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(key)
}

func (s *Store) removeLocked(key string) error {
	err := s.fs.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %q: %w", key, err)
	}
	return nil
}

// RemoveMany removes every key, continuing past failures. The returned
// error joins every failure.
func (s *Store) RemoveMany(ctx context.Context, keys []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, k := range keys {
		if err := s.removeLocked(k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ListKeys returns every stored key in sorted order. Temporary files and
// record files without a readable key header are skipped.
func (s *Store) ListKeys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos, err := s.fs.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", s.dir, err)
	}

	keys := make([]string, 0, len(infos))
	for _, fi := range infos {
		name := fi.Name()
		if fi.IsDir() || strings.HasPrefix(name, tempPrefix) {
			continue
		}
		if !strings.HasSuffix(name, recordExt) {
			continue
		}
		data, err := util.ReadFile(s.fs, s.fs.Join(s.dir, name))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read %q: %w", name, err)
		}
		key, _, ok := decodeFile(data)
		if !ok {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

var _ tiercache.Store = (*Store)(nil)
