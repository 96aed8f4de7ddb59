// getorset_test.go: tests for fallback loading and preloading
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package tiercache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var errBackend = errors.New("backend unavailable")

func TestGetOrSet_HitSkipsFallback(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Config{})
	svc.Set(ctx, "shops", "1", "cached")

	v, err := GetOrSet(ctx, svc, "shops", "1", func(context.Context) (string, error) {
		t.Error("fallback must not run on a hit")
		return "fresh", nil
	})
	if err != nil || v != "cached" {
		t.Errorf("GetOrSet() = %q, %v", v, err)
	}
}

func TestGetOrSet_MissStores(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	svc, _ := newTestService(t, Config{Store: store})

	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return 25, nil
	}
	for i := 0; i < 3; i++ {
		v, err := GetOrSet(ctx, svc, "services", "cut", load)
		if err != nil || v != 25 {
			t.Fatalf("GetOrSet() = %d, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("fallback ran %d times, want 1", calls)
	}
	if _, ok := store.raw("cache:services:cut"); !ok {
		t.Error("fallback result should be written through")
	}
}

func TestGetOrSet_ErrorPropagates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Config{})

	v, err := GetOrSet(ctx, svc, "shops", "1", func(context.Context) (string, error) {
		return "partial", errBackend
	})
	if err != errBackend {
		t.Errorf("expected the fallback error itself, got %v", err)
	}
	if v != "" {
		t.Errorf("expected the zero value on error, got %q", v)
	}
	if svc.Has(ctx, "shops", "1") {
		t.Error("a failed fallback must not be cached")
	}
	if svc.Stats().Errors != 0 {
		t.Error("fallback errors belong to the caller, not to cache statistics")
	}
}

func TestGetOrSet_PanicRecovered(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Config{})

	_, err := GetOrSet(ctx, svc, "shops", "1", func(context.Context) (int, error) {
		panic("boom")
	})
	if GetErrorCode(err) != ErrCodePanicRecovered {
		t.Fatalf("expected a recovered panic, got %v", err)
	}
	if GetErrorContext(err)["panic_value"] != "boom" {
		t.Errorf("unexpected context %v", GetErrorContext(err))
	}
}

func TestGetOrSet_ForceRefresh(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Config{})
	svc.Set(ctx, "shops", "1", "old")

	v, err := GetOrSetWithOptions(ctx, svc, "shops", "1",
		GetOrSetOptions{ForceRefresh: true, Set: SetOptions{Priority: PriorityHigh}},
		func(context.Context) (string, error) { return "new", nil })
	if err != nil || v != "new" {
		t.Fatalf("GetOrSetWithOptions() = %q, %v", v, err)
	}
	it, _ := GetItem[string](ctx, svc, "shops", "1")
	if it.Data != "new" || it.Priority != PriorityHigh {
		t.Errorf("refreshed item = %+v", it)
	}
}

func TestGetOrSet_NilFallback(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	_, err := GetOrSet[int](context.Background(), svc, "shops", "1", nil)
	if GetErrorCode(err) != ErrCodeInvalidLoader {
		t.Errorf("expected invalid loader, got %v", err)
	}
	if err := Preload[int](context.Background(), svc, "shops", "1", nil); GetErrorCode(err) != ErrCodeInvalidLoader {
		t.Errorf("Preload: expected invalid loader, got %v", err)
	}
}

func TestGetOrSet_StoreFailureStillReturns(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	svc, _ := newTestService(t, Config{Store: store})
	store.failSet.Store(true)

	v, err := GetOrSet(ctx, svc, "shops", "1", func(context.Context) (string, error) {
		return "fresh", nil
	})
	if err != nil || v != "fresh" {
		t.Errorf("a failed write must not affect the result: %q, %v", v, err)
	}
	if svc.Stats().Errors != 1 {
		t.Errorf("expected the write failure to be counted, got %d", svc.Stats().Errors)
	}
}

func TestPreload_SharesLoader(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Config{})

	var calls atomic.Int32
	release := make(chan struct{})
	loader := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "warm", nil
	}

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- Preload(ctx, svc, "shops", "1", loader)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Preload() error = %v", err)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("loader ran %d times, want 1", n)
	}
	if v, found := Get[string](ctx, svc, "shops", "1"); !found || v != "warm" {
		t.Errorf("preloaded value = %q, %v", v, found)
	}
}

func TestPreload_PresentKeySkipsLoader(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Config{})
	svc.Set(ctx, "shops", "1", "cached")

	err := Preload(ctx, svc, "shops", "1", func(context.Context) (string, error) {
		t.Error("loader must not run for a cached key")
		return "", nil
	})
	if err != nil {
		t.Errorf("Preload() error = %v", err)
	}
	if svc.Stats().Requests != 0 {
		t.Error("Preload must not count as a lookup")
	}
}

func TestPreload_Errors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Config{})

	err := Preload(ctx, svc, "shops", "1", func(context.Context) (int, error) {
		return 0, errBackend
	})
	if GetErrorCode(err) != ErrCodeLoaderFailed || !IsRetryable(err) {
		t.Errorf("expected a retryable loader error, got %v", err)
	}

	err = Preload(ctx, svc, "shops", "2", func(context.Context) (int, error) {
		panic("boom")
	})
	if GetErrorCode(err) != ErrCodePanicRecovered {
		t.Errorf("expected a recovered panic, got %v", err)
	}
	if svc.Has(ctx, "shops", "1") || svc.Has(ctx, "shops", "2") {
		t.Error("failed preloads must not store anything")
	}
}

func TestPreload_AfterDestroy(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	svc.Destroy()

	err := Preload(context.Background(), svc, "shops", "1", func(context.Context) (int, error) {
		t.Error("loader must not run after Destroy")
		return 0, nil
	})
	if err != nil {
		t.Errorf("Preload() after Destroy = %v", err)
	}
}
