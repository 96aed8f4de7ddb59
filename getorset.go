// getorset.go: fallback loading and preloading
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package tiercache

import "context"

// GetOrSetOptions tunes GetOrSetWithOptions.
type GetOrSetOptions struct {
	// ForceRefresh skips the lookup and always runs the fallback.
	ForceRefresh bool

	// Set overrides the namespace policy when the result is stored.
	Set SetOptions
}

// GetOrSet returns the cached T for (namespace, key). On a miss it runs
// fallback, stores the result and returns it.
//
// The fallback result is authoritative: its error, or a recovered panic
// wrapped with NewErrPanicRecovered, is returned to the caller, and a
// failure to cache the value does not affect the returned value.
//
// Example:
//
//	shop, err := tiercache.GetOrSet(ctx, svc, "shops", id, func(ctx context.Context) (Shop, error) {
//	    return api.FetchShop(ctx, id)
//	})
func GetOrSet[T any](ctx context.Context, s *Service, namespace, key string, fallback func(context.Context) (T, error)) (T, error) {
	return GetOrSetWithOptions(ctx, s, namespace, key, GetOrSetOptions{}, fallback)
}

// GetOrSetWithOptions is like GetOrSet with explicit options.
func GetOrSetWithOptions[T any](ctx context.Context, s *Service, namespace, key string, opts GetOrSetOptions, fallback func(context.Context) (T, error)) (T, error) {
	var zero T
	if fallback == nil {
		return zero, NewErrInvalidLoader(FlattenKey(namespace, key))
	}

	if !opts.ForceRefresh {
		if v, found := Get[T](ctx, s, namespace, key); found {
			return v, nil
		}
	}

	v, err := runLoader(ctx, "GetOrSet:"+FlattenKey(namespace, key), fallback)
	if err != nil {
		return zero, err
	}
	s.SetWithOptions(ctx, namespace, key, v, opts.Set)
	return v, nil
}

// Preload runs loader and stores its result unless (namespace, key) is
// already cached. Concurrent preloads of the same key share one loader
// run. Loader failures are returned wrapped with NewErrLoaderFailed.
//
// Preload on a destroyed Service does nothing.
func Preload[T any](ctx context.Context, s *Service, namespace, key string, loader func(context.Context) (T, error)) error {
	flat := FlattenKey(namespace, key)
	if loader == nil {
		return NewErrInvalidLoader(flat)
	}
	if s.destroyed.Load() || s.Has(ctx, namespace, key) {
		return nil
	}

	_, err, _ := s.preloads.Do(flat, func() (interface{}, error) {
		if s.Has(ctx, namespace, key) {
			return nil, nil
		}
		v, err := runLoader(ctx, "Preload:"+flat, loader)
		if err != nil {
			return nil, err
		}
		s.Set(ctx, namespace, key, v)
		return nil, nil
	})
	if err != nil {
		if IsLoaderError(err) {
			return err
		}
		return NewErrLoaderFailed(flat, err)
	}
	return nil
}

// runLoader executes fn, converting a panic into an error.
func runLoader[T any](ctx context.Context, operation string, fn func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, NewErrPanicRecovered(operation, r)
		}
	}()
	return fn(ctx)
}
