// errors.go: structured error handling for tiercache operations
//
// Errors never escape the Service facade: they are counted, logged and
// converted into a miss or a false return. The constructors below give the
// logged values a stable code and enough context to trace a failure back to
// a key or a durable record.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package tiercache

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for tiercache operations
const (
	// Configuration errors
	ErrCodeInvalidConfig    errors.ErrorCode = "TIERCACHE_INVALID_CONFIG"
	ErrCodeInvalidPolicy    errors.ErrorCode = "TIERCACHE_INVALID_POLICY"
	ErrCodeInvalidNamespace errors.ErrorCode = "TIERCACHE_INVALID_NAMESPACE"

	// Operation errors
	ErrCodeInvalidKey          errors.ErrorCode = "TIERCACHE_INVALID_KEY"
	ErrCodeSerializationFailed errors.ErrorCode = "TIERCACHE_SERIALIZATION_FAILED"
	ErrCodeDestroyed           errors.ErrorCode = "TIERCACHE_DESTROYED"
	ErrCodeTypeMismatch        errors.ErrorCode = "TIERCACHE_TYPE_MISMATCH"

	// Durable tier errors
	ErrCodeStoreReadFailed   errors.ErrorCode = "TIERCACHE_STORE_READ_FAILED"
	ErrCodeStoreWriteFailed  errors.ErrorCode = "TIERCACHE_STORE_WRITE_FAILED"
	ErrCodeStoreRemoveFailed errors.ErrorCode = "TIERCACHE_STORE_REMOVE_FAILED"
	ErrCodeCorruptedRecord   errors.ErrorCode = "TIERCACHE_CORRUPTED_RECORD"

	// Loader errors
	ErrCodeLoaderFailed   errors.ErrorCode = "TIERCACHE_LOADER_FAILED"
	ErrCodeInvalidLoader  errors.ErrorCode = "TIERCACHE_INVALID_LOADER"
	ErrCodePanicRecovered errors.ErrorCode = "TIERCACHE_PANIC_RECOVERED"
)

// Common error messages
const (
	msgInvalidConfig       = "invalid cache configuration"
	msgInvalidPolicy       = "invalid namespace policy"
	msgInvalidNamespace    = "invalid namespace: must be non-empty and must not contain ':'"
	msgInvalidKey          = "key cannot be empty"
	msgSerializationFailed = "value cannot be serialized"
	msgDestroyed           = "cache service has been destroyed"
	msgTypeMismatch        = "cached value has an unexpected type"
	msgStoreReadFailed     = "durable store read failed"
	msgStoreWriteFailed    = "durable store write failed"
	msgStoreRemoveFailed   = "durable store remove failed"
	msgCorruptedRecord     = "corrupted durable record"
	msgLoaderFailed        = "loader function failed"
	msgInvalidLoader       = "loader function cannot be nil"
	msgPanicRecovered      = "panic recovered in cache operation"
)

// =============================================================================
// CONFIGURATION ERRORS
// =============================================================================

// NewErrInvalidConfig creates an error for an unusable configuration field
func NewErrInvalidConfig(field string, value interface{}) error {
	return errors.NewWithContext(ErrCodeInvalidConfig, msgInvalidConfig, map[string]interface{}{
		"field": field,
		"value": value,
	})
}

// NewErrInvalidPolicy creates an error for a namespace policy that fails validation
func NewErrInvalidPolicy(namespace string, reason string) error {
	return errors.NewWithContext(ErrCodeInvalidPolicy, msgInvalidPolicy, map[string]interface{}{
		"namespace": namespace,
		"reason":    reason,
	})
}

// NewErrPolicyFileRead creates an error when a policy file cannot be read.
// The filesystem error is kept as the cause.
func NewErrPolicyFileRead(path string, cause error) error {
	return errors.Wrap(cause, ErrCodeInvalidConfig, msgInvalidConfig).
		WithContext("field", "policy_file").
		WithContext("value", path)
}

// NewErrInvalidNamespace creates an error for a malformed namespace name
func NewErrInvalidNamespace(namespace string) error {
	return errors.NewWithField(ErrCodeInvalidNamespace, msgInvalidNamespace, "namespace", namespace)
}

// =============================================================================
// OPERATION ERRORS
// =============================================================================

// NewErrInvalidKey creates an error when an empty local key is used
func NewErrInvalidKey(namespace string, operation string) error {
	return errors.NewWithContext(ErrCodeInvalidKey, msgInvalidKey, map[string]interface{}{
		"namespace": namespace,
		"operation": operation,
	})
}

// NewErrSerializationFailed creates an error when a value cannot be encoded
func NewErrSerializationFailed(key string, cause error) error {
	return errors.Wrap(cause, ErrCodeSerializationFailed, msgSerializationFailed).
		WithContext("key", key)
}

// NewErrDestroyed creates an error for calls made after Destroy
func NewErrDestroyed(operation string) error {
	return errors.NewWithField(ErrCodeDestroyed, msgDestroyed, "operation", operation)
}

// NewErrTypeMismatch creates an error when a cached value cannot be converted
// to the type requested by a typed accessor
func NewErrTypeMismatch(key string, want string, cause error) error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeTypeMismatch, msgTypeMismatch).
			WithContext("key", key).
			WithContext("want", want)
	}
	return errors.NewWithContext(ErrCodeTypeMismatch, msgTypeMismatch, map[string]interface{}{
		"key":  key,
		"want": want,
	})
}

// =============================================================================
// DURABLE TIER ERRORS
// =============================================================================

// NewErrStoreRead creates an error when the durable store fails a read
func NewErrStoreRead(key string, cause error) error {
	return errors.Wrap(cause, ErrCodeStoreReadFailed, msgStoreReadFailed).
		WithContext("key", key).
		AsRetryable()
}

// NewErrStoreWrite creates an error when the durable store fails a write
func NewErrStoreWrite(key string, cause error) error {
	return errors.Wrap(cause, ErrCodeStoreWriteFailed, msgStoreWriteFailed).
		WithContext("key", key).
		AsRetryable()
}

// NewErrStoreRemove creates an error when the durable store fails a removal
func NewErrStoreRemove(keys []string, cause error) error {
	return errors.Wrap(cause, ErrCodeStoreRemoveFailed, msgStoreRemoveFailed).
		WithContext("keys", keys).
		AsRetryable()
}

// NewErrCorruptedRecord creates an error for a durable record that fails to
// parse or fails shape validation
func NewErrCorruptedRecord(key string, details string) error {
	return errors.NewWithContext(ErrCodeCorruptedRecord, msgCorruptedRecord, map[string]interface{}{
		"key":     key,
		"details": details,
	})
}

// =============================================================================
// LOADER ERRORS
// =============================================================================

// NewErrLoaderFailed creates an error when a fallback or preload loader fails
func NewErrLoaderFailed(key string, cause error) error {
	return errors.Wrap(cause, ErrCodeLoaderFailed, msgLoaderFailed).
		WithContext("key", key).
		AsRetryable()
}

// NewErrInvalidLoader creates an error when a loader function is nil
func NewErrInvalidLoader(key string) error {
	return errors.NewWithField(ErrCodeInvalidLoader, msgInvalidLoader, "key", key)
}

// NewErrPanicRecovered creates an error when a panic is recovered
func NewErrPanicRecovered(operation string, panicValue interface{}) error {
	return errors.NewWithContext(ErrCodePanicRecovered, msgPanicRecovered, map[string]interface{}{
		"operation":   operation,
		"panic_value": fmt.Sprintf("%v", panicValue),
	}).WithSeverity("critical")
}

// =============================================================================
// ERROR CHECKING HELPERS
// =============================================================================

// IsInvalidKey checks if error is an empty key error
func IsInvalidKey(err error) bool {
	return errors.HasCode(err, ErrCodeInvalidKey)
}

// IsDestroyed checks if error reports use of a destroyed service
func IsDestroyed(err error) bool {
	return errors.HasCode(err, ErrCodeDestroyed)
}

// IsCorruptedRecord checks if error reports a corrupt durable record
func IsCorruptedRecord(err error) bool {
	return errors.HasCode(err, ErrCodeCorruptedRecord)
}

// IsConfigError checks if error is a configuration, policy or namespace error
func IsConfigError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrCodeInvalidConfig || code == ErrCodeInvalidPolicy || code == ErrCodeInvalidNamespace
}

// IsStoreError checks if error came from the durable store
func IsStoreError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrCodeStoreReadFailed || code == ErrCodeStoreWriteFailed ||
		code == ErrCodeStoreRemoveFailed
}

// IsLoaderError checks if error is a loader error
func IsLoaderError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrCodeLoaderFailed || code == ErrCodeInvalidLoader || code == ErrCodePanicRecovered
}

// IsRetryable checks if the error can be retried
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

// GetErrorContext extracts context from an error
func GetErrorContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var tcErr *errors.Error
	if goerrors.As(err, &tcErr) {
		return tcErr.Context
	}
	return nil
}
