// sizing.go: value encoding and byte footprint estimation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package tiercache

import (
	"github.com/goccy/go-json"
)

// SizeEstimator serializes values to estimate their byte footprint.
// The encoded form is also what the durable tier stores, embedded as the
// "data" field of a JSON record, so Encode must produce a valid JSON
// document and Decode must round-trip it. An estimator emitting any other
// encoding makes every durable write fail with a serialization error.
type SizeEstimator interface {
	// Encode serializes v. The length of the result is the size estimate.
	Encode(v any) ([]byte, error)

	// Decode deserializes data into the value pointed to by out.
	Decode(data []byte, out any) error
}

// JSONSizer encodes values as JSON.
type JSONSizer struct{}

// Encode serializes v as JSON.
func (JSONSizer) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Decode deserializes JSON data into out.
func (JSONSizer) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

// EstimateSize returns the byte footprint of v as measured by sizer.
func EstimateSize(sizer SizeEstimator, v any) (int64, error) {
	b, err := sizer.Encode(v)
	if err != nil {
		return 0, err
	}
	return int64(len(b)), nil
}
