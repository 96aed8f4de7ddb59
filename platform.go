// platform.go: startup-time tuning for memory constrained hosts
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package tiercache

// HostProfile describes the memory class of the host process.
// It is applied once by New and never changes afterwards.
type HostProfile int

const (
	// HostStandard keeps the configured budget and caps unchanged.
	HostStandard HostProfile = iota
	// HostConstrained halves the byte budget and every namespace cap.
	HostConstrained
)

// constrainedHostMemory is the total memory at or below which a host is
// treated as constrained by ProfileForMemory (2 GiB).
const constrainedHostMemory = 2 << 30

// constrainedScale is the factor applied to budgets on constrained hosts.
const constrainedScale = 0.5

// String returns a readable profile name.
func (p HostProfile) String() string {
	if p == HostConstrained {
		return "constrained"
	}
	return "standard"
}

// ProfileForMemory picks a profile from the total memory of the device in bytes.
// Zero means unknown and yields HostStandard.
func ProfileForMemory(totalBytes uint64) HostProfile {
	if totalBytes > 0 && totalBytes <= constrainedHostMemory {
		return HostConstrained
	}
	return HostStandard
}

// applyHostProfile scales the budget and registry of cfg for its profile.
func applyHostProfile(cfg *Config) {
	if cfg.HostProfile != HostConstrained {
		return
	}
	cfg.MemoryBudget = int64(float64(cfg.MemoryBudget) * constrainedScale)
	if cfg.MemoryBudget < 1 {
		cfg.MemoryBudget = 1
	}
	cfg.Registry = cfg.Registry.Scale(constrainedScale)
}
