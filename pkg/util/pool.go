package util

import "runtime"

// GetOptimalPoolSize returns the worker count used for artifact processing.
//
// Formula: min(max(runtime.NumCPU() * 2, 4), 32)
//
// Artifact work alternates between CSS parsing (CPU) and tree-sitter
// parsing of script bundles (CGO), so oversubscribing cores by 2x keeps
// workers busy while one of them is blocked in a CGO call.
func GetOptimalPoolSize() int {
	poolSize := runtime.NumCPU() * 2

	if poolSize < 4 {
		poolSize = 4
	}
	if poolSize > 32 {
		poolSize = 32
	}

	return poolSize
}

// GetOptimalPoolSizeWithOverride returns pool size with optional override.
//
// If override > 0, uses override value (for testing/tuning).
// Otherwise, uses GetOptimalPoolSize().
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
