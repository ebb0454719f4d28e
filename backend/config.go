// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package backend

import "github.com/embergpu/hal/types"

// Config fixes every capacity and mode of a Backend at creation. Zero
// values are filled in by DefaultConfig-style defaults in normalize; the
// struct is plain data, constructed with field literals.
type Config struct {
	// Validation selects how much native debug tooling is attached.
	Validation types.ValidationLevel
	// Adapter selects the physical adapter; AdapterIndex applies when
	// Adapter is AdapterExplicitIndex.
	Adapter      types.AdapterPreference
	AdapterIndex uint32

	NumBackbuffers uint32
	// NumThreads is the number of recording threads the backend serves;
	// each gets its own allocator bundles and translator.
	NumThreads int

	MaxNumResources int
	// MaxNumCBVs caps the shader view count (each view binds at most one
	// root CBV per argument slot).
	MaxNumCBVs     int
	MaxNumSRVs     int
	MaxNumUAVs     int
	MaxNumSamplers int

	MaxNumPipelineStates         int
	MaxNumRaytracePipelineStates int
	MaxNumFences                 int
	MaxNumAccelStructs           int
	MaxNumSwapchains             int

	MaxNumTimestampQueries     int
	MaxNumOcclusionQueries     int
	MaxNumPipelineStatsQueries int

	NumDirectCmdlistAllocatorsPerThread  int
	NumDirectCmdlistsPerAllocator        int
	NumComputeCmdlistAllocatorsPerThread int
	NumComputeCmdlistsPerAllocator       int
	NumCopyCmdlistAllocatorsPerThread    int
	NumCopyCmdlistsPerAllocator          int

	// PresentFromComputeQueue issues presents on the compute queue.
	PresentFromComputeQueue bool

	// NativeFeatureFlags is an opaque bitset of per-backend feature
	// toggles, forwarded to the native layer.
	NativeFeatureFlags uint64

	// SubmitBatchSize caps the command lists per native submission;
	// longer batches split, bounding prelude list size.
	SubmitBatchSize int

	// CaptureHooksRequested asks for frame capture integration; the
	// backend logs at init whether captures will work.
	CaptureHooksRequested bool
}

// DefaultConfig returns a configuration suitable for tests and small
// applications.
func DefaultConfig() Config {
	return Config{
		NumBackbuffers:                       3,
		NumThreads:                           1,
		MaxNumResources:                      2048,
		MaxNumCBVs:                           2048,
		MaxNumSRVs:                           2048,
		MaxNumUAVs:                           1024,
		MaxNumSamplers:                       1024,
		MaxNumPipelineStates:                 1024,
		MaxNumRaytracePipelineStates:         64,
		MaxNumFences:                         512,
		MaxNumAccelStructs:                   256,
		MaxNumSwapchains:                     1,
		MaxNumTimestampQueries:               1024,
		MaxNumOcclusionQueries:               1024,
		MaxNumPipelineStatsQueries:           64,
		NumDirectCmdlistAllocatorsPerThread:  5,
		NumDirectCmdlistsPerAllocator:        5,
		NumComputeCmdlistAllocatorsPerThread: 5,
		NumComputeCmdlistsPerAllocator:       5,
		NumCopyCmdlistAllocatorsPerThread:    3,
		NumCopyCmdlistsPerAllocator:          3,
		SubmitBatchSize:                      16,
	}
}

// normalize fills unset fields with workable minimums.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.NumThreads < 1 {
		c.NumThreads = 1
	}
	if c.NumBackbuffers == 0 {
		c.NumBackbuffers = def.NumBackbuffers
	}
	if c.NumBackbuffers > types.MaxBackbuffers {
		c.NumBackbuffers = types.MaxBackbuffers
	}
	setIfZero := func(dst *int, v int) {
		if *dst <= 0 {
			*dst = v
		}
	}
	setIfZero(&c.MaxNumResources, def.MaxNumResources)
	setIfZero(&c.MaxNumCBVs, def.MaxNumCBVs)
	setIfZero(&c.MaxNumSRVs, def.MaxNumSRVs)
	setIfZero(&c.MaxNumUAVs, def.MaxNumUAVs)
	setIfZero(&c.MaxNumSamplers, def.MaxNumSamplers)
	setIfZero(&c.MaxNumPipelineStates, def.MaxNumPipelineStates)
	setIfZero(&c.MaxNumRaytracePipelineStates, def.MaxNumRaytracePipelineStates)
	setIfZero(&c.MaxNumFences, def.MaxNumFences)
	setIfZero(&c.MaxNumAccelStructs, def.MaxNumAccelStructs)
	setIfZero(&c.MaxNumSwapchains, def.MaxNumSwapchains)
	setIfZero(&c.MaxNumTimestampQueries, def.MaxNumTimestampQueries)
	setIfZero(&c.MaxNumOcclusionQueries, def.MaxNumOcclusionQueries)
	setIfZero(&c.MaxNumPipelineStatsQueries, def.MaxNumPipelineStatsQueries)
	setIfZero(&c.NumDirectCmdlistAllocatorsPerThread, def.NumDirectCmdlistAllocatorsPerThread)
	setIfZero(&c.NumDirectCmdlistsPerAllocator, def.NumDirectCmdlistsPerAllocator)
	setIfZero(&c.NumComputeCmdlistAllocatorsPerThread, def.NumComputeCmdlistAllocatorsPerThread)
	setIfZero(&c.NumComputeCmdlistsPerAllocator, def.NumComputeCmdlistsPerAllocator)
	setIfZero(&c.NumCopyCmdlistAllocatorsPerThread, def.NumCopyCmdlistAllocatorsPerThread)
	setIfZero(&c.NumCopyCmdlistsPerAllocator, def.NumCopyCmdlistsPerAllocator)
	setIfZero(&c.SubmitBatchSize, def.SubmitBatchSize)
}
