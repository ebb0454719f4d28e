// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package nativeapi declares the boundary between the HAL's pools and
// translators and the native graphics API underneath them. It is shaped
// after an explicit descriptor-heap API: resources carry GPU virtual
// addresses, descriptors live in heaps addressed by CPU/GPU handle pairs,
// command lists record against command allocators, and queues signal
// monotonic fences.
//
// A barrier-mask-style backend (descriptor sets, pipeline barriers) fits
// behind the same contracts: the incomplete-state cache already carries
// the pipeline-stage masks such a backend needs, and nothing above this
// package touches native types directly.
//
// Adapter enumeration, validation-layer wiring, and real driver calls are
// the implementing package's concern; see d3d12sim for the deterministic
// in-process implementation used throughout the tests.
package nativeapi
