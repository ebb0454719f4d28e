// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package d3d12sim implements nativeapi over a deterministic, in-process
// simulation of a descriptor-heap-based explicit graphics API.
//
// Completion is deferred one queue operation behind submission: a fence
// signal parks on its queue and only lands when that queue next advances
// (a following ExecuteCommandLists, Signal, or Wait) or when a CPU-side
// fence wait drains the device. Polling a fence right after a submit
// therefore observes the old value, the latency the command-allocator
// reset rotation is built around. Command lists record their calls as an
// inspectable op sequence instead of driver bytecode, which is what the
// package's tests — and the tests of every pool built on top — assert
// against. Resource allocations, descriptor heaps, GPU virtual
// addresses, and shader identifiers are all real enough to exercise
// every code path above this package: addresses are unique and stable,
// and upload/readback buffers carry actual mapped memory. Barriers are
// recorded as given; their before state is not validated.
//
// Real device creation, adapter enumeration, and driver calls live
// behind the same nativeapi contracts; see the nativecall subpackage for
// the FFI call shape a real backend uses.
package d3d12sim
