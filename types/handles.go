// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package types

import "github.com/embergpu/hal/handle"

// Marker types parameterizing handle.Handle so that each resource class
// gets its own Go type. They carry no data.
type (
	ResourceMarker      struct{}
	ShaderViewMarker    struct{}
	PipelineStateMarker struct{}
	CommandListMarker   struct{}
	SwapchainMarker     struct{}
	FenceMarker         struct{}
	QueryRangeMarker    struct{}
	AccelStructMarker   struct{}
)

// Resource refers to a buffer, texture, or render target, including
// injected swapchain backbuffers.
type Resource = handle.Handle[ResourceMarker]

// ShaderView refers to a bundle of SRV/UAV descriptors and samplers
// addressable as a single shader argument.
type ShaderView = handle.Handle[ShaderViewMarker]

// PipelineState refers to a graphics, compute, or raytracing pipeline.
// Raytracing handles live in an index range offset from the others; use
// the pipeline pool to distinguish them.
type PipelineState = handle.Handle[PipelineStateMarker]

// CommandList refers to a recorded command list, ready to submit or
// discard. The queue kind is encoded in the handle's index range.
type CommandList = handle.Handle[CommandListMarker]

// Swapchain refers to the backbuffer ring of one window surface.
type Swapchain = handle.Handle[SwapchainMarker]

// Fence refers to a monotonic 64-bit synchronization counter, signalable
// and waitable from both CPU and GPU.
type Fence = handle.Handle[FenceMarker]

// QueryRange refers to a contiguous block of queries of one kind. The
// query kind is encoded in the handle's index range.
type QueryRange = handle.Handle[QueryRangeMarker]

// AccelStruct refers to a raytracing acceleration structure and its
// backing buffer triplet.
type AccelStruct = handle.Handle[AccelStructMarker]

// Null handles per class.
func NullResource() Resource           { return handle.Null[ResourceMarker]() }
func NullShaderView() ShaderView       { return handle.Null[ShaderViewMarker]() }
func NullPipelineState() PipelineState { return handle.Null[PipelineStateMarker]() }
func NullCommandList() CommandList     { return handle.Null[CommandListMarker]() }
func NullSwapchain() Swapchain         { return handle.Null[SwapchainMarker]() }
func NullFence() Fence                 { return handle.Null[FenceMarker]() }
func NullQueryRange() QueryRange       { return handle.Null[QueryRangeMarker]() }
func NullAccelStruct() AccelStruct     { return handle.Null[AccelStructMarker]() }
