// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package types

// ResourceState is the closed set of states a resource can occupy on the
// GPU timeline. A resource's master state is the state it holds between
// command-list boundaries; transitions inside a list are tracked by the
// incomplete-state cache until submit-time stitching reconciles them.
type ResourceState uint8

const (
	StateUndefined ResourceState = iota
	StateUnknown
	StateVertexBuffer
	StateIndexBuffer
	StateConstantBuffer
	StateShaderResource
	StateShaderResourceNonPixel
	StateUnorderedAccess
	StateRenderTarget
	StateDepthRead
	StateDepthWrite
	StateIndirectArgument
	StateCopySrc
	StateCopyDest
	StateResolveSrc
	StateResolveDest
	StatePresent
	StateRaytraceAccelStruct
)

// String returns the lower-case name used in logs and diagnostics.
func (s ResourceState) String() string {
	switch s {
	case StateUndefined:
		return "undefined"
	case StateUnknown:
		return "unknown"
	case StateVertexBuffer:
		return "vertex_buffer"
	case StateIndexBuffer:
		return "index_buffer"
	case StateConstantBuffer:
		return "constant_buffer"
	case StateShaderResource:
		return "shader_resource"
	case StateShaderResourceNonPixel:
		return "shader_resource_nonpixel"
	case StateUnorderedAccess:
		return "unordered_access"
	case StateRenderTarget:
		return "render_target"
	case StateDepthRead:
		return "depth_read"
	case StateDepthWrite:
		return "depth_write"
	case StateIndirectArgument:
		return "indirect_argument"
	case StateCopySrc:
		return "copy_src"
	case StateCopyDest:
		return "copy_dest"
	case StateResolveSrc:
		return "resolve_src"
	case StateResolveDest:
		return "resolve_dest"
	case StatePresent:
		return "present"
	case StateRaytraceAccelStruct:
		return "raytrace_accel_struct"
	}
	return "invalid"
}

// ShaderStageFlags is a bitmask of pipeline stages, used by the
// incomplete-state cache to carry the stage context of a transition so a
// barrier-mask-based backend can form fully specified pipeline barriers.
type ShaderStageFlags uint16

const (
	StageVertex ShaderStageFlags = 1 << iota
	StageHull
	StageDomain
	StageGeometry
	StagePixel
	StageCompute
	StageRayGen
	StageRayMiss
	StageRayClosestHit
	StageRayAnyHit
	StageRayIntersect
	StageNone ShaderStageFlags = 0
)
