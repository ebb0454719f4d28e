// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package cmdstream defines the closed command set of the HAL and the
// writer/reader pair moving it through a caller-owned byte buffer.
//
// Every command is a trivially copyable struct: fixed-size arrays with
// counts stand in for variable-length data, handles are packed uint64s,
// and labels are capped byte arrays. Encoding is a memcpy behind a
// one-byte tag; the stream is a transport between recording threads and
// the translator, not a persistent format — no cross-build compatibility
// is promised.
//
// The set is closed at compile time. Adding a command is a coordinated
// change across this package and the translator.
package cmdstream

import "github.com/embergpu/hal/types"

// CmdType tags each encoded command.
type CmdType uint8

const (
	CmdDraw CmdType = iota
	CmdDrawIndirect
	CmdDispatch
	CmdTransitionResources
	CmdBarrierUAV
	CmdTransitionImageSlices
	CmdCopyBuffer
	CmdCopyTexture
	CmdCopyBufferToTexture
	CmdCopyTextureToBuffer
	CmdResolveTexture
	CmdBeginRenderPass
	CmdEndRenderPass
	CmdWriteTimestamp
	CmdResolveQueries
	CmdBeginDebugLabel
	CmdEndDebugLabel
	CmdUpdateBottomLevel
	CmdUpdateTopLevel
	CmdDispatchRays
	CmdClearTextures
	CmdCodeLocationMarker
	CmdBeginProfileScope
	CmdEndProfileScope

	numCmdTypes
)

// labelSize caps the inline strings carried by label and marker commands.
const labelSize = 64

// Label is a capped inline string.
type Label [labelSize]byte

// MakeLabel truncates s into a Label.
func MakeLabel(s string) Label {
	var l Label
	copy(l[:], s)
	return l
}

// String returns the label text up to the first NUL.
func (l Label) String() string {
	for i, b := range l {
		if b == 0 {
			return string(l[:i])
		}
	}
	return string(l[:])
}

// ShaderArguments is the capped argument vector carried inline by draw
// and dispatch commands.
type ShaderArguments struct {
	Count uint8
	Args  [types.MaxShaderArguments]types.ShaderArgument
}

// Add appends an argument.
func (s *ShaderArguments) Add(arg types.ShaderArgument) {
	s.Args[s.Count] = arg
	s.Count++
}

// Slice returns the live arguments.
func (s *ShaderArguments) Slice() []types.ShaderArgument {
	return s.Args[:s.Count]
}

// RootConstants is the fixed root-constant payload of draw and dispatch
// commands.
type RootConstants [types.MaxRootConstantBytes]byte

// ResourceTransition is one entry of a TransitionResources command.
type ResourceTransition struct {
	Resource    types.Resource
	TargetState types.ResourceState
	// Stages is the pipeline stage context consuming the resource after
	// the transition.
	Stages types.ShaderStageFlags
}

// SliceTransition is one entry of a TransitionImageSlices command; fully
// explicit, bypassing the state cache.
type SliceTransition struct {
	Resource    types.Resource
	SourceState types.ResourceState
	TargetState types.ResourceState
	MipLevel    uint32
	ArraySlice  uint32
}

// ClearTextureOp is one entry of a ClearTextures command.
type ClearTextureOp struct {
	View  types.ResourceView
	Value types.ClearValue
}

// Draw is a direct or indexed draw; indexed when IndexBuffer is valid.
type Draw struct {
	PipelineState types.PipelineState
	IndexBuffer   types.Resource
	VertexBuffer  types.Resource
	NumIndices    uint32
	IndexOffset   uint32
	VertexOffset  int32
	// Scissor overrides the render pass scissor unless MinX is -1.
	Scissor       types.Rect
	RootConstants RootConstants
	Arguments     ShaderArguments
}

// DrawIndirect sources draw arguments from a GPU buffer.
type DrawIndirect struct {
	PipelineState        types.PipelineState
	ArgumentBuffer       types.Resource
	ArgumentBufferOffset uint64
	NumArguments         uint32
	IndexBuffer          types.Resource
	VertexBuffer         types.Resource
	RootConstants        RootConstants
	Arguments            ShaderArguments
}

// Dispatch is a compute dispatch.
type Dispatch struct {
	PipelineState types.PipelineState
	X, Y, Z       uint32
	RootConstants RootConstants
	Arguments     ShaderArguments
}

// TransitionResources transitions whole resources, consulting the
// incomplete-state cache.
type TransitionResources struct {
	Count       uint8
	Transitions [types.MaxResourceTransitions]ResourceTransition
}

// Add appends a transition.
func (t *TransitionResources) Add(res types.Resource, target types.ResourceState, stages types.ShaderStageFlags) {
	t.Transitions[t.Count] = ResourceTransition{Resource: res, TargetState: target, Stages: stages}
	t.Count++
}

// BarrierUAV orders unordered access to the given resources.
type BarrierUAV struct {
	Count     uint8
	Resources [types.MaxResourceTransitions]types.Resource
}

// TransitionImageSlices transitions single subresources explicitly; the
// master state is never consulted or updated.
type TransitionImageSlices struct {
	Count  uint8
	Slices [types.MaxResourceTransitions]SliceTransition
}

// CopyBuffer copies a byte range between buffers.
type CopyBuffer struct {
	Source      types.Resource
	Destination types.Resource
	SrcOffset   uint64
	DestOffset  uint64
	Size        uint64
}

// CopyTexture copies subresources between images.
type CopyTexture struct {
	Source         types.Resource
	Destination    types.Resource
	SrcMipIndex    uint32
	SrcArrayIndex  uint32
	DestMipIndex   uint32
	DestArrayIndex uint32
	NumArraySlices uint32
}

// CopyBufferToTexture copies linear buffer data into an image
// subresource.
type CopyBufferToTexture struct {
	Source         types.Resource
	Destination    types.Resource
	SourceOffset   uint64
	DestWidth      uint32
	DestHeight     uint32
	DestMipIndex   uint32
	DestArrayIndex uint32
}

// CopyTextureToBuffer copies an image subresource into linear buffer
// data.
type CopyTextureToBuffer struct {
	Source        types.Resource
	Destination   types.Resource
	DestOffset    uint64
	SrcWidth      uint32
	SrcHeight     uint32
	SrcMipIndex   uint32
	SrcArrayIndex uint32
}

// ResolveTexture resolves a multisampled subresource.
type ResolveTexture struct {
	Source         types.Resource
	Destination    types.Resource
	SrcMipIndex    uint32
	SrcArrayIndex  uint32
	DestMipIndex   uint32
	DestArrayIndex uint32
}

// BeginRenderPass binds and optionally clears the attachments, creating
// their views on the fly.
type BeginRenderPass struct {
	ViewportOffset types.Offset2D
	Viewport       types.Viewport
	Count          uint8
	RenderTargets  [types.MaxRenderTargets]types.RenderTargetBinding
	DepthTarget    types.DepthTargetBinding
}

// AddRenderTarget appends a color attachment.
func (b *BeginRenderPass) AddRenderTarget(rt types.RenderTargetBinding) {
	b.RenderTargets[b.Count] = rt
	b.Count++
}

// EndRenderPass closes the pass.
type EndRenderPass struct{}

// WriteTimestamp writes one timestamp query.
type WriteTimestamp struct {
	QueryRange types.QueryRange
	Index      uint32
}

// ResolveQueries copies query results into a buffer.
type ResolveQueries struct {
	SrcQueryRange types.QueryRange
	DestBuffer    types.Resource
	QueryStart    uint32
	NumQueries    uint32
	DestOffset    uint64
}

// BeginDebugLabel opens a debug marker region.
type BeginDebugLabel struct {
	Text Label
}

// EndDebugLabel closes a debug marker region.
type EndDebugLabel struct{}

// UpdateBottomLevel (re)builds a bottom-level acceleration structure.
type UpdateBottomLevel struct {
	Dest types.AccelStruct
}

// UpdateTopLevel (re)builds a top-level acceleration structure from its
// instance buffer.
type UpdateTopLevel struct {
	Dest         types.AccelStruct
	NumInstances uint32
}

// DispatchRays launches a raytracing dispatch over three shader tables.
type DispatchRays struct {
	PipelineState  types.PipelineState
	TableRayGen    types.Resource
	TableMiss      types.Resource
	TableHitGroups types.Resource
	Width          uint32
	Height         uint32
	Depth          uint32
}

// ClearTextures clears render and depth targets outside a render pass.
type ClearTextures struct {
	Count uint8
	Ops   [types.MaxRenderTargets]ClearTextureOp
}

// Add appends a clear op.
func (c *ClearTextures) Add(op ClearTextureOp) {
	c.Ops[c.Count] = op
	c.Count++
}

// CodeLocationMarker tags the stream with a source location for capture
// tooling.
type CodeLocationMarker struct {
	File Label
	Line uint32
}

// BeginProfileScope opens a profiling region.
type BeginProfileScope struct {
	Name Label
}

// EndProfileScope closes a profiling region.
type EndProfileScope struct{}
