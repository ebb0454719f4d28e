// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package types

// PrimitiveTopology selects primitive assembly.
type PrimitiveTopology uint8

const (
	TopologyTriangles PrimitiveTopology = iota
	TopologyLines
	TopologyPoints
	TopologyPatches
)

// CullMode selects back-face culling.
type CullMode uint8

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// PrimitiveConfig is the fixed-function configuration of a graphics
// pipeline.
type PrimitiveConfig struct {
	Topology      PrimitiveTopology
	DepthFunc     CompareFunc
	DepthReadonly bool
	Cull          CullMode
	Samples       uint32
	Wireframe     bool
}

// DefaultPrimitiveConfig mirrors the conventional triangles / depth-less /
// back-cull setup.
func DefaultPrimitiveConfig() PrimitiveConfig {
	return PrimitiveConfig{
		Topology:  TopologyTriangles,
		DepthFunc: CompareLess,
		Cull:      CullBack,
		Samples:   1,
	}
}

// VertexAttribute describes one element of the vertex layout.
type VertexAttribute struct {
	Semantic string
	Offset   uint32
	Format   Format
}

// VertexFormat is the full vertex layout of a graphics pipeline.
type VertexFormat struct {
	Attributes []VertexAttribute
	Stride     uint32
}

// FramebufferConfig declares the attachment formats a graphics pipeline
// renders into.
type FramebufferConfig struct {
	RenderTargets []Format
	DepthTarget   Format // FormatNone when depth is unused
}

// GraphicsPipelineDesc bundles everything needed to create a graphics
// pipeline state.
type GraphicsPipelineDesc struct {
	VertexFormat     VertexFormat
	Framebuffer      FramebufferConfig
	ArgumentShapes   []ShaderArgumentShape
	HasRootConstants bool
	Shaders          []GraphicsShaderStage
	Config           PrimitiveConfig
}

// ComputePipelineDesc bundles everything needed to create a compute
// pipeline state.
type ComputePipelineDesc struct {
	ArgumentShapes   []ShaderArgumentShape
	HasRootConstants bool
	Shader           ShaderBinary
}

// RaytracingShaderLibrary is one shader blob plus its exported symbol
// names, in export order.
type RaytracingShaderLibrary struct {
	Binary  ShaderBinary
	Exports []string
}

// RaytracingArgAssociation binds argument shapes to a set of exports as a
// local root signature.
type RaytracingArgAssociation struct {
	TargetExports    []string
	ArgumentShapes   []ShaderArgumentShape
	HasRootConstants bool
}

// RaytracingHitGroup groups closest-hit / any-hit / intersection exports
// under one hit group name.
type RaytracingHitGroup struct {
	Name             string
	ClosestHitExport string
	AnyHitExport     string
	IntersectExport  string
}

// RaytracingPipelineDesc bundles everything needed to create a raytracing
// state object.
type RaytracingPipelineDesc struct {
	Libraries        []RaytracingShaderLibrary
	ArgAssociations  []RaytracingArgAssociation
	HitGroups        []RaytracingHitGroup
	MaxRecursion     uint32
	MaxPayloadBytes  uint32
	MaxAttributeByte uint32
}
