// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package types

// ShaderArgumentShape declares the descriptor counts of one shader
// argument slot at pipeline creation time. The array of shapes — together
// with the root-constant flag and the signature kind — keys the root
// signature cache.
type ShaderArgumentShape struct {
	NumSRVs     uint32
	NumUAVs     uint32
	NumSamplers uint32
	HasCBV      bool
}

// ShaderArgument is the bound counterpart of a shape: a shader view plus
// an optional constant buffer with offset. It is carried inline by draw,
// dispatch, and shader table records.
type ShaderArgument struct {
	ConstantBuffer       Resource
	ConstantBufferOffset uint32
	ShaderView           ShaderView
}

// ShaderBinary is a shader input for pipeline creation: either an opaque
// precompiled blob, or WGSL source lowered through the IR to the native
// shading language at pipeline creation time. Data wins when both are
// set; the HAL never inspects blob bytes.
type ShaderBinary struct {
	Data []byte
	WGSL string
}

// GraphicsShaderStage pairs a blob with the stage it implements.
type GraphicsShaderStage struct {
	Stage  ShaderStageFlags
	Binary ShaderBinary
}

// ShaderTableRecordKind distinguishes the target of a shader table record.
type ShaderTableRecordKind uint8

const (
	// RecordIdentifiableShader targets a ray-gen, miss, or callable export
	// by its index in the pipeline's export order.
	RecordIdentifiableShader ShaderTableRecordKind = iota
	// RecordHitGroup targets a hit group by its declaration index.
	RecordHitGroup
)

// ShaderTableRecord is one record of a raytracing dispatch table: a
// shader or hit-group reference plus the per-invocation arguments.
type ShaderTableRecord struct {
	Kind        ShaderTableRecordKind
	TargetIndex uint32
	Arguments   []ShaderArgument
	// RootConstants is appended after the argument pointers, padded to a
	// multiple of 8 bytes.
	RootConstants []byte
}

// ShaderTableStrides is the result of record-size computation for the
// three (plus callable) tables of one raytracing dispatch.
type ShaderTableStrides struct {
	SizeRayGen     uint32
	StrideMiss     uint32
	SizeMiss       uint32
	StrideHitGroup uint32
	SizeHitGroup   uint32
	StrideCallable uint32
	SizeCallable   uint32
}
