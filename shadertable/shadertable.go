// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package shadertable computes raytracing shader table record sizes and
// writes record bytes.
//
// Record layout: the 32-byte native shader identifier, then for each
// argument in declared order a CBV GPU VA (8 bytes) if the argument
// declares a CBV, the SRV/UAV descriptor table GPU handle (8 bytes) if
// the shader view has any, the sampler table GPU handle (8 bytes) if the
// shader view has samplers — then root constants padded to a multiple of
// 8 bytes. The record stride is the per-table maximum record size rounded
// up to the native record alignment. Any mismatch between a record's
// written data and the pipeline's declared argument info is a programmer
// error caught by assertion.
package shadertable

import (
	"encoding/binary"

	"github.com/embergpu/hal/accelstruct"
	"github.com/embergpu/hal/internal/diag"
	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/pipeline"
	"github.com/embergpu/hal/resource"
	"github.com/embergpu/hal/shaderview"
	"github.com/embergpu/hal/types"
)

// Constructor writes shader tables against the pools' views of the
// referenced objects.
type Constructor struct {
	shaderViews  *shaderview.Pool
	resources    *resource.Pool
	pipelines    *pipeline.Pool
	accelStructs *accelstruct.Pool
}

// New creates a Constructor over the given pools.
func New(shaderViews *shaderview.Pool, resources *resource.Pool, pipelines *pipeline.Pool, accelStructs *accelstruct.Pool) *Constructor {
	return &Constructor{
		shaderViews:  shaderViews,
		resources:    resources,
		pipelines:    pipelines,
		accelStructs: accelStructs,
	}
}

func alignUp(v, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}

// recordSize returns the stride shared by all records of one table: the
// identifier plus 8 bytes per pointer-sized block of the largest record,
// aligned to the native record alignment.
func (c *Constructor) recordSize(records []types.ShaderTableRecord) uint32 {
	max8ByteBlocks := uint32(0)

	for _, rec := range records {
		blocks := uint32(0)
		for _, arg := range rec.Arguments {
			if arg.ConstantBuffer.Valid() {
				blocks++
			}
			if arg.ShaderView.Valid() {
				if c.shaderViews.HasSRVsUAVs(arg.ShaderView) {
					blocks++
				}
				if c.shaderViews.HasSamplers(arg.ShaderView) {
					blocks++
				}
			}
		}
		if n := len(rec.RootConstants); n > 0 {
			blocks += (uint32(n) + 7) / 8
		}
		if blocks > max8ByteBlocks {
			max8ByteBlocks = blocks
		}
	}

	unaligned := uint32(nativeapi.ShaderIdentifierSize) + 8*max8ByteBlocks
	return alignUp(unaligned, nativeapi.ShaderTableAlignment)
}

// CalculateSizes computes the strides and total sizes of the ray-gen,
// miss, hit-group, and callable tables of one dispatch.
func (c *Constructor) CalculateSizes(rayGen types.ShaderTableRecord, miss, hitGroups, callable []types.ShaderTableRecord) types.ShaderTableStrides {
	var s types.ShaderTableStrides
	s.SizeRayGen = c.recordSize([]types.ShaderTableRecord{rayGen})

	s.StrideMiss = c.recordSize(miss)
	s.SizeMiss = s.StrideMiss * uint32(len(miss))

	s.StrideHitGroup = c.recordSize(hitGroups)
	s.SizeHitGroup = s.StrideHitGroup * uint32(len(hitGroups))

	s.StrideCallable = c.recordSize(callable)
	s.SizeCallable = s.StrideCallable * uint32(len(callable))
	return s
}

// Write writes the given records into dest at the given stride. pso must
// be a raytracing pipeline; each record's written data is verified
// against the pipeline's declared argument info. A zero stride is only
// allowed for single-record tables (the ray-gen table).
func (c *Constructor) Write(dest []byte, pso types.PipelineState, stride uint32, records []types.ShaderTableRecord) {
	diag.Assert(c.pipelines.IsRaytracing(pso), "shadertable: non-raytracing pipeline %v", pso)
	diag.Assert(stride != 0 || len(records) == 1, "shadertable: zero stride with %d records", len(records))

	rtNode := c.pipelines.GetRaytracing(pso)

	recordStart := 0
	for _, rec := range records {
		var info pipeline.ShaderExportInfo
		switch rec.Kind {
		case types.RecordIdentifiableShader:
			diag.Assert(int(rec.TargetIndex) < len(rtNode.IdentifiableShaders),
				"shadertable: identifiable shader index %d out of bounds", rec.TargetIndex)
			info = rtNode.IdentifiableShaders[rec.TargetIndex]
		case types.RecordHitGroup:
			diag.Assert(int(rec.TargetIndex) < len(rtNode.HitGroups),
				"shadertable: hit group index %d out of bounds", rec.TargetIndex)
			info = rtNode.HitGroups[rec.TargetIndex]
		}

		cursor := recordStart
		copy(dest[cursor:], info.Identifier[:])
		cursor += nativeapi.ShaderIdentifierSize

		for i, arg := range rec.Arguments {
			if arg.ConstantBuffer.Valid() {
				diag.Assert(info.ArgInfo.HasCBV(i), "shadertable: writing CBV where none is declared (arg %d)", i)
				bufInfo := c.resources.Node(arg.ConstantBuffer).Buffer
				diag.Assert(uint64(arg.ConstantBufferOffset) < bufInfo.WidthBytes,
					"shadertable: CBV offset %d out of bounds", arg.ConstantBufferOffset)
				binary.LittleEndian.PutUint64(dest[cursor:], bufInfo.GPUVA+uint64(arg.ConstantBufferOffset))
				cursor += 8
			} else {
				diag.Assert(!info.ArgInfo.HasCBV(i), "shadertable: omitting CBV where one is declared (arg %d)", i)
			}

			if arg.ShaderView.Valid() {
				if c.shaderViews.HasSRVsUAVs(arg.ShaderView) {
					diag.Assert(info.ArgInfo.HasSRVUAV(i), "shadertable: writing SRV/UAV table where none is declared (arg %d)", i)
					binary.LittleEndian.PutUint64(dest[cursor:], c.shaderViews.SRVUAVGPUHandle(arg.ShaderView).Ptr)
					cursor += 8
				} else {
					diag.Assert(!info.ArgInfo.HasSRVUAV(i), "shadertable: shader view without SRVs/UAVs where they are declared (arg %d)", i)
				}
				if c.shaderViews.HasSamplers(arg.ShaderView) {
					diag.Assert(info.ArgInfo.HasSampler(i), "shadertable: writing sampler table where none is declared (arg %d)", i)
					binary.LittleEndian.PutUint64(dest[cursor:], c.shaderViews.SamplerGPUHandle(arg.ShaderView).Ptr)
					cursor += 8
				} else {
					diag.Assert(!info.ArgInfo.HasSampler(i), "shadertable: shader view without samplers where they are declared (arg %d)", i)
				}
			} else {
				diag.Assert(!info.ArgInfo.HasSRVUAV(i) && !info.ArgInfo.HasSampler(i),
					"shadertable: omitting shader view where one is declared (arg %d)", i)
			}
		}

		if len(rec.RootConstants) > 0 {
			diag.Assert(info.ArgInfo.HasRootConsts, "shadertable: writing root constants where none are declared")
			copy(dest[cursor:], rec.RootConstants)
			cursor += int(alignUp(uint32(len(rec.RootConstants)), 8))
		} else {
			diag.Assert(!info.ArgInfo.HasRootConsts, "shadertable: omitting root constants where they are declared")
		}

		recordStart += int(stride)
		diag.Assert(stride == 0 || cursor <= recordStart, "shadertable: stride %d too small for record", stride)
	}
}
