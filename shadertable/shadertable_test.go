// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package shadertable

import (
	"encoding/binary"
	"testing"

	"github.com/embergpu/hal/accelstruct"
	"github.com/embergpu/hal/d3d12sim"
	"github.com/embergpu/hal/pipeline"
	"github.com/embergpu/hal/resource"
	"github.com/embergpu/hal/shaderview"
	"github.com/embergpu/hal/types"
)

type testEnv struct {
	resources   *resource.Pool
	shaderViews *shaderview.Pool
	pipelines   *pipeline.Pool
	ctor        *Constructor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dev := d3d12sim.NewDevice()
	env := &testEnv{}
	env.resources = resource.NewPool(dev, 64, 1)
	env.shaderViews = shaderview.NewPool(dev, env.resources, 16, 128, 32)
	env.pipelines = pipeline.NewPool(dev, 8, 4)
	accels := accelstruct.NewPool(dev, env.resources, 4)
	env.ctor = New(env.shaderViews, env.resources, env.pipelines, accels)
	t.Cleanup(func() {
		env.pipelines.Destroy()
		env.shaderViews.Destroy()
		env.resources.Destroy()
		dev.Destroy()
	})
	return env
}

func (e *testEnv) newRaytracingPSO(rayGenShapes []types.ShaderArgumentShape, rayGenRootConsts bool) types.PipelineState {
	return e.pipelines.CreateRaytracing(types.RaytracingPipelineDesc{
		Libraries: []types.RaytracingShaderLibrary{{
			Binary:  types.ShaderBinary{Data: []byte("lib")},
			Exports: []string{"raygen", "miss", "chit"},
		}},
		ArgAssociations: []types.RaytracingArgAssociation{{
			TargetExports:    []string{"raygen"},
			ArgumentShapes:   rayGenShapes,
			HasRootConstants: rayGenRootConsts,
		}},
		HitGroups: []types.RaytracingHitGroup{{
			Name:             "hg",
			ClosestHitExport: "chit",
		}},
		MaxRecursion:    1,
		MaxPayloadBytes: 16,
	})
}

func TestRecordSizeCBVOnly(t *testing.T) {
	env := newTestEnv(t)

	// Ray-gen record with one {CBV, no shader view, no root constants}
	// argument: identifier(32) + CBV VA(8) = 40, aligned up to 64.
	pso := env.newRaytracingPSO([]types.ShaderArgumentShape{{HasCBV: true}}, false)
	defer env.pipelines.Free(pso)

	cb := env.resources.CreateBuffer(256, 0, types.HeapGPU, false, "cb")
	defer env.resources.Free(cb)

	rayGen := types.ShaderTableRecord{
		Kind:      types.RecordIdentifiableShader,
		Arguments: []types.ShaderArgument{{ConstantBuffer: cb}},
	}
	sizes := env.ctor.CalculateSizes(rayGen, nil, nil, nil)
	if sizes.SizeRayGen != 64 {
		t.Fatalf("ray-gen record size = %d, want 64", sizes.SizeRayGen)
	}
}

func TestWriteAndParseBack(t *testing.T) {
	env := newTestEnv(t)

	pso := env.newRaytracingPSO([]types.ShaderArgumentShape{{HasCBV: true, NumSRVs: 1}}, true)
	defer env.pipelines.Free(pso)

	cb := env.resources.CreateBuffer(512, 0, types.HeapGPU, false, "cb")
	tex := env.resources.CreateTexture(types.FormatRGBA8UN, 8, 8, 1, types.Texture2D, 1, false, "tex")
	defer env.resources.Free(cb)
	defer env.resources.Free(tex)

	sv := env.shaderViews.Create([]types.ResourceView{types.TextureView(tex, types.FormatRGBA8UN)}, nil, nil)
	defer env.shaderViews.Free(sv)

	rec := types.ShaderTableRecord{
		Kind: types.RecordIdentifiableShader,
		Arguments: []types.ShaderArgument{{
			ConstantBuffer:       cb,
			ConstantBufferOffset: 256,
			ShaderView:           sv,
		}},
		RootConstants: []byte{1, 2, 3, 4, 5},
	}

	sizes := env.ctor.CalculateSizes(rec, nil, nil, nil)
	// identifier(32) + CBV(8) + SRV table(8) + root constants ceil(5/8)=1
	// block(8) = 56, aligned to 64.
	if sizes.SizeRayGen != 64 {
		t.Fatalf("record size = %d, want 64", sizes.SizeRayGen)
	}

	buf := make([]byte, sizes.SizeRayGen)
	env.ctor.Write(buf, pso, 0, []types.ShaderTableRecord{rec})

	// Parse back using the same pipeline info.
	rtNode := env.pipelines.GetRaytracing(pso)
	wantID := rtNode.IdentifiableShaders[0].Identifier
	var gotID [32]byte
	copy(gotID[:], buf[:32])
	if gotID != wantID {
		t.Fatal("identifier mismatch")
	}

	wantVA := env.resources.Node(cb).Buffer.GPUVA + 256
	if got := binary.LittleEndian.Uint64(buf[32:]); got != wantVA {
		t.Fatalf("CBV VA = %#x, want %#x", got, wantVA)
	}
	wantTable := env.shaderViews.SRVUAVGPUHandle(sv).Ptr
	if got := binary.LittleEndian.Uint64(buf[40:]); got != wantTable {
		t.Fatalf("SRV table = %#x, want %#x", got, wantTable)
	}
	if got := buf[48:53]; got[0] != 1 || got[4] != 5 {
		t.Fatalf("root constants = %v", got)
	}
}

func TestStrideSharedAcrossRecords(t *testing.T) {
	env := newTestEnv(t)

	pso := env.newRaytracingPSO(nil, false)
	defer env.pipelines.Free(pso)

	// Two miss records with no arguments: stride is the identifier
	// aligned to 64; the second record starts exactly one stride in.
	miss := []types.ShaderTableRecord{
		{Kind: types.RecordIdentifiableShader, TargetIndex: 1},
		{Kind: types.RecordIdentifiableShader, TargetIndex: 1},
	}
	sizes := env.ctor.CalculateSizes(types.ShaderTableRecord{Kind: types.RecordIdentifiableShader}, miss, nil, nil)
	if sizes.StrideMiss != 64 || sizes.SizeMiss != 128 {
		t.Fatalf("miss stride/size = %d/%d, want 64/128", sizes.StrideMiss, sizes.SizeMiss)
	}

	buf := make([]byte, sizes.SizeMiss)
	env.ctor.Write(buf, pso, sizes.StrideMiss, miss)

	rtNode := env.pipelines.GetRaytracing(pso)
	missID := rtNode.IdentifiableShaders[1].Identifier
	if string(buf[0:32]) != string(missID[:]) || string(buf[64:96]) != string(missID[:]) {
		t.Fatal("record identifiers not written at stride boundaries")
	}
}

func TestMismatchedWriteIsFatal(t *testing.T) {
	env := newTestEnv(t)

	pso := env.newRaytracingPSO([]types.ShaderArgumentShape{{HasCBV: true}}, false)
	defer env.pipelines.Free(pso)

	// Omitting the declared CBV must assert.
	rec := types.ShaderTableRecord{
		Kind:      types.RecordIdentifiableShader,
		Arguments: []types.ShaderArgument{{}},
	}
	buf := make([]byte, 64)
	defer func() {
		if recover() == nil {
			t.Fatal("mismatched shader table write did not panic")
		}
	}()
	env.ctor.Write(buf, pso, 0, []types.ShaderTableRecord{rec})
}

func TestHitGroupRecord(t *testing.T) {
	env := newTestEnv(t)

	pso := env.newRaytracingPSO(nil, false)
	defer env.pipelines.Free(pso)

	rec := types.ShaderTableRecord{Kind: types.RecordHitGroup, TargetIndex: 0}
	buf := make([]byte, 64)
	env.ctor.Write(buf, pso, 0, []types.ShaderTableRecord{rec})

	rtNode := env.pipelines.GetRaytracing(pso)
	hgID := rtNode.HitGroups[0].Identifier
	if string(buf[:32]) != string(hgID[:]) {
		t.Fatal("hit group identifier not written")
	}
}
