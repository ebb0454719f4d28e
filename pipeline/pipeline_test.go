// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"testing"

	"github.com/embergpu/hal/d3d12sim"
	"github.com/embergpu/hal/types"
)

func newTestPool(t *testing.T) *Pool {
	t.Helper()
	dev := d3d12sim.NewDevice()
	p := NewPool(dev, 16, 4)
	t.Cleanup(func() {
		p.Destroy()
		dev.Destroy()
	})
	return p
}

func graphicsDesc() types.GraphicsPipelineDesc {
	return types.GraphicsPipelineDesc{
		VertexFormat: types.VertexFormat{
			Attributes: []types.VertexAttribute{{Semantic: "POSITION", Format: types.FormatRGB32F}},
			Stride:     12,
		},
		Framebuffer: types.FramebufferConfig{
			RenderTargets: []types.Format{types.FormatRGBA8UN},
		},
		ArgumentShapes: []types.ShaderArgumentShape{{NumSRVs: 1, HasCBV: true}},
		Shaders: []types.GraphicsShaderStage{
			{Stage: types.StageVertex, Binary: types.ShaderBinary{Data: []byte("vs")}},
			{Stage: types.StagePixel, Binary: types.ShaderBinary{Data: []byte("ps")}},
		},
		Config: types.DefaultPrimitiveConfig(),
	}
}

func TestGraphicsAndComputeShareRootSig(t *testing.T) {
	p := newTestPool(t)

	g1 := p.CreateGraphics(graphicsDesc())
	g2 := p.CreateGraphics(graphicsDesc())
	defer p.Free(g1)
	defer p.Free(g2)

	if p.Get(g1).RootSig != p.Get(g2).RootSig {
		t.Fatal("identical argument shapes did not share a root signature")
	}
	if p.Get(g1) == p.Get(g2) {
		t.Fatal("two creations returned the same node")
	}
}

func TestRaytracingHandleRange(t *testing.T) {
	p := newTestPool(t)

	g := p.CreateGraphics(graphicsDesc())
	defer p.Free(g)
	if p.IsRaytracing(g) {
		t.Fatal("graphics handle classified as raytracing")
	}

	rt := p.CreateRaytracing(types.RaytracingPipelineDesc{
		Libraries: []types.RaytracingShaderLibrary{{
			Binary:  types.ShaderBinary{Data: []byte("rtlib")},
			Exports: []string{"raygen", "miss", "closest_hit"},
		}},
		ArgAssociations: []types.RaytracingArgAssociation{{
			TargetExports:  []string{"raygen"},
			ArgumentShapes: []types.ShaderArgumentShape{{HasCBV: true}},
		}},
		HitGroups: []types.RaytracingHitGroup{{
			Name:             "hg_main",
			ClosestHitExport: "closest_hit",
		}},
		MaxRecursion:    1,
		MaxPayloadBytes: 16,
	})
	defer p.Free(rt)

	if !p.IsRaytracing(rt) {
		t.Fatal("raytracing handle not classified as raytracing")
	}

	node := p.GetRaytracing(rt)
	// raygen and miss are identifiable shaders; closest_hit is consumed
	// by the hit group.
	if len(node.IdentifiableShaders) != 2 {
		t.Fatalf("identifiable shaders = %d, want 2", len(node.IdentifiableShaders))
	}
	if len(node.HitGroups) != 1 || node.HitGroups[0].Name != "hg_main" {
		t.Fatalf("hit groups = %+v", node.HitGroups)
	}
	if !node.IdentifiableShaders[0].ArgInfo.HasCBV(0) {
		t.Fatal("raygen argument info lost its CBV declaration")
	}
	if node.IdentifiableShaders[1].ArgInfo.HasCBV(0) {
		t.Fatal("miss inherited raygen's argument info")
	}

	var zero [32]byte
	if node.HitGroups[0].Identifier == zero {
		t.Fatal("hit group identifier is zero")
	}
}

// scaleShaderWGSL is a known-good compute kernel used to exercise the
// WGSL lowering path end to end.
const scaleShaderWGSL = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> output: array<f32>;

struct Params {
    count: u32,
    scale: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    let i = id.x;
    if (i >= params.count) {
        return;
    }
    output[i] = input[i] * params.scale;
}
`

func TestTranslateWGSL(t *testing.T) {
	translated, err := TranslateWGSL(scaleShaderWGSL)
	if err != nil {
		t.Fatalf("TranslateWGSL: %v", err)
	}
	if len(translated.Binary.Data) == 0 {
		t.Fatal("translation produced an empty blob")
	}
	if _, ok := translated.EntryPoints[types.StageCompute]; !ok {
		t.Fatalf("compute entry point missing, got %v", translated.EntryPoints)
	}
}

func TestComputePipelineFromWGSL(t *testing.T) {
	p := newTestPool(t)

	// WGSL source instead of a precompiled blob: CreateCompute lowers it
	// before the native compile.
	c := p.CreateCompute(types.ComputePipelineDesc{
		ArgumentShapes: []types.ShaderArgumentShape{{NumSRVs: 1, NumUAVs: 1, HasCBV: true}},
		Shader:         types.ShaderBinary{WGSL: scaleShaderWGSL},
	})
	defer p.Free(c)

	if !p.Get(c).Compute {
		t.Fatal("WGSL compute pipeline not marked compute")
	}
}

func TestComputeTopologyAndKind(t *testing.T) {
	p := newTestPool(t)

	c := p.CreateCompute(types.ComputePipelineDesc{
		ArgumentShapes:   []types.ShaderArgumentShape{{NumUAVs: 1}},
		HasRootConstants: true,
		Shader:           types.ShaderBinary{Data: []byte("cs")},
	})
	defer p.Free(c)

	node := p.Get(c)
	if !node.Compute {
		t.Fatal("compute node not marked compute")
	}
	if !node.RootSig.HasRootConstants() {
		t.Fatal("root constants dropped")
	}
}
