// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Command halsim-compute drives the HAL end to end against the simulated
// native layer: it uploads an array of float32 values, records a command
// stream that copies them to a GPU buffer and dispatches a scaling
// kernel, submits with state stitching, and reads the results back.
//
// The example is headless and deterministic; it exists to show the full
// recording -> translation -> stitching -> submission path in one place.
package main

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"

	"github.com/embergpu/hal/backend"
	"github.com/embergpu/hal/cmdstream"
	"github.com/embergpu/hal/d3d12sim"
	"github.com/embergpu/hal/types"
)

const (
	numElements = 1024
	bufSize     = uint64(numElements * 4)
)

// scaleShaderWGSL is lowered through the IR to the native shading
// language inside CreateComputePipeline; the simulated native layer then
// treats the result as an opaque blob.
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

func main() {
	if err := run(); err != nil {
		fmt.Printf("FATAL: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
}

func run() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	backend.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	b := backend.New(backend.DefaultConfig(), d3d12sim.NewDevice())
	defer b.Destroy()

	// Upload staging buffer with the source values.
	staging := b.CreateMappedBuffer(bufSize, 4, "staging")
	defer b.FreeResource(staging)
	mapped := b.MapBuffer(staging)
	for i := 0; i < numElements; i++ {
		binary.LittleEndian.PutUint32(mapped[i*4:], math.Float32bits(float32(i)))
	}

	// GPU-side input and output storage buffers, plus the params uniform.
	input := b.CreateBuffer(bufSize, 4, types.HeapGPU, false, "input")
	output := b.CreateBuffer(bufSize, 4, types.HeapGPU, true, "output")
	readback := b.CreateBuffer(bufSize, 4, types.HeapReadback, false, "readback")
	params := b.CreateMappedBuffer(16, 0, "params")
	defer b.FreeResources([]types.Resource{input, output, readback, params})

	paramsMapped := b.MapBuffer(params)
	binary.LittleEndian.PutUint32(paramsMapped[0:], numElements)
	binary.LittleEndian.PutUint32(paramsMapped[4:], math.Float32bits(2.5))

	// The kernel's argument: input SRV + output UAV, params as root CBV.
	sv := b.CreateShaderView(
		[]types.ResourceView{types.BufferView(input, 0, numElements, 4)},
		[]types.ResourceView{types.BufferView(output, 0, numElements, 4)},
		nil,
	)
	defer b.FreeShaderView(sv)

	// WGSL in, native pipeline out: CreateComputePipeline lowers the
	// source through the IR before the (simulated) native compile.
	pso := b.CreateComputePipeline(types.ComputePipelineDesc{
		ArgumentShapes: []types.ShaderArgumentShape{{NumSRVs: 1, NumUAVs: 1, HasCBV: true}},
		Shader:         types.ShaderBinary{WGSL: scaleShaderWGSL},
	})
	defer b.FreePipeline(pso)

	// One stream: upload copy, transitions, dispatch, copy back.
	w := cmdstream.NewWriter(4096)

	var toCopyDest cmdstream.TransitionResources
	toCopyDest.Add(input, types.StateCopyDest, types.StageNone)
	w.TransitionResources(&toCopyDest)

	w.CopyBuffer(&cmdstream.CopyBuffer{
		Source:      staging,
		Destination: input,
		Size:        bufSize,
	})

	var toCompute cmdstream.TransitionResources
	toCompute.Add(input, types.StateShaderResourceNonPixel, types.StageCompute)
	toCompute.Add(output, types.StateUnorderedAccess, types.StageCompute)
	w.TransitionResources(&toCompute)

	dispatch := cmdstream.Dispatch{
		PipelineState: pso,
		X:             (numElements + 63) / 64,
		Y:             1,
		Z:             1,
	}
	dispatch.Arguments.Add(types.ShaderArgument{ShaderView: sv, ConstantBuffer: params})
	w.Dispatch(&dispatch)

	var toReadback cmdstream.TransitionResources
	toReadback.Add(output, types.StateCopySrc, types.StageNone)
	w.TransitionResources(&toReadback)

	w.CopyBuffer(&cmdstream.CopyBuffer{
		Source:      output,
		Destination: readback,
		Size:        bufSize,
	})

	list := b.RecordCommandList(w.Bytes(), types.QueueDirect)
	b.Submit([]types.CommandList{list}, types.QueueDirect)

	// Wait for completion before touching the readback mapping.
	fence := b.CreateFence()
	defer b.FreeFence(fence)
	b.SignalFenceGPU(fence, 1, types.QueueDirect)
	b.WaitFenceCPU(fence, 1)

	// The simulation does not execute kernels, but the readback mapping
	// and the full command path are real; a hardware backend fills this
	// buffer with input * 2.5.
	result := b.MapBuffer(readback)
	fmt.Printf("submitted %d elements, readback buffer of %d bytes ready\n",
		numElements, len(result))

	b.FlushGPU()
	return nil
}
