// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package shaderview

import (
	"testing"

	"github.com/embergpu/hal/d3d12sim"
	"github.com/embergpu/hal/resource"
	"github.com/embergpu/hal/types"
)

func newTestPools(t *testing.T) (*Pool, *resource.Pool) {
	t.Helper()
	dev := d3d12sim.NewDevice()
	res := resource.NewPool(dev, 64, 1)
	sv := NewPool(dev, res, 32, 256, 64)
	t.Cleanup(func() {
		sv.Destroy()
		res.Destroy()
		dev.Destroy()
	})
	return sv, res
}

func TestCreatePopulatedView(t *testing.T) {
	svPool, resPool := newTestPools(t)

	tex := resPool.CreateTexture(types.FormatRGBA8UN, 16, 16, 1, types.Texture2D, 1, false, "tex")
	buf := resPool.CreateBuffer(256, 16, types.HeapGPU, true, "structured")
	defer resPool.Free(tex)
	defer resPool.Free(buf)

	sv := svPool.Create(
		[]types.ResourceView{types.TextureView(tex, types.FormatRGBA8UN)},
		[]types.ResourceView{types.BufferView(buf, 0, 16, 16)},
		[]types.SamplerConfig{types.DefaultSampler()},
	)
	defer svPool.Free(sv)

	if !svPool.HasSRVsUAVs(sv) || !svPool.HasSamplers(sv) {
		t.Fatal("populated view reports empty ranges")
	}
	if svPool.SRVUAVGPUHandle(sv).Ptr == 0 {
		t.Fatal("SRV+UAV GPU handle is null")
	}
	if svPool.SamplerGPUHandle(sv).Ptr == 0 {
		t.Fatal("sampler GPU handle is null")
	}
}

func TestEmptyViewIsValid(t *testing.T) {
	svPool, _ := newTestPools(t)

	sv := svPool.Create(nil, nil, nil)
	defer svPool.Free(sv)

	if !sv.Valid() {
		t.Fatal("empty view handle is null")
	}
	if svPool.HasSRVsUAVs(sv) || svPool.HasSamplers(sv) {
		t.Fatal("empty view reports populated ranges")
	}
	if svPool.SRVUAVGPUHandle(sv).Ptr != 0 || svPool.SamplerGPUHandle(sv).Ptr != 0 {
		t.Fatal("empty view carries non-null GPU descriptors")
	}
}

func TestContiguousRanges(t *testing.T) {
	svPool, resPool := newTestPools(t)

	buf := resPool.CreateBuffer(1024, 4, types.HeapGPU, true, "buf")
	defer resPool.Free(buf)

	view := types.BufferView(buf, 0, 256, 4)

	// Two views; the second's range must start on a fresh page, not
	// overlap the first.
	sv1 := svPool.Create([]types.ResourceView{view, view, view}, nil, nil)
	sv2 := svPool.Create([]types.ResourceView{view}, nil, nil)
	defer svPool.Free(sv1)
	defer svPool.Free(sv2)

	if svPool.SRVUAVGPUHandle(sv1) == svPool.SRVUAVGPUHandle(sv2) {
		t.Fatal("two views share a descriptor range")
	}
}

func TestPartialUpdate(t *testing.T) {
	svPool, resPool := newTestPools(t)

	bufA := resPool.CreateBuffer(64, 4, types.HeapGPU, false, "a")
	bufB := resPool.CreateBuffer(64, 4, types.HeapGPU, false, "b")
	defer resPool.Free(bufA)
	defer resPool.Free(bufB)

	sv := svPool.Create([]types.ResourceView{
		types.BufferView(bufA, 0, 16, 4),
		types.BufferView(bufA, 0, 16, 4),
	}, nil, []types.SamplerConfig{types.DefaultSampler()})
	defer svPool.Free(sv)

	// Overwrite the second SRV in place.
	svPool.WriteSRVs(sv, 1, []types.ResourceView{types.BufferView(bufB, 0, 16, 4)})

	// The GPU handle is unchanged: descriptors were rewritten in place.
	if svPool.SRVUAVGPUHandle(sv).Ptr == 0 {
		t.Fatal("partial update invalidated the view")
	}

	svPool.WriteSamplers(sv, 0, []types.SamplerConfig{types.DefaultSampler()})
}

func TestRangeReuseAfterFree(t *testing.T) {
	svPool, resPool := newTestPools(t)

	buf := resPool.CreateBuffer(64, 4, types.HeapGPU, false, "buf")
	defer resPool.Free(buf)
	view := types.BufferView(buf, 0, 16, 4)

	sv1 := svPool.Create([]types.ResourceView{view}, nil, nil)
	first := svPool.SRVUAVGPUHandle(sv1)
	svPool.Free(sv1)

	sv2 := svPool.Create([]types.ResourceView{view}, nil, nil)
	defer svPool.Free(sv2)
	if svPool.SRVUAVGPUHandle(sv2) != first {
		t.Fatal("freed descriptor range was not reused first-fit")
	}
	expectPanic(t, "stale handle access", func() { svPool.HasSRVsUAVs(sv1) })
}

func expectPanic(t *testing.T, what string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s did not panic", what)
		}
	}()
	fn()
}
