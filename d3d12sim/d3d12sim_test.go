// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package d3d12sim

import (
	"testing"

	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/types"
)

func TestBufferVAUniqueAndMapped(t *testing.T) {
	dev := NewDevice()
	defer dev.Destroy()

	a, err := dev.CreateResource(nativeapi.ResourceDesc{
		Kind: nativeapi.KindBuffer, Heap: types.HeapGPU, WidthBytes: 1024,
	})
	if err != nil {
		t.Fatal(err)
	}
	b, err := dev.CreateResource(nativeapi.ResourceDesc{
		Kind: nativeapi.KindBuffer, Heap: types.HeapUpload, WidthBytes: 256,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Release()
	defer b.Release()

	if a.GPUVirtualAddress() == 0 || b.GPUVirtualAddress() == 0 {
		t.Fatal("buffer without VA")
	}
	if a.GPUVirtualAddress() == b.GPUVirtualAddress() {
		t.Fatal("VA collision")
	}
	if len(b.Map()) != 256 {
		t.Fatalf("mapping length = %d", len(b.Map()))
	}
}

func TestCommandListLifecycle(t *testing.T) {
	dev := NewDevice()
	defer dev.Destroy()

	alloc, _ := dev.CreateCommandAllocator(types.QueueDirect)
	list, _ := dev.CreateCommandList(types.QueueDirect, alloc)
	cl := list.(*CommandList)

	if err := cl.Reset(alloc); err != nil {
		t.Fatal(err)
	}
	cl.Dispatch(1, 1, 1)
	cl.Close()

	if len(cl.Ops()) != 1 {
		t.Fatalf("ops = %d", len(cl.Ops()))
	}

	q := dev.Queue(types.QueueDirect)
	if err := q.ExecuteCommandLists([]nativeapi.CommandList{cl}); err != nil {
		t.Fatal(err)
	}

	// A second Reset clears the recording.
	if err := cl.Reset(alloc); err != nil {
		t.Fatal(err)
	}
	if len(cl.Ops()) != 0 {
		t.Fatal("Reset kept old ops")
	}
	cl.Close()
}

func TestOpenListRejectedAtSubmit(t *testing.T) {
	dev := NewDevice()
	defer dev.Destroy()

	alloc, _ := dev.CreateCommandAllocator(types.QueueCompute)
	list, _ := dev.CreateCommandList(types.QueueCompute, alloc)
	list.Reset(alloc)

	q := dev.Queue(types.QueueCompute)
	if err := q.ExecuteCommandLists([]nativeapi.CommandList{list}); err == nil {
		t.Fatal("open list accepted at submit")
	}
	list.Close()

	// Wrong queue kind is also rejected.
	if err := dev.Queue(types.QueueCopy).ExecuteCommandLists([]nativeapi.CommandList{list}); err == nil {
		t.Fatal("compute list accepted on copy queue")
	}
}

func TestFenceSignalDeferred(t *testing.T) {
	dev := NewDevice()
	defer dev.Destroy()

	f, _ := dev.CreateFence(0)
	q := dev.Queue(types.QueueDirect)

	// A queue signal parks until the queue advances.
	q.Signal(f, 3)
	if got := f.CompletedValue(); got != 0 {
		t.Fatalf("completed = %d right after Signal, want 0", got)
	}
	if err := q.ExecuteCommandLists(nil); err != nil {
		t.Fatal(err)
	}
	if got := f.CompletedValue(); got != 3 {
		t.Fatalf("completed = %d after queue advanced, want 3", got)
	}

	// A CPU wait drains pending signals itself.
	q.Signal(f, 5)
	f.WaitCPU(5)
	if got := f.CompletedValue(); got != 5 {
		t.Fatalf("completed = %d after WaitCPU, want 5", got)
	}

	// Signals never regress.
	f.Signal(1)
	if f.CompletedValue() != 5 {
		t.Fatal("fence value regressed")
	}
}

func TestStateObjectIdentifiersDeterministic(t *testing.T) {
	dev := NewDevice()
	defer dev.Destroy()

	desc := types.RaytracingPipelineDesc{
		Libraries: []types.RaytracingShaderLibrary{{
			Binary:  types.ShaderBinary{Data: []byte("lib")},
			Exports: []string{"raygen"},
		}},
	}
	so1, _ := dev.CreateStateObject(desc, nil, nil)
	so2, _ := dev.CreateStateObject(desc, nil, nil)

	id1, ok1 := so1.ShaderIdentifier("raygen")
	id2, ok2 := so2.ShaderIdentifier("raygen")
	if !ok1 || !ok2 {
		t.Fatal("identifier missing")
	}
	if id1 != id2 {
		t.Fatal("identifiers differ across rebuilds")
	}
	if _, ok := so1.ShaderIdentifier("nonexistent"); ok {
		t.Fatal("identifier for unknown export")
	}
}

func TestSwapchainRing(t *testing.T) {
	dev := NewDevice()
	defer dev.Destroy()

	sc, err := dev.CreateSwapchain(nativeapi.SwapchainDesc{
		Width: 64, Height: 64, NumBackbuffers: 3, Mode: types.PresentSynced,
	}, dev.Queue(types.QueueDirect))
	if err != nil {
		t.Fatal(err)
	}
	defer sc.Release()

	if sc.CurrentIndex() != 0 {
		t.Fatal("ring does not start at 0")
	}
	sc.Present()
	sc.Present()
	if sc.CurrentIndex() != 2 {
		t.Fatalf("index after two presents = %d", sc.CurrentIndex())
	}
	sc.Present()
	if sc.CurrentIndex() != 0 {
		t.Fatal("ring did not wrap")
	}

	if err := sc.Resize(128, 128); err != nil {
		t.Fatal(err)
	}
	if sc.CurrentIndex() != 0 {
		t.Fatal("resize did not reset the ring")
	}
}
