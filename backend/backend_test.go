// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package backend

import (
	"runtime"
	"testing"

	"github.com/embergpu/hal/cmdstream"
	"github.com/embergpu/hal/d3d12sim"
	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/types"
)

// newTestBackend pins the test to one OS thread — recording requires
// thread affinity — and assembles a backend over the simulated device.
func newTestBackend(t *testing.T) (*Backend, *d3d12sim.Device) {
	t.Helper()
	runtime.LockOSThread()
	t.Cleanup(runtime.UnlockOSThread)

	dev := d3d12sim.NewDevice()
	cfg := DefaultConfig()
	cfg.MaxNumResources = 128
	cfg.MaxNumCBVs = 32
	b := New(cfg, dev)
	t.Cleanup(b.Destroy)
	return b, dev
}

// recordTransitions encodes a list of whole-resource transitions and
// records them into a command list.
func recordTransitions(b *Backend, queue types.QueueKind, res types.Resource, states ...types.ResourceState) types.CommandList {
	w := cmdstream.NewWriter(512)
	for _, s := range states {
		var trans cmdstream.TransitionResources
		trans.Add(res, s, types.StagePixel)
		w.TransitionResources(&trans)
	}
	return b.RecordCommandList(w.Bytes(), queue)
}

// directBatches returns the simulated direct queue's submission history.
func directBatches(dev *d3d12sim.Device) [][]*d3d12sim.CommandList {
	return dev.Queue(types.QueueDirect).(*d3d12sim.Queue).SubmittedBatches()
}

func transitionsIn(list *d3d12sim.CommandList) []nativeapi.Barrier {
	var out []nativeapi.Barrier
	for _, op := range list.Ops() {
		if b, ok := op.(d3d12sim.OpResourceBarrier); ok {
			for _, barrier := range b.Barriers {
				if barrier.Kind == nativeapi.BarrierTransition {
					out = append(out, barrier)
				}
			}
		}
	}
	return out
}

func TestStitchSingleResource(t *testing.T) {
	b, dev := newTestBackend(t)

	// R starts in copy_dest (texture initial state). L1 transitions it
	// to shader_resource only.
	r := b.CreateTexture(types.FormatRGBA8UN, 16, 16, 1, types.Texture2D, 1, false, "R")
	defer b.FreeResource(r)

	l1 := recordTransitions(b, types.QueueDirect, r, types.StateShaderResource)
	b.Submit([]types.CommandList{l1}, types.QueueDirect)

	batches := directBatches(dev)
	if len(batches) != 1 {
		t.Fatalf("submissions = %d, want 1", len(batches))
	}
	batch := batches[0]
	// Prelude plus the user list.
	if len(batch) != 2 {
		t.Fatalf("batch lists = %d, want 2 (prelude + list)", len(batch))
	}

	prelude := transitionsIn(batch[0])
	if len(prelude) != 1 {
		t.Fatalf("prelude barriers = %d, want 1", len(prelude))
	}
	if prelude[0].Before != types.StateCopyDest || prelude[0].After != types.StateShaderResource {
		t.Fatalf("prelude barrier = %v -> %v", prelude[0].Before, prelude[0].After)
	}
	if n := len(transitionsIn(batch[1])); n != 0 {
		t.Fatalf("user list barriers = %d, want 0", n)
	}

	if got := b.resources.State(r); got != types.StateShaderResource {
		t.Fatalf("master state = %v, want shader_resource", got)
	}
}

func TestStitchRedundant(t *testing.T) {
	b, dev := newTestBackend(t)

	r := b.CreateTexture(types.FormatRGBA8UN, 16, 16, 1, types.Texture2D, 1, false, "R")
	defer b.FreeResource(r)
	b.resources.SetState(r, types.StateShaderResource)

	l1 := recordTransitions(b, types.QueueDirect, r, types.StateShaderResource)
	b.Submit([]types.CommandList{l1}, types.QueueDirect)

	batches := directBatches(dev)
	// No prelude list at all: the batch is just L1.
	if len(batches) != 1 || len(batches[0]) != 1 {
		t.Fatalf("batches = %v", batches)
	}
	if got := b.resources.State(r); got != types.StateShaderResource {
		t.Fatalf("master state = %v", got)
	}
}

func TestStitchTwoListsOneResource(t *testing.T) {
	b, dev := newTestBackend(t)

	r := b.CreateTexture(types.FormatRGBA8UN, 16, 16, 1, types.Texture2D, 1, false, "R")
	defer b.FreeResource(r)

	// L1: shader_resource then render_target; cache records
	// required_initial = shader_resource, current = render_target.
	l1 := recordTransitions(b, types.QueueDirect, r, types.StateShaderResource, types.StateRenderTarget)
	// L2: shader_resource only.
	l2 := recordTransitions(b, types.QueueDirect, r, types.StateShaderResource)

	b.Submit([]types.CommandList{l1, l2}, types.QueueDirect)

	batches := directBatches(dev)
	if len(batches) != 1 {
		t.Fatalf("submissions = %d, want 1", len(batches))
	}
	batch := batches[0]
	// P1, L1, P2, L2.
	if len(batch) != 4 {
		t.Fatalf("batch lists = %d, want 4", len(batch))
	}

	p1 := transitionsIn(batch[0])
	if len(p1) != 1 || p1[0].Before != types.StateCopyDest || p1[0].After != types.StateShaderResource {
		t.Fatalf("first prelude = %+v", p1)
	}
	// L1 emitted its internal shader_resource -> render_target barrier.
	l1Barriers := transitionsIn(batch[1])
	if len(l1Barriers) != 1 || l1Barriers[0].Before != types.StateShaderResource || l1Barriers[0].After != types.StateRenderTarget {
		t.Fatalf("L1 barriers = %+v", l1Barriers)
	}
	p2 := transitionsIn(batch[2])
	if len(p2) != 1 || p2[0].Before != types.StateRenderTarget || p2[0].After != types.StateShaderResource {
		t.Fatalf("second prelude = %+v", p2)
	}
	if n := len(transitionsIn(batch[3])); n != 0 {
		t.Fatalf("L2 barriers = %d, want 0", n)
	}

	if got := b.resources.State(r); got != types.StateShaderResource {
		t.Fatalf("master state = %v", got)
	}
}

func TestSubmitBatchSplitting(t *testing.T) {
	b, dev := newTestBackend(t)

	// Three lists with a batch cap of two force two native submissions.
	b.cfg.SubmitBatchSize = 2

	var lists []types.CommandList
	for i := 0; i < 3; i++ {
		lists = append(lists, b.RecordCommandList(nil, types.QueueDirect))
	}
	b.Submit(lists, types.QueueDirect)

	batches := directBatches(dev)
	if len(batches) != 2 {
		t.Fatalf("submissions = %d, want 2", len(batches))
	}
	if len(batches[0]) != 2 || len(batches[1]) != 1 {
		t.Fatalf("batch sizes = %d, %d", len(batches[0]), len(batches[1]))
	}
}

func TestEmptyListSubmitsAsNoOp(t *testing.T) {
	b, dev := newTestBackend(t)

	l := b.RecordCommandList(nil, types.QueueDirect)
	b.Submit([]types.CommandList{l}, types.QueueDirect)

	batches := directBatches(dev)
	if len(batches) != 1 || len(batches[0]) != 1 {
		t.Fatalf("batches = %v", batches)
	}
	if n := len(transitionsIn(batches[0][0])); n != 0 {
		t.Fatalf("empty list emitted %d transitions", n)
	}
}

func TestDiscardedListNeverExecutes(t *testing.T) {
	b, dev := newTestBackend(t)

	r := b.CreateTexture(types.FormatRGBA8UN, 16, 16, 1, types.Texture2D, 1, false, "R")
	defer b.FreeResource(r)

	l := recordTransitions(b, types.QueueDirect, r, types.StateShaderResource)
	b.Discard([]types.CommandList{l})

	if n := len(directBatches(dev)); n != 0 {
		t.Fatalf("discarded list reached the queue (%d submissions)", n)
	}
	// Master state untouched.
	if got := b.resources.State(r); got != types.StateCopyDest {
		t.Fatalf("master state = %v, want copy_dest", got)
	}
}

func TestFenceRoundTrip(t *testing.T) {
	b, _ := newTestBackend(t)

	f := b.CreateFence()
	defer b.FreeFence(f)

	b.SignalFenceGPU(f, 7, types.QueueDirect)
	b.WaitFenceCPU(f, 7)
	if got := b.FenceValue(f); got != 7 {
		t.Fatalf("fence value = %d, want 7", got)
	}

	b.SignalFenceCPU(f, 9)
	b.WaitFenceGPU(f, 9, types.QueueCompute)
}

func TestSwapchainAcquirePresentCycle(t *testing.T) {
	b, _ := newTestBackend(t)

	sc := b.CreateSwapchain(0xBADF00D, 640, 480, types.PresentSynced)
	defer func() {
		b.FlushGPU()
		b.FreeSwapchain(sc)
	}()

	for frame := 0; frame < 8; frame++ {
		bb := b.AcquireBackbuffer(sc)
		if !b.resources.IsBackbuffer(bb) {
			t.Fatal("acquired handle not in backbuffer prefix")
		}

		// Render into it, leaving it in present state.
		w := cmdstream.NewWriter(256)
		var toRT, toPresent cmdstream.TransitionResources
		toRT.Add(bb, types.StateRenderTarget, types.StageNone)
		toPresent.Add(bb, types.StatePresent, types.StageNone)
		w.TransitionResources(&toRT)
		w.TransitionResources(&toPresent)
		l := b.RecordCommandList(w.Bytes(), types.QueueDirect)
		b.Submit([]types.CommandList{l}, types.QueueDirect)

		b.Present(sc)
	}

	if b.ClearResizeFlag(sc) {
		t.Fatal("resize flag set without a resize")
	}
	b.ResizeSwapchain(sc, 800, 600)
	if !b.ClearResizeFlag(sc) {
		t.Fatal("resize flag not set after resize")
	}
	if b.ClearResizeFlag(sc) {
		t.Fatal("resize flag not one-shot")
	}
	w, h := b.swapchains.Extent(sc)
	if w != 800 || h != 600 {
		t.Fatalf("extent = %dx%d", w, h)
	}
}

func TestFlushGPUAdvancesAllQueues(t *testing.T) {
	b, _ := newTestBackend(t)
	b.FlushGPU()
	b.FlushGPU()
	for kind := types.QueueKind(0); kind < types.NumQueueKinds; kind++ {
		if got := b.flushFences[kind].CompletedValue(); got != 2 {
			t.Fatalf("queue %v flush fence = %d, want 2", kind, got)
		}
	}
}
