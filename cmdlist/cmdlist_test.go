// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package cmdlist

import (
	"testing"

	"github.com/embergpu/hal/cmdalloc"
	"github.com/embergpu/hal/d3d12sim"
	"github.com/embergpu/hal/handle"
	"github.com/embergpu/hal/types"
)

func newTestPool(t *testing.T) (*Pool, *cmdalloc.PerThread) {
	t.Helper()
	dev := d3d12sim.NewDevice()
	bundles := &cmdalloc.PerThread{}
	p := NewPool(dev,
		[types.NumQueueKinds]int{2, 1, 1},
		[types.NumQueueKinds]int{4, 2, 2},
		[]*cmdalloc.PerThread{bundles})
	t.Cleanup(func() {
		p.Destroy()
		bundles.Destroy()
		dev.Destroy()
	})
	return p, bundles
}

func TestHandleEncodesQueueKind(t *testing.T) {
	for _, kind := range []types.QueueKind{types.QueueDirect, types.QueueCompute, types.QueueCopy} {
		for slot := handle.Index(0); slot < 10; slot++ {
			inner := handle.New[types.CommandListMarker](slot, 1)
			h := toHandle(inner, kind)
			if got := KindOf(h); got != kind {
				t.Fatalf("KindOf(encode(%d, %v)) = %v", slot, kind, got)
			}
			if got := toInner(h, kind); got != inner {
				t.Fatalf("decode(encode(%d, %v)) = %v", slot, kind, got)
			}
		}
	}
}

func TestCreateReturnsOpenList(t *testing.T) {
	p, bundles := newTestPool(t)

	h, raw := p.Create(types.QueueCompute, bundles)
	if KindOf(h) != types.QueueCompute {
		t.Fatalf("created handle decodes to %v", KindOf(h))
	}
	if p.Raw(h) != raw {
		t.Fatal("Raw does not return the created list")
	}
	if p.StateCache(h).Len() != 0 {
		t.Fatal("fresh list has a dirty state cache")
	}

	// The returned list is open for recording.
	raw.Close()
	p.FreeOnSubmit([]types.CommandList{h})
}

func TestFreeOnSubmitReleasesSlot(t *testing.T) {
	p, bundles := newTestPool(t)

	h, raw := p.Create(types.QueueDirect, bundles)
	raw.Close()
	p.FreeOnSubmit([]types.CommandList{h})

	if p.NumLive() != 0 {
		t.Fatalf("live lists after free = %d", p.NumLive())
	}

	defer func() {
		if recover() == nil {
			t.Fatal("stale handle access did not panic")
		}
	}()
	p.StateCache(h)
}

func TestFreeOnDiscardKeepsAllocatorConsistent(t *testing.T) {
	p, bundles := newTestPool(t)

	// Fill one compute allocator (2 lists): one submitted, one
	// discarded. The node must become reusable for the next create.
	h1, raw1 := p.Create(types.QueueCompute, bundles)
	raw1.Close()
	h2, raw2 := p.Create(types.QueueCompute, bundles)
	raw2.Close()

	p.FreeOnSubmit([]types.CommandList{h1})
	p.FreeOnDiscard([]types.CommandList{h2})

	h3, raw3 := p.Create(types.QueueCompute, bundles)
	raw3.Close()
	p.FreeOnSubmit([]types.CommandList{h3})
}

func TestNullHandlesSkipped(t *testing.T) {
	p, _ := newTestPool(t)
	p.FreeOnSubmit([]types.CommandList{types.NullCommandList()})
	p.FreeOnDiscard([]types.CommandList{types.NullCommandList()})
}
