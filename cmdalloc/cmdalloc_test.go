// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package cmdalloc

import (
	"testing"

	"github.com/embergpu/hal/d3d12sim"
	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/types"
)

func newTestBundle(t *testing.T, numAllocs, listsPerAlloc int) (*Bundle, []nativeapi.CommandList) {
	t.Helper()
	dev := d3d12sim.NewDevice()
	t.Cleanup(dev.Destroy)

	var lists []nativeapi.CommandList
	b := NewBundle(dev, types.QueueDirect, numAllocs, listsPerAlloc, &lists)
	t.Cleanup(b.Destroy)
	return b, lists
}

func TestAcquireCountsTowardFull(t *testing.T) {
	b, lists := newTestBundle(t, 2, 3)

	node := b.AcquireMemory(lists[0])
	if node.IsFull() {
		t.Fatal("node full after one acquire of three")
	}
	lists[0].Close()
	b.AcquireMemory(lists[1])
	lists[1].Close()
	n3 := b.AcquireMemory(lists[2])
	lists[2].Close()

	if n3 != node {
		t.Fatal("bundle rotated away from a non-full node")
	}
	if !node.IsFull() {
		t.Fatal("node not full after hitting its list budget")
	}
	if node.CanReset() {
		t.Fatal("node resettable with unaccounted lists")
	}

	// Account for all three. The simulated fence lags one queue
	// operation behind, so the non-blocking reset fails first and the
	// blocking variant waits the fence in.
	node.OnSubmit()
	node.OnSubmit()
	node.OnDiscard()
	if !node.CanReset() {
		t.Fatal("node not resettable after all lists accounted for")
	}
	if node.TryReset() {
		t.Fatal("TryReset succeeded before the fence caught up")
	}
	if !node.TryResetBlocking() {
		t.Fatal("TryResetBlocking failed on resettable node")
	}
	if node.IsFull() {
		t.Fatal("node still full after reset")
	}
}

func TestAllocatorRecycle(t *testing.T) {
	// Scenario: 2 nodes x 3 lists. Fill node 0 and submit all three,
	// fill node 1 and submit all three; the 7th acquire must recycle
	// node 0 via non-blocking reset.
	b, lists := newTestBundle(t, 2, 3)

	var node0 *Node
	for i := 0; i < 3; i++ {
		n := b.AcquireMemory(lists[i])
		lists[i].Close()
		if node0 == nil {
			node0 = n
		} else if n != node0 {
			t.Fatal("first three acquires split across nodes")
		}
	}
	for i := 0; i < 3; i++ {
		node0.OnSubmit()
	}

	var node1 *Node
	for i := 3; i < 6; i++ {
		n := b.AcquireMemory(lists[i])
		lists[i].Close()
		if n == node0 {
			t.Fatal("acquire reused node 0 while full")
		}
		node1 = n
	}
	for i := 0; i < 3; i++ {
		node1.OnSubmit()
	}

	seventh := b.AcquireMemory(lists[0])
	lists[0].Close()
	if seventh != node0 {
		t.Fatal("7th list did not come from the recycled node 0")
	}
}

func TestDiscardKeepsAccountingCorrect(t *testing.T) {
	b, lists := newTestBundle(t, 1, 2)

	node := b.AcquireMemory(lists[0])
	lists[0].Close()
	b.AcquireMemory(lists[1])
	lists[1].Close()

	node.OnSubmit()
	if node.CanReset() {
		t.Fatal("resettable with one list still unaccounted")
	}
	node.OnDiscard()
	if !node.CanReset() {
		t.Fatal("not resettable after submit + discard")
	}
}

func TestResetEpochsAreIndependent(t *testing.T) {
	b, lists := newTestBundle(t, 1, 1)

	node := b.AcquireMemory(lists[0])
	lists[0].Close()
	node.OnSubmit()
	if !node.TryResetBlocking() {
		t.Fatal("first epoch reset failed")
	}

	// Second epoch: the stale submit counter from epoch one must not
	// satisfy the new epoch's accounting.
	b.AcquireMemory(lists[0])
	lists[0].Close()
	if node.CanReset() {
		t.Fatal("second epoch resettable before its submit")
	}
	node.OnSubmit()
	if !node.CanReset() {
		t.Fatal("second epoch not resettable after submit")
	}
}
