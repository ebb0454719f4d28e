// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package cmdalloc recycles command-list backing memory. A Node owns one
// native command allocator, one fence, and hands out up to a fixed number
// of lists before it must reset; a Bundle rotates through its nodes,
// soft-resetting whichever has drained.
//
// One Bundle exists per recording thread per queue kind, so nothing here
// takes a lock on the acquire path. The two counters a reset decision
// reads — submits and discards since the last reset — are atomics,
// because submission happens on a different thread than recording. Both
// grow monotonically within a reset epoch and only ever approach the
// acquired count, never pass it, so the two relaxed loads in CanReset
// can only delay a reset, never cause one too early.
package cmdalloc

import (
	"sync/atomic"

	"github.com/embergpu/hal/internal/diag"
	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/types"
)

// Node is a single command allocator tracking the lists it backs.
// Unsynchronized except for the submit/discard counters; N per Bundle.
type Node struct {
	allocator nativeapi.CommandAllocator
	fence     nativeapi.Fence
	queue     nativeapi.Queue

	submitCounter            atomic.Uint64
	submitCounterAtLastReset uint64
	numDiscarded             atomic.Int64
	numInFlight              int
	maxNumInFlight           int
	fullAndWaiting           bool
}

func newNode(device nativeapi.Device, queue nativeapi.Queue, kind types.QueueKind, maxNumCmdLists int) *Node {
	alloc, err := device.CreateCommandAllocator(kind)
	if err != nil {
		diag.Fatalf("cmdalloc: allocator creation failed: %v", err)
	}
	f, err := device.CreateFence(0)
	if err != nil {
		diag.Fatalf("cmdalloc: fence creation failed: %v", err)
	}
	return &Node{
		allocator:      alloc,
		fence:          f,
		queue:          queue,
		maxNumInFlight: maxNumCmdLists,
	}
}

// IsFull reports whether the node has handed out its full list budget
// since the last reset.
func (n *Node) IsFull() bool { return n.fullAndWaiting }

// Allocator returns the native allocator, for list creation at init.
func (n *Node) Allocator() nativeapi.CommandAllocator { return n.allocator }

// Acquire resets list against this node's allocator and counts it in
// flight. Calling on a full node blocks on a reset; if that fails the
// node is over-committed and recovery is impossible.
func (n *Node) Acquire(list nativeapi.CommandList) {
	if n.IsFull() {
		if !n.TryResetBlocking() {
			diag.Fatalf("cmdalloc: allocator node over-committed and unable to recover")
		}
	}

	if err := list.Reset(n.allocator); err != nil {
		diag.Fatalf("cmdalloc: list reset failed: %v", err)
	}
	n.numInFlight++
	if n.numInFlight == n.maxNumInFlight {
		n.fullAndWaiting = true
	}
}

// OnSubmit records that a list backed by this node was submitted, and
// signals the node fence behind it on the queue. Free-threaded.
func (n *Node) OnSubmit() {
	value := n.submitCounter.Add(1)
	if err := n.queue.Signal(n.fence, value); err != nil {
		diag.Fatalf("cmdalloc: submit fence signal failed: %v", err)
	}
}

// OnDiscard records that a list backed by this node was dropped without
// submission. Free-threaded.
func (n *Node) OnDiscard() {
	n.numDiscarded.Add(1)
}

// submitCounterUpToDate reports whether every list acquired since the
// last reset has been either submitted or discarded.
func (n *Node) submitCounterUpToDate() bool {
	submitsSinceReset := int64(n.submitCounter.Load() - n.submitCounterAtLastReset)
	possibleSubmitsRemaining := int64(n.numInFlight) - n.numDiscarded.Load()
	return submitsSinceReset == possibleSubmitsRemaining
}

// CanReset reports whether the node is full and all its lists have been
// accounted for.
func (n *Node) CanReset() bool {
	return n.fullAndWaiting && n.submitCounterUpToDate()
}

// TryReset attempts a non-blocking reset. Returns true if the node is
// usable afterwards — either the reset succeeded or the node was not
// full to begin with.
func (n *Node) TryReset() bool {
	if !n.CanReset() {
		return !n.IsFull()
	}

	// All lists accounted for; usable only once the fence caught up.
	current := n.fence.CompletedValue()
	target := n.submitCounter.Load()
	diag.Assert(current <= target, "cmdalloc: fence overran submit counter")
	if current != target {
		return false
	}
	n.doReset()
	return true
}

// TryResetBlocking is TryReset with a fence wait in place of the
// completed-value poll.
func (n *Node) TryResetBlocking() bool {
	if !n.CanReset() {
		return !n.IsFull()
	}
	n.fence.WaitCPU(n.submitCounter.Load())
	n.doReset()
	return true
}

func (n *Node) doReset() {
	if err := n.allocator.Reset(); err != nil {
		diag.Fatalf("cmdalloc: allocator reset failed: %v", err)
	}
	n.fullAndWaiting = false
	n.numInFlight = 0
	n.numDiscarded.Store(0)
	n.submitCounterAtLastReset = n.submitCounter.Load()
}

func (n *Node) destroy() {
	if !n.TryResetBlocking() {
		diag.Fatalf("cmdalloc: node destroyed with unaccounted lists")
	}
	n.allocator.Release()
	n.fence.Release()
}

// Bundle circles through its nodes, handing each Acquire to the first
// usable one. Unsynchronized; one per thread per queue kind.
type Bundle struct {
	nodes  []*Node
	active int
}

// NewBundle creates numAllocators nodes and pre-creates
// numCmdListsPerAllocator native lists against each, appending them to
// outLists in node order.
func NewBundle(device nativeapi.Device, kind types.QueueKind, numAllocators, numCmdListsPerAllocator int, outLists *[]nativeapi.CommandList) *Bundle {
	queue := device.Queue(kind)
	b := &Bundle{nodes: make([]*Node, numAllocators)}
	for i := range b.nodes {
		node := newNode(device, queue, kind, numCmdListsPerAllocator)
		b.nodes[i] = node
		for j := 0; j < numCmdListsPerAllocator; j++ {
			list, err := device.CreateCommandList(kind, node.allocator)
			if err != nil {
				diag.Fatalf("cmdalloc: list creation failed: %v", err)
			}
			*outLists = append(*outLists, list)
		}
	}
	return b
}

// AcquireMemory resets list against an appropriate node and returns that
// node; the caller must report the list's fate via OnSubmit or OnDiscard.
func (b *Bundle) AcquireMemory(list nativeapi.CommandList) *Node {
	b.updateActiveIndex()
	node := b.nodes[b.active]
	node.Acquire(list)
	return node
}

func (b *Bundle) advance() {
	b.active++
	if b.active >= len(b.nodes) {
		b.active = 0
	}
}

// updateActiveIndex rotates to a usable node: first a non-blocking pass
// over all nodes, then a blocking pass. If every node holds at least one
// acquired-but-unaccounted list, the application over-committed its
// configured allocator budget and there is nothing left to wait on.
func (b *Bundle) updateActiveIndex() {
	for range b.nodes {
		if !b.nodes[b.active].IsFull() || b.nodes[b.active].TryReset() {
			return
		}
		b.advance()
	}
	for range b.nodes {
		if b.nodes[b.active].TryResetBlocking() {
			return
		}
		b.advance()
	}
	diag.Fatalf("cmdalloc: all allocator nodes over-committed and unresettable")
}

// Destroy resets and releases every node.
func (b *Bundle) Destroy() {
	for _, node := range b.nodes {
		node.destroy()
	}
}

// PerThread groups the three per-queue bundles of one recording thread.
type PerThread struct {
	Direct  *Bundle
	Compute *Bundle
	Copy    *Bundle
}

// Get returns the bundle for a queue kind.
func (p *PerThread) Get(kind types.QueueKind) *Bundle {
	switch kind {
	case types.QueueDirect:
		return p.Direct
	case types.QueueCompute:
		return p.Compute
	case types.QueueCopy:
		return p.Copy
	}
	diag.Fatalf("cmdalloc: invalid queue kind %d", kind)
	return nil
}

// Destroy tears down all three bundles.
func (p *PerThread) Destroy() {
	p.Direct.Destroy()
	p.Compute.Destroy()
	p.Copy.Destroy()
}
