// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package cmdlist pools recorded command lists. A handle encodes its
// queue kind in the index range — direct, compute, and copy slots live a
// fixed step apart — and each slot carries the allocator node backing the
// list's memory plus the list's incomplete-state cache.
package cmdlist

import (
	"sync"

	"github.com/embergpu/hal/cmdalloc"
	"github.com/embergpu/hal/handle"
	"github.com/embergpu/hal/incomplete"
	"github.com/embergpu/hal/internal/diag"
	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/types"
)

// indexOffsetStep separates the per-queue handle ranges.
const indexOffsetStep = 1_000_000

// Node is the bookkeeping of one live command list: the allocator node
// that must learn of the list's fate, and the list's state cache.
type Node struct {
	Backing    *cmdalloc.Node
	StateCache incomplete.StateCache
}

type queuePool struct {
	pool *handle.Pool[Node, types.CommandListMarker]
	// raw lists parallel to the pool slots; lists outlive their slot's
	// allocation so allocator resets can recycle their memory.
	rawLists []nativeapi.CommandList
}

// Pool owns the three per-queue sub-pools. Synchronized; one per
// backend.
type Pool struct {
	mu    sync.Mutex
	pools [types.NumQueueKinds]queuePool
}

// NewPool creates the pool and, through the per-thread bundles, all
// native command lists up front. Each thread's bundle contributes
// listsPerThread(kind) = numAllocators(kind) * numListsPerAllocator(kind)
// raw lists per queue kind.
func NewPool(device nativeapi.Device, numAllocators, numListsPerAllocator [types.NumQueueKinds]int, threadBundles []*cmdalloc.PerThread) *Pool {
	p := &Pool{}
	for kind := types.QueueKind(0); kind < types.NumQueueKinds; kind++ {
		perThread := numAllocators[kind] * numListsPerAllocator[kind]
		total := perThread * len(threadBundles)
		if total == 0 {
			total = 1 // pool must exist even for unused queue kinds
		}
		p.pools[kind].pool = handle.NewPool[Node, types.CommandListMarker](total)
	}

	for _, bundles := range threadBundles {
		for kind := types.QueueKind(0); kind < types.NumQueueKinds; kind++ {
			b := cmdalloc.NewBundle(device, kind, numAllocators[kind], numListsPerAllocator[kind], &p.pools[kind].rawLists)
			switch kind {
			case types.QueueDirect:
				bundles.Direct = b
			case types.QueueCompute:
				bundles.Compute = b
			case types.QueueCopy:
				bundles.Copy = b
			}
		}
	}
	return p
}

// KindOf recovers the queue kind from a handle's index range.
func KindOf(h types.CommandList) types.QueueKind {
	switch {
	case h.Index() >= 2*indexOffsetStep:
		return types.QueueCopy
	case h.Index() >= indexOffsetStep:
		return types.QueueCompute
	}
	return types.QueueDirect
}

func toHandle(inner types.CommandList, kind types.QueueKind) types.CommandList {
	return handle.New[types.CommandListMarker](inner.Index()+handle.Index(kind)*indexOffsetStep, inner.Epoch())
}

func toInner(h types.CommandList, kind types.QueueKind) types.CommandList {
	return handle.New[types.CommandListMarker](h.Index()-handle.Index(kind)*indexOffsetStep, h.Epoch())
}

// Create acquires a slot for a list on the given queue kind, draws
// backing memory from the calling thread's bundle, and returns the
// handle plus the freshly reset native list, ready to record. The
// state cache starts cleared.
func (p *Pool) Create(kind types.QueueKind, threadBundles *cmdalloc.PerThread) (types.CommandList, nativeapi.CommandList) {
	qp := &p.pools[kind]

	p.mu.Lock()
	inner, err := qp.pool.Acquire(Node{})
	p.mu.Unlock()
	if err != nil {
		diag.Fatalf("cmdlist: %v pool exhausted", kind)
	}

	diag.Assert(int(inner.Index()) < len(qp.rawLists), "cmdlist: no lists configured for %v queue", kind)
	raw := qp.rawLists[inner.Index()]
	node, ok := qp.pool.Get(inner)
	diag.Assert(ok, "cmdlist: just-acquired slot vanished")
	node.Backing = threadBundles.Get(kind).AcquireMemory(raw)
	node.StateCache.Reset()

	return toHandle(inner, kind), raw
}

// Raw returns the native list behind h.
func (p *Pool) Raw(h types.CommandList) nativeapi.CommandList {
	kind := KindOf(h)
	return p.pools[kind].rawLists[toInner(h, kind).Index()]
}

// StateCache returns the incomplete-state cache of h, for the submit
// protocol.
func (p *Pool) StateCache(h types.CommandList) *incomplete.StateCache {
	node := p.node(h)
	return &node.StateCache
}

func (p *Pool) node(h types.CommandList) *Node {
	kind := KindOf(h)
	node, ok := p.pools[kind].pool.Get(toInner(h, kind))
	if !ok {
		diag.Fatalf("cmdlist: invalid handle %v", h)
	}
	return node
}

// FreeOnSubmit notifies each list's backing allocator of the submission
// and releases the slots.
func (p *Pool) FreeOnSubmit(hs []types.CommandList) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, h := range hs {
		if !h.Valid() {
			continue
		}
		kind := KindOf(h)
		inner := toInner(h, kind)
		node, ok := p.pools[kind].pool.Get(inner)
		if !ok {
			diag.Fatalf("cmdlist: double free of %v", h)
		}
		node.Backing.OnSubmit()
		p.pools[kind].pool.Release(inner)
	}
}

// FreeOnDiscard notifies each list's backing allocator of the discard
// and releases the slots. The lists never execute.
func (p *Pool) FreeOnDiscard(hs []types.CommandList) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, h := range hs {
		if !h.Valid() {
			continue
		}
		kind := KindOf(h)
		inner := toInner(h, kind)
		node, ok := p.pools[kind].pool.Get(inner)
		if !ok {
			diag.Fatalf("cmdlist: double free of %v", h)
		}
		node.Backing.OnDiscard()
		p.pools[kind].pool.Release(inner)
	}
}

// NumLive returns live lists across all queue kinds.
func (p *Pool) NumLive() int {
	n := 0
	for i := range p.pools {
		n += p.pools[i].pool.Len()
	}
	return n
}

// Destroy releases the raw lists, reporting leaked handles.
func (p *Pool) Destroy() {
	if n := p.NumLive(); n > 0 {
		diag.Logger().Warn("cmdlist: leaked handles at pool destroy", "count", n)
	}
	for i := range p.pools {
		for _, raw := range p.pools[i].rawLists {
			raw.Release()
		}
	}
}
