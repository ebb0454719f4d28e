// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package query pools contiguous query ranges. Each query kind lives in
// its own native heap with its own page allocator; the kind is encoded in
// the handle's index range so it is recoverable from the handle alone.
package query

import (
	"sync"

	"github.com/embergpu/hal/handle"
	"github.com/embergpu/hal/internal/diag"
	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/pagealloc"
	"github.com/embergpu/hal/types"
)

// indexOffsetStep separates the per-kind handle ranges.
const indexOffsetStep = 1_000_000

// queryPageSize is the page granularity of all query heaps.
const queryPageSize = 2

type kindHeap struct {
	heap  nativeapi.QueryHeap
	pages *pagealloc.Allocator
}

// Pool owns the three per-kind heaps.
type Pool struct {
	mu    sync.Mutex
	heaps [types.NumQueryKinds]kindHeap
}

// NewPool creates the pool with per-kind capacities.
func NewPool(device nativeapi.Device, numTimestamp, numOcclusion, numPipelineStats int) *Pool {
	p := &Pool{}
	for kind, capacity := range map[types.QueryKind]int{
		types.QueryTimestamp:     numTimestamp,
		types.QueryOcclusion:     numOcclusion,
		types.QueryPipelineStats: numPipelineStats,
	} {
		heap, err := device.CreateQueryHeap(kind, uint32(capacity))
		if err != nil {
			diag.Fatalf("query: heap creation failed for %v: %v", kind, err)
		}
		p.heaps[kind] = kindHeap{
			heap:  heap,
			pages: pagealloc.New(capacity, queryPageSize),
		}
	}
	return p
}

// KindOf recovers the query kind from a handle's index range.
func KindOf(h types.QueryRange) types.QueryKind {
	switch {
	case h.Index() >= 2*indexOffsetStep:
		return types.QueryPipelineStats
	case h.Index() >= indexOffsetStep:
		return types.QueryOcclusion
	}
	return types.QueryTimestamp
}

// toHandle uses epoch 1 so that timestamp page 0 does not pack to the zero
// value, which handle.Valid reads as null.
func toHandle(page int, kind types.QueryKind) types.QueryRange {
	return handle.New[types.QueryRangeMarker](handle.Index(page)+handle.Index(kind)*indexOffsetStep, 1)
}

func toPage(h types.QueryRange, kind types.QueryKind) int {
	return int(h.Index() - handle.Index(kind)*indexOffsetStep)
}

// Create allocates a contiguous range of size queries of one kind.
// Overcommit is fatal.
func (p *Pool) Create(kind types.QueryKind, size int) types.QueryRange {
	p.mu.Lock()
	defer p.mu.Unlock()
	page := p.heaps[kind].pages.Allocate(size)
	if page < 0 {
		diag.Fatalf("query: %v heap overcommitted allocating %d queries", kind, size)
	}
	return toHandle(page, kind)
}

// Free releases a query range.
func (p *Pool) Free(h types.QueryRange) {
	if !h.Valid() {
		return
	}
	kind := KindOf(h)
	p.mu.Lock()
	p.heaps[kind].pages.Free(toPage(h, kind))
	p.mu.Unlock()
}

// Query resolves (range, offset) to the native heap and heap-wide query
// index, verifying offset stays inside the allocation.
func (p *Pool) Query(h types.QueryRange, offset int) (nativeapi.QueryHeap, types.QueryKind, uint32) {
	kind := KindOf(h)
	page := toPage(h, kind)
	kh := &p.heaps[kind]
	diag.Assert(offset < kh.pages.AllocationSizeInElements(page),
		"query: offset %d out of bounds for range at page %d", offset, page)
	return kh.heap, kind, uint32(page*queryPageSize + offset)
}

// QueryTyped is Query with the kind already expected by the caller.
func (p *Pool) QueryTyped(h types.QueryRange, kind types.QueryKind, offset int) (nativeapi.QueryHeap, uint32) {
	diag.Assert(KindOf(h) == kind, "query: handle %v is %v, expected %v", h, KindOf(h), kind)
	heap, _, index := p.Query(h, offset)
	return heap, index
}

// Destroy releases the heaps.
func (p *Pool) Destroy() {
	for i := range p.heaps {
		p.heaps[i].heap.Release()
	}
}
