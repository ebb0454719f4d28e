// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package pagealloc

import "testing"

func TestAllocateFirstFit(t *testing.T) {
	a := New(16, 2) // 8 pages

	wantPages := []int{0, 2, 3, 5}
	for i, size := range []int{4, 2, 4, 2} {
		if got := a.Allocate(size); got != wantPages[i] {
			t.Fatalf("Allocate(#%d) = page %d, want %d", i, got, wantPages[i])
		}
	}

	// Freeing the single-page allocation at page 2 leaves a hole too small
	// for a 2-page request; first fit must land at pages 6..7 instead.
	a.Free(2)
	if got := a.Allocate(4); got != 6 {
		t.Fatalf("Allocate(4) after fragmentation = page %d, want 6", got)
	}

	// A 1-page request does fit into the hole.
	if got := a.Allocate(2); got != 2 {
		t.Fatalf("Allocate(2) = page %d, want 2", got)
	}
}

func TestAllocateExhaustion(t *testing.T) {
	a := New(8, 2)
	if got := a.Allocate(8); got != 0 {
		t.Fatalf("Allocate(8) = %d, want 0", got)
	}
	if got := a.Allocate(1); got != -1 {
		t.Fatalf("Allocate on full table = %d, want -1", got)
	}
	a.Free(0)
	if got := a.Allocate(1); got != 0 {
		t.Fatalf("Allocate after Free = %d, want 0", got)
	}
}

func TestAllocationSizeCeiledToPage(t *testing.T) {
	a := New(64, 8)
	p := a.Allocate(9) // needs 2 pages
	if p != 0 {
		t.Fatalf("Allocate(9) = %d, want 0", p)
	}
	if got := a.AllocationSizeInElements(p); got != 16 {
		t.Fatalf("AllocationSizeInElements = %d, want 16", got)
	}
}

func TestNoOverlap(t *testing.T) {
	a := New(32, 2)
	live := map[int]int{} // page -> num pages

	alloc := func(size int) {
		p := a.Allocate(size)
		if p < 0 {
			t.Fatalf("unexpected allocation failure for size %d", size)
		}
		live[p] = (size + 1) / 2
	}

	alloc(4)
	alloc(6)
	alloc(2)
	a.Free(0)
	delete(live, 0)
	alloc(2)

	// No two live runs may overlap.
	occupied := map[int]bool{}
	for page, n := range live {
		for i := page; i < page+n; i++ {
			if occupied[i] {
				t.Fatalf("page %d covered by two live allocations", i)
			}
			occupied[i] = true
		}
	}
}

func TestFreeAll(t *testing.T) {
	a := New(16, 2)
	a.Allocate(16)
	a.FreeAll()
	if got := a.Allocate(16); got != 0 {
		t.Fatalf("Allocate after FreeAll = %d, want 0", got)
	}
}
