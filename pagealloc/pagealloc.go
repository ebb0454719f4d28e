// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package pagealloc implements a first-fit, run-length-encoded page
// allocator over a fixed integer index space. It is the building block
// behind the shader-view descriptor heaps (where an element is one
// descriptor slot) and the query heaps (where an element is one query).
//
// The page table stores one int per page. A value n > 0 at index i means
// pages i..i+n-1 form one allocation. A free page holds 0 — but 0 does not
// imply free: continuation pages inside an allocated run also hold 0 and
// are skipped over by the run length at the head. Allocate therefore scans
// head cells only, which keeps the table a single flat []int.
package pagealloc

// Allocator manages ceil(numElements / elemsPerPage) pages over an
// integer element space of size numElements. The zero value is unusable;
// construct with New.
type Allocator struct {
	pages    []int
	pageSize int
}

// New creates an Allocator over numElements elements grouped into pages of
// elemsPerPage elements each. All pages start free.
func New(numElements, elemsPerPage int) *Allocator {
	if elemsPerPage < 1 {
		elemsPerPage = 1
	}
	numPages := (numElements + elemsPerPage - 1) / elemsPerPage
	return &Allocator{
		pages:    make([]int, numPages),
		pageSize: elemsPerPage,
	}
}

// NumPages returns the total number of pages managed.
func (a *Allocator) NumPages() int { return len(a.pages) }

// PageSize returns the number of elements per page.
func (a *Allocator) PageSize() int { return a.pageSize }

// Allocate reserves the first contiguous free run large enough for size
// elements and returns its starting page, or -1 if no such run exists.
func (a *Allocator) Allocate(size int) int {
	if size <= 0 {
		return -1
	}
	numPages := (size + a.pageSize - 1) / a.pageSize

	contiguousFree := 0
	for i := 0; i < len(a.pages); i++ {
		pageVal := a.pages[i]
		if pageVal > 0 {
			// Allocated run, skip past it.
			i += pageVal - 1
			contiguousFree = 0
			continue
		}
		contiguousFree++
		if contiguousFree == numPages {
			start := i - (numPages - 1)
			a.pages[start] = numPages
			return start
		}
	}
	return -1
}

// Free releases the run starting at page. Freeing -1 is a no-op so that
// callers can pass through an empty-allocation sentinel unconditionally.
func (a *Allocator) Free(page int) {
	if page >= 0 {
		a.pages[page] = 0
	}
}

// FreeAll resets every page to free.
func (a *Allocator) FreeAll() {
	for i := range a.pages {
		a.pages[i] = 0
	}
}

// AllocationSizeInElements returns the size of the allocation starting at
// page, in elements — the size passed to Allocate, ceiled to a full page.
func (a *Allocator) AllocationSizeInElements(page int) int {
	return a.pages[page] * a.pageSize
}
