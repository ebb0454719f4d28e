// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package thread associates goroutines' OS threads with dense indices.
//
// The backend owns per-thread state — command allocator bundles and
// translators — sized to a fixed thread count at construction. An
// Association hands each calling OS thread a stable index in
// [0, numThreads), assigned on first call. The caller must pin its
// goroutines with runtime.LockOSThread for the index to be meaningful
// across calls, which recording threads in this module do anyway because
// native command recording requires thread affinity.
package thread

import (
	"sync"
	"sync/atomic"
)

// Association maps OS thread IDs to dense indices. It is a value handed
// out by the backend, not a process-wide registry: each backend instance
// owns exactly one.
type Association struct {
	numThreads int
	next       atomic.Int32
	indices    sync.Map // tid -> int
}

// NewAssociation creates an Association for numThreads recording threads.
func NewAssociation(numThreads int) *Association {
	if numThreads < 1 {
		numThreads = 1
	}
	return &Association{numThreads: numThreads}
}

// NumThreads returns the fixed thread count.
func (a *Association) NumThreads() int { return a.numThreads }

// CurrentIndex returns the dense index of the calling OS thread,
// assigning the next free one on first call. The second return is false
// when more distinct threads call in than the Association was sized for;
// the caller treats that as a configuration error.
func (a *Association) CurrentIndex() (int, bool) {
	tid := currentThreadID()
	if v, ok := a.indices.Load(tid); ok {
		return v.(int), true
	}

	idx := int(a.next.Add(1)) - 1
	if idx >= a.numThreads {
		return 0, false
	}
	// Two goroutines on the same OS thread cannot race here: calls from
	// one thread are serial. Distinct threads get distinct indices.
	a.indices.Store(tid, idx)
	return idx, true
}
