// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package d3d12sim

import (
	"fmt"
	"sync"

	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/types"
)

// pendingSignal is a queue-side fence signal that has not landed yet.
type pendingSignal struct {
	fence *SimFence
	value uint64
}

// Queue implements nativeapi.Queue with a deferred completion model:
// fence signals park on the queue and only land when it next advances —
// the following ExecuteCommandLists, Signal, or Wait — never
// synchronously inside Signal itself. A completed-value poll issued
// right after a submit therefore sees the old value, which is what the
// command-allocator reset rotation depends on. The queue keeps a
// submission history for test assertions.
type Queue struct {
	device *Device
	kind   types.QueueKind

	mu         sync.Mutex
	pending    []pendingSignal
	numSubmits int
	submitted  [][]*CommandList
}

// Kind returns the queue kind.
func (q *Queue) Kind() types.QueueKind { return q.kind }

// retireLocked lands every pending signal; the simulated GPU has caught
// up. Caller holds q.mu.
func (q *Queue) retireLocked() {
	for _, p := range q.pending {
		p.fence.Signal(p.value)
	}
	q.pending = q.pending[:0]
}

func (q *Queue) retire() {
	q.mu.Lock()
	q.retireLocked()
	q.mu.Unlock()
}

// ExecuteCommandLists submits closed lists. All previously submitted
// work — and its pending signals — completes before the new batch is
// recorded.
func (q *Queue) ExecuteCommandLists(lists []nativeapi.CommandList) error {
	batch := make([]*CommandList, 0, len(lists))
	for _, l := range lists {
		cl, ok := l.(*CommandList)
		if !ok {
			return fmt.Errorf("d3d12sim: foreign command list submitted")
		}
		if !cl.closed {
			return fmt.Errorf("d3d12sim: open command list submitted to %v queue", q.kind)
		}
		if cl.queue != q.kind {
			return fmt.Errorf("d3d12sim: %v command list submitted to %v queue", cl.queue, q.kind)
		}
		batch = append(batch, cl)
	}

	q.mu.Lock()
	q.retireLocked()
	q.numSubmits++
	q.submitted = append(q.submitted, batch)
	q.mu.Unlock()
	return nil
}

// Signal enqueues a fence signal behind all prior work: earlier pending
// signals land, the new one parks until the queue advances again.
func (q *Queue) Signal(fence nativeapi.Fence, value uint64) error {
	f, ok := fence.(*SimFence)
	if !ok {
		return fmt.Errorf("d3d12sim: foreign fence signaled")
	}
	q.mu.Lock()
	q.retireLocked()
	q.pending = append(q.pending, pendingSignal{fence: f, value: value})
	q.mu.Unlock()
	return nil
}

// Wait stalls the queue until fence reaches value. The stall lets the
// whole simulated device catch up; a fence that still has not reached
// the value afterwards was never signaled, which on hardware is a hang.
func (q *Queue) Wait(fence nativeapi.Fence, value uint64) error {
	q.retire()
	if fence.CompletedValue() < value {
		q.device.retirePendingSignals()
	}
	if fence.CompletedValue() < value {
		return fmt.Errorf("d3d12sim: queue wait on value %d that is never signaled", value)
	}
	return nil
}

// NumSubmits returns the number of ExecuteCommandLists calls, for tests.
func (q *Queue) NumSubmits() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.numSubmits
}

// SubmittedBatches returns the submission history, for tests.
func (q *Queue) SubmittedBatches() [][]*CommandList {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.submitted
}

var _ nativeapi.Queue = (*Queue)(nil)

// CommandAllocator implements nativeapi.CommandAllocator. Reset counts
// are tracked so tests can observe the recycling protocol.
type CommandAllocator struct {
	device      *Device
	queue       types.QueueKind
	mu          sync.Mutex
	numResets   int
	inRecording *CommandList
}

// Reset reclaims the allocator's memory.
func (a *CommandAllocator) Reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inRecording != nil && !a.inRecording.closed {
		return fmt.Errorf("d3d12sim: allocator reset while a list is recording")
	}
	a.numResets++
	return nil
}

// NumResets returns the reset count, for tests.
func (a *CommandAllocator) NumResets() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.numResets
}

// Release frees the allocator.
func (a *CommandAllocator) Release() {}

var _ nativeapi.CommandAllocator = (*CommandAllocator)(nil)
