// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package backend

import (
	"github.com/embergpu/hal/cmdlist"
	"github.com/embergpu/hal/internal/diag"
	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/types"
)

// Submit executes recorded command lists on a queue, stitching each
// list's incomplete state against the master state cache first.
//
// Recording threads never see the global resource state, so a list's
// first transition of a resource carries no before state. Here, with the
// whole batch in hand, the submitter reads each touched resource's
// master state, emits any needed master -> required-initial transition
// into a prelude command list drawn from the submitting thread's own
// allocator bundle, and writes the list's final state back into the
// master cache. The prelude executes immediately before its list.
//
// Contention is confined to the native queue: the master state writes
// rely on the documented exclusivity of the submitting thread over the
// touched resources. Batches split at SubmitBatchSize lists to bound
// prelude size.
func (b *Backend) Submit(lists []types.CommandList, queue types.QueueKind) {
	q := b.device.Queue(queue)
	tc := b.threadComponent()

	var submitBatch []nativeapi.CommandList
	var barrierLists []types.CommandList
	var userLists []types.CommandList

	flush := func() {
		if len(submitBatch) == 0 {
			return
		}
		if err := q.ExecuteCommandLists(submitBatch); err != nil {
			diag.Fatalf("backend: submit failed on %v: %v", queue, err)
		}
		b.cmdLists.FreeOnSubmit(barrierLists)
		b.cmdLists.FreeOnSubmit(userLists)
		submitBatch = submitBatch[:0]
		barrierLists = barrierLists[:0]
		userLists = userLists[:0]
	}

	for _, cl := range lists {
		if !cl.Valid() {
			continue
		}
		diag.Assert(cmdlist.KindOf(cl) == queue, "backend: %v command list submitted to %v queue", cmdlist.KindOf(cl), queue)

		cache := b.cmdLists.StateCache(cl)
		var barriers []nativeapi.Barrier

		for _, entry := range cache.Entries() {
			master := b.resources.State(entry.Resource)
			if master != entry.RequiredInitial {
				barriers = append(barriers, nativeapi.TransitionBarrier(
					b.resources.Node(entry.Resource).Native, master, entry.RequiredInitial))
			}
			// The resource leaves this list in entry.Current.
			b.resources.SetState(entry.Resource, entry.Current)
		}

		if len(barriers) > 0 {
			preludeHandle, prelude := b.cmdLists.Create(queue, &tc.bundles)
			prelude.ResourceBarrier(barriers)
			if err := prelude.Close(); err != nil {
				diag.Fatalf("backend: prelude close failed: %v", err)
			}
			barrierLists = append(barrierLists, preludeHandle)
			submitBatch = append(submitBatch, prelude)
		}

		submitBatch = append(submitBatch, b.cmdLists.Raw(cl))
		userLists = append(userLists, cl)

		if len(userLists) == b.cfg.SubmitBatchSize {
			flush()
		}
	}
	flush()
}
