// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package incomplete implements the per-command-list resource state
// cache. A recording thread cannot know a resource's global state at the
// moment its list will execute, so each list records only the state it
// assumes on entry (required initial) and the state it leaves the
// resource in (current). Submit-time stitching reconciles the required
// initial states against the master state cache; see the backend's
// submit path:
//
//  1. the command list and its cache are handed to the submitting thread
//  2. the submitter builds a small prelude command list
//  3. it reads the master state cache for every unknown before state
//  4. it emits barriers transitioning master -> required initial
//  5. the prelude executes first, then the list, states now in place
//  6. the master cache is updated with every entry's current state
package incomplete

import (
	"github.com/embergpu/hal/internal/diag"
	"github.com/embergpu/hal/types"
)

// Entry is the tracked state of one touched resource.
type Entry struct {
	// Resource is the touched resource.
	Resource types.Resource
	// RequiredInitial is the after state of the list's first transition;
	// its before is unknown until stitching.
	RequiredInitial types.ResourceState
	// Current is the latest state the list leaves the resource in.
	Current types.ResourceState
	// FirstStages and LatestStages carry the pipeline stage context of
	// the first and latest transitions, for backends that express
	// barriers as stage mask pairs.
	FirstStages  types.ShaderStageFlags
	LatestStages types.ShaderStageFlags
}

// StateCache is a small bounded linear map from resource to entry. N is
// capped: a single command list touching more than MaxStateCacheEntries
// distinct resources is fatal. Linear scan wins at this size.
type StateCache struct {
	entries [types.MaxStateCacheEntries]Entry
	count   int
}

// Transition records a transition of res to after at the given stages.
// When the resource is already tracked, the known before state is
// returned with ok == true and the caller emits the barrier itself. On
// first touch the before is unknown — ok == false — and the caller skips
// the barrier, leaving it to the stitching pass.
func (c *StateCache) Transition(res types.Resource, after types.ResourceState, stages types.ShaderStageFlags) (before types.ResourceState, ok bool) {
	for i := 0; i < c.count; i++ {
		e := &c.entries[i]
		if e.Resource == res {
			before = e.Current
			e.Current = after
			e.LatestStages = stages
			return before, true
		}
	}

	if c.count == len(c.entries) {
		diag.Fatalf("incomplete: state cache overflow (%d distinct resources in one command list)", c.count)
	}
	c.entries[c.count] = Entry{
		Resource:        res,
		RequiredInitial: after,
		Current:         after,
		FirstStages:     stages,
		LatestStages:    stages,
	}
	c.count++
	return 0, false
}

// Entries returns the live entries in first-touch order.
func (c *StateCache) Entries() []Entry {
	return c.entries[:c.count]
}

// Len returns the number of tracked resources.
func (c *StateCache) Len() int { return c.count }

// Reset clears the cache for list reuse.
func (c *StateCache) Reset() { c.count = 0 }
