// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package incomplete

import (
	"testing"

	"github.com/embergpu/hal/handle"
	"github.com/embergpu/hal/types"
)

func res(i uint32) types.Resource {
	return handle.New[types.ResourceMarker](i, 1)
}

func TestFirstTouchUnknownBefore(t *testing.T) {
	var c StateCache

	_, ok := c.Transition(res(1), types.StateShaderResource, types.StagePixel)
	if ok {
		t.Fatal("first touch reported a known before state")
	}

	entries := c.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.RequiredInitial != types.StateShaderResource || e.Current != types.StateShaderResource {
		t.Fatalf("entry = %+v", e)
	}
	if e.FirstStages != types.StagePixel || e.LatestStages != types.StagePixel {
		t.Fatalf("stages = %v / %v", e.FirstStages, e.LatestStages)
	}
}

func TestRepeatTouchKeepsRequiredInitial(t *testing.T) {
	var c StateCache

	c.Transition(res(1), types.StateShaderResource, types.StageVertex)
	before, ok := c.Transition(res(1), types.StateRenderTarget, types.StagePixel)
	if !ok || before != types.StateShaderResource {
		t.Fatalf("second transition: before = %v, ok = %v", before, ok)
	}

	// Exactly one entry: required_initial is the first-set state, current
	// the last-set one.
	if c.Len() != 1 {
		t.Fatalf("entries = %d, want 1", c.Len())
	}
	e := c.Entries()[0]
	if e.RequiredInitial != types.StateShaderResource {
		t.Fatalf("required initial = %v", e.RequiredInitial)
	}
	if e.Current != types.StateRenderTarget {
		t.Fatalf("current = %v", e.Current)
	}
	if e.FirstStages != types.StageVertex || e.LatestStages != types.StagePixel {
		t.Fatalf("stages = %v / %v", e.FirstStages, e.LatestStages)
	}
}

func TestDistinctResources(t *testing.T) {
	var c StateCache

	c.Transition(res(1), types.StateCopyDest, types.StageNone)
	c.Transition(res(2), types.StateCopySrc, types.StageNone)
	if c.Len() != 2 {
		t.Fatalf("entries = %d, want 2", c.Len())
	}
}

func TestReset(t *testing.T) {
	var c StateCache

	c.Transition(res(1), types.StateCopyDest, types.StageNone)
	c.Reset()
	if c.Len() != 0 {
		t.Fatal("Reset left entries behind")
	}
	if _, ok := c.Transition(res(1), types.StateCopySrc, types.StageNone); ok {
		t.Fatal("entry survived Reset")
	}
}

func TestOverflowIsFatal(t *testing.T) {
	var c StateCache
	for i := uint32(0); i < types.MaxStateCacheEntries; i++ {
		c.Transition(res(i), types.StateCopyDest, types.StageNone)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("cache overflow did not panic")
		}
	}()
	c.Transition(res(999), types.StateCopyDest, types.StageNone)
}
