// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package rootsig

import (
	"testing"

	"github.com/embergpu/hal/d3d12sim"
	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/types"
)

func TestDeduplication(t *testing.T) {
	dev := d3d12sim.NewDevice()
	defer dev.Destroy()
	c := NewCache(dev, 16)
	defer c.Reset()

	shapes := []types.ShaderArgumentShape{{NumSRVs: 2, HasCBV: true}}

	a := c.GetOrCreate(shapes, false, nativeapi.RootSigGraphics)
	b := c.GetOrCreate(shapes, false, nativeapi.RootSigGraphics)
	if a != b {
		t.Fatal("identical shapes produced distinct signatures")
	}

	// A different kind, flag, or shape misses the cache.
	if c.GetOrCreate(shapes, false, nativeapi.RootSigCompute) == a {
		t.Fatal("compute signature deduplicated against graphics")
	}
	if c.GetOrCreate(shapes, true, nativeapi.RootSigGraphics) == a {
		t.Fatal("root-constant signature deduplicated against plain")
	}
	other := []types.ShaderArgumentShape{{NumSRVs: 3, HasCBV: true}}
	if c.GetOrCreate(other, false, nativeapi.RootSigGraphics) == a {
		t.Fatal("distinct shapes deduplicated")
	}
}

func TestArgumentMaps(t *testing.T) {
	dev := d3d12sim.NewDevice()
	defer dev.Destroy()
	c := NewCache(dev, 8)
	defer c.Reset()

	sig := c.GetOrCreate([]types.ShaderArgumentShape{
		{HasCBV: true, NumSRVs: 1, NumSamplers: 1}, // params 0, 1, 2
		{NumUAVs: 2}, // param 3
	}, true, nativeapi.RootSigGraphics) // root constants: param 4

	m0, m1 := sig.ArgumentMaps[0], sig.ArgumentMaps[1]
	if m0.CBVParam != 0 || m0.SRVUAVTableParam != 1 || m0.SamplerTableParam != 2 {
		t.Fatalf("arg 0 map = %+v", m0)
	}
	if m1.CBVParam != NoParam || m1.SRVUAVTableParam != 3 || m1.SamplerTableParam != NoParam {
		t.Fatalf("arg 1 map = %+v", m1)
	}
	if m0.RootConstParam != 4 || m1.RootConstParam != NoParam {
		t.Fatalf("root const params = %d, %d", m0.RootConstParam, m1.RootConstParam)
	}
	if !sig.HasRootConstants() {
		t.Fatal("HasRootConstants = false")
	}
}

func TestStablePointerAcrossInserts(t *testing.T) {
	dev := d3d12sim.NewDevice()
	defer dev.Destroy()
	c := NewCache(dev, 32)
	defer c.Reset()

	first := c.GetOrCreate([]types.ShaderArgumentShape{{NumSRVs: 1}}, false, nativeapi.RootSigGraphics)
	for i := uint32(0); i < 8; i++ {
		c.GetOrCreate([]types.ShaderArgumentShape{{NumSRVs: i + 2}}, false, nativeapi.RootSigGraphics)
	}
	again := c.GetOrCreate([]types.ShaderArgumentShape{{NumSRVs: 1}}, false, nativeapi.RootSigGraphics)
	if first != again {
		t.Fatal("cached signature pointer moved")
	}
}
