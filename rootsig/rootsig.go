// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package rootsig caches materialized root signatures keyed by shader
// argument shape. Pipelines with identical argument layouts — the common
// case across a renderer — share one native root signature; the cache
// returns stable pointers that pipeline nodes and translators retain for
// their lifetime.
//
// The cache key is a hash of (shape array, root-constant flag, signature
// kind). Keys themselves are not stored: see package cachemap for the
// collision contract.
package rootsig

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/embergpu/hal/cachemap"
	"github.com/embergpu/hal/internal/diag"
	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/types"
)

// NoParam marks an absent native parameter index in an ArgumentMap.
const NoParam = ^uint32(0)

// ArgumentMap carries the native root parameter indices of one shader
// argument slot: where its CBV, its SRV/UAV descriptor table, and its
// sampler descriptor table bind, plus — on slot 0 only — the root
// constants parameter.
type ArgumentMap struct {
	CBVParam          uint32
	SRVUAVTableParam  uint32
	SamplerTableParam uint32
	RootConstParam    uint32
}

// RootSignature is one cached signature: the native object plus the
// per-argument parameter maps derived at creation.
type RootSignature struct {
	Native       nativeapi.RootSignature
	ArgumentMaps []ArgumentMap
}

// HasRootConstants reports whether the signature carries a root-constant
// parameter.
func (r *RootSignature) HasRootConstants() bool {
	return len(r.ArgumentMaps) > 0 && r.ArgumentMaps[0].RootConstParam != NoParam
}

// Cache is the root signature cache. Unsynchronized: it is only used
// under the pipeline pool's mutex.
type Cache struct {
	device nativeapi.Device
	cache  *cachemap.Map[RootSignature]
}

// NewCache creates a cache sized for maxNumRootSigs distinct signatures.
func NewCache(device nativeapi.Device, maxNumRootSigs int) *Cache {
	return &Cache{
		device: device,
		cache:  cachemap.New[RootSignature](maxNumRootSigs),
	}
}

// hashKey folds the shape array, flag, and kind into the cache hash.
func hashKey(shapes []types.ShaderArgumentShape, hasRootConstants bool, kind nativeapi.RootSignatureKind) uint64 {
	h := fnv.New64a()
	var buf [13]byte
	for _, s := range shapes {
		binary.LittleEndian.PutUint32(buf[0:], s.NumSRVs)
		binary.LittleEndian.PutUint32(buf[4:], s.NumUAVs)
		binary.LittleEndian.PutUint32(buf[8:], s.NumSamplers)
		buf[12] = 0
		if s.HasCBV {
			buf[12] = 1
		}
		h.Write(buf[:])
	}
	buf[0] = byte(kind)
	buf[1] = 0
	if hasRootConstants {
		buf[1] = 1
	}
	h.Write(buf[:2])
	sum := h.Sum64()
	if sum == cachemap.Tombstone {
		sum = 0
	}
	return sum
}

// GetOrCreate returns the cached signature for the given shape, creating
// and inserting it on first use. The returned pointer remains stable
// until Reset.
func (c *Cache) GetOrCreate(shapes []types.ShaderArgumentShape, hasRootConstants bool, kind nativeapi.RootSignatureKind) *RootSignature {
	hash := hashKey(shapes, hasRootConstants, kind)
	if found := c.cache.Lookup(hash); found != nil {
		return found
	}

	sig := build(c.device, shapes, hasRootConstants, kind)
	inserted := c.cache.Insert(hash, sig)
	if inserted == nil {
		diag.Fatalf("rootsig: cache full (%d signatures)", c.cache.Len())
	}
	return inserted
}

// build assigns native parameter indices in declaration order — CBV, then
// SRV/UAV table, then sampler table per argument — with the root-constant
// parameter appended last, recorded on argument map 0.
func build(device nativeapi.Device, shapes []types.ShaderArgumentShape, hasRootConstants bool, kind nativeapi.RootSignatureKind) RootSignature {
	diag.Assert(len(shapes) <= types.MaxShaderArguments, "rootsig: %d argument shapes exceeds maximum", len(shapes))

	maps := make([]ArgumentMap, len(shapes))
	nextParam := uint32(0)
	for i, s := range shapes {
		m := ArgumentMap{
			CBVParam:          NoParam,
			SRVUAVTableParam:  NoParam,
			SamplerTableParam: NoParam,
			RootConstParam:    NoParam,
		}
		if s.HasCBV {
			m.CBVParam = nextParam
			nextParam++
		}
		if s.NumSRVs+s.NumUAVs > 0 {
			m.SRVUAVTableParam = nextParam
			nextParam++
		}
		if s.NumSamplers > 0 {
			m.SamplerTableParam = nextParam
			nextParam++
		}
		maps[i] = m
	}
	if hasRootConstants {
		if len(maps) == 0 {
			maps = append(maps, ArgumentMap{
				CBVParam:          NoParam,
				SRVUAVTableParam:  NoParam,
				SamplerTableParam: NoParam,
				RootConstParam:    NoParam,
			})
		}
		maps[0].RootConstParam = nextParam
	}

	native, err := device.CreateRootSignature(nativeapi.RootSignatureDesc{
		Shapes:           shapes,
		HasRootConstants: hasRootConstants,
		Kind:             kind,
	})
	if err != nil {
		diag.Fatalf("rootsig: native creation failed: %v", err)
	}
	return RootSignature{Native: native, ArgumentMaps: maps}
}

// Reset releases all cached signatures and clears the cache. Pointers
// handed out earlier are dangling afterwards.
func (c *Cache) Reset() {
	c.cache.Iterate(func(sig *RootSignature) {
		sig.Native.Release()
	})
	c.cache.Clear()
}
