// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package handle implements the generic handle pool shared by every
// resource pool in this module: resources, shader views, pipeline states,
// command lists, swapchains, fences, query ranges, and acceleration
// structures all hand their payload to a Pool[T, M] and get back a
// type-safe, generation-tagged Handle[M] in return.
//
// A Handle packs a 32-bit slot index and a 32-bit generation ("epoch") into
// a single uint64. The null handle has an all-ones index so that handle
// comparisons against Null catch the unset case, and so that a handle's
// index can carry queue- or kind-partitioned offsets (see the cmdlist and
// query packages) without colliding with the sentinel. The zero value of a
// Handle also counts as null, so a handle field left unset means "no
// resource".
package handle

import "fmt"

// Index is the slot-index component of a handle.
type Index = uint32

// Epoch is the generation component of a handle, incremented every time a
// slot is released and reused, invalidating any handle still referring to
// the old generation.
type Epoch = uint32

// nullIndex is the reserved index value meaning "no resource".
const nullIndex Index = 0xFFFFFFFF

// Raw is the packed 64-bit representation of a handle: index in the low 32
// bits, epoch in the high 32 bits.
type Raw uint64

// Zip packs an index and epoch into a Raw handle.
func Zip(index Index, epoch Epoch) Raw {
	return Raw(index) | Raw(epoch)<<32
}

// Unzip extracts the index and epoch from a Raw handle.
func (r Raw) Unzip() (Index, Epoch) {
	return Index(r & 0xFFFFFFFF), Epoch(r >> 32)
}

// Handle is a type-safe, generation-tagged reference into a Pool[T, M].
// M is a zero-size marker type that makes, for example, a resource handle
// and a pipeline-state handle distinct Go types even though both are
// backed by the same packed uint64.
type Handle[M any] struct {
	raw Raw
}

// Null returns the null handle for M.
func Null[M any]() Handle[M] {
	return Handle[M]{raw: Zip(nullIndex, 0)}
}

// New builds a handle from an index and epoch. Pools use this; user code
// normally only ever stores handles returned by a pool.
func New[M any](index Index, epoch Epoch) Handle[M] {
	return Handle[M]{raw: Zip(index, epoch)}
}

// Raw returns the packed representation of the handle.
func (h Handle[M]) Raw() Raw {
	return h.raw
}

// FromRaw reconstructs a handle from its packed representation. Callers
// crossing an API boundary that only carries a uint64 (e.g. a command
// stream payload) use this to recover a typed handle.
func FromRaw[M any](raw Raw) Handle[M] {
	return Handle[M]{raw: raw}
}

// Index returns the slot index.
func (h Handle[M]) Index() Index {
	idx, _ := h.raw.Unzip()
	return idx
}

// Epoch returns the generation.
func (h Handle[M]) Epoch() Epoch {
	_, epoch := h.raw.Unzip()
	return epoch
}

// Valid reports whether h is neither the null handle nor the zero value
// (index 0, epoch 0). Pools start every slot at epoch 1, so a freshly
// acquired handle never packs to zero. It does not check liveness against a Pool —
// use Pool.Get for that.
func (h Handle[M]) Valid() bool {
	idx, _ := h.raw.Unzip()
	return idx != nullIndex && h.raw != 0
}

// String returns a debug representation.
func (h Handle[M]) String() string {
	idx, epoch := h.raw.Unzip()
	if !h.Valid() {
		return "Handle(null)"
	}
	return fmt.Sprintf("Handle(%d,%d)", idx, epoch)
}
