// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package d3d12sim

import (
	"github.com/embergpu/hal/internal/diag"
	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/types"
)

// Resource implements nativeapi.Resource. Upload and readback buffers
// carry real backing memory; GPU-only allocations are address-only.
type Resource struct {
	device   *Device
	desc     nativeapi.ResourceDesc
	va       uint64
	mapped   []byte
	released bool

	// backbuffer resources are owned by their swapchain; Release on them
	// is a no-op.
	isBackbuffer bool
}

// Kind returns buffer or image.
func (r *Resource) Kind() nativeapi.ResourceKind { return r.desc.Kind }

// Desc returns the creation description, for test assertions.
func (r *Resource) Desc() nativeapi.ResourceDesc { return r.desc }

// GPUVirtualAddress returns the buffer VA, or zero for images.
func (r *Resource) GPUVirtualAddress() uint64 { return r.va }

// Map returns the persistent CPU mapping of a CPU-visible buffer.
func (r *Resource) Map() []byte {
	if r.mapped == nil {
		diag.Fatalf("d3d12sim: Map on GPU-only resource %q", r.desc.DebugName)
	}
	return r.mapped
}

// Unmap is a no-op; simulated mappings are persistent.
func (r *Resource) Unmap() {}

// Release frees the allocation.
func (r *Resource) Release() {
	if r.isBackbuffer {
		return
	}
	if r.released {
		diag.Fatalf("d3d12sim: double release of resource %q", r.desc.DebugName)
	}
	r.released = true
	r.device.mu.Lock()
	r.device.liveResources--
	r.device.mu.Unlock()
}

var _ nativeapi.Resource = (*Resource)(nil)

// descriptorSize is the uniform descriptor increment of the simulation.
const descriptorSize = 32

// descriptorSlot records what was last written into one heap slot, so
// tests can assert on view creation.
type descriptorSlot struct {
	written bool
	label   string
}

// DescriptorHeap implements nativeapi.DescriptorHeap.
type DescriptorHeap struct {
	device        *Device
	kind          nativeapi.DescriptorHeapKind
	capacity      uint32
	base          uint64
	shaderVisible bool
	slots         []descriptorSlot
	released      bool
}

func (h *DescriptorHeap) Kind() nativeapi.DescriptorHeapKind { return h.kind }
func (h *DescriptorHeap) NumDescriptors() uint32             { return h.capacity }
func (h *DescriptorHeap) DescriptorSize() uint32             { return descriptorSize }
func (h *DescriptorHeap) ShaderVisible() bool                { return h.shaderVisible }

func (h *DescriptorHeap) CPUStart() nativeapi.CPUDescriptor {
	return nativeapi.CPUDescriptor{Ptr: h.base}
}

func (h *DescriptorHeap) GPUStart() nativeapi.GPUDescriptor {
	if !h.shaderVisible {
		return nativeapi.GPUDescriptor{}
	}
	return nativeapi.GPUDescriptor{Ptr: h.base}
}

// Release frees the heap.
func (h *DescriptorHeap) Release() {
	if h.released {
		diag.Fatalf("d3d12sim: double release of descriptor heap")
	}
	h.released = true
	h.device.mu.Lock()
	h.device.liveHeaps--
	h.device.mu.Unlock()
}

// slotFor maps a CPU descriptor back to the heap slot it addresses.
func (h *DescriptorHeap) slotFor(d nativeapi.CPUDescriptor) *descriptorSlot {
	if d.Ptr < h.base || d.Ptr >= h.base+uint64(h.capacity)*descriptorSize {
		diag.Fatalf("d3d12sim: descriptor %#x outside heap [%#x, +%d)", d.Ptr, h.base, h.capacity)
	}
	return &h.slots[(d.Ptr-h.base)/descriptorSize]
}

// WrittenSlot reports whether slot i has been written, for tests.
func (h *DescriptorHeap) WrittenSlot(i uint32) (string, bool) {
	s := h.slots[i]
	return s.label, s.written
}

var _ nativeapi.DescriptorHeap = (*DescriptorHeap)(nil)

// QueryHeap implements nativeapi.QueryHeap.
type QueryHeap struct {
	kind     types.QueryKind
	capacity uint32
}

func (h *QueryHeap) Kind() types.QueryKind { return h.kind }
func (h *QueryHeap) NumQueries() uint32    { return h.capacity }
func (h *QueryHeap) Release()              {}

var _ nativeapi.QueryHeap = (*QueryHeap)(nil)
