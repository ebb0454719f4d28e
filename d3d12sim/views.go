// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package d3d12sim

import (
	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/types"
)

// View creation fills descriptor slots in place. The simulation records a
// label per written slot so tests can assert which descriptors a shader
// view or translator populated. Locating the owning heap is a linear scan
// over the device's live heaps; creation-path only.

func (d *Device) heapContaining(dst nativeapi.CPUDescriptor) *DescriptorHeap {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range d.heaps {
		if h.released {
			continue
		}
		if dst.Ptr >= h.base && dst.Ptr < h.base+uint64(h.capacity)*descriptorSize {
			return h
		}
	}
	return nil
}

func (d *Device) writeSlot(dst nativeapi.CPUDescriptor, label string) {
	if h := d.heapContaining(dst); h != nil {
		s := h.slotFor(dst)
		s.written = true
		s.label = label
	}
}

// CreateShaderResourceView fills dst with an SRV of res.
func (d *Device) CreateShaderResourceView(res nativeapi.Resource, view types.ResourceView, dst nativeapi.CPUDescriptor) {
	d.writeSlot(dst, "srv")
}

// CreateUnorderedAccessView fills dst with a UAV of res.
func (d *Device) CreateUnorderedAccessView(res nativeapi.Resource, view types.ResourceView, dst nativeapi.CPUDescriptor) {
	d.writeSlot(dst, "uav")
}

// CreateRenderTargetView fills dst with an RTV of res; a nil view creates
// the default view.
func (d *Device) CreateRenderTargetView(res nativeapi.Resource, view *types.ResourceView, dst nativeapi.CPUDescriptor) {
	d.writeSlot(dst, "rtv")
}

// CreateDepthStencilView fills dst with a DSV of res; a nil view creates
// the default view.
func (d *Device) CreateDepthStencilView(res nativeapi.Resource, view *types.ResourceView, dst nativeapi.CPUDescriptor) {
	d.writeSlot(dst, "dsv")
}

// CreateSampler fills dst with a sampler descriptor.
func (d *Device) CreateSampler(cfg types.SamplerConfig, dst nativeapi.CPUDescriptor) {
	d.writeSlot(dst, "sampler")
}
