// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package d3d12sim

import (
	"fmt"
	"sync"

	"github.com/embergpu/hal/internal/diag"
	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/types"
)

// Device implements nativeapi.Device. All creation methods are safe for
// concurrent use; the simulated GPU timeline advances when a queue
// performs its next operation or a CPU-side fence wait drains the device.
type Device struct {
	mu sync.Mutex

	queues [types.NumQueueKinds]*Queue

	nextVA       uint64
	nextHeapBase uint64

	heaps []*DescriptorHeap

	liveResources int
	liveHeaps     int
}

// NewDevice creates a simulated device with its three queues.
func NewDevice() *Device {
	d := &Device{
		nextVA:       0x1_0000_0000,
		nextHeapBase: 0x10_0000,
	}
	for kind := types.QueueKind(0); kind < types.NumQueueKinds; kind++ {
		d.queues[kind] = &Queue{device: d, kind: kind}
	}
	return d
}

// Queue returns the queue of the given kind.
func (d *Device) Queue(kind types.QueueKind) nativeapi.Queue {
	return d.queues[kind]
}

// CreateResource allocates a committed resource.
func (d *Device) CreateResource(desc nativeapi.ResourceDesc) (nativeapi.Resource, error) {
	res := &Resource{device: d, desc: desc}

	switch desc.Kind {
	case nativeapi.KindBuffer:
		if desc.WidthBytes == 0 {
			return nil, fmt.Errorf("d3d12sim: zero-width buffer")
		}
		d.mu.Lock()
		res.va = d.nextVA
		// Committed buffer placement is 64K aligned.
		d.nextVA += (desc.WidthBytes + 0xFFFF) &^ 0xFFFF
		d.mu.Unlock()
		if desc.Heap != types.HeapGPU {
			res.mapped = make([]byte, desc.WidthBytes)
		}
	case nativeapi.KindImage:
		if desc.Width == 0 || desc.Height == 0 {
			return nil, fmt.Errorf("d3d12sim: zero-extent image")
		}
		if desc.Heap != types.HeapGPU {
			return nil, fmt.Errorf("d3d12sim: images must live in the GPU heap")
		}
	}

	d.mu.Lock()
	d.liveResources++
	d.mu.Unlock()
	return res, nil
}

// CreateDescriptorHeap allocates a descriptor heap with a unique address
// range.
func (d *Device) CreateDescriptorHeap(kind nativeapi.DescriptorHeapKind, capacity uint32, shaderVisible bool) (nativeapi.DescriptorHeap, error) {
	if capacity == 0 {
		return nil, fmt.Errorf("d3d12sim: zero-capacity descriptor heap")
	}
	d.mu.Lock()
	base := d.nextHeapBase
	d.nextHeapBase += uint64(capacity) * descriptorSize
	d.liveHeaps++
	h := &DescriptorHeap{
		device:        d,
		kind:          kind,
		capacity:      capacity,
		base:          base,
		shaderVisible: shaderVisible,
		slots:         make([]descriptorSlot, capacity),
	}
	d.heaps = append(d.heaps, h)
	d.mu.Unlock()

	return h, nil
}

// CreateCommandAllocator creates a command allocator for the given queue
// kind.
func (d *Device) CreateCommandAllocator(queue types.QueueKind) (nativeapi.CommandAllocator, error) {
	return &CommandAllocator{device: d, queue: queue}, nil
}

// CreateCommandList creates a closed command list recorded against alloc.
func (d *Device) CreateCommandList(queue types.QueueKind, alloc nativeapi.CommandAllocator) (nativeapi.CommandList, error) {
	a, ok := alloc.(*CommandAllocator)
	if !ok {
		return nil, fmt.Errorf("d3d12sim: foreign command allocator")
	}
	if a.queue != queue {
		return nil, fmt.Errorf("d3d12sim: allocator queue kind %v does not match list kind %v", a.queue, queue)
	}
	return &CommandList{device: d, queue: queue, closed: true}, nil
}

// CreateFence creates a fence at the given initial value.
func (d *Device) CreateFence(initial uint64) (nativeapi.Fence, error) {
	f := &SimFence{device: d}
	f.cond = sync.NewCond(&f.mu)
	f.value = initial
	return f, nil
}

// retirePendingSignals lands every parked queue signal on all queues:
// the simulated GPU catches up completely. Called from CPU-side fence
// waits and queue stalls.
func (d *Device) retirePendingSignals() {
	for _, q := range d.queues {
		q.retire()
	}
}

// CreateQueryHeap creates a query heap of one kind.
func (d *Device) CreateQueryHeap(kind types.QueryKind, capacity uint32) (nativeapi.QueryHeap, error) {
	if capacity == 0 {
		return nil, fmt.Errorf("d3d12sim: zero-capacity query heap")
	}
	return &QueryHeap{kind: kind, capacity: capacity}, nil
}

// CreateSwapchain creates a simulated swapchain and its backbuffer ring.
func (d *Device) CreateSwapchain(desc nativeapi.SwapchainDesc, queue nativeapi.Queue) (nativeapi.Swapchain, error) {
	if desc.NumBackbuffers == 0 || desc.NumBackbuffers > types.MaxBackbuffers {
		return nil, fmt.Errorf("d3d12sim: backbuffer count %d out of range", desc.NumBackbuffers)
	}
	sc := &Swapchain{device: d, desc: desc}
	if err := sc.createBackbuffers(); err != nil {
		return nil, err
	}
	return sc, nil
}

// AccelStructPrebuildSizes returns deterministic result/scratch sizes.
func (d *Device) AccelStructPrebuildSizes(numGeometriesOrInstances uint32, topLevel bool, flags types.AccelStructBuildFlags) (resultSize, scratchSize uint64) {
	per := uint64(256)
	if topLevel {
		per = 64
	}
	resultSize = 256 + uint64(numGeometriesOrInstances)*per
	scratchSize = resultSize
	if flags&types.AccelBuildAllowUpdate != 0 {
		scratchSize *= 2
	}
	return resultSize, scratchSize
}

// Destroy tears the device down, reporting leaked native objects.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.liveResources > 0 || d.liveHeaps > 0 {
		diag.Logger().Warn("d3d12sim: native objects leaked at device destroy",
			"resources", d.liveResources, "descriptor_heaps", d.liveHeaps)
	}
}

var _ nativeapi.Device = (*Device)(nil)
