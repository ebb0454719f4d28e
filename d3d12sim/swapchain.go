// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package d3d12sim

import (
	"fmt"
	"sync"

	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/types"
)

// Swapchain implements nativeapi.Swapchain with an in-memory backbuffer
// ring. Present rotates the current index; the ring images are owned by
// the swapchain and survive until Resize or Release.
type Swapchain struct {
	device *Device
	desc   nativeapi.SwapchainDesc

	mu          sync.Mutex
	backbuffers []*Resource
	current     uint32
	numPresents int
}

func (s *Swapchain) createBackbuffers() error {
	s.backbuffers = make([]*Resource, s.desc.NumBackbuffers)
	for i := range s.backbuffers {
		res, err := s.device.CreateResource(nativeapi.ResourceDesc{
			Kind:              nativeapi.KindImage,
			Heap:              types.HeapGPU,
			Format:            types.BackbufferFormat,
			Width:             uint32(s.desc.Width),
			Height:            uint32(s.desc.Height),
			DepthOrArraySize:  1,
			MipLevels:         1,
			Dimension:         types.Texture2D,
			Samples:           1,
			AllowRenderTarget: true,
			InitialState:      types.StatePresent,
			DebugName:         fmt.Sprintf("backbuffer #%d", i),
		})
		if err != nil {
			return err
		}
		r := res.(*Resource)
		r.isBackbuffer = true
		s.backbuffers[i] = r
	}
	return nil
}

func (s *Swapchain) releaseBackbuffers() {
	for _, b := range s.backbuffers {
		b.isBackbuffer = false
		b.Release()
	}
	s.backbuffers = nil
}

// Backbuffer returns the native image of ring slot i.
func (s *Swapchain) Backbuffer(i uint32) nativeapi.Resource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backbuffers[i]
}

// NumBackbuffers returns the ring length.
func (s *Swapchain) NumBackbuffers() uint32 { return s.desc.NumBackbuffers }

// CurrentIndex returns the ring slot the next present targets.
func (s *Swapchain) CurrentIndex() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Present flips to the next backbuffer.
func (s *Swapchain) Present() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.numPresents++
	s.current = (s.current + 1) % s.desc.NumBackbuffers
	return nil
}

// NumPresents returns the present count, for tests.
func (s *Swapchain) NumPresents() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.numPresents
}

// Resize recreates the ring at the new extent.
func (s *Swapchain) Resize(width, height int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("d3d12sim: resize to zero area %dx%d", width, height)
	}
	s.releaseBackbuffers()
	s.desc.Width, s.desc.Height = width, height
	s.current = 0
	return s.createBackbuffers()
}

// Release frees the swapchain and its ring.
func (s *Swapchain) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseBackbuffers()
}

var _ nativeapi.Swapchain = (*Swapchain)(nil)
