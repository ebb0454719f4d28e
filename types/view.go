// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package types

// ViewDimension selects how a resource is addressed by a shader view.
type ViewDimension uint8

const (
	ViewDimBuffer ViewDimension = iota
	ViewDimTexture1D
	ViewDimTexture1DArray
	ViewDimTexture2D
	ViewDimTexture2DArray
	ViewDimTexture3D
	ViewDimTextureCube
	ViewDimTextureCubeArray
	ViewDimRaytracingAccelStruct
)

// TextureDimension is the storage dimension of an image resource.
type TextureDimension uint8

const (
	Texture1D TextureDimension = iota
	Texture2D
	Texture3D
	TextureCube
)

// ResourceView describes one SRV or UAV inside a shader view, or the
// target of a render pass attachment. Fields beyond Resource, Dimension,
// and PixelFormat apply only to the dimensions that use them.
type ResourceView struct {
	Resource    Resource
	Dimension   ViewDimension
	PixelFormat Format

	// Texture addressing.
	MipStart   uint32
	MipSize    uint32
	ArrayStart uint32
	ArraySize  uint32

	// Buffer addressing.
	ElementStart  uint32
	NumElements   uint32
	ElementStride uint32
}

// TextureView returns a whole-texture 2D view of res, the common case for
// render targets and sampled textures.
func TextureView(res Resource, fmt Format) ResourceView {
	return ResourceView{
		Resource:    res,
		Dimension:   ViewDimTexture2D,
		PixelFormat: fmt,
		MipSize:     1,
		ArraySize:   1,
	}
}

// BufferView returns a structured-buffer view of res.
func BufferView(res Resource, elementStart, numElements, stride uint32) ResourceView {
	return ResourceView{
		Resource:      res,
		Dimension:     ViewDimBuffer,
		ElementStart:  elementStart,
		NumElements:   numElements,
		ElementStride: stride,
	}
}

// AccelStructView returns a raytracing acceleration structure SRV over the
// AS result buffer.
func AccelStructView(res Resource) ResourceView {
	return ResourceView{Resource: res, Dimension: ViewDimRaytracingAccelStruct}
}

// FilterMode selects texel filtering.
type FilterMode uint8

const (
	FilterNearest FilterMode = iota
	FilterLinear
	FilterAnisotropic
)

// AddressMode selects wrapping outside [0, 1) texture coordinates.
type AddressMode uint8

const (
	AddressWrap AddressMode = iota
	AddressClamp
	AddressMirror
)

// CompareFunc is the comparison applied by comparison samplers and depth
// testing.
type CompareFunc uint8

const (
	CompareNone CompareFunc = iota
	CompareLess
	CompareLessEqual
	CompareGreater
	CompareGreaterEqual
	CompareEqual
	CompareNotEqual
	CompareAlways
	CompareNever
)

// SamplerBorderColor is the closed set of border colors.
type SamplerBorderColor uint8

const (
	BorderBlackTransparent SamplerBorderColor = iota
	BorderBlackOpaque
	BorderWhiteOpaque
)

// SamplerConfig fully describes one sampler descriptor.
type SamplerConfig struct {
	MinFilter     FilterMode
	MagFilter     FilterMode
	MipFilter     FilterMode
	AddressU      AddressMode
	AddressV      AddressMode
	AddressW      AddressMode
	MinLOD        float32
	MaxLOD        float32
	LODBias       float32
	MaxAnisotropy uint32
	Compare       CompareFunc
	Border        SamplerBorderColor
}

// DefaultSampler returns a trilinear wrap sampler with full mip range.
func DefaultSampler() SamplerConfig {
	return SamplerConfig{
		MinFilter:     FilterLinear,
		MagFilter:     FilterLinear,
		MipFilter:     FilterLinear,
		MaxLOD:        3.402823466e+38,
		MaxAnisotropy: 16,
	}
}
