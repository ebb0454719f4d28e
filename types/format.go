// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package types

import "github.com/gogpu/gputypes"

// Format is the closed pixel format set supported by the HAL.
type Format uint8

const (
	FormatNone Format = iota

	// 32 bit per component
	FormatRGBA32F
	FormatRGB32F
	FormatRG32F
	FormatR32F
	FormatRGBA32I
	FormatRG32I
	FormatR32I
	FormatRGBA32U
	FormatRG32U
	FormatR32U

	// 16 bit per component
	FormatRGBA16F
	FormatRG16F
	FormatR16F
	FormatRGBA16I
	FormatRG16I
	FormatR16I
	FormatRGBA16U
	FormatRG16U
	FormatR16U

	// 8 bit per component
	FormatRGBA8UN
	FormatRGBA8UNSRGB
	FormatRGBA8I
	FormatRGBA8U
	FormatRG8UN
	FormatRG8I
	FormatRG8U
	FormatR8UN
	FormatR8I
	FormatR8U
	FormatBGRA8UN

	// packed
	FormatR10G10B10A2U
	FormatR10G10B10A2UN
	FormatB10G11R11UF

	// block-compressed
	FormatBC1_8UN
	FormatBC2_8UN
	FormatBC3_8UN
	FormatBC7_8UN

	// depth and depth-stencil
	FormatDepth32F
	FormatDepth24UN
	FormatDepth16UN
	FormatDepth32FStencil8U
	FormatDepth24UNStencil8U
)

// BackbufferFormat is the fixed format of swapchain backbuffers. The
// native swapchain is created without sRGB; gamma-correct output goes
// through an sRGB render target view instead.
const BackbufferFormat = FormatBGRA8UN

// IsDepth reports whether f is a depth or depth-stencil format.
func (f Format) IsDepth() bool {
	switch f {
	case FormatDepth32F, FormatDepth24UN, FormatDepth16UN,
		FormatDepth32FStencil8U, FormatDepth24UNStencil8U:
		return true
	}
	return false
}

// HasStencil reports whether f carries a stencil aspect.
func (f Format) HasStencil() bool {
	return f == FormatDepth32FStencil8U || f == FormatDepth24UNStencil8U
}

// IsBlockCompressed reports whether f is a BC format.
func (f Format) IsBlockCompressed() bool {
	switch f {
	case FormatBC1_8UN, FormatBC2_8UN, FormatBC3_8UN, FormatBC7_8UN:
		return true
	}
	return false
}

// SizeBytes returns the byte size of a single pixel, or of a single block
// for block-compressed formats.
func (f Format) SizeBytes() uint32 {
	switch f {
	case FormatRGBA32F, FormatRGBA32I, FormatRGBA32U:
		return 16
	case FormatRGB32F:
		return 12
	case FormatRG32F, FormatRG32I, FormatRG32U,
		FormatRGBA16F, FormatRGBA16I, FormatRGBA16U,
		FormatDepth32FStencil8U:
		return 8
	case FormatR32F, FormatR32I, FormatR32U,
		FormatRG16F, FormatRG16I, FormatRG16U,
		FormatRGBA8UN, FormatRGBA8UNSRGB, FormatRGBA8I, FormatRGBA8U, FormatBGRA8UN,
		FormatR10G10B10A2U, FormatR10G10B10A2UN, FormatB10G11R11UF,
		FormatDepth32F, FormatDepth24UN, FormatDepth24UNStencil8U:
		return 4
	case FormatR16F, FormatR16I, FormatR16U,
		FormatRG8UN, FormatRG8I, FormatRG8U,
		FormatDepth16UN:
		return 2
	case FormatR8UN, FormatR8I, FormatR8U:
		return 1
	case FormatBC1_8UN:
		return 8 // per 4x4 block
	case FormatBC2_8UN, FormatBC3_8UN, FormatBC7_8UN:
		return 16 // per 4x4 block
	}
	return 0
}

// ToTextureFormat maps f onto the ecosystem texture format enum, for
// interop with tooling that speaks gputypes. Formats without an exact
// ecosystem equivalent map to TextureFormatUndefined with ok == false.
func (f Format) ToTextureFormat() (tf gputypes.TextureFormat, ok bool) {
	switch f {
	case FormatRGBA32F:
		return gputypes.TextureFormatRGBA32Float, true
	case FormatRG32F:
		return gputypes.TextureFormatRG32Float, true
	case FormatR32F:
		return gputypes.TextureFormatR32Float, true
	case FormatRGBA32I:
		return gputypes.TextureFormatRGBA32Sint, true
	case FormatRG32I:
		return gputypes.TextureFormatRG32Sint, true
	case FormatR32I:
		return gputypes.TextureFormatR32Sint, true
	case FormatRGBA32U:
		return gputypes.TextureFormatRGBA32Uint, true
	case FormatRG32U:
		return gputypes.TextureFormatRG32Uint, true
	case FormatR32U:
		return gputypes.TextureFormatR32Uint, true
	case FormatRGBA16F:
		return gputypes.TextureFormatRGBA16Float, true
	case FormatRG16F:
		return gputypes.TextureFormatRG16Float, true
	case FormatR16F:
		return gputypes.TextureFormatR16Float, true
	case FormatRGBA16I:
		return gputypes.TextureFormatRGBA16Sint, true
	case FormatRG16I:
		return gputypes.TextureFormatRG16Sint, true
	case FormatR16I:
		return gputypes.TextureFormatR16Sint, true
	case FormatRGBA16U:
		return gputypes.TextureFormatRGBA16Uint, true
	case FormatRG16U:
		return gputypes.TextureFormatRG16Uint, true
	case FormatR16U:
		return gputypes.TextureFormatR16Uint, true
	case FormatRGBA8UN:
		return gputypes.TextureFormatRGBA8Unorm, true
	case FormatRGBA8UNSRGB:
		return gputypes.TextureFormatRGBA8UnormSrgb, true
	case FormatRGBA8I:
		return gputypes.TextureFormatRGBA8Sint, true
	case FormatRGBA8U:
		return gputypes.TextureFormatRGBA8Uint, true
	case FormatRG8UN:
		return gputypes.TextureFormatRG8Unorm, true
	case FormatRG8I:
		return gputypes.TextureFormatRG8Sint, true
	case FormatRG8U:
		return gputypes.TextureFormatRG8Uint, true
	case FormatR8UN:
		return gputypes.TextureFormatR8Unorm, true
	case FormatR8I:
		return gputypes.TextureFormatR8Sint, true
	case FormatR8U:
		return gputypes.TextureFormatR8Uint, true
	case FormatBGRA8UN:
		return gputypes.TextureFormatBGRA8Unorm, true
	case FormatR10G10B10A2U:
		return gputypes.TextureFormatRGB10A2Uint, true
	case FormatR10G10B10A2UN:
		return gputypes.TextureFormatRGB10A2Unorm, true
	case FormatB10G11R11UF:
		return gputypes.TextureFormatRG11B10Ufloat, true
	case FormatBC1_8UN:
		return gputypes.TextureFormatBC1RGBAUnorm, true
	case FormatBC2_8UN:
		return gputypes.TextureFormatBC2RGBAUnorm, true
	case FormatBC3_8UN:
		return gputypes.TextureFormatBC3RGBAUnorm, true
	case FormatBC7_8UN:
		return gputypes.TextureFormatBC7RGBAUnorm, true
	case FormatDepth32F:
		return gputypes.TextureFormatDepth32Float, true
	case FormatDepth24UN:
		return gputypes.TextureFormatDepth24Plus, true
	case FormatDepth16UN:
		return gputypes.TextureFormatDepth16Unorm, true
	case FormatDepth32FStencil8U:
		return gputypes.TextureFormatDepth32FloatStencil8, true
	case FormatDepth24UNStencil8U:
		return gputypes.TextureFormatDepth24PlusStencil8, true
	}
	return gputypes.TextureFormatUndefined, false
}
