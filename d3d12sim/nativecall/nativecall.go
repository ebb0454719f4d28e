// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package nativecall holds the FFI seam a real backend uses in place of
// the simulation: loading the native runtime library and resolving its
// device-creation entry point via goffi, without cgo.
//
// The call shape matters more than the call itself here. goffi expects
// args[] to contain pointers to WHERE argument values are stored, not the
// values — for pointer arguments that means a pointer TO the pointer.
// Probe resolves D3D12CreateDevice and prepares its call interface
// exactly the way a real submission path would before issuing
// ExecuteCommandLists/Signal through the same mechanism; when capture
// hooks are requested, the backend calls Probe at init and logs whether
// real-device paths are available on this machine.
package nativecall

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
)

var (
	initOnce sync.Once
	errInit  error

	d3d12Lib          unsafe.Pointer
	d3d12CreateDevice unsafe.Pointer
	cifCreateDevice   types.CallInterface
)

// nativeLibraryName returns the platform's runtime library name. Only
// Windows carries the real runtime; other platforms resolve nothing and
// Probe reports unavailability.
func nativeLibraryName() string {
	switch runtime.GOOS {
	case "windows":
		return "d3d12.dll"
	default:
		return ""
	}
}

// Probe loads the native runtime and prepares the device-creation call
// interface. Safe to call multiple times; only the first call does work.
// A non-nil error means the process runs on the simulation only.
func Probe() error {
	initOnce.Do(func() {
		errInit = doProbe()
	})
	return errInit
}

func doProbe() error {
	name := nativeLibraryName()
	if name == "" {
		return fmt.Errorf("nativecall: no native runtime on %s", runtime.GOOS)
	}

	var err error
	d3d12Lib, err = ffi.LoadLibrary(name)
	if err != nil {
		return fmt.Errorf("nativecall: load %s: %w", name, err)
	}

	d3d12CreateDevice, err = ffi.GetSymbol(d3d12Lib, "D3D12CreateDevice")
	if err != nil {
		return fmt.Errorf("nativecall: D3D12CreateDevice not found: %w", err)
	}

	// HRESULT D3D12CreateDevice(IUnknown* adapter, D3D_FEATURE_LEVEL level,
	//                           REFIID riid, void** device)
	err = ffi.PrepareCallInterface(&cifCreateDevice, types.DefaultCall,
		types.SInt32TypeDescriptor, // HRESULT
		[]*types.TypeDescriptor{
			types.PointerTypeDescriptor, // IUnknown* adapter (nil = default)
			types.UInt32TypeDescriptor,  // D3D_FEATURE_LEVEL
			types.PointerTypeDescriptor, // REFIID
			types.PointerTypeDescriptor, // void** out device
		})
	if err != nil {
		return fmt.Errorf("nativecall: prepare CreateDevice interface: %w", err)
	}

	return nil
}

// Close releases the native library.
func Close() error {
	if d3d12Lib != nil {
		err := ffi.FreeLibrary(d3d12Lib)
		d3d12Lib = nil
		d3d12CreateDevice = nil
		return err
	}
	return nil
}
