// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package types

import "github.com/gogpu/gputypes"

// QueueKind selects one of the three hardware queues.
type QueueKind uint8

const (
	QueueDirect QueueKind = iota
	QueueCompute
	QueueCopy

	NumQueueKinds = 3
)

func (q QueueKind) String() string {
	switch q {
	case QueueDirect:
		return "direct"
	case QueueCompute:
		return "compute"
	case QueueCopy:
		return "copy"
	}
	return "invalid"
}

// HeapKind selects the memory class of a resource allocation.
type HeapKind uint8

const (
	// HeapGPU is device-local memory without CPU access.
	HeapGPU HeapKind = iota
	// HeapUpload is CPU-writable memory for streaming data to the GPU.
	HeapUpload
	// HeapReadback is CPU-readable memory for reading results back.
	HeapReadback
)

func (h HeapKind) String() string {
	switch h {
	case HeapGPU:
		return "gpu"
	case HeapUpload:
		return "upload"
	case HeapReadback:
		return "readback"
	}
	return "invalid"
}

// QueryKind selects the query heap a query range lives in.
type QueryKind uint8

const (
	QueryTimestamp QueryKind = iota
	QueryOcclusion
	QueryPipelineStats

	NumQueryKinds = 3
)

func (q QueryKind) String() string {
	switch q {
	case QueryTimestamp:
		return "timestamp"
	case QueryOcclusion:
		return "occlusion"
	case QueryPipelineStats:
		return "pipeline_stats"
	}
	return "invalid"
}

// PresentMode controls swapchain presentation timing.
type PresentMode uint8

const (
	// PresentSynced waits for the next vertical blank.
	PresentSynced PresentMode = iota
	// PresentSynced2ndVblank waits for the second vertical blank,
	// halving the effective refresh rate.
	PresentSynced2ndVblank
	// PresentUnsynced presents immediately without tearing support.
	PresentUnsynced
	// PresentAllowTearing presents immediately and permits tearing.
	PresentAllowTearing
)

// AllowsTearing reports whether the mode requires the tearing flag on the
// native swapchain.
func (p PresentMode) AllowsTearing() bool { return p == PresentAllowTearing }

// ValidationLevel controls how much native debug tooling is attached at
// device creation.
type ValidationLevel uint8

const (
	ValidationOff ValidationLevel = iota
	ValidationOn
	ValidationOnExtended
	ValidationOnExtendedDRED
)

// AdapterPreference selects which physical adapter the backend opens.
type AdapterPreference uint8

const (
	AdapterHighestVRAM AdapterPreference = iota
	AdapterIntegrated
	AdapterExplicitIndex
	AdapterFirst
	AdapterHighestFeatureLevel
)

// BackendVariant aliases the ecosystem backend identifier, reported by
// adapters for diagnostics. The D3D12-style backend reports BackendDX.
type BackendVariant = gputypes.Backend
