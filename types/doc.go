// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package types defines the closed enums, handle types, and plain-data
// descriptions shared across the whole HAL: resource states, pixel
// formats, queue and heap kinds, shader argument shapes, resource view
// and sampler descriptions, and the raytracing argument structures.
//
// Everything here is passive data. Behavior lives in the pool packages
// and in the backend facade.
package types
