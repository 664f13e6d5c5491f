// Copyright 2026 Corten ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for tensor operations in the Corten ML framework.
//
// The package defines core interfaces and types for type-safe tensor operations:
//   - Tensor[T, B]: High-level generic tensor with type safety
//   - RawTensor: Low-level tensor with explicit shape, strides and memory format
//   - Backend: Interface for device-specific compute implementations
//   - Shape, DataType, Device, MemoryFormat: Core type definitions
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{1, 3, 8, 8}, backend)
//	y := pool.AdaptiveAvgPool2d(x.Raw(), []int{2, 2})
package tensor

import (
	"github.com/corten-ml/corten/internal/tensor"
)

// Type aliases for public API

// DType is a constraint for tensor data types.
// Supported types: float32, float64, int32, int64, uint8, bool.
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// Device represents the compute device a tensor lives on.
type Device = tensor.Device

// Device constants.
const (
	CPU     Device = tensor.CPU
	WebGPU  Device = tensor.WebGPU
	Offload Device = tensor.Offload
)

// MemoryFormat describes the physical layout of a tensor's elements.
type MemoryFormat = tensor.MemoryFormat

// Memory format constants.
const (
	Contiguous   MemoryFormat = tensor.Contiguous
	ChannelsLast MemoryFormat = tensor.ChannelsLast
)

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// RawTensor is the low-level tensor representation shared by all backends.
type RawTensor = tensor.RawTensor

// Backend is the interface compute backends implement.
type Backend = tensor.Backend

// Tensor is a type-safe tensor with element type T computed on backend B.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// Creation functions

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T, B](shape, b)
}

// Full creates a tensor filled with the given value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full[T, B](shape, value, b)
}

// Arange creates a tensor filled with 0, 1, 2, ... in row-major order.
func Arange[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Arange[T, B](shape, b)
}

// Randn creates a tensor with normally distributed random values.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Randn[T, B](shape, b)
}

// FromSlice creates a tensor from a Go slice with the given shape.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice[T, B](data, shape, b)
}

// New wraps a RawTensor in a typed Tensor.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// NewRaw creates a raw tensor with the given shape, dtype and device,
// laid out contiguously.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// NewRawFormatted creates a raw tensor with an explicit memory format.
// ChannelsLast requires a 4D shape.
func NewRawFormatted(shape Shape, dtype DataType, device Device, format MemoryFormat) (*RawTensor, error) {
	return tensor.NewRawFormatted(shape, dtype, device, format)
}
