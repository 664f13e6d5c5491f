// Copyright 2026 Corten ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package pool provides the public API for adaptive pooling operators.
//
// The operators accept 3D (C, H, W) or 4D (N, C, H, W) raw tensors and
// produce output whose spatial extent matches a requested (outH, outW)
// regardless of the input's spatial size. Dispatch selects between a
// backend-native implementation, a global-mean fast path for 1x1 output,
// and a generic per-device kernel.
//
// Example:
//
//	x, _ := tensor.NewRaw(tensor.Shape{1, 3, 8, 8}, tensor.Float32, tensor.CPU)
//	y, err := pool.AdaptiveAvgPool2d(x, []int{2, 2})
package pool

import (
	"github.com/corten-ml/corten/internal/pool"
	"github.com/corten-ml/corten/internal/tensor"
)

// Kernel is the per-device interface backends register to serve
// adaptive pooling dispatch.
type Kernel = pool.Kernel

// NativePooler is an optional interface for backends with a fused
// native adaptive pooling implementation.
type NativePooler = pool.NativePooler

// GlobalPooler is an optional interface for backends that intercept
// the 1x1 global-mean fast path.
type GlobalPooler = pool.GlobalPooler

// ShapeError reports an invalid input or output geometry.
type ShapeError = pool.ShapeError

// DTypeError reports a dtype mismatch between operands.
type DTypeError = pool.DTypeError

// ErrNoKernel is returned when no kernel is registered for the
// input tensor's device.
var ErrNoKernel = pool.ErrNoKernel

// Register installs a kernel for its device, replacing any previous
// registration. Importing backend/cpu registers the CPU kernel.
func Register(k Kernel) {
	pool.Register(k)
}

// AdaptiveAvgPool2d pools the input to the requested (outH, outW),
// allocating the output tensor.
func AdaptiveAvgPool2d(input *tensor.RawTensor, outputSize []int) (*tensor.RawTensor, error) {
	return pool.AdaptiveAvgPool2d(input, outputSize)
}

// AdaptiveAvgPool2dInto pools the input into a caller-provided output
// tensor, resizing it as needed. The output tensor is returned for
// chaining.
func AdaptiveAvgPool2dInto(output, input *tensor.RawTensor, outputSize []int) (*tensor.RawTensor, error) {
	return pool.AdaptiveAvgPool2dInto(output, input, outputSize)
}

// AdaptiveAvgPool2dBackward computes the input gradient for an
// adaptive pooling forward pass, allocating the result.
func AdaptiveAvgPool2dBackward(gradOutput, input *tensor.RawTensor) (*tensor.RawTensor, error) {
	return pool.AdaptiveAvgPool2dBackward(gradOutput, input)
}

// AdaptiveAvgPool2dBackwardInto computes the input gradient into a
// caller-provided tensor, resizing and zeroing it first.
func AdaptiveAvgPool2dBackwardInto(gradInput, gradOutput, input *tensor.RawTensor) (*tensor.RawTensor, error) {
	return pool.AdaptiveAvgPool2dBackwardInto(gradInput, gradOutput, input)
}
