package pool

import (
	"fmt"
	"sync"

	"github.com/corten-ml/corten/internal/tensor"
)

// Kernel is the per-device adaptive pooling kernel contract.
//
// The forward kernel computes, for every output cell (oh, ow) of every
// channel plane, the average of the input region
//
//	[floor(oh*H/outH), ceil((oh+1)*H/outH)) x [floor(ow*W/outW), ceil((ow+1)*W/outW))
//
// with bin boundaries computed independently per output position. The
// backward kernel accumulates, for every input cell, the gradient
// contributions from every output cell whose bin includes it; the gradient
// tensor is zero-filled by the planner before invocation.
//
// Kernels receive pre-validated, pre-sized tensors and are expected to be
// internally parallelized across batch/channel planes.
type Kernel interface {
	tensor.Backend

	// AdaptiveAvgPool2d computes adaptive average pooling into output.
	// The output tensor's trailing two dimensions define the bin grid.
	AdaptiveAvgPool2d(output, input *tensor.RawTensor)

	// AdaptiveAvgPool2dBackward accumulates input gradients from gradOutput.
	// gradInput must be zero-initialized by the caller.
	AdaptiveAvgPool2dBackward(gradInput, gradOutput *tensor.RawTensor)
}

// NativePooler is implemented by kernels backed by a library with its own
// adaptive-pool primitive for an alternate-layout native tensor
// representation. When the input reports as native, dispatch delegates
// wholesale and skips the planner and generic kernel entirely.
type NativePooler interface {
	// IsNative reports whether the input uses the backend's native
	// alternate-layout representation.
	IsNative(input *tensor.RawTensor) bool

	// NativeAdaptiveAvgPool2d runs the library's own adaptive pooling
	// primitive and returns its result unchanged.
	NativeAdaptiveAvgPool2d(input *tensor.RawTensor, outH, outW int) *tensor.RawTensor
}

// GlobalPooler is an optional accelerated global-average-pool facility.
// When available and applicable it intercepts the 1x1-output case before
// the generic mean computation; otherwise dispatch falls through.
type GlobalPooler interface {
	// CanGlobalPool reports whether the facility applies to this input.
	CanGlobalPool(input *tensor.RawTensor) bool

	// GlobalAvgPool averages each channel plane to a single value,
	// keeping the spatial dimensions with size 1.
	GlobalAvgPool(input *tensor.RawTensor) *tensor.RawTensor
}

// registry maps device tags to pooling kernels. Populated once at startup
// (backends register on construction or via their package init); lookups
// after that are read-only and safe for concurrent use.
var registry = struct {
	sync.RWMutex
	kernels map[tensor.Device]Kernel
}{kernels: make(map[tensor.Device]Kernel)}

// Register installs the kernel for its device, replacing any previous
// registration. Call once at startup per backend.
func Register(k Kernel) {
	registry.Lock()
	defer registry.Unlock()
	registry.kernels[k.Device()] = k
}

// kernelFor resolves the kernel registered for a device.
func kernelFor(device tensor.Device) (Kernel, error) {
	registry.RLock()
	defer registry.RUnlock()
	k, ok := registry.kernels[device]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoKernel, device)
	}
	return k, nil
}
