package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - backend/cpu: Pure Go with goroutine-parallelized kernels
//   - backend/webgpu: Cross-platform GPU compute via WebGPU
//
// Pooling kernels are registered separately per device (see the pool
// package); Backend carries only the generic operations the operator
// layer dispatches through.
type Backend interface {
	// MeanDims computes the mean over the given dimensions.
	// Dimensions support negative indexing (-1 = last dim).
	// With keepDim the reduced dimensions are retained with size 1;
	// the global-mean pooling shortcut reduces over {-2, -1} with keepDim.
	MeanDims(x *RawTensor, dims []int, keepDim bool) *RawTensor

	// Metadata
	Name() string
	Device() Device
}
