package tensor

import (
	"fmt"
	"sync/atomic"
)

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is a simple backend for testing.
// It implements operations naively for correctness verification and counts
// calls so tests can assert which dispatch path ran.
type MockBackend struct {
	device Device

	// MeanDimsCalls counts MeanDims invocations.
	MeanDimsCalls atomic.Int64
}

// NewMockBackend creates a new MockBackend on CPU.
func NewMockBackend() *MockBackend {
	return &MockBackend{device: CPU}
}

// NewMockBackendOn creates a new MockBackend tagged with the given device.
// Tests use this to exercise device-specific dispatch decisions without
// real hardware.
func NewMockBackendOn(device Device) *MockBackend {
	return &MockBackend{device: device}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device returns the device type.
func (m *MockBackend) Device() Device {
	return m.device
}

// MeanDims computes the mean over the given dimensions naively.
// Supports Float32 and Float64; intermediate accumulation is float64.
func (m *MockBackend) MeanDims(x *RawTensor, dims []int, keepDim bool) *RawTensor {
	m.MeanDimsCalls.Add(1)

	shape := x.Shape()
	ndim := len(shape)

	// Normalize and mark reduced dimensions.
	reduced := make([]bool, ndim)
	count := 1
	for _, d := range dims {
		if d < 0 {
			d = ndim + d
		}
		if d < 0 || d >= ndim {
			panic(fmt.Sprintf("meandims: dimension %d out of range for %dD tensor", d, ndim))
		}
		if !reduced[d] {
			reduced[d] = true
			count *= shape[d]
		}
	}

	// Output shape.
	var outShape Shape
	for i := 0; i < ndim; i++ {
		switch {
		case !reduced[i]:
			outShape = append(outShape, shape[i])
		case keepDim:
			outShape = append(outShape, 1)
		}
	}

	result, err := NewRaw(outShape, x.DType(), m.device)
	if err != nil {
		panic(err)
	}
	if x.NumElements() == 0 {
		return result
	}

	read := func(i int) float64 {
		switch x.DType() {
		case Float32:
			return float64(x.AsFloat32()[i])
		case Float64:
			return x.AsFloat64()[i]
		default:
			panic(fmt.Sprintf("meandims: unsupported dtype %s", x.DType()))
		}
	}
	write := func(i int, v float64) {
		switch result.DType() {
		case Float32:
			result.AsFloat32()[i] += float32(v)
		case Float64:
			result.AsFloat64()[i] += v
		}
	}

	// Accumulate each input element into its output cell. Logical indices
	// are decomposed against contiguous strides; reads use the tensor's
	// physical strides so channels-last inputs reduce correctly.
	logical := shape.ComputeStrides()
	physical := x.Strides()
	outStrides := outShape.ComputeStrides()
	idx := make([]int, ndim)
	for flat := 0; flat < x.NumElements(); flat++ {
		rem := flat
		inOff := 0
		for i := 0; i < ndim; i++ {
			idx[i] = rem / logical[i]
			rem %= logical[i]
			inOff += idx[i] * physical[i]
		}

		outFlat := 0
		o := 0
		for i := 0; i < ndim; i++ {
			if reduced[i] {
				if keepDim {
					o++
				}
				continue
			}
			outFlat += idx[i] * outStrides[o]
			o++
		}
		write(outFlat, read(inOff)/float64(count))
	}

	return result
}
