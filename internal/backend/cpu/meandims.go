package cpu

import (
	"fmt"

	"github.com/corten-ml/corten/internal/tensor"
)

// MeanDims computes the mean of tensor elements over the given dimensions.
//
// Parameters:
//   - dims: dimensions to reduce (supports negative indexing: -1 = last dim)
//   - keepDim: if true, keep each reduced dimension with size 1; if false, remove it
//
// The global-mean pooling shortcut reduces over {-2, -1} with keepDim,
// turning a [N, C, H, W] tensor into [N, C, 1, 1].
//
// Reads honor the input's strides, so channels-last tensors reduce
// correctly; the result is always contiguous.
func (cpu *CPUBackend) MeanDims(x *tensor.RawTensor, dims []int, keepDim bool) *tensor.RawTensor {
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

	// Calculate output shape.
	var outShape tensor.Shape
	for i := 0; i < ndim; i++ {
		switch {
		case !reduced[i]:
			outShape = append(outShape, shape[i])
		case keepDim:
			outShape = append(outShape, 1)
		}
	}

	result, err := tensor.NewRaw(outShape, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("meandims: %v", err))
	}
	if x.NumElements() == 0 || count == 0 {
		return result
	}

	// Map each input dimension to its output stride (0 for reduced dims).
	outStrides := outShape.ComputeStrides()
	dimToOut := make([]int, ndim)
	o := 0
	for i := 0; i < ndim; i++ {
		if reduced[i] {
			if keepDim {
				o++
			}
			continue
		}
		dimToOut[i] = outStrides[o]
		o++
	}

	switch x.DType() {
	case tensor.Float32:
		meanDimsFloat32(result.AsFloat32(), x.AsFloat32(), shape, x.Strides(), dimToOut, float32(count))
	case tensor.Float64:
		meanDimsFloat64(result.AsFloat64(), x.AsFloat64(), shape, x.Strides(), dimToOut, float64(count))
	default:
		panic(fmt.Sprintf("meandims: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}

// meanDimsFloat32 accumulates each input element into its output cell and
// divides by the reduction count. Odometer iteration over logical indices
// with physical offsets from the input's strides.
func meanDimsFloat32(out, in []float32, shape tensor.Shape, inStrides, dimToOut []int, count float32) {
	ndim := len(shape)
	idx := make([]int, ndim)
	inOff, outOff := 0, 0
	for {
		out[outOff] += in[inOff]

		// Advance the odometer, rightmost dimension first.
		d := ndim - 1
		for ; d >= 0; d-- {
			idx[d]++
			inOff += inStrides[d]
			outOff += dimToOut[d]
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
			inOff -= shape[d] * inStrides[d]
			outOff -= shape[d] * dimToOut[d]
		}
		if d < 0 {
			break
		}
	}

	for i := range out {
		out[i] /= count
	}
}

// meanDimsFloat64 is the float64 variant of meanDimsFloat32.
func meanDimsFloat64(out, in []float64, shape tensor.Shape, inStrides, dimToOut []int, count float64) {
	ndim := len(shape)
	idx := make([]int, ndim)
	inOff, outOff := 0, 0
	for {
		out[outOff] += in[inOff]

		d := ndim - 1
		for ; d >= 0; d-- {
			idx[d]++
			inOff += inStrides[d]
			outOff += dimToOut[d]
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
			inOff -= shape[d] * inStrides[d]
			outOff -= shape[d] * dimToOut[d]
		}
		if d < 0 {
			break
		}
	}

	for i := range out {
		out[i] /= count
	}
}
