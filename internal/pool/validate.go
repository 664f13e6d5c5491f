package pool

import (
	"github.com/corten-ml/corten/internal/tensor"
)

// checkOutputSize verifies the target spatial resolution: exactly two
// entries (height, width), each >= 0. Zero is a legal value and produces
// an empty output tensor.
func checkOutputSize(op string, outputSize []int) error {
	if len(outputSize) != 2 {
		return shapeErrorf(op, "output_size must have 2 elements, got %d", len(outputSize))
	}
	if outputSize[0] < 0 || outputSize[1] < 0 {
		return shapeErrorf(op, "elements of output_size must be greater than or equal to 0, but received {%d, %d}",
			outputSize[0], outputSize[1])
	}
	return nil
}

// checkInput verifies the input rank (3 without batch dimension, 4 with)
// and that both trailing spatial dimensions are non-empty.
func checkInput(op string, input *tensor.RawTensor) error {
	shape := input.Shape()
	ndim := len(shape)
	if ndim != 3 && ndim != 4 {
		return shapeErrorf(op, "expected 3D or 4D tensor, but got %v", shape)
	}
	for _, i := range []int{-2, -1} {
		if shape[ndim+i] == 0 {
			return shapeErrorf(op, "expected input to have non-zero size for non-batch dimensions, "+
				"but input has sizes %v with dimension %d being empty", shape, ndim+i)
		}
	}
	return nil
}

// checkGradOutput verifies the upstream gradient: its rank must match the
// input's (3 or 4, checked by checkInput), and every non-batch dimension
// must be non-empty.
func checkGradOutput(op string, gradOutput, input *tensor.RawTensor) error {
	shape := gradOutput.Shape()
	ndim := len(shape)
	if ndim != len(input.Shape()) {
		return shapeErrorf(op, "expected grad_output rank %d to match input rank %d",
			ndim, len(input.Shape()))
	}
	for i := 1; i < ndim; i++ {
		if shape[i] == 0 {
			return shapeErrorf(op, "expected grad_output to have non-zero size for non-batch dimensions, "+
				"but grad_output has sizes %v with dimension %d being empty", shape, i)
		}
	}
	return nil
}

// checkDType verifies bit-for-bit dtype agreement between the input and a
// paired tensor.
func checkDType(op, operand string, input, paired *tensor.RawTensor) error {
	if input.DType() != paired.DType() {
		return &DTypeError{Op: op, Operand: operand, Want: input.DType(), Got: paired.DType()}
	}
	return nil
}
