// Package pool implements adaptive average pooling over 3D/4D tensors:
// shape validation, output-shape planning, and dispatch to per-device
// pooling kernels, with forward and backward (gradient) operations.
package pool

import (
	"errors"
	"fmt"

	"github.com/corten-ml/corten/internal/tensor"
)

// ErrNoKernel is returned when no pooling kernel is registered for the
// input tensor's device.
var ErrNoKernel = errors.New("no pooling kernel registered for device")

// ShapeError reports a violated shape contract: wrong rank, wrong
// output-size length, negative output size, or an empty spatial dimension.
// These are user-facing contract violations, not recoverable conditions.
type ShapeError struct {
	Op     string // Operation that detected the violation
	Detail string // Description naming the offending shape or dimension
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Detail)
}

// DTypeError reports a dtype disagreement between paired tensors
// (input/output, input/grad_output, or input/grad_input). Dtypes are never
// silently coerced; the mismatch aborts the operation.
type DTypeError struct {
	Op      string          // Operation that detected the mismatch
	Operand string          // Name of the offending tensor
	Want    tensor.DataType // Dtype of the reference (input) tensor
	Got     tensor.DataType // Dtype of the offending tensor
}

// Error implements the error interface.
func (e *DTypeError) Error() string {
	return fmt.Sprintf("%s: expected dtype %s for `%s` but got dtype %s", e.Op, e.Want, e.Operand, e.Got)
}

// shapeErrorf builds a ShapeError with a formatted detail message.
func shapeErrorf(op, format string, args ...any) *ShapeError {
	return &ShapeError{Op: op, Detail: fmt.Sprintf(format, args...)}
}
