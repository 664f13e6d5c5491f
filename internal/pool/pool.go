package pool

import (
	"github.com/corten-ml/corten/internal/metrics"
	"github.com/corten-ml/corten/internal/tensor"
)

// Operation names used in error messages and metrics labels.
const (
	opForward  = "adaptive_avg_pool2d"
	opBackward = "adaptive_avg_pool2d_backward"
)

// fail records a validation failure for the operation and passes the error
// through unchanged.
func fail(op string, err error) error {
	switch err.(type) {
	case *ShapeError:
		metrics.RecordValidationError(op, "shape")
	case *DTypeError:
		metrics.RecordValidationError(op, "dtype")
	default:
		metrics.RecordValidationError(op, "other")
	}
	return err
}

// AdaptiveAvgPool2d applies adaptive average pooling to a 3D [C, H, W] or
// 4D [N, C, H, W] input, producing a new tensor with spatial size
// outputSize (height, width). The output preserves the input's dtype and
// preferred storage layout.
//
// Dispatch chooses exactly one path:
//  1. a backend-native alternate-layout primitive, when the registered
//     kernel reports the input as native;
//  2. a global-mean shortcut when outputSize is {1, 1}, the dtype is
//     floating point, and the device has an optimized mean reduction
//     (Offload devices do not) - mathematically identical to pooling
//     into a single bin, but far cheaper. A channels-last input keeps
//     its access pattern via a stride rewrite of the result;
//  3. the generic per-device pooling kernel.
//
// outputSize values of 0 are permitted and yield an empty output without
// invoking any kernel.
func AdaptiveAvgPool2d(input *tensor.RawTensor, outputSize []int) (*tensor.RawTensor, error) {
	if err := checkOutputSize(opForward, outputSize); err != nil {
		return nil, fail(opForward, err)
	}
	if err := checkInput(opForward, input); err != nil {
		return nil, fail(opForward, err)
	}
	outH, outW := outputSize[0], outputSize[1]

	// Fast paths need a registered backend; without one the generic
	// template below reports the missing kernel (or short-circuits on an
	// empty output, which needs no kernel at all).
	if k, kerr := kernelFor(input.Device()); kerr == nil {
		if np, ok := k.(NativePooler); ok && np.IsNative(input) {
			metrics.RecordDispatch(opForward, "native")
			return np.NativeAdaptiveAvgPool2d(input, outH, outW), nil
		}

		// Pooling to a single bin is the mean over the spatial dims.
		// Quantized and integer tensors take the generic path, as do
		// tensors on offload devices without an optimized reduction.
		if outH == 1 && outW == 1 && input.DType().IsFloat() && input.Device() != tensor.Offload {
			if gp, ok := k.(GlobalPooler); ok && gp.CanGlobalPool(input) {
				metrics.RecordDispatch(opForward, "global")
				return gp.GlobalAvgPool(input), nil
			}

			metrics.RecordDispatch(opForward, "mean")
			out := k.MeanDims(input, []int{-2, -1}, true)
			shape := input.Shape()
			if len(shape) == 4 && input.SuggestFormat() == tensor.ChannelsLast {
				// Keep the channels-last access pattern on the [N, C, 1, 1]
				// result: strides {C, 1, C, C} instead of the contiguous
				// {C, 1, 1, 1}. Metadata only, the data is not copied.
				n, c := shape[0], shape[1]
				out.AsStrided(tensor.Shape{n, c, 1, 1}, []int{c, 1, c, c})
			}
			return out, nil
		}
	}

	output, err := tensor.NewRaw(tensor.Shape{0}, input.DType(), input.Device())
	if err != nil {
		return nil, err
	}
	return AdaptiveAvgPool2dInto(output, input, outputSize)
}

// AdaptiveAvgPool2dInto applies adaptive average pooling into the
// caller-owned output tensor, resizing it to the planned shape. The output
// must share the input's dtype. Returns the output tensor.
//
// The pre-allocated-output form always uses the generic kernel; the fast
// paths apply only to the allocating form.
func AdaptiveAvgPool2dInto(output, input *tensor.RawTensor, outputSize []int) (*tensor.RawTensor, error) {
	if err := checkOutputSize(opForward, outputSize); err != nil {
		return nil, fail(opForward, err)
	}
	if err := checkInput(opForward, input); err != nil {
		return nil, fail(opForward, err)
	}
	if err := checkDType(opForward, "output", input, output); err != nil {
		return nil, fail(opForward, err)
	}

	empty, err := planForward(output, input, outputSize[0], outputSize[1])
	if err != nil {
		return nil, err
	}
	if empty {
		return output, nil
	}

	k, err := kernelFor(input.Device())
	if err != nil {
		return nil, err
	}
	metrics.RecordDispatch(opForward, "generic")
	k.AdaptiveAvgPool2d(output, input)
	return output, nil
}

// AdaptiveAvgPool2dBackward computes the gradient of adaptive average
// pooling with respect to the input, given the upstream gradient and the
// original input. The result has exactly the input's shape and layout.
//
// There is no fast path for backward; the 1x1 case (uniform scatter of
// grad/(H*W) over every input cell) falls out of the generic bin formula.
func AdaptiveAvgPool2dBackward(gradOutput, input *tensor.RawTensor) (*tensor.RawTensor, error) {
	gradInput, err := tensor.NewRaw(tensor.Shape{0}, input.DType(), input.Device())
	if err != nil {
		return nil, err
	}
	return AdaptiveAvgPool2dBackwardInto(gradInput, gradOutput, input)
}

// AdaptiveAvgPool2dBackwardInto computes the input gradient into the
// caller-owned gradInput tensor, resizing it to the input's shape and
// zero-filling it before the kernel accumulates contributions. gradInput
// and gradOutput must share the input's dtype. Returns gradInput.
func AdaptiveAvgPool2dBackwardInto(gradInput, gradOutput, input *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := checkInput(opBackward, input); err != nil {
		return nil, fail(opBackward, err)
	}
	if err := checkGradOutput(opBackward, gradOutput, input); err != nil {
		return nil, fail(opBackward, err)
	}
	if err := checkDType(opBackward, "grad_output", input, gradOutput); err != nil {
		return nil, fail(opBackward, err)
	}
	if err := checkDType(opBackward, "grad_input", input, gradInput); err != nil {
		return nil, fail(opBackward, err)
	}

	empty, err := planBackward(gradInput, input)
	if err != nil {
		return nil, err
	}
	if empty {
		return gradInput, nil
	}

	k, err := kernelFor(input.Device())
	if err != nil {
		return nil, err
	}
	metrics.RecordDispatch(opBackward, "generic")
	k.AdaptiveAvgPool2dBackward(gradInput, gradOutput)
	return gradInput, nil
}
