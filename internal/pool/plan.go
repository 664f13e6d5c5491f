package pool

import (
	"github.com/corten-ml/corten/internal/tensor"
)

// plannedShape computes the output shape for a validated input and target
// spatial resolution: [C, outH, outW] for rank-3 input, [N, C, outH, outW]
// for rank-4. The channel count is the input's size at dimension -3.
func plannedShape(input *tensor.RawTensor, outH, outW int) tensor.Shape {
	shape := input.Shape()
	ndim := len(shape)
	channels := shape[ndim-3]
	if ndim == 3 {
		return tensor.Shape{channels, outH, outW}
	}
	return tensor.Shape{shape[0], channels, outH, outW}
}

// plannedFormat selects the output's storage layout: the input's preferred
// layout, propagated end to end. Channels-last only survives for rank-4
// planned shapes.
func plannedFormat(input *tensor.RawTensor, planned tensor.Shape) tensor.MemoryFormat {
	if len(planned) != 4 {
		return tensor.Contiguous
	}
	return input.SuggestFormat()
}

// planForward resizes output to the planned forward shape, carrying the
// input's layout preference. Reports whether the planned output is empty,
// in which case the caller short-circuits without invoking any kernel.
func planForward(output, input *tensor.RawTensor, outH, outW int) (empty bool, err error) {
	shape := plannedShape(input, outH, outW)
	if err := output.Resize(shape, plannedFormat(input, shape)); err != nil {
		return false, err
	}
	return shape.NumElements() == 0, nil
}

// planBackward resizes gradInput to exactly the input's shape and layout
// and zero-fills it: the backward kernel accumulates contributions rather
// than initializing them. Reports whether the gradient is empty.
func planBackward(gradInput, input *tensor.RawTensor) (empty bool, err error) {
	shape := input.Shape().Clone()
	if err := gradInput.Resize(shape, input.SuggestFormat()); err != nil {
		return false, err
	}
	gradInput.Zero()
	return shape.NumElements() == 0, nil
}
