package pool

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corten-ml/corten/internal/tensor"
)

// countingKernel is a minimal generic kernel that records invocations.
// The MockBackend supplies Name/Device/MeanDims.
type countingKernel struct {
	*tensor.MockBackend

	forwardCalls  atomic.Int64
	backwardCalls atomic.Int64
}

func newCountingKernel(device tensor.Device) *countingKernel {
	return &countingKernel{MockBackend: tensor.NewMockBackendOn(device)}
}

func (k *countingKernel) AdaptiveAvgPool2d(output, input *tensor.RawTensor) {
	k.forwardCalls.Add(1)
	// Fill float32 outputs with a sentinel so tests can tell the generic
	// path ran.
	if output.DType() == tensor.Float32 {
		data := output.AsFloat32()
		for i := range data {
			data[i] = -1
		}
	}
}

func (k *countingKernel) AdaptiveAvgPool2dBackward(gradInput, gradOutput *tensor.RawTensor) {
	k.backwardCalls.Add(1)
}

// nativeKernel additionally claims every input as native.
type nativeKernel struct {
	*countingKernel

	nativeCalls atomic.Int64
}

func (k *nativeKernel) IsNative(input *tensor.RawTensor) bool {
	return true
}

func (k *nativeKernel) NativeAdaptiveAvgPool2d(input *tensor.RawTensor, outH, outW int) *tensor.RawTensor {
	k.nativeCalls.Add(1)
	shape := input.Shape().Clone()
	ndim := len(shape)
	shape[ndim-2], shape[ndim-1] = outH, outW
	out, _ := tensor.NewRaw(shape, input.DType(), input.Device())
	return out
}

// globalKernel additionally intercepts the 1x1 fast path.
type globalKernel struct {
	*countingKernel

	globalCalls atomic.Int64
}

func (k *globalKernel) CanGlobalPool(input *tensor.RawTensor) bool {
	return true
}

func (k *globalKernel) GlobalAvgPool(input *tensor.RawTensor) *tensor.RawTensor {
	k.globalCalls.Add(1)
	shape := input.Shape().Clone()
	ndim := len(shape)
	shape[ndim-2], shape[ndim-1] = 1, 1
	out, _ := tensor.NewRaw(shape, input.DType(), input.Device())
	return out
}

func newInput(t *testing.T, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, dtype, tensor.CPU)
	require.NoError(t, err)
	return raw
}

func arange(raw *tensor.RawTensor) *tensor.RawTensor {
	data := raw.AsFloat32()
	for i := range data {
		data[i] = float32(i)
	}
	return raw
}

// Validation

func TestAdaptiveAvgPool2d_OutputSizeLength(t *testing.T) {
	Register(newCountingKernel(tensor.CPU))
	input := newInput(t, tensor.Shape{1, 1, 4, 4}, tensor.Float32)

	for _, size := range [][]int{{}, {2}, {2, 2, 2}} {
		_, err := AdaptiveAvgPool2d(input, size)
		require.Error(t, err)

		var shapeErr *ShapeError
		require.ErrorAs(t, err, &shapeErr)
		assert.Contains(t, shapeErr.Error(), "output_size must have 2 elements")
	}
}

func TestAdaptiveAvgPool2d_NegativeOutputSize(t *testing.T) {
	Register(newCountingKernel(tensor.CPU))
	input := newInput(t, tensor.Shape{1, 1, 4, 4}, tensor.Float32)

	_, err := AdaptiveAvgPool2d(input, []int{-1, 2})

	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Contains(t, shapeErr.Error(), "greater than or equal to 0")
	assert.Contains(t, shapeErr.Error(), "{-1, 2}")
}

func TestAdaptiveAvgPool2d_BadRank(t *testing.T) {
	Register(newCountingKernel(tensor.CPU))

	for _, shape := range []tensor.Shape{{4, 4}, {1, 1, 1, 4, 4}} {
		input := newInput(t, shape, tensor.Float32)
		_, err := AdaptiveAvgPool2d(input, []int{2, 2})

		var shapeErr *ShapeError
		require.ErrorAs(t, err, &shapeErr)
		assert.Contains(t, shapeErr.Error(), "expected 3D or 4D tensor")
	}
}

func TestAdaptiveAvgPool2d_EmptySpatialDim(t *testing.T) {
	Register(newCountingKernel(tensor.CPU))

	// A zero batch or channel dimension is fine; a zero spatial dimension
	// is rejected, with the message naming the empty dimension.
	input := newInput(t, tensor.Shape{1, 3, 0, 4}, tensor.Float32)
	_, err := AdaptiveAvgPool2d(input, []int{2, 2})

	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Contains(t, shapeErr.Error(), "non-zero size for non-batch dimensions")
	assert.Contains(t, shapeErr.Error(), "dimension 2 being empty")
}

func TestAdaptiveAvgPool2d_ZeroBatchAllowed(t *testing.T) {
	k := newCountingKernel(tensor.CPU)
	Register(k)

	input := newInput(t, tensor.Shape{0, 3, 4, 4}, tensor.Float32)
	out, err := AdaptiveAvgPool2d(input, []int{2, 2})

	require.NoError(t, err)
	assert.True(t, out.Shape().Equal(tensor.Shape{0, 3, 2, 2}))
	// Nothing to compute, so the kernel never runs.
	assert.EqualValues(t, 0, k.forwardCalls.Load())
}

func TestAdaptiveAvgPool2dInto_DTypeMismatch(t *testing.T) {
	Register(newCountingKernel(tensor.CPU))

	input := newInput(t, tensor.Shape{1, 1, 4, 4}, tensor.Float32)
	output := newInput(t, tensor.Shape{0}, tensor.Float64)

	_, err := AdaptiveAvgPool2dInto(output, input, []int{2, 2})

	var dtypeErr *DTypeError
	require.ErrorAs(t, err, &dtypeErr)
	assert.Equal(t, "output", dtypeErr.Operand)
	assert.Contains(t, dtypeErr.Error(), "expected dtype float32 for `output` but got dtype float64")
}

// Dispatch

func TestAdaptiveAvgPool2d_NoKernelForDevice(t *testing.T) {
	// Nothing is ever registered for Offload in this package's tests.
	input, err := tensor.NewRaw(tensor.Shape{1, 1, 4, 4}, tensor.Float32, tensor.Offload)
	require.NoError(t, err)

	_, err = AdaptiveAvgPool2d(input, []int{2, 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoKernel))
}

func TestAdaptiveAvgPool2d_ZeroOutputNeedsNoKernel(t *testing.T) {
	// Empty output short-circuits before kernel resolution, so even an
	// unregistered device succeeds.
	input, err := tensor.NewRaw(tensor.Shape{1, 3, 4, 4}, tensor.Float32, tensor.Offload)
	require.NoError(t, err)

	out, err := AdaptiveAvgPool2d(input, []int{0, 0})
	require.NoError(t, err)
	assert.True(t, out.Shape().Equal(tensor.Shape{1, 3, 0, 0}))
	assert.Equal(t, 0, out.NumElements())
}

func TestAdaptiveAvgPool2d_GenericPath(t *testing.T) {
	k := newCountingKernel(tensor.CPU)
	Register(k)

	input := arange(newInput(t, tensor.Shape{1, 1, 4, 4}, tensor.Float32))
	out, err := AdaptiveAvgPool2d(input, []int{2, 2})

	require.NoError(t, err)
	assert.True(t, out.Shape().Equal(tensor.Shape{1, 1, 2, 2}))
	assert.EqualValues(t, 1, k.forwardCalls.Load())
	assert.EqualValues(t, 0, k.MeanDimsCalls.Load())
}

func TestAdaptiveAvgPool2d_GlobalMeanPath(t *testing.T) {
	k := newCountingKernel(tensor.CPU)
	Register(k)

	input := arange(newInput(t, tensor.Shape{1, 2, 2, 2}, tensor.Float32))
	out, err := AdaptiveAvgPool2d(input, []int{1, 1})

	require.NoError(t, err)
	assert.True(t, out.Shape().Equal(tensor.Shape{1, 2, 1, 1}))

	// The shortcut runs the mean reduction, not the generic kernel.
	assert.EqualValues(t, 1, k.MeanDimsCalls.Load())
	assert.EqualValues(t, 0, k.forwardCalls.Load())

	// Values 0..7: plane means 1.5 and 5.5.
	assert.Equal(t, []float32{1.5, 5.5}, out.AsFloat32())
}

func TestAdaptiveAvgPool2d_GlobalMeanSkipsNonFloat(t *testing.T) {
	k := newCountingKernel(tensor.CPU)
	Register(k)

	// Quantized (uint8) tensors take the generic path even for 1x1.
	input := newInput(t, tensor.Shape{1, 2, 2, 2}, tensor.Uint8)
	_, err := AdaptiveAvgPool2d(input, []int{1, 1})

	require.NoError(t, err)
	assert.EqualValues(t, 1, k.forwardCalls.Load())
	assert.EqualValues(t, 0, k.MeanDimsCalls.Load())
}

func TestAdaptiveAvgPool2d_GlobalMeanSkipsOffload(t *testing.T) {
	k := newCountingKernel(tensor.Offload)
	Register(k)

	input, err := tensor.NewRaw(tensor.Shape{1, 2, 2, 2}, tensor.Float32, tensor.Offload)
	require.NoError(t, err)

	_, err = AdaptiveAvgPool2d(input, []int{1, 1})
	require.NoError(t, err)

	// Offload devices have no optimized mean; the generic kernel runs.
	assert.EqualValues(t, 1, k.forwardCalls.Load())
	assert.EqualValues(t, 0, k.MeanDimsCalls.Load())
}

func TestAdaptiveAvgPool2d_GlobalMeanChannelsLastStrides(t *testing.T) {
	Register(newCountingKernel(tensor.CPU))

	input, err := tensor.NewRawFormatted(tensor.Shape{2, 3, 4, 4}, tensor.Float32, tensor.CPU, tensor.ChannelsLast)
	require.NoError(t, err)

	out, err := AdaptiveAvgPool2d(input, []int{1, 1})
	require.NoError(t, err)

	assert.True(t, out.Shape().Equal(tensor.Shape{2, 3, 1, 1}))
	assert.Equal(t, []int{3, 1, 3, 3}, out.Strides())
}

func TestAdaptiveAvgPool2d_GlobalMeanRank3Contiguous(t *testing.T) {
	Register(newCountingKernel(tensor.CPU))

	input := arange(newInput(t, tensor.Shape{2, 2, 2}, tensor.Float32))
	out, err := AdaptiveAvgPool2d(input, []int{1, 1})

	require.NoError(t, err)
	assert.True(t, out.Shape().Equal(tensor.Shape{2, 1, 1}))
	// No stride fixup for rank-3 results.
	assert.True(t, out.IsContiguous())
}

func TestAdaptiveAvgPool2d_NativePath(t *testing.T) {
	k := &nativeKernel{countingKernel: newCountingKernel(tensor.CPU)}
	Register(k)
	defer Register(newCountingKernel(tensor.CPU))

	input := newInput(t, tensor.Shape{1, 2, 4, 4}, tensor.Float32)
	out, err := AdaptiveAvgPool2d(input, []int{2, 2})

	require.NoError(t, err)
	assert.True(t, out.Shape().Equal(tensor.Shape{1, 2, 2, 2}))

	// Native delegation skips both the mean shortcut and the generic kernel.
	assert.EqualValues(t, 1, k.nativeCalls.Load())
	assert.EqualValues(t, 0, k.forwardCalls.Load())
	assert.EqualValues(t, 0, k.MeanDimsCalls.Load())
}

func TestAdaptiveAvgPool2d_GlobalPoolerInterceptsMean(t *testing.T) {
	k := &globalKernel{countingKernel: newCountingKernel(tensor.CPU)}
	Register(k)
	defer Register(newCountingKernel(tensor.CPU))

	input := newInput(t, tensor.Shape{1, 2, 4, 4}, tensor.Float32)
	out, err := AdaptiveAvgPool2d(input, []int{1, 1})

	require.NoError(t, err)
	assert.True(t, out.Shape().Equal(tensor.Shape{1, 2, 1, 1}))
	assert.EqualValues(t, 1, k.globalCalls.Load())
	assert.EqualValues(t, 0, k.MeanDimsCalls.Load())
	assert.EqualValues(t, 0, k.forwardCalls.Load())
}

func TestAdaptiveAvgPool2dInto_AlwaysGeneric(t *testing.T) {
	k := newCountingKernel(tensor.CPU)
	Register(k)

	// Even the 1x1 case uses the generic kernel in the pre-allocated form.
	input := newInput(t, tensor.Shape{1, 2, 4, 4}, tensor.Float32)
	output := newInput(t, tensor.Shape{0}, tensor.Float32)

	got, err := AdaptiveAvgPool2dInto(output, input, []int{1, 1})
	require.NoError(t, err)
	assert.Same(t, output, got)
	assert.True(t, output.Shape().Equal(tensor.Shape{1, 2, 1, 1}))
	assert.EqualValues(t, 1, k.forwardCalls.Load())
	assert.EqualValues(t, 0, k.MeanDimsCalls.Load())
}

func TestAdaptiveAvgPool2dInto_ChannelsLastOutput(t *testing.T) {
	Register(newCountingKernel(tensor.CPU))

	input, err := tensor.NewRawFormatted(tensor.Shape{2, 3, 8, 8}, tensor.Float32, tensor.CPU, tensor.ChannelsLast)
	require.NoError(t, err)
	output := newInput(t, tensor.Shape{0}, tensor.Float32)

	_, err = AdaptiveAvgPool2dInto(output, input, []int{2, 2})
	require.NoError(t, err)

	// The planner propagates the input's layout preference.
	assert.Equal(t, tensor.ChannelsLast, output.SuggestFormat())
}

// Backward

func TestAdaptiveAvgPool2dBackward_ShapeAndZeroing(t *testing.T) {
	k := newCountingKernel(tensor.CPU)
	Register(k)

	input := newInput(t, tensor.Shape{1, 2, 5, 5}, tensor.Float32)
	gradOutput := newInput(t, tensor.Shape{1, 2, 2, 2}, tensor.Float32)

	gradInput, err := AdaptiveAvgPool2dBackward(gradOutput, input)
	require.NoError(t, err)

	assert.True(t, gradInput.Shape().Equal(input.Shape()))
	assert.EqualValues(t, 1, k.backwardCalls.Load())

	// The counting kernel writes nothing, so the planner's zero-fill
	// is what the caller observes.
	for _, v := range gradInput.AsFloat32() {
		assert.Zero(t, v)
	}
}

func TestAdaptiveAvgPool2dBackward_RankMismatch(t *testing.T) {
	Register(newCountingKernel(tensor.CPU))

	input := newInput(t, tensor.Shape{1, 2, 5, 5}, tensor.Float32)
	gradOutput := newInput(t, tensor.Shape{2, 2, 2}, tensor.Float32)

	_, err := AdaptiveAvgPool2dBackward(gradOutput, input)

	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Contains(t, shapeErr.Error(), "rank")
}

func TestAdaptiveAvgPool2dBackward_EmptyGradOutputDim(t *testing.T) {
	Register(newCountingKernel(tensor.CPU))

	input := newInput(t, tensor.Shape{1, 2, 5, 5}, tensor.Float32)
	gradOutput := newInput(t, tensor.Shape{1, 0, 2, 2}, tensor.Float32)

	_, err := AdaptiveAvgPool2dBackward(gradOutput, input)

	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Contains(t, shapeErr.Error(), "dimension 1 being empty")
}

func TestAdaptiveAvgPool2dBackwardInto_DTypeMismatches(t *testing.T) {
	Register(newCountingKernel(tensor.CPU))

	input := newInput(t, tensor.Shape{1, 2, 5, 5}, tensor.Float32)

	// grad_output dtype mismatch.
	gradOutput64 := newInput(t, tensor.Shape{1, 2, 2, 2}, tensor.Float64)
	gradInput := newInput(t, tensor.Shape{0}, tensor.Float32)
	_, err := AdaptiveAvgPool2dBackwardInto(gradInput, gradOutput64, input)
	var dtypeErr *DTypeError
	require.ErrorAs(t, err, &dtypeErr)
	assert.Equal(t, "grad_output", dtypeErr.Operand)

	// grad_input dtype mismatch.
	gradOutput := newInput(t, tensor.Shape{1, 2, 2, 2}, tensor.Float32)
	gradInput64 := newInput(t, tensor.Shape{0}, tensor.Float64)
	_, err = AdaptiveAvgPool2dBackwardInto(gradInput64, gradOutput, input)
	require.ErrorAs(t, err, &dtypeErr)
	assert.Equal(t, "grad_input", dtypeErr.Operand)
}

func TestAdaptiveAvgPool2dBackward_ZeroBatch(t *testing.T) {
	k := newCountingKernel(tensor.CPU)
	Register(k)

	input := newInput(t, tensor.Shape{0, 2, 5, 5}, tensor.Float32)
	gradOutput := newInput(t, tensor.Shape{0, 2, 2, 2}, tensor.Float32)

	gradInput, err := AdaptiveAvgPool2dBackward(gradOutput, input)
	require.NoError(t, err)
	assert.True(t, gradInput.Shape().Equal(tensor.Shape{0, 2, 5, 5}))
	assert.EqualValues(t, 0, k.backwardCalls.Load())
}

// Registry

func TestRegisterReplaces(t *testing.T) {
	a := newCountingKernel(tensor.CPU)
	b := newCountingKernel(tensor.CPU)

	Register(a)
	Register(b)

	input := newInput(t, tensor.Shape{1, 1, 4, 4}, tensor.Float32)
	_, err := AdaptiveAvgPool2d(input, []int{2, 2})
	require.NoError(t, err)

	assert.EqualValues(t, 0, a.forwardCalls.Load())
	assert.EqualValues(t, 1, b.forwardCalls.Load())
}
