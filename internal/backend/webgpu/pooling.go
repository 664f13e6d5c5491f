//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/corten-ml/corten/internal/tensor"
)

// poolDims extracts normalized (planes, H, W) from a validated 3D/4D tensor.
func poolDims(t *tensor.RawTensor) (planes, h, w int) {
	shape := t.Shape()
	ndim := len(shape)
	planes = shape[ndim-3]
	if ndim == 4 {
		planes *= shape[0]
	}
	return planes, shape[ndim-2], shape[ndim-1]
}

// checkPoolInput enforces the GPU kernel preconditions: float32 dtype and
// contiguous layout (channels-last tensors are pooled on CPU).
func checkPoolInput(op string, t *tensor.RawTensor) {
	if t.DType() != tensor.Float32 {
		panic(fmt.Sprintf("webgpu: %s: only float32 is supported, got %s", op, t.DType()))
	}
	if !t.IsContiguous() {
		panic(fmt.Sprintf("webgpu: %s: requires contiguous layout", op))
	}
}

// poolParams packs the shader uniform block.
func poolParams(planes, h, w, outH, outW int) []byte {
	params := make([]byte, 32) // 16-byte aligned
	//nolint:gosec // G115: dimensions are non-negative
	binary.LittleEndian.PutUint32(params[0:4], uint32(planes))
	//nolint:gosec // G115: dimensions are non-negative
	binary.LittleEndian.PutUint32(params[4:8], uint32(h))
	//nolint:gosec // G115: dimensions are non-negative
	binary.LittleEndian.PutUint32(params[8:12], uint32(w))
	//nolint:gosec // G115: dimensions are non-negative
	binary.LittleEndian.PutUint32(params[12:16], uint32(outH))
	//nolint:gosec // G115: dimensions are non-negative
	binary.LittleEndian.PutUint32(params[16:20], uint32(outW))
	return params
}

// runPoolShader executes a pooling shader over (src -> dst) with the given
// uniform params and one invocation per dst element (or per plane for the
// mean shader).
func (b *Backend) runPoolShader(name, code string, src, dst *tensor.RawTensor, params []byte, invocations int) error {
	shader := b.compileShader(name, code)
	pipeline := b.getOrCreatePipeline(name, shader)

	bufferSrc := b.createBuffer(src.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferSrc.Release()

	// Upload dst too: the backward shader accumulates into it.
	bufferDst := b.createBuffer(dst.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst)
	defer bufferDst.Release()

	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	//nolint:gosec // G115: byte sizes are non-negative
	srcSize, dstSize := uint64(src.ByteSize()), uint64(dst.ByteSize())

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferSrc, 0, srcSize),
		wgpu.BufferBindingEntry(1, bufferDst, 0, dstSize),
		wgpu.BufferBindingEntry(2, bufferParams, 0, uint64(len(params))),
	})
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	//nolint:gosec // G115: workgroup count is non-negative
	workgroups := uint32((invocations + workgroupSize - 1) / workgroupSize)
	computePass.DispatchWorkgroups(workgroups, 1, 1)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	resultData, err := b.readBuffer(bufferDst, dstSize)
	if err != nil {
		return err
	}
	copy(dst.Data(), resultData)
	return nil
}

// AdaptiveAvgPool2d computes adaptive average pooling into output on GPU.
func (b *Backend) AdaptiveAvgPool2d(output, input *tensor.RawTensor) {
	checkPoolInput("adaptive_avg_pool2d", input)
	checkPoolInput("adaptive_avg_pool2d", output)

	planes, h, w := poolDims(input)
	_, outH, outW := poolDims(output)

	err := b.runPoolShader(
		"adaptive_avg_pool2d", adaptiveAvgPool2dShader,
		input, output,
		poolParams(planes, h, w, outH, outW),
		output.NumElements(),
	)
	if err != nil {
		panic(fmt.Sprintf("webgpu: adaptive_avg_pool2d: %v", err))
	}
}

// AdaptiveAvgPool2dBackward accumulates input gradients from gradOutput on GPU.
func (b *Backend) AdaptiveAvgPool2dBackward(gradInput, gradOutput *tensor.RawTensor) {
	checkPoolInput("adaptive_avg_pool2d_backward", gradInput)
	checkPoolInput("adaptive_avg_pool2d_backward", gradOutput)

	planes, h, w := poolDims(gradInput)
	_, outH, outW := poolDims(gradOutput)

	err := b.runPoolShader(
		"adaptive_avg_pool2d_backward", adaptiveAvgPool2dBackwardShader,
		gradOutput, gradInput,
		poolParams(planes, h, w, outH, outW),
		gradInput.NumElements(),
	)
	if err != nil {
		panic(fmt.Sprintf("webgpu: adaptive_avg_pool2d_backward: %v", err))
	}
}

// MeanDims computes the mean over the trailing two spatial dimensions with
// keepDim, the only reduction the pooling dispatcher requests. Other
// reductions are not implemented on GPU.
func (b *Backend) MeanDims(x *tensor.RawTensor, dims []int, keepDim bool) *tensor.RawTensor {
	if !spatialKeepDim(x, dims, keepDim) {
		panic("webgpu: meandims: only trailing-spatial reduction with keepDim is supported")
	}
	checkPoolInput("meandims", x)

	planes, h, w := poolDims(x)
	shape := x.Shape().Clone()
	shape[len(shape)-2] = 1
	shape[len(shape)-1] = 1

	result, err := tensor.NewRaw(shape, x.DType(), tensor.WebGPU)
	if err != nil {
		panic(fmt.Sprintf("webgpu: meandims: %v", err))
	}

	runErr := b.runPoolShader(
		"mean_hw", meanHWShader,
		x, result,
		poolParams(planes, h, w, 1, 1)[:16],
		planes,
	)
	if runErr != nil {
		panic(fmt.Sprintf("webgpu: meandims: %v", runErr))
	}
	return result
}

// spatialKeepDim reports whether the requested reduction is the
// trailing-two-dimensions, keepDim form.
func spatialKeepDim(x *tensor.RawTensor, dims []int, keepDim bool) bool {
	if !keepDim || len(dims) != 2 {
		return false
	}
	ndim := len(x.Shape())
	seen := map[int]bool{}
	for _, d := range dims {
		if d < 0 {
			d = ndim + d
		}
		seen[d] = true
	}
	return seen[ndim-2] && seen[ndim-1]
}
