package cpu

import (
	"fmt"

	"github.com/corten-ml/corten/internal/parallel"
	"github.com/corten-ml/corten/internal/tensor"
)

// startIndex returns the first input index of the adaptive bin for output
// position o: floor(o * inSize / outSize).
func startIndex(o, outSize, inSize int) int {
	return o * inSize / outSize
}

// endIndex returns one past the last input index of the adaptive bin for
// output position o: ceil((o+1) * inSize / outSize).
func endIndex(o, outSize, inSize int) int {
	return ((o+1)*inSize + outSize - 1) / outSize
}

// planeStrides normalizes a 3D/4D tensor's strides to (batch, channel,
// height, width) strides. Rank-3 tensors have no batch dimension, so the
// batch stride is 0 (the single batch index never advances).
func planeStrides(t *tensor.RawTensor) (sn, sc, sh, sw int) {
	s := t.Strides()
	ndim := len(s)
	if ndim == 4 {
		return s[0], s[1], s[2], s[3]
	}
	return 0, s[0], s[1], s[2]
}

// AdaptiveAvgPool2d computes adaptive average pooling into output.
//
// Input shape:  [C, H, W] or [N, C, H, W]
// Output shape: [C, outH, outW] or [N, C, outH, outW]
//
// For each output cell (oh, ow) the kernel averages the input region
// [startIndex(oh)..endIndex(oh)) x [startIndex(ow)..endIndex(ow)); bins are
// near-equal but possibly non-uniform when the input size is not a
// multiple of the output size.
//
// Reads and writes honor each tensor's strides, so channels-last tensors
// pool correctly. Parallelized across batch*channel planes.
func (cpu *CPUBackend) AdaptiveAvgPool2d(output, input *tensor.RawTensor) {
	inShape := input.Shape()
	outShape := output.Shape()
	ndim := len(inShape)

	N := 1
	if ndim == 4 {
		N = inShape[0]
	}
	C := inShape[ndim-3]
	H := inShape[ndim-2]
	W := inShape[ndim-1]
	HOut := outShape[ndim-2]
	WOut := outShape[ndim-1]

	switch input.DType() {
	case tensor.Float32:
		adaptiveAvgPool2dFloat32(output, input, N, C, H, W, HOut, WOut, cpu.par)
	case tensor.Float64:
		adaptiveAvgPool2dFloat64(output, input, N, C, H, W, HOut, WOut, cpu.par)
	default:
		panic(fmt.Sprintf("adaptive_avg_pool2d: unsupported dtype %s", input.DType()))
	}
}

// adaptiveAvgPool2dFloat32 pools float32 tensors.
func adaptiveAvgPool2dFloat32(output, input *tensor.RawTensor, N, C, H, W, HOut, WOut int, par parallel.Config) {
	inData := input.AsFloat32()
	outData := output.AsFloat32()
	sn, sc, sh, sw := planeStrides(input)
	on, oc, oh, ow := planeStrides(output)

	parallel.ForPlanes(N, C, func(n, c int) {
		inPlane := inData[n*sn+c*sc:]
		outPlane := outData[n*on+c*oc:]

		for outY := 0; outY < HOut; outY++ {
			h0 := startIndex(outY, HOut, H)
			h1 := endIndex(outY, HOut, H)

			for outX := 0; outX < WOut; outX++ {
				w0 := startIndex(outX, WOut, W)
				w1 := endIndex(outX, WOut, W)

				var sum float32
				for y := h0; y < h1; y++ {
					row := inPlane[y*sh:]
					for x := w0; x < w1; x++ {
						sum += row[x*sw]
					}
				}
				outPlane[outY*oh+outX*ow] = sum / float32((h1-h0)*(w1-w0))
			}
		}
	}, par)
}

// adaptiveAvgPool2dFloat64 pools float64 tensors.
func adaptiveAvgPool2dFloat64(output, input *tensor.RawTensor, N, C, H, W, HOut, WOut int, par parallel.Config) {
	inData := input.AsFloat64()
	outData := output.AsFloat64()
	sn, sc, sh, sw := planeStrides(input)
	on, oc, oh, ow := planeStrides(output)

	parallel.ForPlanes(N, C, func(n, c int) {
		inPlane := inData[n*sn+c*sc:]
		outPlane := outData[n*on+c*oc:]

		for outY := 0; outY < HOut; outY++ {
			h0 := startIndex(outY, HOut, H)
			h1 := endIndex(outY, HOut, H)

			for outX := 0; outX < WOut; outX++ {
				w0 := startIndex(outX, WOut, W)
				w1 := endIndex(outX, WOut, W)

				var sum float64
				for y := h0; y < h1; y++ {
					row := inPlane[y*sh:]
					for x := w0; x < w1; x++ {
						sum += row[x*sw]
					}
				}
				outPlane[outY*oh+outX*ow] = sum / float64((h1-h0)*(w1-w0))
			}
		}
	}, par)
}
