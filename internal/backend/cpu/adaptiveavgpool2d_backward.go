package cpu

import (
	"fmt"

	"github.com/corten-ml/corten/internal/parallel"
	"github.com/corten-ml/corten/internal/tensor"
)

// AdaptiveAvgPool2dBackward accumulates input gradients from gradOutput.
//
// Each output cell distributed the average of its bin in the forward pass,
// so its gradient scatters uniformly over the bin, scaled by 1/(binH*binW).
// An input cell covered by several bins accumulates one contribution per
// bin; gradInput must be zero-initialized by the caller.
//
// Parallelized across batch*channel planes; planes write disjoint regions.
func (cpu *CPUBackend) AdaptiveAvgPool2dBackward(gradInput, gradOutput *tensor.RawTensor) {
	inShape := gradInput.Shape()
	outShape := gradOutput.Shape()
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

	switch gradOutput.DType() {
	case tensor.Float32:
		adaptiveAvgPool2dBackwardFloat32(gradInput, gradOutput, N, C, H, W, HOut, WOut, cpu.par)
	case tensor.Float64:
		adaptiveAvgPool2dBackwardFloat64(gradInput, gradOutput, N, C, H, W, HOut, WOut, cpu.par)
	default:
		panic(fmt.Sprintf("adaptive_avg_pool2d_backward: unsupported dtype %s", gradOutput.DType()))
	}
}

// adaptiveAvgPool2dBackwardFloat32 scatters float32 gradients.
func adaptiveAvgPool2dBackwardFloat32(gradInput, gradOutput *tensor.RawTensor, N, C, H, W, HOut, WOut int, par parallel.Config) {
	giData := gradInput.AsFloat32()
	goData := gradOutput.AsFloat32()
	sn, sc, sh, sw := planeStrides(gradInput)
	on, oc, oh, ow := planeStrides(gradOutput)

	parallel.ForPlanes(N, C, func(n, c int) {
		giPlane := giData[n*sn+c*sc:]
		goPlane := goData[n*on+c*oc:]

		for outY := 0; outY < HOut; outY++ {
			h0 := startIndex(outY, HOut, H)
			h1 := endIndex(outY, HOut, H)

			for outX := 0; outX < WOut; outX++ {
				w0 := startIndex(outX, WOut, W)
				w1 := endIndex(outX, WOut, W)

				g := goPlane[outY*oh+outX*ow] / float32((h1-h0)*(w1-w0))
				for y := h0; y < h1; y++ {
					row := giPlane[y*sh:]
					for x := w0; x < w1; x++ {
						row[x*sw] += g
					}
				}
			}
		}
	}, par)
}

// adaptiveAvgPool2dBackwardFloat64 scatters float64 gradients.
func adaptiveAvgPool2dBackwardFloat64(gradInput, gradOutput *tensor.RawTensor, N, C, H, W, HOut, WOut int, par parallel.Config) {
	giData := gradInput.AsFloat64()
	goData := gradOutput.AsFloat64()
	sn, sc, sh, sw := planeStrides(gradInput)
	on, oc, oh, ow := planeStrides(gradOutput)

	parallel.ForPlanes(N, C, func(n, c int) {
		giPlane := giData[n*sn+c*sc:]
		goPlane := goData[n*on+c*oc:]

		for outY := 0; outY < HOut; outY++ {
			h0 := startIndex(outY, HOut, H)
			h1 := endIndex(outY, HOut, H)

			for outX := 0; outX < WOut; outX++ {
				w0 := startIndex(outX, WOut, W)
				w1 := endIndex(outX, WOut, W)

				g := goPlane[outY*oh+outX*ow] / float64((h1-h0)*(w1-w0))
				for y := h0; y < h1; y++ {
					row := giPlane[y*sh:]
					for x := w0; x < w1; x++ {
						row[x*sw] += g
					}
				}
			}
		}
	}, par)
}
