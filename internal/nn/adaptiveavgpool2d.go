// Package nn provides neural-network layer wrappers over the operator layer.
package nn

import (
	"fmt"

	"github.com/corten-ml/corten/internal/pool"
	"github.com/corten-ml/corten/internal/tensor"
)

// AdaptiveAvgPool2D is a 2D adaptive average pooling layer.
//
// Unlike fixed-window pooling, the layer takes a target output resolution
// and partitions each input plane into near-equal bins whose boundaries
// are computed independently per output position. It has no learnable
// parameters.
//
// Input shape:  [channels, height, width] or [batch, channels, height, width]
// Output shape: [channels, outH, outW] or [batch, channels, outH, outW]
//
// Example:
//
//	// Pool any spatial resolution down to 7x7 (common before a classifier head)
//	layer := nn.NewAdaptiveAvgPool2D(7, 7, backend)
//
//	input := tensor.Randn[float32](tensor.Shape{32, 512, 13, 13}, backend)
//	output := layer.Forward(input) // [32, 512, 7, 7]
type AdaptiveAvgPool2D[B tensor.Backend] struct {
	outH    int
	outW    int
	backend B
}

// NewAdaptiveAvgPool2D creates a new adaptive average pooling layer with
// the given target output resolution. Output sizes of 0 are legal and
// produce empty outputs; negative sizes panic.
func NewAdaptiveAvgPool2D[B tensor.Backend](outH, outW int, backend B) *AdaptiveAvgPool2D[B] {
	if outH < 0 || outW < 0 {
		panic(fmt.Sprintf("adaptive_avg_pool2d: invalid output size %dx%d", outH, outW))
	}

	return &AdaptiveAvgPool2D[B]{
		outH:    outH,
		outW:    outW,
		backend: backend,
	}
}

// Forward performs the forward pass.
//
// Input: [C, H, W] or [N, C, H, W]
// Output: [C, outH, outW] or [N, C, outH, outW].
func (a *AdaptiveAvgPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	outputRaw, err := pool.AdaptiveAvgPool2d(input.Raw(), []int{a.outH, a.outW})
	if err != nil {
		panic(fmt.Sprintf("adaptive_avg_pool2d: %v", err))
	}

	// Wrap in Tensor for high-level API
	return tensor.New[float32, B](outputRaw, a.backend)
}

// Backward computes the gradient with respect to the layer input.
func (a *AdaptiveAvgPool2D[B]) Backward(gradOutput, input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	gradRaw, err := pool.AdaptiveAvgPool2dBackward(gradOutput.Raw(), input.Raw())
	if err != nil {
		panic(fmt.Sprintf("adaptive_avg_pool2d_backward: %v", err))
	}

	return tensor.New[float32, B](gradRaw, a.backend)
}

// Parameters returns all trainable parameters (empty for AdaptiveAvgPool2D).
func (a *AdaptiveAvgPool2D[B]) Parameters() []*tensor.Tensor[float32, B] {
	return nil
}

// String returns a string representation of the layer.
func (a *AdaptiveAvgPool2D[B]) String() string {
	return fmt.Sprintf("AdaptiveAvgPool2D(output_size=(%d, %d))", a.outH, a.outW)
}

// OutputSize returns the target spatial resolution.
func (a *AdaptiveAvgPool2D[B]) OutputSize() [2]int {
	return [2]int{a.outH, a.outW}
}
