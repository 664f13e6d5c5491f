// Copyright 2026 Corten ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/corten-ml/corten/internal/nn"
	"github.com/corten-ml/corten/internal/tensor"
)

// AdaptiveAvgPool2D represents a 2D adaptive average pooling layer.
type AdaptiveAvgPool2D[B tensor.Backend] = nn.AdaptiveAvgPool2D[B]

// NewAdaptiveAvgPool2D creates a new adaptive average pooling layer
// producing the given output spatial size.
//
// Example:
//
//	backend := cpu.New()
//	pool := nn.NewAdaptiveAvgPool2D(1, 1, backend)  // global average pooling
func NewAdaptiveAvgPool2D[B tensor.Backend](outH, outW int, backend B) *AdaptiveAvgPool2D[B] {
	return nn.NewAdaptiveAvgPool2D(outH, outW, backend)
}
