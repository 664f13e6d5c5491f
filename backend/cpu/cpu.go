// Copyright 2026 Corten ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/corten-ml/corten/internal/backend/cpu"
	"github.com/corten-ml/corten/tensor"
)

// Backend represents the CPU backend implementation.
//
// CPU backend provides pure Go implementations of the pooling kernels
// with stride-aware inner loops and multi-core parallelism. Importing
// this package registers the kernel for the CPU device.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/corten-ml/corten/backend/cpu"
//	    "github.com/corten-ml/corten/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros[float32](tensor.Shape{1, 3, 8, 8}, backend)
//	}
func New() *Backend {
	return internalcpu.New()
}
