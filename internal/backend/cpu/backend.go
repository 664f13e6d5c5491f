// Package cpu implements the CPU backend: goroutine-parallelized pooling
// kernels and reductions over raw tensors.
package cpu

import (
	"github.com/corten-ml/corten/internal/parallel"
	"github.com/corten-ml/corten/internal/pool"
	"github.com/corten-ml/corten/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// Interface checks.
var (
	_ tensor.Backend = (*CPUBackend)(nil)
	_ pool.Kernel    = (*CPUBackend)(nil)
)

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    parallel.DefaultConfig(),
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// The CPU kernel registers itself for dispatch, in the manner of
// database/sql drivers.
func init() {
	pool.Register(New())
}
