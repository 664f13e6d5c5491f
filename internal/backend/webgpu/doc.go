// Package webgpu implements the WebGPU backend for GPU-accelerated pooling.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
//
// The implementation is gated to platforms with a prebuilt wgpu_native
// library; elsewhere the package compiles empty and the CPU backend serves
// all devices.
package webgpu
