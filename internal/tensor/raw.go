package tensor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	WebGPU
	// Offload tags tensors resident on an external accelerator that has no
	// optimized global-mean path; the pooling dispatcher routes such tensors
	// through the generic kernel even for 1x1 output.
	Offload
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case WebGPU:
		return "WebGPU"
	case Offload:
		return "Offload"
	default:
		return "Unknown"
	}
}

// tensorBuffer is a reference-counted shared buffer for Copy-on-Write semantics.
// This enables cheap cloning and inplace optimizations when refCount == 1.
type tensorBuffer struct {
	data     []byte
	refCount atomic.Int32
	mu       sync.Mutex // For safe deallocation
}

// newTensorBuffer creates a new reference-counted buffer with refCount = 1.
func newTensorBuffer(size int) *tensorBuffer {
	buf := &tensorBuffer{
		data: make([]byte, size),
	}
	buf.refCount.Store(1)
	return buf
}

// addRef increments the reference count (for Clone operations).
func (tb *tensorBuffer) addRef() {
	tb.refCount.Add(1)
}

// release decrements the reference count and deallocates if it reaches 0.
func (tb *tensorBuffer) release() {
	if tb.refCount.Add(-1) == 0 {
		tb.mu.Lock()
		defer tb.mu.Unlock()
		tb.data = nil
	}
}

// isUnique returns true if this buffer has only one reference (enables inplace ops).
func (tb *tensorBuffer) isUnique() bool {
	return tb.refCount.Load() == 1
}

// RawTensor is the low-level tensor representation.
// It uses reference-counted shared buffers for Copy-on-Write semantics.
type RawTensor struct {
	buffer *tensorBuffer // Shared reference-counted buffer
	shape  Shape         // Tensor dimensions
	stride []int         // Memory strides
	dtype  DataType      // Runtime type information
	device Device        // Compute device
	offset int           // Offset for slicing/views
}

// NewRaw creates a new RawTensor with the given shape and type in the
// default contiguous (row-major) layout.
// Memory is allocated but not initialized (contains zeros).
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return NewRawFormatted(shape, dtype, device, Contiguous)
}

// NewRawFormatted creates a new RawTensor with the given shape, type, and
// memory format. ChannelsLast requires a 4D shape.
func NewRawFormatted(shape Shape, dtype DataType, device Device, format MemoryFormat) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if format == ChannelsLast && len(shape) != 4 {
		return nil, fmt.Errorf("channels-last layout requires a 4D shape, got %v", shape)
	}

	var stride []int
	if format == ChannelsLast {
		stride = shape.ChannelsLastStrides()
	} else {
		stride = shape.ComputeStrides()
	}

	byteSize := shape.NumElements() * dtype.Size()

	return &RawTensor{
		buffer: newTensorBuffer(byteSize),
		shape:  shape.Clone(),
		stride: stride,
		dtype:  dtype,
		device: device,
		offset: 0,
	}, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// SuggestFormat derives the tensor's memory format from its stride pattern.
// A 4D tensor whose strides match the channels-last pattern reports
// ChannelsLast; everything else reports Contiguous. When size-1 dimensions
// make the two patterns coincide, Contiguous wins.
func (r *RawTensor) SuggestFormat() MemoryFormat {
	if len(r.shape) != 4 {
		return Contiguous
	}
	cl := r.shape.ChannelsLastStrides()
	contig := r.shape.ComputeStrides()
	clMatch, contigMatch := true, true
	for i := range r.stride {
		if r.stride[i] != cl[i] {
			clMatch = false
		}
		if r.stride[i] != contig[i] {
			contigMatch = false
		}
	}
	if clMatch && !contigMatch {
		return ChannelsLast
	}
	return Contiguous
}

// IsContiguous reports whether the strides match the default row-major layout.
func (r *RawTensor) IsContiguous() bool {
	contig := r.shape.ComputeStrides()
	for i := range r.stride {
		if r.stride[i] != contig[i] {
			return false
		}
	}
	return true
}

// Data returns the raw byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.buffer.data[r.offset:]
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	if r.NumElements() == 0 {
		return nil
	}
	data := r.buffer.data[r.offset:]
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", r.dtype))
	}
	if r.NumElements() == 0 {
		return nil
	}
	data := r.buffer.data[r.offset:]
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*float64)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsInt32 interprets the data as []int32.
// Panics if the tensor's dtype is not Int32.
func (r *RawTensor) AsInt32() []int32 {
	if r.dtype != Int32 {
		panic(fmt.Sprintf("tensor dtype is %s, not int32", r.dtype))
	}
	if r.NumElements() == 0 {
		return nil
	}
	data := r.buffer.data[r.offset:]
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*int32)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsInt64 interprets the data as []int64.
// Panics if the tensor's dtype is not Int64.
func (r *RawTensor) AsInt64() []int64 {
	if r.dtype != Int64 {
		panic(fmt.Sprintf("tensor dtype is %s, not int64", r.dtype))
	}
	if r.NumElements() == 0 {
		return nil
	}
	data := r.buffer.data[r.offset:]
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*int64)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsUint8 interprets the data as []uint8.
// Panics if the tensor's dtype is not Uint8.
func (r *RawTensor) AsUint8() []uint8 {
	if r.dtype != Uint8 {
		panic(fmt.Sprintf("tensor dtype is %s, not uint8", r.dtype))
	}
	return r.buffer.data[r.offset:] // Already []byte = []uint8
}

// AsBool interprets the data as []bool.
// Panics if the tensor's dtype is not Bool.
func (r *RawTensor) AsBool() []bool {
	if r.dtype != Bool {
		panic(fmt.Sprintf("tensor dtype is %s, not bool", r.dtype))
	}
	if r.NumElements() == 0 {
		return nil
	}
	data := r.buffer.data[r.offset:]
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by NumElements()
	return unsafe.Slice((*bool)(unsafe.Pointer(&data[0])), r.NumElements())
}

// Zero fills the tensor's memory with zeros.
// Backward pooling kernels accumulate contributions, so gradient tensors
// are zeroed before kernel invocation.
func (r *RawTensor) Zero() {
	data := r.buffer.data[r.offset:]
	for i := range data {
		data[i] = 0
	}
}

// AsStrided reinterprets the tensor's shape and stride metadata in place
// without copying data. The new shape/stride pair must address the same
// underlying elements; no bounds re-check is performed beyond element count.
//
// This is the stride-rewrite primitive used by the global-mean pooling
// shortcut to preserve a channels-last access pattern on a [N, C, 1, 1]
// result: the strides become {C, 1, C, C} while the data stays in place
// (size-1 dimensions make the two patterns address-identical).
func (r *RawTensor) AsStrided(shape Shape, strides []int) *RawTensor {
	if len(shape) != len(strides) {
		panic(fmt.Sprintf("as_strided: shape %v and strides %v have different ranks", shape, strides))
	}
	r.shape = shape.Clone()
	r.stride = append([]int(nil), strides...)
	return r
}

// Resize reshapes the tensor in place to the given shape and memory format,
// reallocating the buffer only when the current one is too small. Existing
// contents are not preserved. Used by the pre-allocated-output operator
// variants, which size the caller's tensor before the kernel writes into it.
func (r *RawTensor) Resize(shape Shape, format MemoryFormat) error {
	if err := shape.Validate(); err != nil {
		return fmt.Errorf("invalid shape: %w", err)
	}
	if format == ChannelsLast && len(shape) != 4 {
		return fmt.Errorf("channels-last layout requires a 4D shape, got %v", shape)
	}

	byteSize := shape.NumElements() * r.dtype.Size()
	if byteSize > len(r.buffer.data)-r.offset {
		r.buffer.release()
		r.buffer = newTensorBuffer(byteSize)
		r.offset = 0
	}

	r.shape = shape.Clone()
	if format == ChannelsLast {
		r.stride = shape.ChannelsLastStrides()
	} else {
		r.stride = shape.ComputeStrides()
	}
	return nil
}

// Clone creates a shallow copy of the RawTensor (shares buffer with reference counting).
// The buffer is reference-counted and will be copied only when modified (copy-on-write).
func (r *RawTensor) Clone() *RawTensor {
	r.buffer.addRef() // Increment reference count
	return &RawTensor{
		buffer: r.buffer, // Share the same buffer
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...), // Copy strides
		dtype:  r.dtype,
		device: r.device,
		offset: r.offset,
	}
}

// Release decrements the reference count and deallocates if it reaches 0.
func (r *RawTensor) Release() {
	r.buffer.release()
}

// IsUnique returns true if this tensor is the only reference to the buffer.
// When true, backends can perform inplace operations for better performance.
func (r *RawTensor) IsUnique() bool {
	return r.buffer.isUnique()
}
