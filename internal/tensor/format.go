package tensor

// MemoryFormat describes the physical layout of a tensor's elements.
//
// Contiguous is the default row-major layout. ChannelsLast stores the
// channel dimension fastest-varying (NHWC order in memory while the
// logical shape stays [N, C, H, W]); it is only meaningful for 4D tensors
// and is used by vectorized execution paths.
type MemoryFormat int

// Supported memory formats.
const (
	Contiguous MemoryFormat = iota
	ChannelsLast
)

// String returns a human-readable format name.
func (f MemoryFormat) String() string {
	switch f {
	case Contiguous:
		return "contiguous"
	case ChannelsLast:
		return "channels_last"
	default:
		return "unknown"
	}
}
