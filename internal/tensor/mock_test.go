package tensor

import (
	"testing"
)

func TestMockBackendMeanDimsSpatial(t *testing.T) {
	m := NewMockBackend()

	// [1, 2, 2, 2] with values 0..7: plane 0 mean = 1.5, plane 1 mean = 5.5.
	x, _ := NewRaw(Shape{1, 2, 2, 2}, Float32, CPU)
	data := x.AsFloat32()
	for i := range data {
		data[i] = float32(i)
	}

	out := m.MeanDims(x, []int{-2, -1}, true)
	if !out.Shape().Equal(Shape{1, 2, 1, 1}) {
		t.Fatalf("Shape = %v, want [1 2 1 1]", out.Shape())
	}
	got := out.AsFloat32()
	if got[0] != 1.5 || got[1] != 5.5 {
		t.Errorf("MeanDims = %v, want [1.5 5.5]", got)
	}
}

func TestMockBackendMeanDimsNoKeepDim(t *testing.T) {
	m := NewMockBackend()

	x, _ := NewRaw(Shape{2, 3}, Float64, CPU)
	data := x.AsFloat64()
	for i := range data {
		data[i] = float64(i)
	}

	out := m.MeanDims(x, []int{1}, false)
	if !out.Shape().Equal(Shape{2}) {
		t.Fatalf("Shape = %v, want [2]", out.Shape())
	}
	got := out.AsFloat64()
	if got[0] != 1 || got[1] != 4 {
		t.Errorf("MeanDims = %v, want [1 4]", got)
	}
}

func TestMockBackendMeanDimsChannelsLast(t *testing.T) {
	m := NewMockBackend()

	// Same logical values in both layouts must reduce identically.
	contig, _ := NewRaw(Shape{1, 2, 2, 2}, Float32, CPU)
	cl, _ := NewRawFormatted(Shape{1, 2, 2, 2}, Float32, CPU, ChannelsLast)

	cd := contig.AsFloat32()
	cld := cl.AsFloat32()
	physical := cl.Strides()
	v := float32(0)
	for c := 0; c < 2; c++ {
		for h := 0; h < 2; h++ {
			for w := 0; w < 2; w++ {
				cd[c*4+h*2+w] = v
				cld[c*physical[1]+h*physical[2]+w*physical[3]] = v
				v++
			}
		}
	}

	a := m.MeanDims(contig, []int{2, 3}, true).AsFloat32()
	b := m.MeanDims(cl, []int{2, 3}, true).AsFloat32()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("channels-last mean diverges at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestMockBackendCountsCalls(t *testing.T) {
	m := NewMockBackend()
	x, _ := NewRaw(Shape{2, 2}, Float32, CPU)

	m.MeanDims(x, []int{0}, false)
	m.MeanDims(x, []int{1}, false)

	if got := m.MeanDimsCalls.Load(); got != 2 {
		t.Errorf("MeanDimsCalls = %d, want 2", got)
	}
}

func TestMockBackendOnDevice(t *testing.T) {
	m := NewMockBackendOn(Offload)
	if m.Device() != Offload {
		t.Errorf("Device = %v, want Offload", m.Device())
	}
}
