package cpu_test

import (
	"testing"

	_ "github.com/corten-ml/corten/internal/backend/cpu"
	"github.com/corten-ml/corten/internal/pool"
	"github.com/corten-ml/corten/internal/tensor"
)

// End-to-end dispatch tests: importing the cpu package registers its
// kernel, so the operators route CPU tensors without explicit setup.

func TestDispatch_GenericKernel(t *testing.T) {
	input, _ := tensor.NewRaw(tensor.Shape{1, 1, 4, 4}, tensor.Float32, tensor.CPU)
	data := input.AsFloat32()
	for i := range data {
		data[i] = float32(i)
	}

	out, err := pool.AdaptiveAvgPool2d(input, []int{2, 2})
	if err != nil {
		t.Fatalf("AdaptiveAvgPool2d: %v", err)
	}

	if !out.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("shape = %v, want [1 1 2 2]", out.Shape())
	}
	expected := []float32{2.5, 4.5, 10.5, 12.5}
	for i, want := range expected {
		if got := out.AsFloat32()[i]; got != want {
			t.Errorf("out[%d] = %v, want %v", i, got, want)
		}
	}
}

func TestDispatch_GlobalMeanShortcut(t *testing.T) {
	input, _ := tensor.NewRaw(tensor.Shape{2, 3, 4, 4}, tensor.Float32, tensor.CPU)
	data := input.AsFloat32()
	for i := range data {
		data[i] = float32(i)
	}

	out, err := pool.AdaptiveAvgPool2d(input, []int{1, 1})
	if err != nil {
		t.Fatalf("AdaptiveAvgPool2d: %v", err)
	}

	if !out.Shape().Equal(tensor.Shape{2, 3, 1, 1}) {
		t.Fatalf("shape = %v, want [2 3 1 1]", out.Shape())
	}
	// Plane k holds 16k..16k+15, mean 16k + 7.5.
	for k := 0; k < 6; k++ {
		want := float32(16*k) + 7.5
		if got := out.AsFloat32()[k]; got != want {
			t.Errorf("out[%d] = %v, want %v", k, got, want)
		}
	}
}

func TestDispatch_GlobalMeanChannelsLastStrides(t *testing.T) {
	input, err := tensor.NewRawFormatted(tensor.Shape{2, 3, 4, 4}, tensor.Float32, tensor.CPU, tensor.ChannelsLast)
	if err != nil {
		t.Fatal(err)
	}

	out, err := pool.AdaptiveAvgPool2d(input, []int{1, 1})
	if err != nil {
		t.Fatalf("AdaptiveAvgPool2d: %v", err)
	}

	// The [N, C, 1, 1] result keeps the channels-last access pattern.
	want := []int{3, 1, 3, 3}
	got := out.Strides()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("strides = %v, want %v", got, want)
		}
	}
}

func TestDispatch_BackwardRoundTrip(t *testing.T) {
	input, _ := tensor.NewRaw(tensor.Shape{1, 2, 5, 5}, tensor.Float32, tensor.CPU)
	gradOutput, _ := tensor.NewRaw(tensor.Shape{1, 2, 3, 3}, tensor.Float32, tensor.CPU)
	goData := gradOutput.AsFloat32()
	var outSum float32
	for i := range goData {
		goData[i] = float32(i + 1)
		outSum += goData[i]
	}

	gradInput, err := pool.AdaptiveAvgPool2dBackward(gradOutput, input)
	if err != nil {
		t.Fatalf("AdaptiveAvgPool2dBackward: %v", err)
	}

	if !gradInput.Shape().Equal(input.Shape()) {
		t.Fatalf("gradInput shape = %v, want %v", gradInput.Shape(), input.Shape())
	}
	var inSum float32
	for _, v := range gradInput.AsFloat32() {
		inSum += v
	}
	diff := inSum - outSum
	if diff < 0 {
		diff = -diff
	}
	if diff > 1e-4 {
		t.Errorf("gradient sum = %v, want %v", inSum, outSum)
	}
}

func TestDispatch_IntoVariant(t *testing.T) {
	input, _ := tensor.NewRaw(tensor.Shape{1, 1, 4, 4}, tensor.Float32, tensor.CPU)
	for i := range input.AsFloat32() {
		input.AsFloat32()[i] = 1
	}
	output, _ := tensor.NewRaw(tensor.Shape{0}, tensor.Float32, tensor.CPU)

	got, err := pool.AdaptiveAvgPool2dInto(output, input, []int{3, 3})
	if err != nil {
		t.Fatalf("AdaptiveAvgPool2dInto: %v", err)
	}
	if got != output {
		t.Error("Into variant should return the caller's tensor")
	}
	if !output.Shape().Equal(tensor.Shape{1, 1, 3, 3}) {
		t.Fatalf("shape = %v, want [1 1 3 3]", output.Shape())
	}
	for i, v := range output.AsFloat32() {
		if v != 1 {
			t.Errorf("out[%d] = %v, want 1", i, v)
		}
	}
}
