// Package main provides the Corten ML Framework CLI.
package main

import (
	"fmt"
	"os"

	"github.com/corten-ml/corten/backend/cpu"
	"github.com/corten-ml/corten/internal/logger"
	"github.com/corten-ml/corten/pool"
	"github.com/corten-ml/corten/profiler"
	"github.com/corten-ml/corten/tensor"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Corten ML Framework %s\n", version)
			return
		case "demo":
			runDemo()
			return
		}
	}

	fmt.Println("Corten ML Framework - Adaptive Pooling for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  demo       Run an adaptive pooling demo on the CPU backend")
}

// runDemo pools a small random image tensor down to 2x2 and prints the
// result, with the whole pass wrapped in a profiling scope.
func runDemo() {
	logger.Setup("info", "console")

	backend := cpu.New()
	x := tensor.Randn[float32](tensor.Shape{1, 3, 8, 8}, backend)

	s := profiler.Begin("demo::adaptive_avg_pool2d")
	out, err := pool.AdaptiveAvgPool2d(x.Raw(), []int{2, 2})
	if endErr := profiler.End(s); endErr != nil {
		logger.Log.Warn("profiler scope", "error", endErr)
	}
	if err != nil {
		logger.Log.Error("pooling failed", "error", err)
		os.Exit(1)
	}

	y := tensor.New[float32](out, backend)
	fmt.Printf("input:  %v %s\n", x.Shape(), x.DType())
	fmt.Printf("output: %v %s\n", y.Shape(), y.DType())
	fmt.Println(y.String())
}
