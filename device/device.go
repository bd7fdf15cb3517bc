// Package device reports where the matrices live. Everything runs on the
// CPU through gonum; Try keeps the call sites of multi-device code.
package device

import (
	"fmt"
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

type Kind int

const (
	CPU Kind = iota
)

type Device struct {
	Kind  Kind
	Index int
}

// Try returns device i if it exists, otherwise the CPU.
func Try(i int) Device {
	// no accelerator backends are compiled in
	return Device{Kind: CPU}
}

func (d Device) String() string {
	switch d.Kind {
	case CPU:
		return "cpu"
	}
	return fmt.Sprintf("device(%d:%d)", d.Kind, d.Index)
}

// Describe is a one-line summary of the host CPU for run logs.
func Describe() string {
	c := cpuid.CPU
	simd := "none"
	switch {
	case c.Supports(cpuid.AVX512F):
		simd = "avx512"
	case c.Supports(cpuid.AVX2, cpuid.FMA3):
		simd = "avx2+fma"
	case c.Supports(cpuid.ASIMD):
		simd = "neon"
	}
	return fmt.Sprintf("%s, %d cores (%d threads), simd=%s, %s/%s",
		c.BrandName, c.PhysicalCores, c.LogicalCores, simd, runtime.GOOS, runtime.GOARCH)
}
