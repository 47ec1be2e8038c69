package simd

import (
	"fmt"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sys/cpu"
)

// Tier names the widest structural-byte-scanning strategy available. Scan
// itself is pure Go SWAR on every platform (see bitmap.go); Tier exists so
// callers (benchmarks, diagnostics) can report what hardware they ran on.
type Tier string

const (
	TierAVX512 Tier = "avx512"
	TierAVX2   Tier = "avx2"
	TierNEON   Tier = "neon"
	TierScalar Tier = "scalar"
)

// Capabilities summarizes what the running CPU could support, cross-checking
// golang.org/x/sys/cpu against klauspost/cpuid/v2's broader feature and
// brand report.
type Capabilities struct {
	Tier        Tier
	BrandName   string
	CacheLine   int
	LogicalCPUs int
}

// Detect reports the best structural-byte-scanning tier the current CPU
// could support, for logging/diagnostics only — Scan runs the same SWAR path
// regardless of tier.
func Detect() Capabilities {
	c := Capabilities{
		Tier:        TierScalar,
		BrandName:   cpuid.CPU.BrandName,
		CacheLine:   cpuid.CPU.CacheLine,
		LogicalCPUs: cpuid.CPU.LogicalCores,
	}

	switch {
	case cpu.ARM64.HasASIMD:
		c.Tier = TierNEON
	case cpu.X86.HasAVX512F && cpu.X86.HasAVX512BW:
		c.Tier = TierAVX512
	case cpu.X86.HasAVX2:
		c.Tier = TierAVX2
	}

	return c
}

func (c Capabilities) String() string {
	return fmt.Sprintf("%s (%s, %d logical cores, %dB cache line)", c.Tier, c.BrandName, c.LogicalCPUs, c.CacheLine)
}
