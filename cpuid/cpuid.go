// Package cpuid identifies the processor the tool runs on.
package cpuid

import (
	"encoding/binary"

	"golang.org/x/sys/cpu"
)

// CPUID executes the instruction for leaf with sub-leaf 0. It returns
// zeros on architectures without CPUID.
func CPUID(leaf uint32) (uint32, uint32, uint32, uint32) {
	return cpuid_low(leaf, 0)
}

// Vendor returns the 12-byte vendor string of leaf 0, e.g. GenuineIntel.
func Vendor() string {
	_, ebx, ecx, edx := CPUID(0)

	b := make([]byte, 12)
	binary.LittleEndian.PutUint32(b[0:4], ebx)
	binary.LittleEndian.PutUint32(b[4:8], edx)
	binary.LittleEndian.PutUint32(b[8:12], ecx)

	return string(b)
}

// Enabled splits features by whether their bit is set in reg.
func Enabled[T Feature](features []T, reg uint32) (enabled, disabled []T) {
	for _, f := range features {
		if reg&(1<<uint(f)) != 0 {
			enabled = append(enabled, f)
		} else {
			disabled = append(disabled, f)
		}
	}

	return enabled, disabled
}

// Features lists the instruction set extensions the Go runtime detected.
func Features() map[string]bool {
	return map[string]bool{
		"sse2":    cpu.X86.HasSSE2,
		"sse3":    cpu.X86.HasSSE3,
		"ssse3":   cpu.X86.HasSSSE3,
		"sse41":   cpu.X86.HasSSE41,
		"sse42":   cpu.X86.HasSSE42,
		"popcnt":  cpu.X86.HasPOPCNT,
		"aes":     cpu.X86.HasAES,
		"avx":     cpu.X86.HasAVX,
		"avx2":    cpu.X86.HasAVX2,
		"bmi1":    cpu.X86.HasBMI1,
		"bmi2":    cpu.X86.HasBMI2,
		"erms":    cpu.X86.HasERMS,
		"fma":     cpu.X86.HasFMA,
		"osxsave": cpu.X86.HasOSXSAVE,
		"rdrand":  cpu.X86.HasRDRAND,
		"rdseed":  cpu.X86.HasRDSEED,
		"adx":     cpu.X86.HasADX,
	}
}
