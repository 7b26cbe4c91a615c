package cpuid

import "fmt"

// Feature bit positions follow arch/x86/include/asm/cpufeatures.h in Linux.
type Feature interface {
	F1Edx | F7_0Edx

	fmt.Stringer
}

type (
	// F1Edx is a bit of EDX for leaf 1.
	F1Edx uint32
	// F7_0Edx is a bit of EDX for leaf 7, sub-leaf 0.
	F7_0Edx uint32 //nolint:revive,stylecheck
)

//nolint:gochecknoglobals
var f1EdxNames = map[F1Edx]string{
	0: "fpu", 1: "vme", 2: "de", 3: "pse", 4: "tsc", 5: "msr", 6: "pae",
	7: "mce", 8: "cx8", 9: "apic", 11: "sep", 12: "mtrr", 13: "pge",
	14: "mca", 15: "cmov", 16: "pat", 17: "pse36", 18: "pn", 19: "clflush",
	21: "dts", 22: "acpi", 23: "mmx", 24: "fxsr", 25: "sse", 26: "sse2",
	27: "ss", 28: "ht", 29: "tm", 30: "ia64", 31: "pbe",
}

//nolint:gochecknoglobals
var f7EdxNames = map[F7_0Edx]string{
	2: "avx512_4vnniw", 3: "avx512_4fmaps", 4: "fsrm",
	8: "avx512_vp2intersect", 9: "srbds_ctrl", 10: "md_clear",
	11: "rtm_always_abort", 13: "tsx_force_abort", 14: "serialize",
	15: "hybrid_cpu", 16: "tsxldtrk", 18: "pconfig", 19: "arch_lbr",
	20: "ibt", 22: "amx_bf16", 23: "avx512_fp16", 24: "amx_tile",
	25: "amx_int8", 26: "spec_ctrl", 27: "intel_stibp", 28: "flush_l1d",
	29: "arch_capabilities", 30: "core_capabilities", 31: "spec_ctrl_ssbd",
}

func (f F1Edx) String() string {
	if s, ok := f1EdxNames[f]; ok {
		return s
	}

	return fmt.Sprintf("F1Edx(%d)", uint32(f))
}

func (f F7_0Edx) String() string {
	if s, ok := f7EdxNames[f]; ok {
		return s
	}

	return fmt.Sprintf("F7_0Edx(%d)", uint32(f))
}

// AllF1Edx lists the leaf 1 EDX bits in ascending order.
//
//nolint:gochecknoglobals
var AllF1Edx = []F1Edx{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 11, 12, 13, 14, 15, 16, 17, 18, 19,
	21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31,
}

//nolint:gochecknoglobals
var AllF7_0Edx = []F7_0Edx{
	2, 3, 4, 8, 9, 10, 11, 13, 14, 15, 16, 18, 19, 20, 22, 23, 24, 25,
	26, 27, 28, 29, 30, 31,
}
