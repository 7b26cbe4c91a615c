//go:build !amd64

package cpuid

//nolint:revive,stylecheck
func cpuid_low(_, _ uint32) (eax, ebx, ecx, edx uint32) {
	return 0, 0, 0, 0
}
