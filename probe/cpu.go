package probe

import (
	"fmt"
	"io"
	"sort"

	"github.com/bobuhiro11/mb2info/cpuid"
)

// CPU prints the vendor, the leaf 1 and leaf 7 EDX feature bits and the
// extensions detected by the runtime.
func CPU(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Vendor: %s\n\n", cpuid.Vendor()); err != nil {
		return err
	}

	_, _, _, edx1 := cpuid.CPUID(1)
	_, _, _, edx7 := cpuid.CPUID(7)

	fmt.Fprintf(w, "F_1_Edx.\n")
	printFeatures(w, cpuid.AllF1Edx, edx1)

	fmt.Fprintf(w, "F_7_0_Edx.\n")
	printFeatures(w, cpuid.AllF7_0Edx, edx7)

	ext := cpuid.Features()
	names := make([]string, 0, len(ext))

	for name := range ext {
		names = append(names, name)
	}

	sort.Strings(names)

	fmt.Fprintf(w, "Runtime:")

	for _, name := range names {
		if ext[name] {
			fmt.Fprintf(w, " %s", name)
		}
	}

	_, err := fmt.Fprintf(w, "\n")

	return err
}

func printFeatures[T cpuid.Feature](w io.Writer, features []T, reg uint32) {
	enabled, disabled := cpuid.Enabled(features, reg)

	fmt.Fprintf(w, "* Enabled:")

	for _, f := range enabled {
		fmt.Fprintf(w, " %s", f.String())
	}

	fmt.Fprintf(w, "\n* Disabled:")

	for _, f := range disabled {
		fmt.Fprintf(w, " %s", f.String())
	}

	fmt.Fprintf(w, "\n\n")
}
