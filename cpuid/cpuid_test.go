package cpuid_test

import (
	"runtime"
	"testing"

	"github.com/bobuhiro11/mb2info/cpuid"
)

func TestVendor(t *testing.T) {
	t.Parallel()

	if runtime.GOARCH != "amd64" {
		t.Skip("CPUID is only available on amd64")
	}

	v := cpuid.Vendor()
	t.Logf("vendor: %s", v)

	if v != "GenuineIntel" && v != "AuthenticAMD" {
		t.Fatalf("Unknown CPU vender found: %s", v)
	}

	if !cpuid.Features()["sse2"] {
		t.Error("amd64 always has sse2")
	}
}

func TestEnabled(t *testing.T) {
	t.Parallel()

	en, dis := cpuid.Enabled(cpuid.AllF1Edx, 1<<0|1<<26)

	if len(en) != 2 || en[0].String() != "fpu" || en[1].String() != "sse2" {
		t.Errorf("enabled: %v", en)
	}

	if len(en)+len(dis) != len(cpuid.AllF1Edx) {
		t.Errorf("%d + %d features, want %d", len(en), len(dis), len(cpuid.AllF1Edx))
	}

	if s := cpuid.F7_0Edx(1).String(); s != "F7_0Edx(1)" {
		t.Errorf("got %q", s)
	}
}
