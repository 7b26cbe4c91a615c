package acpi_test

import (
	"errors"
	"testing"

	"github.com/bobuhiro11/mb2info/acpi"
)

func TestNewRSDPChecksum(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name     string
		revision uint8
		size     int
	}{
		{name: "Revision0", revision: 0, size: acpi.RSDPv1Size},
		{name: "Revision2", revision: 2, size: acpi.RSDPv2Size},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, err := acpi.NewRSDP("BOCHS", tt.revision, 0x7fe14d5, 0x7fe1500)
			if err != nil {
				t.Fatal(err)
			}

			b, err := r.Bytes()
			if err != nil {
				t.Fatal(err)
			}

			if len(b) != tt.size {
				t.Fatalf("size %d, want %d", len(b), tt.size)
			}

			if !acpi.ChecksumOK(b, acpi.RSDPv1Size) {
				t.Error("invalid checksum")
			}

			if tt.size == acpi.RSDPv2Size && !acpi.ChecksumOK(b, acpi.RSDPv2Size) {
				t.Error("invalid extended checksum")
			}
		})
	}
}

func TestParseRSDP(t *testing.T) {
	t.Parallel()

	r, err := acpi.NewRSDP("BOCHS", 2, 0x7fe14d5, 0x7fe1500)
	if err != nil {
		t.Fatal(err)
	}

	b, err := r.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	v1, err := acpi.ParseRSDPv1(b)
	if err != nil {
		t.Fatal(err)
	}

	if v1.OEM() != "BOCHS" || v1.RSDTAddress != 0x7fe14d5 || v1.Revision != 2 {
		t.Errorf("unexpected v1 fields %+v", v1)
	}

	if v1.Extended() {
		t.Error("v1 parse must not fill extended fields")
	}

	v2, err := acpi.ParseRSDPv2(b)
	if err != nil {
		t.Fatal(err)
	}

	if v2.XSDTAddress != 0x7fe1500 || v2.Length != acpi.RSDPv2Size || !v2.Extended() {
		t.Errorf("unexpected v2 fields %+v", v2)
	}

	if _, err := acpi.ParseRSDPv1(b[:12]); !errors.Is(err, acpi.ErrShortRSDP) {
		t.Errorf("got %v, want ErrShortRSDP", err)
	}
}

func TestParseRSDPv2Rejects(t *testing.T) {
	t.Parallel()

	old, err := acpi.NewRSDP("BOCHS", 0, 0x7fe14d5, 0)
	if err != nil {
		t.Fatal(err)
	}

	b, err := old.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := acpi.ParseRSDPv2(append(b, make([]byte, 16)...)); !errors.Is(err, acpi.ErrRSDPRevision) {
		t.Errorf("got %v, want ErrRSDPRevision", err)
	}

	if _, err := acpi.ParseRSDPv2(make([]byte, acpi.RSDPv2Size)); !errors.Is(err, acpi.ErrRSDPSignature) {
		t.Errorf("got %v, want ErrRSDPSignature", err)
	}

	if _, err := acpi.ParseRSDPv2(b); !errors.Is(err, acpi.ErrShortRSDP) {
		t.Errorf("got %v, want ErrShortRSDP", err)
	}
}
