package bootinfo

import (
	"github.com/bobuhiro11/mb2info/acpi"
	"github.com/bobuhiro11/mb2info/multiboot2"
)

// acpiOld copies an ACPI 1.0 RSDP. A revision 2 RSDP taken earlier is kept.
func (a *Assembler) acpiOld(info *ACPIInfo, tag multiboot2.Tag) {
	raw, err := tag.RSDP()
	if err != nil {
		a.anomaly("acpi: %v", err)

		return
	}

	r, err := acpi.ParseRSDPv1(raw)
	if err != nil {
		a.anomaly("acpi-old: %v", err)

		return
	}

	if info.Source == ACPINew {
		a.log.Logf("acpi-old: keeping the revision %d RSDP\n", info.RSDP.Revision)

		return
	}

	info.RSDP = r
	info.Source = ACPIOld
	info.ChecksumValid = acpi.ChecksumOK(raw, acpi.RSDPv1Size)

	if !info.ChecksumValid {
		a.log.Logf("WARNING: acpi-old: RSDP checksum mismatch\n")
	}
}

// acpiNew copies a revision 2 RSDP once its size, signature and revision
// prove the layout. Anything else is skipped.
func (a *Assembler) acpiNew(info *ACPIInfo, tag multiboot2.Tag) {
	a.log.Logf("WARNING: new ACPI revision detected, extracting verified fields only\n")

	raw, err := tag.RSDP()
	if err != nil {
		a.anomaly("acpi: %v", err)

		return
	}

	r, err := acpi.ParseRSDPv2(raw)
	if err != nil {
		a.anomaly("acpi-new: skipping RSDP: %v", err)

		return
	}

	info.RSDP = r
	info.Source = ACPINew
	info.ChecksumValid = acpi.ChecksumOK(raw, acpi.RSDPv1Size) && acpi.ChecksumOK(raw, acpi.RSDPv2Size)

	if !info.ChecksumValid {
		a.log.Logf("WARNING: acpi-new: RSDP checksum mismatch\n")
	}
}
