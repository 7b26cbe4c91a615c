package bootinfo

// Summarize writes the handoff to the boot log, one field per line.
func Summarize(l Logger, h *Handoff) {
	bi := h.BootInfo

	l.Logf("Framebuffer Info:\n")
	l.Logf("\tEnabled: %t\n", bi.Framebuffer.Enabled)
	l.Logf("\tAddress: %#x\n", bi.Framebuffer.Addr)
	l.Logf("\tResolution: %dx%d\n", bi.Framebuffer.Width, bi.Framebuffer.Height)
	l.Logf("\tPitch: %d bytes\n", bi.Framebuffer.Pitch)
	l.Logf("\tDepth: %d bits\n", uint32(bi.Framebuffer.Depth)*8)
	l.Logf("\tSize: %d bytes\n", bi.Framebuffer.Size)

	if bi.Framebuffer.Enabled {
		l.Logf("Console Info:\n")
		l.Logf("\tMax chars: %d\n", bi.Console.MaxChars)
		l.Logf("\tMax lines: %d\n", bi.Console.MaxLines)
	}

	l.Logf("Serial Port Info:\n")
	l.Logf("\tEnabled: %t\n", bi.Serial.Enabled)
	l.Logf("\tUsing Port: %#x\n", bi.Serial.Port)

	mi := &bi.MemoryInfo
	l.Logf("Memory Info:\n")
	l.Logf("\tTotal RAM (KB): %d\n", mi.TotalPhysicalMemory)
	l.Logf("\tUsable RAM (KB): %d\n", mi.AvailableMemory)
	l.Logf("\tReserved RAM (KB): %d\n", mi.ReservedMemory())

	for i, r := range mi.Regions() {
		l.Logf("\tMemory Map Entry %d: base %#x length %d KB %s\n", i, r.BaseAddress, r.Length, r.Type)
	}

	if mi.Dropped > 0 {
		l.Logf("\t%d entries not stored\n", mi.Dropped)
	}

	rsdp := &h.Arch.ACPI.RSDP
	l.Logf("ACPI Info (%s):\n", h.Arch.ACPI.Source)
	l.Logf("\tSignature: %q\n", rsdp.Signature[:])
	l.Logf("\tChecksum: %d\n", rsdp.Checksum)
	l.Logf("\tVendor: %s\n", rsdp.OEM())
	l.Logf("\tRevision: %d\n", rsdp.Revision)
	l.Logf("\tRSDT Address: %#x\n", rsdp.RSDTAddress)

	if rsdp.Extended() {
		l.Logf("\tXSDT Address: %#x\n", rsdp.XSDTAddress)
	}

	l.Logf("Misc. Info:\n")
	l.Logf("\tLog buffer size: %d\n", bi.EarlyLogBuffer.Size)
	l.Logf("\tBoot parameters: %s\n", bi.Params)
	l.Logf("\tBoot loader: %s\n", bi.BootLoaderName)

	if h.Archive.Present {
		l.Logf("\tArchive: %#x (%d bytes) %s\n", h.Archive.Address, h.Archive.Size, h.Archive.String)
	}

	l.Logf("\tAnomalies: %d\n", h.Anomalies)
}
