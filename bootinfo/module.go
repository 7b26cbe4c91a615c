package bootinfo

import (
	"github.com/bobuhiro11/mb2info/multiboot2"
)

// module records the first module as the critical components archive.
func (a *Assembler) module(tag multiboot2.Tag) {
	m, err := tag.Module()
	if err != nil {
		a.anomaly("module: %v", err)

		return
	}

	if a.archive.Present {
		a.anomaly("ignoring additional module [%#x-%#x) %q", m.Start, m.End, m.String)

		return
	}

	if m.End < m.Start {
		a.anomaly("module ends before it starts: [%#x-%#x)", m.Start, m.End)

		return
	}

	a.archive = Archive{
		Present: true,
		Address: uint64(m.Start),
		Size:    uint64(m.End - m.Start),
		String:  m.String,
	}
}
