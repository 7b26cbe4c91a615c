package bootinfo

import (
	"github.com/bobuhiro11/mb2info/multiboot2"
)

func (a *Assembler) toKB(length uint64) uint64 {
	if a.defaults.KBMode == KBLegacySplit {
		return (length>>32)/1024 + (length&0xffffffff)/1024
	}

	return length / 1024
}

// memoryMap accounts every entry in the totals and stores the first
// MaxRegions of them in the region table.
func (a *Assembler) memoryMap(mi *MemoryInfo, tag multiboot2.Tag) {
	m, err := tag.MemoryMap()
	if err != nil {
		a.anomaly("memory map: %v", err)

		return
	}

	dropped := 0

	for i := 0; i < m.Len(); i++ {
		e := m.Entry(i)
		kb := a.toKB(e.Length)

		mi.TotalPhysicalMemory += kb

		typ := RegionReserved
		if e.Type == multiboot2.MemoryAvailable {
			mi.AvailableMemory += kb
			typ = RegionAvailable
		}

		if mi.Count == MaxRegions {
			dropped++

			continue
		}

		mi.Map[mi.Count] = Region{
			BaseAddress: e.Base,
			Length:      e.Length / 1024,
			Type:        typ,
		}
		mi.Count++
	}

	if dropped > 0 {
		mi.Dropped += dropped
		a.log.Logf("memory map: %d regions beyond the %d-entry table dropped\n", dropped, MaxRegions)
	}
}

func (a *Assembler) basicMeminfo(mi *MemoryInfo, tag multiboot2.Tag) {
	lower, upper, err := tag.BasicMeminfo()
	if err != nil {
		a.anomaly("basic meminfo: %v", err)

		return
	}

	mi.LowerKB = lower
	mi.UpperKB = upper
}
