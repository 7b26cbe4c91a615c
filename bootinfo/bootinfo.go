// Package bootinfo builds the boot record every later bring-up phase reads:
// an architecture-neutral BootInfo and the i386 extension I386BootInfo,
// populated in one pass over the Multiboot2 tag stream.
package bootinfo

import (
	"github.com/bobuhiro11/mb2info/acpi"
)

// MaxRegions is the fixed capacity of the memory region table.
const MaxRegions = 100

// EarlyLogBuffer describes the boot log ring. The assembler sets Size; the
// ring keeps Index and LastFlushIndex current once published to it.
type EarlyLogBuffer struct {
	Size           uint16
	Index          uint16
	LastFlushIndex uint16
}

type Framebuffer struct {
	Enabled bool
	Addr    uint64
	Width   uint32
	Height  uint32
	Pitch   uint32
	Depth   uint8 // bytes per pixel
	Size    uint64
}

// Console is the text grid drawn on the framebuffer with 8x16 glyphs.
// It is only meaningful when Framebuffer.Enabled is set.
type Console struct {
	CursorPos uint32
	Line      uint32
	MaxChars  uint32
	MaxLines  uint32
}

type Serial struct {
	Enabled bool
	Port    uint16
}

// Component is a slot for a server or driver started by later phases.
type Component struct {
	Present bool
	Address uint64
	Size    uint64
	State   uint8
}

type CriticalComponents struct {
	VFS        Component
	MM         Component
	PM         Component
	Sched      Component
	DiskDriver Component
	FB         Component
	DiskDev    Component
	TTYDev     Component
}

type RegionType uint8

const (
	RegionAvailable RegionType = 0
	RegionReserved  RegionType = 1
)

func (t RegionType) String() string {
	if t == RegionAvailable {
		return "available"
	}

	return "reserved"
}

type Region struct {
	BaseAddress uint64
	Length      uint64 // KB
	Type        RegionType
}

// MemoryInfo keeps its regions in a fixed table. Count says how many are
// valid; Dropped counts regions that did not fit but still went into the
// totals.
type MemoryInfo struct {
	// KB, all regions.
	TotalPhysicalMemory uint64
	// KB, available regions only.
	AvailableMemory uint64

	Map     [MaxRegions]Region
	Count   int
	Dropped int

	// From the basic meminfo tag, in KB.
	LowerKB uint32
	UpperKB uint32
}

func (m *MemoryInfo) Regions() []Region {
	return m.Map[:m.Count]
}

func (m *MemoryInfo) ReservedMemory() uint64 {
	return m.TotalPhysicalMemory - m.AvailableMemory
}

type CPUInfo struct {
	ClockSpeed  uint8
	LogicalCPUs uint8
}

type Config struct {
	Headless bool
}

// BootInfo is the canonical boot record. Params and BootLoaderName are
// borrowed from boot loader memory and are only valid during bootstrap;
// copy them before that memory is reclaimed.
type BootInfo struct {
	EarlyLogBuffer     EarlyLogBuffer
	Framebuffer        Framebuffer
	Console            Console
	Serial             Serial
	CriticalComponents CriticalComponents
	MemoryInfo         MemoryInfo
	CPUInfo            CPUInfo
	Params             []byte
	BootLoaderName     []byte
	Config             Config
}

// ACPISource records which tag the RSDP was taken from.
type ACPISource int

const (
	ACPINone ACPISource = iota
	ACPIOld
	ACPINew
)

func (s ACPISource) String() string {
	switch s {
	case ACPIOld:
		return "acpi-old"
	case ACPINew:
		return "acpi-new"
	default:
		return "none"
	}
}

type ACPIInfo struct {
	RSDP          acpi.RSDP
	Source        ACPISource
	ChecksumValid bool
}

type I386BootInfo struct {
	ACPI ACPIInfo
}

// Archive locates the critical components archive loaded as a module.
// String is borrowed like BootInfo.Params.
type Archive struct {
	Present bool
	Address uint64
	Size    uint64
	String  []byte
}
