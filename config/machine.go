package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/bobuhiro11/mb2info/acpi"
	"github.com/bobuhiro11/mb2info/flag"
	"github.com/bobuhiro11/mb2info/memory"
	"github.com/bobuhiro11/mb2info/multiboot2"
	"github.com/hashicorp/hcl"
	"github.com/imdario/mergo"
)

const (
	// DefaultInfoAddr is where gen places the boot information.
	DefaultInfoAddr = 0x10000

	lowMemoryEnd = 0x100000
)

type RegionConfig struct {
	Base   string `hcl:"base"`
	Length string `hcl:"length"`
	Type   string `hcl:"type"`
}

type FramebufferConfig struct {
	Addr   string `hcl:"addr"`
	Pitch  int    `hcl:"pitch"`
	Width  int    `hcl:"width"`
	Height int    `hcl:"height"`
	BPP    int    `hcl:"bpp"`
	Type   string `hcl:"type"`
}

type ModuleConfig struct {
	Name  string `hcl:",key"`
	Start string `hcl:"start"`
	End   string `hcl:"end"`
}

type ACPIConfig struct {
	OEM      string `hcl:"oem"`
	Revision int    `hcl:"revision"`
	RSDT     string `hcl:"rsdt"`
	XSDT     string `hcl:"xsdt"`
}

// Machine describes the boot information a loader would hand to a kernel.
// Blocks are emitted in the order: command line, loader name, basic
// meminfo, memory map, framebuffers, modules, ACPI.
type Machine struct {
	Cmdline      string              `hcl:"cmdline"`
	BootLoader   string              `hcl:"bootloader"`
	InfoAddr     string              `hcl:"info_addr"`
	EntrySize    int                 `hcl:"entry_size"`
	Regions      []RegionConfig      `hcl:"region"`
	Framebuffers []FramebufferConfig `hcl:"framebuffer"`
	Modules      []ModuleConfig      `hcl:"module"`
	ACPI         []ACPIConfig        `hcl:"acpi"`
}

func DefaultMachine() *Machine {
	return &Machine{
		BootLoader: "mb2info",
		InfoAddr:   fmt.Sprintf("%#x", DefaultInfoAddr),
		EntrySize:  multiboot2.MemoryMapEntrySize,
	}
}

func ParseMachine(filename string) (*Machine, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot read machine description: %w", err)
	}

	return DecodeMachine(content)
}

func DecodeMachine(content []byte) (*Machine, error) {
	m := &Machine{}
	if err := hcl.Unmarshal(content, m); err != nil {
		return nil, fmt.Errorf("invalid machine description: %w", err)
	}

	if err := mergo.Merge(m, DefaultMachine()); err != nil {
		return nil, fmt.Errorf("cannot apply default machine value: %w", err)
	}

	return m, nil
}

func parseAddr(field, s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}

	return v, nil
}

func parseMemoryType(s string) (multiboot2.MemoryType, error) {
	for t := multiboot2.MemoryAvailable; t <= multiboot2.MemoryBadRAM; t++ {
		if t.String() == s {
			return t, nil
		}
	}

	if s == "" {
		return multiboot2.MemoryAvailable, nil
	}

	return 0, fmt.Errorf("%w: region type %q", ErrInvalid, s)
}

func parseFramebufferType(s string) (multiboot2.FramebufferType, error) {
	for _, t := range []multiboot2.FramebufferType{
		multiboot2.FramebufferIndexed,
		multiboot2.FramebufferRGB,
		multiboot2.FramebufferEGAText,
	} {
		if t.String() == s {
			return t, nil
		}
	}

	if s == "" {
		return multiboot2.FramebufferRGB, nil
	}

	return 0, fmt.Errorf("%w: framebuffer type %q", ErrInvalid, s)
}

// Entries decodes the region blocks and checks that they do not overlap.
func (m *Machine) Entries() ([]multiboot2.MemoryMapEntry, error) {
	layout := memory.NewAddressSpace("physical", 0, ^uint64(0))
	entries := make([]multiboot2.MemoryMapEntry, 0, len(m.Regions))

	for i, r := range m.Regions {
		base, err := parseAddr("region.base", r.Base)
		if err != nil {
			return nil, err
		}

		length, err := flag.ParseSize(r.Length, "")
		if err != nil {
			return nil, fmt.Errorf("region.length: %w", err)
		}

		typ, err := parseMemoryType(r.Type)
		if err != nil {
			return nil, err
		}

		space := memory.NewAddressSpace(fmt.Sprintf("region %d", i), base, uint64(length))
		if err := layout.AddAddress(space); err != nil {
			return nil, err
		}

		entries = append(entries, multiboot2.MemoryMapEntry{Base: base, Length: uint64(length), Type: typ})
	}

	return entries, nil
}

// basicMeminfo derives mem_lower and mem_upper from the available regions
// starting at 0 and at 1 MiB.
func basicMeminfo(entries []multiboot2.MemoryMapEntry) (lower, upper uint32, ok bool) {
	for _, e := range entries {
		if e.Type != multiboot2.MemoryAvailable {
			continue
		}

		switch e.Base {
		case 0:
			lower, ok = uint32(e.Length>>10), true
		case lowMemoryEnd:
			upper, ok = uint32(e.Length>>10), true
		}
	}

	return lower, upper, ok
}

func (m *Machine) rsdp(a ACPIConfig) ([]byte, error) {
	rsdt, err := parseAddr("acpi.rsdt", a.RSDT)
	if err != nil {
		return nil, err
	}

	xsdt := uint64(0)
	if a.XSDT != "" {
		if xsdt, err = parseAddr("acpi.xsdt", a.XSDT); err != nil {
			return nil, err
		}
	}

	if a.Revision < 0 || a.Revision > 0xff || rsdt > 0xffffffff {
		return nil, fmt.Errorf("%w: acpi revision %d rsdt %#x", ErrInvalid, a.Revision, rsdt)
	}

	r, err := acpi.NewRSDP(a.OEM, uint8(a.Revision), uint32(rsdt), xsdt)
	if err != nil {
		return nil, err
	}

	return r.Bytes()
}

// Info encodes the boot information structure.
func (m *Machine) Info() ([]byte, error) {
	b := multiboot2.NewBuilder()

	if m.Cmdline != "" {
		b.AddCmdline(m.Cmdline)
	}

	if m.BootLoader != "" {
		b.AddBootLoaderName(m.BootLoader)
	}

	entries, err := m.Entries()
	if err != nil {
		return nil, err
	}

	if lower, upper, ok := basicMeminfo(entries); ok {
		b.AddBasicMeminfo(lower, upper)
	}

	if len(entries) > 0 {
		if m.EntrySize < multiboot2.MemoryMapEntrySize {
			return nil, fmt.Errorf("%w: entry_size %d", ErrInvalid, m.EntrySize)
		}

		b.AddMemoryMap(uint32(m.EntrySize), entries)
	}

	for _, f := range m.Framebuffers {
		addr, err := parseAddr("framebuffer.addr", f.Addr)
		if err != nil {
			return nil, err
		}

		typ, err := parseFramebufferType(f.Type)
		if err != nil {
			return nil, err
		}

		pitch := f.Pitch
		if pitch == 0 {
			pitch = f.Width * f.BPP / 8
		}

		b.AddFramebuffer(multiboot2.Framebuffer{
			Addr:   addr,
			Pitch:  uint32(pitch),
			Width:  uint32(f.Width),
			Height: uint32(f.Height),
			BPP:    uint8(f.BPP),
			Type:   typ,
		})
	}

	for _, mod := range m.Modules {
		start, err := parseAddr("module.start", mod.Start)
		if err != nil {
			return nil, err
		}

		end, err := parseAddr("module.end", mod.End)
		if err != nil {
			return nil, err
		}

		if start > 0xffffffff || end > 0xffffffff {
			return nil, fmt.Errorf("%w: module %s above 4 GiB", ErrInvalid, mod.Name)
		}

		b.AddModule(uint32(start), uint32(end), mod.Name)
	}

	for _, a := range m.ACPI {
		rsdp, err := m.rsdp(a)
		if err != nil {
			return nil, err
		}

		if a.Revision >= 2 {
			b.AddACPINew(rsdp)
		} else {
			b.AddACPIOld(rsdp)
		}
	}

	return b.Bytes()
}

// Build lays the boot information out in a physical memory image starting
// at address 0 and returns it with the address of the structure. Modules
// must not overlap the structure.
func (m *Machine) Build() (*memory.Physical, uint64, error) {
	addr, err := parseAddr("info_addr", m.InfoAddr)
	if err != nil {
		return nil, 0, err
	}

	if addr%multiboot2.TagAlign != 0 {
		return nil, 0, fmt.Errorf("%w: info_addr %#x not 8-byte aligned", ErrInvalid, addr)
	}

	info, err := m.Info()
	if err != nil {
		return nil, 0, err
	}

	ram := memory.NewAddressSpace("ram", 0, ^uint64(0))
	if err := ram.AddAddress(memory.NewAddressSpace("boot information", addr, uint64(len(info)))); err != nil {
		return nil, 0, err
	}

	for _, mod := range m.Modules {
		start, _ := parseAddr("module.start", mod.Start)
		end, _ := parseAddr("module.end", mod.End)

		if end < start {
			continue
		}

		if err := ram.AddAddress(memory.NewAddressSpace("module "+mod.Name, start, end-start)); err != nil {
			return nil, 0, err
		}
	}

	buf := make([]byte, addr+uint64(len(info)))
	copy(buf[addr:], info)

	return memory.New(0, buf), addr, nil
}
