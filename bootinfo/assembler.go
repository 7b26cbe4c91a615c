package bootinfo

import (
	"errors"
	"fmt"

	"github.com/bobuhiro11/mb2info/memory"
	"github.com/bobuhiro11/mb2info/multiboot2"
)

var ErrAssembled = errors.New("boot information already assembled")

// Logger is the boot-time logging sink. Implementations must not fail.
type Logger interface {
	Logf(format string, args ...interface{})
}

type discard struct{}

func (discard) Logf(string, ...interface{}) {}

// KBMode selects how 64-bit region lengths are turned into KB for the
// memory totals.
type KBMode int

const (
	// KBExact divides the full 64-bit length by 1024.
	KBExact KBMode = iota

	// KBLegacySplit divides the high and low 32-bit halves by 1024
	// separately and adds them, as earlier loaders of this record did.
	// The high half is not scaled, so lengths of 4 GiB and more are
	// undercounted.
	KBLegacySplit
)

func (m KBMode) String() string {
	if m == KBLegacySplit {
		return "legacy"
	}

	return "exact"
}

// Defaults are the build-time settings applied before the walk.
type Defaults struct {
	LogBufferSize uint16
	SerialEnabled bool
	SerialPort    uint16
	Headless      bool
	KBMode        KBMode
}

func BuildDefaults() Defaults {
	return Defaults{
		LogBufferSize: 6144,
		SerialPort:    0x3f8,
		KBMode:        KBExact,
	}
}

// Assembler owns the output records for one pass over a tag stream.
type Assembler struct {
	defaults  Defaults
	log       Logger
	state     multiboot2.State
	anomalies int
	visited   int
	archive   Archive
}

func New(d Defaults, log Logger) *Assembler {
	if log == nil {
		log = discard{}
	}

	return &Assembler{
		defaults: d,
		log:      log,
		state:    multiboot2.StateScanning,
	}
}

func (a *Assembler) State() multiboot2.State { return a.state }

// Anomalies counts ignored, unsupported or malformed input.
func (a *Assembler) Anomalies() int { return a.anomalies }

// Visited is the number of tags dispatched.
func (a *Assembler) Visited() int { return a.visited }

func (a *Assembler) anomaly(format string, args ...interface{}) {
	a.anomalies++
	a.log.Logf("WARNING: "+format+"\n", args...)
}

// Assemble walks info once and returns the populated records together
// with the archive location. info must start at the boot information's
// fixed header. An Assembler can be used only once.
func (a *Assembler) Assemble(info []byte) (*BootInfo, *I386BootInfo, Archive, error) {
	if a.state == multiboot2.StateTerminated {
		return nil, nil, Archive{}, ErrAssembled
	}

	w, err := multiboot2.NewWalker(info)
	if err != nil {
		a.state = multiboot2.StateTerminated

		return nil, nil, Archive{}, err
	}

	bi := &BootInfo{}
	arch := &I386BootInfo{}

	a.applyDefaults(bi)

	if w.Truncated() {
		a.anomaly("total_size %d exceeds the %d bytes available", w.TotalSize(), len(info))
	}

	for tag, ok := w.Next(); ok; tag, ok = w.Next() {
		a.visited++
		a.dispatch(bi, arch, tag)
	}

	if err := w.Err(); err != nil {
		a.anomaly("tag stream: %v", err)
	}

	a.state = multiboot2.StateTerminated

	return bi, arch, a.archive, nil
}

func (a *Assembler) applyDefaults(bi *BootInfo) {
	bi.EarlyLogBuffer.Size = a.defaults.LogBufferSize

	if a.defaults.SerialEnabled {
		bi.Serial.Enabled = true
		bi.Serial.Port = a.defaults.SerialPort
	}

	bi.Config.Headless = a.defaults.Headless
}

func (a *Assembler) dispatch(bi *BootInfo, arch *I386BootInfo, tag multiboot2.Tag) {
	switch tag.Type {
	case multiboot2.TagFramebuffer:
		a.framebuffer(bi, tag)
	case multiboot2.TagCmdline:
		a.cmdline(bi, tag)
	case multiboot2.TagBootLoaderName:
		a.bootLoaderName(bi, tag)
	case multiboot2.TagMmap:
		a.memoryMap(&bi.MemoryInfo, tag)
	case multiboot2.TagBasicMeminfo:
		a.basicMeminfo(&bi.MemoryInfo, tag)
	case multiboot2.TagModule:
		a.module(tag)
	case multiboot2.TagACPIOld:
		a.acpiOld(&arch.ACPI, tag)
	case multiboot2.TagACPINew:
		a.acpiNew(&arch.ACPI, tag)
	default:
		if !tag.Type.Known() {
			a.anomaly("ignoring unknown tag %s (%d bytes)", tag.Type, tag.Size)
		}
	}
}

// Handoff is what the bootstrap phase passes on to later phases.
type Handoff struct {
	BootInfo  *BootInfo
	Arch      *I386BootInfo
	Archive   Archive
	Anomalies int
}

// Descriptor returns the boot information at addr, bounded by its
// total_size and by the end of mem.
func Descriptor(mem *memory.Physical, addr uint64) ([]byte, error) {
	total, err := mem.Uint32(addr)
	if err != nil {
		return nil, fmt.Errorf("boot information at %#x: %w", addr, err)
	}

	return mem.Tail(addr, uint64(total))
}

// Boot checks the loader magic and assembles the records from the boot
// information at addr. On a magic mismatch nothing is read, logged or
// allocated; the caller is expected to halt.
func Boot(magic uint32, mem *memory.Physical, addr uint64, a *Assembler) (*Handoff, error) {
	if err := multiboot2.CheckMagic(magic); err != nil {
		return nil, err
	}

	info, err := Descriptor(mem, addr)
	if err != nil {
		return nil, err
	}

	bi, arch, archive, err := a.Assemble(info)
	if err != nil {
		return nil, err
	}

	return &Handoff{
		BootInfo:  bi,
		Arch:      arch,
		Archive:   archive,
		Anomalies: a.Anomalies(),
	}, nil
}
