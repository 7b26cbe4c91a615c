// Package multiboot2 decodes and encodes the Multiboot2 boot information
// structure: an 8-byte fixed header followed by 8-byte aligned tags.
//
// https://www.gnu.org/software/grub/manual/multiboot2/multiboot.html
package multiboot2

import (
	"errors"
	"fmt"
)

const (
	// BootloaderMagic is passed in EAX by a compliant boot loader.
	BootloaderMagic = 0x36d76289

	// TagAlign is the alignment of every tag inside the info structure.
	TagAlign = 8

	// fixedHeaderSize covers total_size and reserved.
	fixedHeaderSize = 8

	// tagHeaderSize covers type and size.
	tagHeaderSize = 8
)

type TagType uint32

const (
	TagEnd            TagType = 0
	TagCmdline        TagType = 1
	TagBootLoaderName TagType = 2
	TagModule         TagType = 3
	TagBasicMeminfo   TagType = 4
	TagBootdev        TagType = 5
	TagMmap           TagType = 6
	TagVBE            TagType = 7
	TagFramebuffer    TagType = 8
	TagELFSections    TagType = 9
	TagAPM            TagType = 10
	TagEFI32          TagType = 11
	TagEFI64          TagType = 12
	TagSMBIOS         TagType = 13
	TagACPIOld        TagType = 14
	TagACPINew        TagType = 15
	TagNetwork        TagType = 16
	TagEFIMmap        TagType = 17
	TagEFIBS          TagType = 18
	TagEFI32IH        TagType = 19
	TagEFI64IH        TagType = 20
	TagLoadBaseAddr   TagType = 21
)

var tagTypeNames = [...]string{
	"end", "cmdline", "boot-loader-name", "module", "basic-meminfo",
	"bootdev", "mmap", "vbe", "framebuffer", "elf-sections", "apm",
	"efi32", "efi64", "smbios", "acpi-old", "acpi-new", "network",
	"efi-mmap", "efi-bs", "efi32-ih", "efi64-ih", "load-base-addr",
}

// Known reports whether t is defined by the Multiboot2 specification.
func (t TagType) Known() bool {
	return uint64(t) < uint64(len(tagTypeNames))
}

func (t TagType) String() string {
	if t.Known() {
		return tagTypeNames[t]
	}

	return fmt.Sprintf("unknown(%d)", uint32(t))
}

// MemoryType is the type field of a memory map entry.
type MemoryType uint32

const (
	MemoryAvailable       MemoryType = 1
	MemoryReserved        MemoryType = 2
	MemoryACPIReclaimable MemoryType = 3
	MemoryNVS             MemoryType = 4
	MemoryBadRAM          MemoryType = 5
)

func (t MemoryType) String() string {
	switch t {
	case MemoryAvailable:
		return "available"
	case MemoryReserved:
		return "reserved"
	case MemoryACPIReclaimable:
		return "acpi-reclaimable"
	case MemoryNVS:
		return "nvs"
	case MemoryBadRAM:
		return "bad-ram"
	default:
		return "unknown"
	}
}

// FramebufferType is the framebuffer_type field of a framebuffer tag.
type FramebufferType uint8

const (
	FramebufferIndexed FramebufferType = 0
	FramebufferRGB     FramebufferType = 1
	FramebufferEGAText FramebufferType = 2
)

func (t FramebufferType) String() string {
	switch t {
	case FramebufferIndexed:
		return "indexed"
	case FramebufferRGB:
		return "rgb"
	case FramebufferEGAText:
		return "ega-text"
	default:
		return "unknown"
	}
}

var (
	// ErrBadMagic means the kernel was not started by a Multiboot2 loader.
	ErrBadMagic = errors.New("bootloader magic mismatch")

	ErrShortInfo     = errors.New("boot information shorter than its fixed header")
	ErrNoEndTag      = errors.New("tag stream ended without an END tag")
	ErrMalformedTag  = errors.New("malformed tag")
	ErrShortPayload  = errors.New("tag payload too short")
	ErrBadEntrySize  = errors.New("invalid memory map entry size")
	ErrUnexpectedTag = errors.New("unexpected tag type")
)

// CheckMagic validates the value the boot loader left in EAX.
func CheckMagic(magic uint32) error {
	if magic != BootloaderMagic {
		return fmt.Errorf("%w: got %#x, want %#x", ErrBadMagic, magic, uint32(BootloaderMagic))
	}

	return nil
}

func alignUp(n uint64) uint64 {
	return (n + TagAlign - 1) &^ (TagAlign - 1)
}
