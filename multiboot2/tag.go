package multiboot2

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	// MemoryMapEntrySize is the minimal entry layout: base, length, type, reserved.
	MemoryMapEntrySize = 24

	moduleHeaderSize      = 8
	mmapHeaderSize        = 8
	basicMeminfoSize      = 8
	framebufferCommonSize = 22
)

// Module is the payload of a module tag.
type Module struct {
	Start  uint32
	End    uint32
	String []byte
}

// MemoryMapEntry is one decoded memory map entry.
type MemoryMapEntry struct {
	Base   uint64
	Length uint64
	Type   MemoryType
}

// MemoryMap is a view over the entries of a memory map tag. Entries are
// strided by EntrySize, which may exceed MemoryMapEntrySize.
type MemoryMap struct {
	EntrySize    uint32
	EntryVersion uint32
	entries      []byte
}

// Framebuffer holds the common part of a framebuffer tag.
type Framebuffer struct {
	Addr   uint64
	Pitch  uint32
	Width  uint32
	Height uint32
	BPP    uint8
	Type   FramebufferType
}

type framebufferCommon struct {
	Addr     uint64
	Pitch    uint32
	Width    uint32
	Height   uint32
	BPP      uint8
	Type     uint8
	Reserved uint16
}

func (t Tag) expect(types ...TagType) error {
	for _, typ := range types {
		if t.Type == typ {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrUnexpectedTag, t.Type)
}

func (t Tag) short(want int) error {
	return fmt.Errorf("%w: %s tag has %d bytes, want %d", ErrShortPayload, t.Type, len(t.Payload), want)
}

// Text returns the NUL-terminated string of a cmdline or boot loader name
// tag. The result aliases the tag payload.
func (t Tag) Text() ([]byte, error) {
	if err := t.expect(TagCmdline, TagBootLoaderName); err != nil {
		return nil, err
	}

	return cstring(t.Payload), nil
}

// Module decodes a module tag.
func (t Tag) Module() (Module, error) {
	if err := t.expect(TagModule); err != nil {
		return Module{}, err
	}

	if len(t.Payload) < moduleHeaderSize {
		return Module{}, t.short(moduleHeaderSize)
	}

	return Module{
		Start:  binary.LittleEndian.Uint32(t.Payload[0:4]),
		End:    binary.LittleEndian.Uint32(t.Payload[4:8]),
		String: cstring(t.Payload[moduleHeaderSize:]),
	}, nil
}

// BasicMeminfo returns mem_lower and mem_upper in KB.
func (t Tag) BasicMeminfo() (lower, upper uint32, err error) {
	if err := t.expect(TagBasicMeminfo); err != nil {
		return 0, 0, err
	}

	if len(t.Payload) < basicMeminfoSize {
		return 0, 0, t.short(basicMeminfoSize)
	}

	return binary.LittleEndian.Uint32(t.Payload[0:4]), binary.LittleEndian.Uint32(t.Payload[4:8]), nil
}

// MemoryMap decodes the header of a memory map tag.
func (t Tag) MemoryMap() (MemoryMap, error) {
	if err := t.expect(TagMmap); err != nil {
		return MemoryMap{}, err
	}

	if len(t.Payload) < mmapHeaderSize {
		return MemoryMap{}, t.short(mmapHeaderSize)
	}

	m := MemoryMap{
		EntrySize:    binary.LittleEndian.Uint32(t.Payload[0:4]),
		EntryVersion: binary.LittleEndian.Uint32(t.Payload[4:8]),
		entries:      t.Payload[mmapHeaderSize:],
	}

	if m.EntrySize < MemoryMapEntrySize {
		return MemoryMap{}, fmt.Errorf("%w: %d", ErrBadEntrySize, m.EntrySize)
	}

	return m, nil
}

// Len is the number of complete entries. A trailing partial entry is not counted.
func (m MemoryMap) Len() int {
	if m.EntrySize == 0 {
		return 0
	}

	return len(m.entries) / int(m.EntrySize)
}

// Entry decodes entry i, which must be below Len.
func (m MemoryMap) Entry(i int) MemoryMapEntry {
	e := m.entries[i*int(m.EntrySize):]

	return MemoryMapEntry{
		Base:   binary.LittleEndian.Uint64(e[0:8]),
		Length: binary.LittleEndian.Uint64(e[8:16]),
		Type:   MemoryType(binary.LittleEndian.Uint32(e[16:20])),
	}
}

// Framebuffer decodes the common part of a framebuffer tag. The color
// info that follows depends on Type and is not decoded.
func (t Tag) Framebuffer() (Framebuffer, error) {
	if err := t.expect(TagFramebuffer); err != nil {
		return Framebuffer{}, err
	}

	if len(t.Payload) < framebufferCommonSize {
		return Framebuffer{}, t.short(framebufferCommonSize)
	}

	// reserved may be cut off by a loader that sizes the tag exactly.
	raw := make([]byte, binary.Size(framebufferCommon{}))
	copy(raw, t.Payload)

	c := framebufferCommon{}
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &c); err != nil {
		return Framebuffer{}, err
	}

	return Framebuffer{
		Addr:   c.Addr,
		Pitch:  c.Pitch,
		Width:  c.Width,
		Height: c.Height,
		BPP:    c.BPP,
		Type:   FramebufferType(c.Type),
	}, nil
}

// RSDP returns the raw RSDP copy carried by an ACPI tag.
func (t Tag) RSDP() ([]byte, error) {
	if err := t.expect(TagACPIOld, TagACPINew); err != nil {
		return nil, err
	}

	return t.Payload, nil
}

func cstring(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i:i]
	}

	return b[:len(b):len(b)]
}
