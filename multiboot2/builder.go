package multiboot2

import (
	"bytes"
	"encoding/binary"
)

type tagHeader struct {
	Type uint32
	Size uint32
}

type rawMemoryMapEntry struct {
	Base     uint64
	Length   uint64
	Type     uint32
	Reserved uint32
}

// rgbColorInfo is the 8:8:8 layout written after an RGB framebuffer tag.
var rgbColorInfo = []byte{16, 8, 8, 8, 0, 8}

// Builder assembles a boot information structure the way a Multiboot2
// loader lays it out in guest memory.
type Builder struct {
	body bytes.Buffer
	err  error
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) write(v interface{}) {
	if b.err != nil {
		return
	}

	b.err = binary.Write(&b.body, binary.LittleEndian, v)
}

func (b *Builder) pad() {
	for b.body.Len()%TagAlign != 0 {
		b.body.WriteByte(0)
	}
}

// AddTag appends a tag with an arbitrary payload.
func (b *Builder) AddTag(t TagType, payload []byte) *Builder {
	b.write(tagHeader{Type: uint32(t), Size: uint32(tagHeaderSize + len(payload))})
	b.body.Write(payload)
	b.pad()

	return b
}

func (b *Builder) AddCmdline(s string) *Builder {
	return b.AddTag(TagCmdline, append([]byte(s), 0))
}

func (b *Builder) AddBootLoaderName(s string) *Builder {
	return b.AddTag(TagBootLoaderName, append([]byte(s), 0))
}

func (b *Builder) AddModule(start, end uint32, s string) *Builder {
	payload := make([]byte, moduleHeaderSize, moduleHeaderSize+len(s)+1)
	binary.LittleEndian.PutUint32(payload[0:4], start)
	binary.LittleEndian.PutUint32(payload[4:8], end)
	payload = append(payload, s...)
	payload = append(payload, 0)

	return b.AddTag(TagModule, payload)
}

func (b *Builder) AddBasicMeminfo(lower, upper uint32) *Builder {
	payload := make([]byte, basicMeminfoSize)
	binary.LittleEndian.PutUint32(payload[0:4], lower)
	binary.LittleEndian.PutUint32(payload[4:8], upper)

	return b.AddTag(TagBasicMeminfo, payload)
}

// AddMemoryMap writes entries strided by entrySize. Values below
// MemoryMapEntrySize are raised to it; the extra bytes of larger entries are zero.
func (b *Builder) AddMemoryMap(entrySize uint32, entries []MemoryMapEntry) *Builder {
	if entrySize < MemoryMapEntrySize {
		entrySize = MemoryMapEntrySize
	}

	var payload bytes.Buffer

	hdr := [mmapHeaderSize]byte{}
	binary.LittleEndian.PutUint32(hdr[0:4], entrySize)
	payload.Write(hdr[:])

	for _, e := range entries {
		if err := binary.Write(&payload, binary.LittleEndian, rawMemoryMapEntry{
			Base:   e.Base,
			Length: e.Length,
			Type:   uint32(e.Type),
		}); err != nil && b.err == nil {
			b.err = err
		}

		payload.Write(make([]byte, entrySize-MemoryMapEntrySize))
	}

	return b.AddTag(TagMmap, payload.Bytes())
}

func (b *Builder) AddFramebuffer(fb Framebuffer) *Builder {
	var payload bytes.Buffer

	if err := binary.Write(&payload, binary.LittleEndian, framebufferCommon{
		Addr:   fb.Addr,
		Pitch:  fb.Pitch,
		Width:  fb.Width,
		Height: fb.Height,
		BPP:    fb.BPP,
		Type:   uint8(fb.Type),
	}); err != nil && b.err == nil {
		b.err = err
	}

	if fb.Type == FramebufferRGB {
		payload.Write(rgbColorInfo)
	}

	return b.AddTag(TagFramebuffer, payload.Bytes())
}

func (b *Builder) AddACPIOld(rsdp []byte) *Builder {
	return b.AddTag(TagACPIOld, rsdp)
}

func (b *Builder) AddACPINew(rsdp []byte) *Builder {
	return b.AddTag(TagACPINew, rsdp)
}

// Bytes terminates the stream with an END tag and prepends the fixed header.
func (b *Builder) Bytes() ([]byte, error) {
	if b.err != nil {
		return []byte{}, b.err
	}

	body := b.body.Bytes()
	total := fixedHeaderSize + len(body) + tagHeaderSize

	buf := new(bytes.Buffer)
	buf.Grow(total)

	if err := binary.Write(buf, binary.LittleEndian, [2]uint32{uint32(total), 0}); err != nil {
		return []byte{}, err
	}

	buf.Write(body)

	if err := binary.Write(buf, binary.LittleEndian, tagHeader{Type: uint32(TagEnd), Size: tagHeaderSize}); err != nil {
		return []byte{}, err
	}

	return buf.Bytes(), nil
}
