// Package bootproto locates the Multiboot2 header a kernel image carries
// to request services from the boot loader.
package bootproto

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

const (
	HeaderMagic = 0xe85250d6

	// The header must sit 8-byte aligned within the first 32 KiB.
	searchLimit = 32768
	headerAlign = 8

	ArchitectureI386   = 0
	ArchitectureMIPS32 = 4
)

type TagType uint16

const (
	TagEnd                TagType = 0
	TagInformationRequest TagType = 1
	TagAddress            TagType = 2
	TagEntryAddress       TagType = 3
	TagConsoleFlags       TagType = 4
	TagFramebuffer        TagType = 5
	TagModuleAlign        TagType = 6
	TagEFIBS              TagType = 7
	TagEntryAddressEFI32  TagType = 8
	TagEntryAddressEFI64  TagType = 9
	TagRelocatable        TagType = 10
)

const tagFlagOptional uint16 = 1

var (
	ErrorHeaderNotFound = errors.New("multiboot2 header not found in kernel image")
	ErrorChecksum       = errors.New("multiboot2 header checksum mismatch")
	ErrorMalformedTag   = errors.New("malformed multiboot2 header tag")
)

// Header is the fixed part of the Multiboot2 header.
type Header struct {
	Magic        uint32
	Architecture uint32
	HeaderLength uint32
	Checksum     uint32
}

type tagHeader struct {
	Type  uint16
	Flags uint16
	Size  uint32
}

type AddressTag struct {
	HeaderAddr  uint32
	LoadAddr    uint32
	LoadEndAddr uint32
	BSSEndAddr  uint32
}

type FramebufferTag struct {
	Width  uint32
	Height uint32
	Depth  uint32
}

type RelocatableTag struct {
	MinAddr    uint32
	MaxAddr    uint32
	Align      uint32
	Preference uint32
}

// Tag is one decoded header tag. Only the field matching Type is set.
type Tag struct {
	Type     TagType
	Optional bool
	Size     uint32

	Requests     []uint32
	Address      *AddressTag
	EntryAddr    uint32
	ConsoleFlags uint32
	Framebuffer  *FramebufferTag
	Relocatable  *RelocatableTag
}

// Image is a kernel image with its Multiboot2 header located.
type Image struct {
	Data   []byte
	Offset int
	Header Header
	Tags   []Tag
}

func New(kernelPath string) (*Image, error) {
	data, err := os.ReadFile(kernelPath)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse scans data for a header whose checksum holds and decodes its tags.
// A magic value with a bad checksum is skipped; its error is returned only
// when no valid header follows.
func Parse(data []byte) (*Image, error) {
	limit := len(data)
	if limit > searchLimit {
		limit = searchLimit
	}

	var checksumErr error

	for off := 0; off+16 <= limit; off += headerAlign {
		if binary.LittleEndian.Uint32(data[off:]) != HeaderMagic {
			continue
		}

		img := &Image{Data: data, Offset: off}

		if err := binary.Read(bytes.NewReader(data[off:off+16]), binary.LittleEndian, &img.Header); err != nil {
			return nil, err
		}

		h := img.Header
		if h.Magic+h.Architecture+h.HeaderLength+h.Checksum != 0 {
			if checksumErr == nil {
				checksumErr = fmt.Errorf("%w at offset %#x", ErrorChecksum, off)
			}

			continue
		}

		// The whole header must lie within the first 32 KiB.
		end := off + int(h.HeaderLength)
		if h.HeaderLength < 16 || end > len(data) || end > searchLimit {
			return nil, fmt.Errorf("%w: header length %d", ErrorMalformedTag, h.HeaderLength)
		}

		tags, err := parseTags(data[off+16 : end])
		if err != nil {
			return nil, err
		}

		img.Tags = tags

		return img, nil
	}

	if checksumErr != nil {
		return nil, checksumErr
	}

	return nil, ErrorHeaderNotFound
}

func parseTags(b []byte) ([]Tag, error) {
	tags := []Tag{}

	for off := 0; off+8 <= len(b); {
		th := tagHeader{}
		if err := binary.Read(bytes.NewReader(b[off:off+8]), binary.LittleEndian, &th); err != nil {
			return nil, err
		}

		if TagType(th.Type) == TagEnd {
			return tags, nil
		}

		if th.Size < 8 || off+int(th.Size) > len(b) {
			return nil, fmt.Errorf("%w: type %d size %d", ErrorMalformedTag, th.Type, th.Size)
		}

		t := Tag{
			Type:     TagType(th.Type),
			Optional: th.Flags&tagFlagOptional != 0,
			Size:     th.Size,
		}

		if err := t.decode(b[off+8 : off+int(th.Size)]); err != nil {
			return nil, err
		}

		tags = append(tags, t)
		off += int((th.Size + headerAlign - 1) &^ (headerAlign - 1))
	}

	return nil, fmt.Errorf("%w: no end tag", ErrorMalformedTag)
}

func (t *Tag) decode(p []byte) error {
	r := bytes.NewReader(p)

	switch t.Type {
	case TagInformationRequest:
		t.Requests = make([]uint32, len(p)/4)

		return binary.Read(r, binary.LittleEndian, t.Requests)
	case TagAddress:
		t.Address = &AddressTag{}

		return binary.Read(r, binary.LittleEndian, t.Address)
	case TagEntryAddress, TagEntryAddressEFI32, TagEntryAddressEFI64:
		return binary.Read(r, binary.LittleEndian, &t.EntryAddr)
	case TagConsoleFlags:
		return binary.Read(r, binary.LittleEndian, &t.ConsoleFlags)
	case TagFramebuffer:
		t.Framebuffer = &FramebufferTag{}

		return binary.Read(r, binary.LittleEndian, t.Framebuffer)
	case TagRelocatable:
		t.Relocatable = &RelocatableTag{}

		return binary.Read(r, binary.LittleEndian, t.Relocatable)
	}

	return nil
}

func (i *Image) find(typ TagType) *Tag {
	for n := range i.Tags {
		if i.Tags[n].Type == typ {
			return &i.Tags[n]
		}
	}

	return nil
}

// EntryOffset maps the entry address tag to a file offset using the
// address tag. ok is false when the image does not carry both.
func (i *Image) EntryOffset() (entry uint32, offset int, ok bool) {
	e := i.find(TagEntryAddress)
	a := i.find(TagAddress)

	if e == nil || a == nil || a.Address.HeaderAddr < uint32(i.Offset) {
		return 0, 0, false
	}

	// header_addr corresponds to the header's own file offset.
	fileBase := a.Address.HeaderAddr - uint32(i.Offset)
	if e.EntryAddr < fileBase {
		return 0, 0, false
	}

	offset = int(e.EntryAddr - fileBase)
	if offset >= len(i.Data) {
		return 0, 0, false
	}

	return e.EntryAddr, offset, true
}

// Bytes encodes a header with the given tags and a valid checksum, as a
// linker script would emit it.
func Bytes(arch uint32, tags []Tag) ([]byte, error) {
	body := new(bytes.Buffer)

	for _, t := range tags {
		if err := t.encode(body); err != nil {
			return []byte{}, err
		}
	}

	if err := binary.Write(body, binary.LittleEndian, tagHeader{Type: uint16(TagEnd), Size: 8}); err != nil {
		return []byte{}, err
	}

	h := Header{
		Magic:        HeaderMagic,
		Architecture: arch,
		HeaderLength: uint32(16 + body.Len()),
	}
	h.Checksum = -(h.Magic + h.Architecture + h.HeaderLength)

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, h); err != nil {
		return []byte{}, err
	}

	buf.Write(body.Bytes())

	return buf.Bytes(), nil
}

func (t *Tag) encode(w *bytes.Buffer) error {
	payload := new(bytes.Buffer)

	var v interface{}

	switch t.Type {
	case TagInformationRequest:
		v = t.Requests
	case TagAddress:
		v = t.Address
	case TagEntryAddress, TagEntryAddressEFI32, TagEntryAddressEFI64:
		v = t.EntryAddr
	case TagConsoleFlags:
		v = t.ConsoleFlags
	case TagFramebuffer:
		v = t.Framebuffer
	case TagRelocatable:
		v = t.Relocatable
	}

	if v != nil {
		if err := binary.Write(payload, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	flags := uint16(0)
	if t.Optional {
		flags = tagFlagOptional
	}

	if err := binary.Write(w, binary.LittleEndian, tagHeader{
		Type:  uint16(t.Type),
		Flags: flags,
		Size:  uint32(8 + payload.Len()),
	}); err != nil {
		return err
	}

	w.Write(payload.Bytes())

	for w.Len()%headerAlign != 0 {
		w.WriteByte(0)
	}

	return nil
}
