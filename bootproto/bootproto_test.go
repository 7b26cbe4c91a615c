package bootproto_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/bobuhiro11/mb2info/bootproto"
)

func kernel(t *testing.T, at int, tags []bootproto.Tag) []byte {
	t.Helper()

	hdr, err := bootproto.Bytes(bootproto.ArchitectureI386, tags)
	if err != nil {
		t.Fatal(err)
	}

	img := make([]byte, 0x2000)
	copy(img[at:], hdr)

	return img
}

func TestParse(t *testing.T) {
	t.Parallel()

	tags := []bootproto.Tag{
		{Type: bootproto.TagInformationRequest, Requests: []uint32{1, 6, 8, 14}},
		{Type: bootproto.TagAddress, Address: &bootproto.AddressTag{
			HeaderAddr:  0x100040,
			LoadAddr:    0x100000,
			LoadEndAddr: 0x102000,
			BSSEndAddr:  0x104000,
		}},
		{Type: bootproto.TagEntryAddress, EntryAddr: 0x101000},
		{Type: bootproto.TagFramebuffer, Optional: true, Framebuffer: &bootproto.FramebufferTag{
			Width: 1024, Height: 768, Depth: 32,
		}},
	}

	img, err := bootproto.Parse(kernel(t, 0x40, tags))
	if err != nil {
		t.Fatal(err)
	}

	if img.Offset != 0x40 {
		t.Errorf("header at %#x, want 0x40", img.Offset)
	}

	if len(img.Tags) != len(tags) {
		t.Fatalf("%d tags, want %d", len(img.Tags), len(tags))
	}

	if r := img.Tags[0].Requests; len(r) != 4 || r[3] != 14 {
		t.Errorf("requests %v", r)
	}

	if fb := img.Tags[3]; !fb.Optional || fb.Framebuffer.Width != 1024 {
		t.Errorf("framebuffer tag %+v", fb)
	}

	entry, off, ok := img.EntryOffset()
	if !ok || entry != 0x101000 || off != 0x1000 {
		t.Errorf("entry %#x at offset %#x (%t)", entry, off, ok)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	if _, err := bootproto.Parse(make([]byte, 0x1000)); !errors.Is(err, bootproto.ErrorHeaderNotFound) {
		t.Errorf("got %v, want ErrorHeaderNotFound", err)
	}

	img := kernel(t, 0x10, nil)
	img[0x10+12]++

	if _, err := bootproto.Parse(img); !errors.Is(err, bootproto.ErrorChecksum) {
		t.Errorf("got %v, want ErrorChecksum", err)
	}

	unaligned := make([]byte, 0x1000)
	copy(unaligned[0x14:], kernel(t, 0, nil)[:24])

	if _, err := bootproto.Parse(unaligned); !errors.Is(err, bootproto.ErrorHeaderNotFound) {
		t.Errorf("unaligned header accepted: %v", err)
	}
}

func TestEntryOffsetWithoutAddressTag(t *testing.T) {
	t.Parallel()

	img, err := bootproto.Parse(kernel(t, 0, []bootproto.Tag{
		{Type: bootproto.TagEntryAddress, EntryAddr: 0x101000},
	}))
	if err != nil {
		t.Fatal(err)
	}

	if _, _, ok := img.EntryOffset(); ok {
		t.Error("entry offset resolved without an address tag")
	}
}

func TestParseSkipsStrayMagic(t *testing.T) {
	t.Parallel()

	hdr, err := bootproto.Bytes(bootproto.ArchitectureI386, nil)
	if err != nil {
		t.Fatal(err)
	}

	data := make([]byte, 0x1000)
	binary.LittleEndian.PutUint32(data[0x100:], bootproto.HeaderMagic)
	copy(data[0x800:], hdr)

	img, err := bootproto.Parse(data)
	if err != nil {
		t.Fatalf("valid header at 0x800 not found: %v", err)
	}

	if img.Offset != 0x800 {
		t.Errorf("header at %#x, want 0x800", img.Offset)
	}
}

func TestParseHeaderBeyondSearchLimit(t *testing.T) {
	t.Parallel()

	hdr, err := bootproto.Bytes(bootproto.ArchitectureI386, []bootproto.Tag{
		{Type: bootproto.TagInformationRequest, Requests: []uint32{1, 6}},
	})
	if err != nil {
		t.Fatal(err)
	}

	// The magic sits inside the first 32 KiB but the tags run past it.
	data := make([]byte, 0x9000)
	copy(data[0x8000-16:], hdr)

	if _, err := bootproto.Parse(data); !errors.Is(err, bootproto.ErrorMalformedTag) {
		t.Errorf("got %v, want ErrorMalformedTag", err)
	}
}
