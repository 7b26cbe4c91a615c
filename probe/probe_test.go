package probe_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/bobuhiro11/mb2info/bootproto"
	"github.com/bobuhiro11/mb2info/probe"
	"golang.org/x/arch/x86/x86asm"
)

// cli; mov $0x200000,%esp; hlt.
var entryCode = []byte{0xfa, 0xbc, 0x00, 0x00, 0x20, 0x00, 0xf4}

func image(t *testing.T, withAddress bool) *bootproto.Image {
	t.Helper()

	tags := []bootproto.Tag{{Type: bootproto.TagEntryAddress, EntryAddr: 0x100100}}
	if withAddress {
		tags = append(tags, bootproto.Tag{Type: bootproto.TagAddress, Address: &bootproto.AddressTag{
			HeaderAddr:  0x100000,
			LoadAddr:    0x100000,
			LoadEndAddr: 0x100200,
			BSSEndAddr:  0x100200,
		}})
	}

	hdr, err := bootproto.Bytes(bootproto.ArchitectureI386, tags)
	if err != nil {
		t.Fatal(err)
	}

	data := make([]byte, 0x200)
	copy(data, hdr)
	copy(data[0x100:], entryCode)

	img, err := bootproto.Parse(data)
	if err != nil {
		t.Fatal(err)
	}

	return img
}

func TestDisassemble(t *testing.T) {
	t.Parallel()

	insts, err := probe.Disassemble(image(t, true), 3)
	if err != nil {
		t.Fatal(err)
	}

	exp := []struct {
		addr uint32
		op   x86asm.Op
	}{
		{addr: 0x100100, op: x86asm.CLI},
		{addr: 0x100101, op: x86asm.MOV},
		{addr: 0x100106, op: x86asm.HLT},
	}

	if len(insts) != len(exp) {
		t.Fatalf("decoded %d instructions, want %d", len(insts), len(exp))
	}

	for i, e := range exp {
		if insts[i].Addr != e.addr || insts[i].Inst.Op != e.op {
			t.Errorf("instruction %d: %#x %s, want %#x %s", i, insts[i].Addr, insts[i].Inst.Op, e.addr, e.op)
		}
	}
}

func TestEntry(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	if err := probe.Entry(&buf, image(t, true), 2); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "00100100: cli") {
		t.Errorf("entry listing missing:\n%s", out)
	}

	if strings.Contains(out, "hlt") {
		t.Errorf("decoded past the requested count:\n%s", out)
	}
}

func TestEntryWithoutAddressTag(t *testing.T) {
	t.Parallel()

	if _, err := probe.Disassemble(image(t, false), 3); !errors.Is(err, probe.ErrNoEntry) {
		t.Errorf("got %v, want ErrNoEntry", err)
	}
}
