package probe

import (
	"errors"
	"fmt"
	"io"

	"github.com/bobuhiro11/mb2info/bootproto"
	"golang.org/x/arch/x86/x86asm"
)

// Multiboot2 enters the kernel in 32-bit protected mode.
const entryMode = 32

var ErrNoEntry = errors.New("kernel image has no entry address mapped to the file")

// Instruction is one decoded instruction at the kernel entry point.
type Instruction struct {
	Addr uint32
	Inst x86asm.Inst
	Text string
}

// Disassemble decodes up to n instructions starting at the entry address.
// The instructions decoded before a failure are returned with the error.
func Disassemble(img *bootproto.Image, n int) ([]Instruction, error) {
	entry, off, ok := img.EntryOffset()
	if !ok {
		return nil, ErrNoEntry
	}

	insts := []Instruction{}
	pc := entry

	for i := 0; i < n && off < len(img.Data); i++ {
		d, err := x86asm.Decode(img.Data[off:], entryMode)
		if err != nil {
			return insts, fmt.Errorf("decoding at %#x:%w", pc, err)
		}

		insts = append(insts, Instruction{
			Addr: pc,
			Inst: d,
			Text: x86asm.GNUSyntax(d, uint64(pc), nil),
		})

		pc += uint32(d.Len)
		off += d.Len
	}

	return insts, nil
}

// Entry prints the header tags of img followed by n instructions at its
// entry point.
func Entry(w io.Writer, img *bootproto.Image, n int) error {
	fmt.Fprintf(w, "header at %#x, arch %d, length %d\n",
		img.Offset, img.Header.Architecture, img.Header.HeaderLength)

	for _, t := range img.Tags {
		opt := ""
		if t.Optional {
			opt = " (optional)"
		}

		fmt.Fprintf(w, "  tag %d size %d%s\n", t.Type, t.Size, opt)
	}

	insts, err := Disassemble(img, n)

	for _, in := range insts {
		fmt.Fprintf(w, "%08x: %s\n", in.Addr, in.Text)
	}

	return err
}
