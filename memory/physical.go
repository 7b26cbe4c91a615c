package memory

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrOutOfRange = errors.New("physical address out of range")

// Physical is a window of physical memory starting at Base. Slices handed
// out alias Buf, so data borrowed from it stays valid only as long as the
// window does.
type Physical struct {
	Base uint64
	Buf  []byte

	unmap func() error
}

func New(base uint64, buf []byte) *Physical {
	return &Physical{Base: base, Buf: buf}
}

func (p *Physical) End() uint64 {
	return p.Base + uint64(len(p.Buf))
}

// Slice returns size bytes at addr without copying.
func (p *Physical) Slice(addr, size uint64) ([]byte, error) {
	if addr < p.Base || addr > p.End() || size > p.End()-addr {
		return nil, fmt.Errorf("%w: [%#x-%#x) not in [%#x-%#x)", ErrOutOfRange, addr, addr+size, p.Base, p.End())
	}

	off := addr - p.Base

	return p.Buf[off : off+size : off+size], nil
}

// Tail returns at most size bytes at addr, stopping at the end of the window.
func (p *Physical) Tail(addr, size uint64) ([]byte, error) {
	if addr >= p.Base && addr <= p.End() && size > p.End()-addr {
		size = p.End() - addr
	}

	return p.Slice(addr, size)
}

func (p *Physical) Uint32(addr uint64) (uint32, error) {
	b, err := p.Slice(addr, 4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

// Close releases a mapping created by Map. Borrowed slices must not be
// used afterwards.
func (p *Physical) Close() error {
	if p.unmap == nil {
		return nil
	}

	err := p.unmap()
	p.unmap = nil
	p.Buf = nil

	return err
}
