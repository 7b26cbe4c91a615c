// Package earlylog is the logging sink available before any allocator or
// scheduler: a fixed ring of bytes, optionally mirrored to a serial port.
package earlylog

import (
	"fmt"
	"io"

	"github.com/bobuhiro11/mb2info/bootinfo"
	"github.com/bobuhiro11/mb2info/serial"
)

// DefaultSize matches the log buffer reserved in the boot record.
const DefaultSize = 6144

// Buffer is a bounded ring. Logf never fails: a message longer than the
// ring keeps only its head, and older bytes are overwritten on wrap.
type Buffer struct {
	Size           uint16
	Index          uint16
	LastFlushIndex uint16

	buf       []byte
	wrapped   bool
	unflushed int

	port     serial.PortIO
	portBase uint16

	desc *bootinfo.EarlyLogBuffer
}

func New(size uint16) *Buffer {
	return &Buffer{
		Size: size,
		buf:  make([]byte, size),
	}
}

// Publish keeps d in step with the ring's size, write and flush positions.
func (b *Buffer) Publish(d *bootinfo.EarlyLogBuffer) {
	b.desc = d
	b.sync()
}

func (b *Buffer) sync() {
	if b.desc == nil {
		return
	}

	b.desc.Size = b.Size
	b.desc.Index = b.Index
	b.desc.LastFlushIndex = b.LastFlushIndex
}

// MirrorTo copies every logged byte to the UART at base.
func (b *Buffer) MirrorTo(p serial.PortIO, base uint16) {
	b.port = p
	b.portBase = base
}

func (b *Buffer) Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	if b.port != nil {
		for i := 0; i < len(msg); i++ {
			serial.Transmit(b.port, b.portBase, msg[i])
		}
	}

	if b.Size == 0 {
		return
	}

	if len(msg) > int(b.Size) {
		msg = msg[:b.Size]
	}

	for i := 0; i < len(msg); i++ {
		b.buf[b.Index] = msg[i]
		b.Index++

		if b.Index == b.Size {
			b.Index = 0
			b.wrapped = true
		}
	}

	b.unflushed += len(msg)
	if b.unflushed > int(b.Size) {
		b.unflushed = int(b.Size)
	}

	b.sync()
}

// Bytes returns the retained log, oldest byte first.
func (b *Buffer) Bytes() []byte {
	if !b.wrapped {
		return append([]byte{}, b.buf[:b.Index]...)
	}

	out := make([]byte, 0, len(b.buf))
	out = append(out, b.buf[b.Index:]...)

	return append(out, b.buf[:b.Index]...)
}

// Flush writes what was logged since the previous flush.
func (b *Buffer) Flush(w io.Writer) error {
	if b.unflushed == 0 {
		return nil
	}

	start := (int(b.Index) - b.unflushed + int(b.Size)) % int(b.Size)

	var err error
	if start < int(b.Index) {
		_, err = w.Write(b.buf[start:b.Index])
	} else {
		if _, err = w.Write(b.buf[start:]); err == nil {
			_, err = w.Write(b.buf[:b.Index])
		}
	}

	if err != nil {
		return fmt.Errorf("flush early log: %w", err)
	}

	b.unflushed = 0
	b.LastFlushIndex = b.Index
	b.sync()

	return nil
}
