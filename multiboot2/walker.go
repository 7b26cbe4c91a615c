package multiboot2

import (
	"encoding/binary"
	"fmt"
)

// State is the walker's position in its single pass.
type State int

const (
	StateScanning State = iota
	StateTerminated
)

func (s State) String() string {
	if s == StateScanning {
		return "scanning"
	}

	return "terminated"
}

// Tag is a view of one tag. Payload aliases the walked buffer and excludes
// the 8-byte tag header and the alignment padding.
type Tag struct {
	Type    TagType
	Size    uint32
	Offset  uint64
	Payload []byte
}

// Walker iterates the tags of a boot information structure exactly once.
// Iteration is bounded by the declared total_size (clamped to the buffer),
// so a stream without an END tag cannot run past the end of memory.
type Walker struct {
	info      []byte
	declared  uint32
	end       uint64
	off       uint64
	state     State
	err       error
	visited   int
	truncated bool
}

// NewWalker prepares a walk over info, which must start at the fixed
// header (total_size, reserved).
func NewWalker(info []byte) (*Walker, error) {
	if len(info) < fixedHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortInfo, len(info))
	}

	w := &Walker{
		info:     info,
		declared: binary.LittleEndian.Uint32(info[0:4]),
		off:      fixedHeaderSize,
		state:    StateScanning,
	}

	if w.declared < fixedHeaderSize {
		return nil, fmt.Errorf("%w: total_size %d", ErrShortInfo, w.declared)
	}

	w.end = uint64(w.declared)
	if w.end > uint64(len(info)) {
		w.end = uint64(len(info))
		w.truncated = true
	}

	return w, nil
}

// Next returns the next tag. It returns false once the END tag is reached,
// the bound is exhausted or a malformed tag is found; the walker then stays
// terminated.
func (w *Walker) Next() (Tag, bool) {
	if w.state == StateTerminated {
		return Tag{}, false
	}

	if w.off+tagHeaderSize > w.end {
		w.terminate(fmt.Errorf("%w at offset %#x", ErrNoEndTag, w.off))

		return Tag{}, false
	}

	typ := TagType(binary.LittleEndian.Uint32(w.info[w.off:]))
	size := binary.LittleEndian.Uint32(w.info[w.off+4:])

	if typ == TagEnd {
		w.terminate(nil)

		return Tag{}, false
	}

	if size < tagHeaderSize || w.off+uint64(size) > w.end {
		w.terminate(fmt.Errorf("%w: type %s size %d at offset %#x", ErrMalformedTag, typ, size, w.off))

		return Tag{}, false
	}

	t := Tag{
		Type:    typ,
		Size:    size,
		Offset:  w.off,
		Payload: w.info[w.off+tagHeaderSize : w.off+uint64(size)],
	}

	w.off += alignUp(uint64(size))
	w.visited++

	return t, true
}

func (w *Walker) terminate(err error) {
	w.state = StateTerminated
	w.err = err
}

// State reports scanning or terminated.
func (w *Walker) State() State { return w.state }

// Err is non-nil when the walk ended without a well-formed END tag.
func (w *Walker) Err() error { return w.err }

// Visited is the number of tags returned by Next.
func (w *Walker) Visited() int { return w.visited }

// TotalSize is the total_size field as declared by the boot loader.
func (w *Walker) TotalSize() uint32 { return w.declared }

// Truncated reports whether total_size exceeded the supplied buffer.
func (w *Walker) Truncated() bool { return w.truncated }

// Tags collects every tag of info. The returned error is the walker's
// terminal error, if any; the tags read before it are still returned.
func Tags(info []byte) ([]Tag, error) {
	w, err := NewWalker(info)
	if err != nil {
		return nil, err
	}

	tags := []Tag{}

	for t, ok := w.Next(); ok; t, ok = w.Next() {
		tags = append(tags, t)
	}

	return tags, w.Err()
}
