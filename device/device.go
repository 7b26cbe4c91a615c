// Package device routes byte-wide I/O port accesses to the devices that
// decode them.
package device

import (
	"errors"
	"fmt"

	"github.com/bobuhiro11/mb2info/memory"
)

var (
	errDataLenInvalid = errors.New("invalid data size on port")
	errNoDevice       = errors.New("no device on port")
)

// IODevice describes the interface a IO-Port device must implement regardless of the
// bus it is attached to.
type IODevice interface {
	Read(uint64, []byte) error
	Write(uint64, []byte) error
	IOPort() uint64
	Size() uint64
}

// Bus is the 64 KiB x86 I/O port space.
type Bus struct {
	ports   *memory.AddressSpace
	devices []IODevice
}

func NewBus(devs ...IODevice) (*Bus, error) {
	b := &Bus{ports: memory.NewAddressSpace("io", 0, 0x10000)}

	for _, d := range devs {
		if err := b.Attach(d); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// Attach adds d unless its window overlaps an attached device.
func (b *Bus) Attach(d IODevice) error {
	name := fmt.Sprintf("%T", d)
	if err := b.ports.AddAddress(memory.NewAddressSpace(name, d.IOPort(), d.Size())); err != nil {
		return err
	}

	b.devices = append(b.devices, d)

	return nil
}

func (b *Bus) find(port uint64) IODevice {
	for _, d := range b.devices {
		if port >= d.IOPort() && port < d.IOPort()+d.Size() {
			return d
		}
	}

	return nil
}

func (b *Bus) Read(port uint64, data []byte) error {
	if len(data) != 1 {
		return errDataLenInvalid
	}

	d := b.find(port)
	if d == nil {
		return fmt.Errorf("%w: %#x", errNoDevice, port)
	}

	return d.Read(port, data)
}

func (b *Bus) Write(port uint64, data []byte) error {
	if len(data) != 1 {
		return errDataLenInvalid
	}

	d := b.find(port)
	if d == nil {
		return fmt.Errorf("%w: %#x", errNoDevice, port)
	}

	return d.Write(port, data)
}

// InB reads one byte. Unclaimed ports float high.
func (b *Bus) InB(port uint16) byte {
	v := []byte{0}
	if err := b.Read(uint64(port), v); err != nil {
		return 0xff
	}

	return v[0]
}

// OutB writes one byte. Writes to unclaimed ports are lost.
func (b *Bus) OutB(port uint16, v byte) {
	_ = b.Write(uint64(port), []byte{v})
}
