package memory

import (
	"errors"
	"fmt"
)

var (
	errAddrSpaceOccupied = errors.New("address space occupied")
	errOutsideSpace      = errors.New("address outside of the address space")
)

// AddressSpace tracks named ranges placed inside a parent range, such as
// the boot information, the command line and modules inside guest RAM.
type AddressSpace struct {
	Name      string
	Start     uint64
	Size      uint64
	Addresses []*AddressSpace
}

func NewAddressSpace(name string, start, size uint64) *AddressSpace {
	return &AddressSpace{
		Name:  name,
		Start: start,
		Size:  size,
	}
}

func (a *AddressSpace) End() uint64 {
	return a.Start + a.Size
}

func (a *AddressSpace) AddAddress(addr *AddressSpace) error {
	if !a.InRange(addr) {
		return fmt.Errorf("%s [%#x-%#x) in %s: %w", addr.Name, addr.Start, addr.End(), a.Name, errOutsideSpace)
	}

	if !a.IsFree(addr) {
		return fmt.Errorf("%s [%#x-%#x): %w", addr.Name, addr.Start, addr.End(), errAddrSpaceOccupied)
	}

	a.Addresses = append(a.Addresses, addr)

	return nil
}

// InRange reports whether addr lies entirely inside a.
func (a *AddressSpace) InRange(addr *AddressSpace) bool {
	return addr.Start >= a.Start && addr.End() <= a.End() && addr.End() >= addr.Start
}

// Overlaps reports whether a and b share at least one byte.
func (a *AddressSpace) Overlaps(b *AddressSpace) bool {
	return a.Start < b.End() && b.Start < a.End()
}

// IsFree reports whether ad overlaps none of the ranges already placed.
func (a *AddressSpace) IsFree(ad *AddressSpace) bool {
	for _, addr := range a.Addresses {
		if addr.Overlaps(ad) {
			return false
		}
	}

	return true
}
