package acpi

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// RSDPSignature opens every Root System Description Pointer.
	RSDPSignature = "RSD PTR "

	// RSDPv1Size is the ACPI 1.0 structure, covered by Checksum.
	RSDPv1Size = 20

	// RSDPv2Size is the ACPI 2.0+ structure, covered by ExtendedChecksum.
	RSDPv2Size = 36
)

var (
	ErrShortRSDP     = errors.New("RSDP too short")
	ErrRSDPSignature = errors.New("RSDP signature mismatch")
	ErrRSDPRevision  = errors.New("RSDP revision has no extended fields")
)

// RSDP is the Root System Description Pointer as handed over by the boot
// loader. The extended fields are only set from a revision 2 table.
type RSDP struct {
	Signature   [8]byte
	Checksum    uint8
	OEMID       [6]byte
	Revision    uint8
	RSDTAddress uint32

	Length           uint32
	XSDTAddress      uint64
	ExtendedChecksum uint8
}

type rsdpV1 struct {
	Signature   [8]byte
	Checksum    uint8
	OEMID       [6]byte
	Revision    uint8
	RSDTAddress uint32
}

type rsdpExtension struct {
	Length           uint32
	XSDTAddress      uint64
	ExtendedChecksum uint8
	Reserved         [3]uint8
}

// ParseRSDPv1 decodes the ACPI 1.0 fields. They share the same offsets in
// every revision, so b may also hold a revision 2 table.
func ParseRSDPv1(b []byte) (RSDP, error) {
	if len(b) < RSDPv1Size {
		return RSDP{}, fmt.Errorf("%w: %d bytes, want %d", ErrShortRSDP, len(b), RSDPv1Size)
	}

	v1 := rsdpV1{}
	if err := binary.Read(bytes.NewReader(b[:RSDPv1Size]), binary.LittleEndian, &v1); err != nil {
		return RSDP{}, err
	}

	return RSDP{
		Signature:   v1.Signature,
		Checksum:    v1.Checksum,
		OEMID:       v1.OEMID,
		Revision:    v1.Revision,
		RSDTAddress: v1.RSDTAddress,
	}, nil
}

// ParseRSDPv2 decodes a revision 2 table after verifying its size,
// signature and revision.
func ParseRSDPv2(b []byte) (RSDP, error) {
	if len(b) < RSDPv2Size {
		return RSDP{}, fmt.Errorf("%w: %d bytes, want %d", ErrShortRSDP, len(b), RSDPv2Size)
	}

	r, err := ParseRSDPv1(b)
	if err != nil {
		return RSDP{}, err
	}

	if string(r.Signature[:]) != RSDPSignature {
		return RSDP{}, fmt.Errorf("%w: %q", ErrRSDPSignature, r.Signature[:])
	}

	if r.Revision < 2 {
		return RSDP{}, fmt.Errorf("%w: revision %d", ErrRSDPRevision, r.Revision)
	}

	ext := rsdpExtension{}
	if err := binary.Read(bytes.NewReader(b[RSDPv1Size:RSDPv2Size]), binary.LittleEndian, &ext); err != nil {
		return RSDP{}, err
	}

	r.Length = ext.Length
	r.XSDTAddress = ext.XSDTAddress
	r.ExtendedChecksum = ext.ExtendedChecksum

	return r, nil
}

// ChecksumOK reports whether the first n bytes of b sum to zero.
func ChecksumOK(b []byte, n int) bool {
	if len(b) < n {
		return false
	}

	return sum(b[:n]) == 0
}

func sum(b []byte) uint8 {
	cks := uint8(0)

	for _, v := range b {
		cks += v
	}

	return cks
}

// Extended reports whether the table carries revision 2 fields.
func (r *RSDP) Extended() bool {
	return r.Revision >= 2 && r.Length >= RSDPv2Size
}

// OEM returns the OEM id without trailing spaces or NULs.
func (r *RSDP) OEM() string {
	return string(bytes.TrimRight(r.OEMID[:], " \x00"))
}

// NewRSDP builds a table with valid checksums. revision 0 yields an ACPI
// 1.0 table, anything else a 36-byte revision 2 table.
func NewRSDP(oemID string, revision uint8, rsdt uint32, xsdt uint64) (*RSDP, error) {
	r := &RSDP{
		Revision:    revision,
		RSDTAddress: rsdt,
	}

	copy(r.Signature[:], RSDPSignature)

	for i := range r.OEMID {
		r.OEMID[i] = ' '
	}

	copy(r.OEMID[:], oemID)

	if revision >= 2 {
		r.Length = RSDPv2Size
		r.XSDTAddress = xsdt
	}

	b, err := r.Bytes()
	if err != nil {
		return r, err
	}

	r.Checksum = -sum(b[:RSDPv1Size])

	if r.Extended() {
		b, err = r.Bytes()
		if err != nil {
			return r, err
		}

		r.ExtendedChecksum = -sum(b)
	}

	return r, nil
}

// Bytes encodes the table as it appears in memory.
func (r *RSDP) Bytes() ([]byte, error) {
	buf := new(bytes.Buffer)

	if err := binary.Write(buf, binary.LittleEndian, rsdpV1{
		Signature:   r.Signature,
		Checksum:    r.Checksum,
		OEMID:       r.OEMID,
		Revision:    r.Revision,
		RSDTAddress: r.RSDTAddress,
	}); err != nil {
		return []byte{}, err
	}

	if r.Extended() {
		if err := binary.Write(buf, binary.LittleEndian, rsdpExtension{
			Length:           r.Length,
			XSDTAddress:      r.XSDTAddress,
			ExtendedChecksum: r.ExtendedChecksum,
		}); err != nil {
			return []byte{}, err
		}
	}

	return buf.Bytes(), nil
}
