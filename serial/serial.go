package serial

import (
	"errors"
	"fmt"
	"io"
)

const (
	COM1Addr = 0x03f8

	lsrTHREmpty = 0x20
	lsrTEMT     = 0x40

	// transmitSpins bounds the wait for an empty holding register.
	transmitSpins = 1 << 16
)

var errPortRange = errors.New("port outside of the UART register window")

// PortIO is byte-wide port access, the only primitive the boot-time
// logger needs to reach a serial line.
type PortIO interface {
	InB(port uint16) byte
	OutB(port uint16, b byte)
}

// Serial models a 16550 UART at Base. Bytes written to the transmit
// holding register are forwarded to out.
type Serial struct {
	Base uint16

	IER byte
	LCR byte
	MCR byte
	DLL byte
	DLM byte

	out     io.Writer
	dropped int
}

func New(base uint16, out io.Writer) *Serial {
	if out == nil {
		out = io.Discard
	}

	return &Serial{
		Base: base,
		DLL:  0xc, // baud rate 9600
		out:  out,
	}
}

// Dropped counts transmitted bytes the output writer refused.
func (s *Serial) Dropped() int {
	return s.dropped
}

func (s *Serial) dlab() bool {
	return s.LCR&0x80 != 0
}

func (s *Serial) offset(port uint64) (uint64, error) {
	if port < uint64(s.Base) || port > uint64(s.Base)+7 {
		return 0, fmt.Errorf("%w: %#x", errPortRange, port)
	}

	return port - uint64(s.Base), nil
}

func (s *Serial) In(port uint64, values []byte) error {
	port, err := s.offset(port)
	if err != nil {
		return err
	}

	switch {
	case port == 0 && !s.dlab():
		// RBR, nothing is ever received.
		values[0] = 0
	case port == 0 && s.dlab():
		// DLL
		values[0] = s.DLL
	case port == 1 && !s.dlab():
		// IER
		values[0] = s.IER
	case port == 1 && s.dlab():
		// DLM
		values[0] = s.DLM
	case port == 2:
		// IIR, no interrupt pending
		values[0] = 0x1
	case port == 3:
		values[0] = s.LCR
	case port == 4:
		values[0] = s.MCR
	case port == 5:
		// LSR, the holding register drains immediately.
		values[0] = lsrTHREmpty | lsrTEMT
	default:
		values[0] = 0
	}

	return nil
}

func (s *Serial) Out(port uint64, values []byte) error {
	port, err := s.offset(port)
	if err != nil {
		return err
	}

	switch {
	case port == 0 && !s.dlab():
		// THR
		if _, err := s.out.Write(values[:1]); err != nil {
			s.dropped++
		}
	case port == 0 && s.dlab():
		s.DLL = values[0]
	case port == 1 && !s.dlab():
		s.IER = values[0]
	case port == 1 && s.dlab():
		s.DLM = values[0]
	case port == 3:
		s.LCR = values[0]
	case port == 4:
		s.MCR = values[0]
	}

	return nil
}

// InB reads one register. Ports outside the window read as 0xff, like an
// unpopulated ISA port.
func (s *Serial) InB(port uint16) byte {
	v := []byte{0}
	if err := s.In(uint64(port), v); err != nil {
		return 0xff
	}

	return v[0]
}

// OutB writes one register. Writes outside the window are ignored.
func (s *Serial) OutB(port uint16, b byte) {
	_ = s.Out(uint64(port), []byte{b})
}

// Transmit sends b through the UART at base once its holding register is
// empty. It gives up silently when the line never drains.
func Transmit(p PortIO, base uint16, b byte) bool {
	for i := 0; i < transmitSpins; i++ {
		if p.InB(base+5)&lsrTHREmpty != 0 {
			p.OutB(base, b)

			return true
		}
	}

	return false
}

func (s *Serial) Read(port uint64, data []byte) error {
	return s.In(port, data)
}

func (s *Serial) Write(port uint64, data []byte) error {
	return s.Out(port, data)
}

func (s *Serial) IOPort() uint64 {
	return uint64(s.Base)
}

func (s *Serial) Size() uint64 {
	return 0x8
}
