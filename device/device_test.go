package device_test

import (
	"bytes"
	"testing"

	"github.com/bobuhiro11/mb2info/device"
	"github.com/bobuhiro11/mb2info/earlylog"
	"github.com/bobuhiro11/mb2info/serial"
)

func TestBusRoutesToSerial(t *testing.T) {
	t.Parallel()

	var com1, com2 bytes.Buffer

	bus, err := device.NewBus(serial.New(serial.COM1Addr, &com1), serial.New(0x2f8, &com2))
	if err != nil {
		t.Fatal(err)
	}

	l := earlylog.New(64)
	l.MirrorTo(bus, 0x2f8)
	l.Logf("hello %d\n", 2)

	if com2.String() != "hello 2\n" || com1.Len() != 0 {
		t.Errorf("com1 %q com2 %q", com1.String(), com2.String())
	}

	if v := bus.InB(0x80); v != 0xff {
		t.Errorf("unclaimed port read %#x", v)
	}

	bus.OutB(0x80, 1)
}

func TestBusOverlap(t *testing.T) {
	t.Parallel()

	if _, err := device.NewBus(serial.New(0x3f8, nil), serial.New(0x3fc, nil)); err == nil {
		t.Error("overlapping devices attached")
	}

	bus, err := device.NewBus()
	if err != nil {
		t.Fatal(err)
	}

	if err := bus.Write(0x3f8, []byte{1, 2}); err == nil {
		t.Error("two-byte access accepted")
	}
}
