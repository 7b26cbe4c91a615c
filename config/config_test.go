package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bobuhiro11/mb2info/bootinfo"
	"github.com/bobuhiro11/mb2info/config"
	"github.com/bobuhiro11/mb2info/memory"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	c, err := config.Parse("")
	if err != nil {
		t.Fatal(err)
	}

	d, err := c.Defaults()
	if err != nil {
		t.Fatal(err)
	}

	if d != bootinfo.BuildDefaults() {
		t.Errorf("got %+v, want %+v", d, bootinfo.BuildDefaults())
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mb2info.hcl")
	content := `
log_level = "debug"
log_capacity = "4k"
serial = true
serial_port = 760
kb_mode = "legacy"
`

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := config.Parse(path)
	if err != nil {
		t.Fatal(err)
	}

	if c.LogLevel != "debug" {
		t.Errorf("log level %q", c.LogLevel)
	}

	d, err := c.Defaults()
	if err != nil {
		t.Fatal(err)
	}

	exp := bootinfo.Defaults{
		LogBufferSize: 4096,
		SerialEnabled: true,
		SerialPort:    0x2f8,
		KBMode:        bootinfo.KBLegacySplit,
	}

	if d != exp {
		t.Errorf("got %+v, want %+v", d, exp)
	}
}

func TestDefaultsInvalid(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name    string
		content string
	}{
		{name: "KBMode", content: `kb_mode = "rounded"`},
		{name: "LogCapacity", content: `log_capacity = "1m"`},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := config.Decode([]byte(tt.content))
			if err != nil {
				t.Fatal(err)
			}

			if _, err := c.Defaults(); !errors.Is(err, config.ErrInvalid) {
				t.Errorf("got %v, want ErrInvalid", err)
			}
		})
	}
}

const machine = `
cmdline = "console=ttyS0"
bootloader = "GRUB 2.06"

region {
  base = "0"
  length = "639k"
  type = "available"
}

region {
  base = "0x9fc00"
  length = "1k"
  type = "reserved"
}

region {
  base = "0x100000"
  length = "127m"
  type = "available"
}

framebuffer {
  addr = "0xfd000000"
  width = 1024
  height = 768
  bpp = 32
}

module "archive.tar" {
  start = "0x200000"
  end = "0x240000"
}

acpi {
  oem = "BOCHS"
  revision = 2
  rsdt = "0x7fe0000"
  xsdt = "0x7fe1000"
}
`

func TestMachineBoots(t *testing.T) {
	t.Parallel()

	m, err := config.DecodeMachine([]byte(machine))
	if err != nil {
		t.Fatal(err)
	}

	if m.InfoAddr != "0x10000" || m.EntrySize != 24 {
		t.Errorf("defaults not applied: %+v", m)
	}

	mem, addr, err := m.Build()
	if err != nil {
		t.Fatal(err)
	}

	if addr != config.DefaultInfoAddr {
		t.Errorf("info at %#x", addr)
	}

	h, err := bootinfo.Boot(0x36d76289, mem, addr, bootinfo.New(bootinfo.BuildDefaults(), nil))
	if err != nil {
		t.Fatal(err)
	}

	bi := h.BootInfo

	if string(bi.Params) != "console=ttyS0" || string(bi.BootLoaderName) != "GRUB 2.06" {
		t.Errorf("strings %q %q", bi.Params, bi.BootLoaderName)
	}

	if bi.MemoryInfo.Count != 3 {
		t.Errorf("%d regions", bi.MemoryInfo.Count)
	}

	if bi.MemoryInfo.AvailableMemory != 639+127*1024 {
		t.Errorf("available %d KB", bi.MemoryInfo.AvailableMemory)
	}

	if bi.Framebuffer.Width != 1024 || bi.Framebuffer.Pitch != 4096 {
		t.Errorf("framebuffer %+v", bi.Framebuffer)
	}

	if !h.Archive.Present || h.Archive.Address != 0x200000 || h.Archive.Size != 0x40000 {
		t.Errorf("archive %+v", h.Archive)
	}

	if h.Arch.ACPI.Source != bootinfo.ACPINew || !h.Arch.ACPI.ChecksumValid {
		t.Errorf("acpi %+v", h.Arch.ACPI)
	}

	if h.Anomalies != 0 {
		t.Errorf("%d anomalies", h.Anomalies)
	}
}

func TestMachineOverlap(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name    string
		content string
	}{
		{
			name: "Regions",
			content: `
region {
  base = "0x100000"
  length = "2m"
}
region {
  base = "0x200000"
  length = "1m"
}`,
		},
		{
			name: "ModuleOverInfo",
			content: `
module "initrd" {
  start = "0x10000"
  end = "0x20000"
}`,
		},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := config.DecodeMachine([]byte(tt.content))
			if err != nil {
				t.Fatal(err)
			}

			if _, _, err := m.Build(); err == nil {
				t.Error("overlapping ranges accepted")
			}
		})
	}
}

func TestMachineWritesDump(t *testing.T) {
	t.Parallel()

	m, err := config.DecodeMachine([]byte(`cmdline = "quiet"`))
	if err != nil {
		t.Fatal(err)
	}

	mem, addr, err := m.Build()
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "dump.bin")
	if err := os.WriteFile(path, mem.Buf, 0o600); err != nil {
		t.Fatal(err)
	}

	mapped, err := memory.Map(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer mapped.Close()

	total, err := mapped.Uint32(addr)
	if err != nil {
		t.Fatal(err)
	}

	if uint64(total) != mapped.End()-addr {
		t.Errorf("total_size %d, image tail %d", total, mapped.End()-addr)
	}
}
