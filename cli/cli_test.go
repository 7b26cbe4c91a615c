package cli_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/bobuhiro11/mb2info/cli"
	"github.com/bobuhiro11/mb2info/multiboot2"
	"gopkg.in/yaml.v2"
)

const machine = `
cmdline = "console=ttyS0"
bootloader = "GRUB 2.06"
info_addr = "0x8000"

region {
  base = "0"
  length = "639k"
}

region {
  base = "0x100000"
  length = "255m"
}

module "components" {
  start = "0x400000"
  end = "0x410000"
}
`

func TestParseArgs(t *testing.T) {
	t.Parallel()

	c := cli.CLI{}

	parser, err := kong.New(&c)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "dump.bin")
	if err := os.WriteFile(path, []byte{0}, 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, err := parser.Parse([]string{"--log-level", "warn", "dump", "--addr", "0x8000", "--format", "yaml", path})
	if err != nil {
		t.Fatal(err)
	}

	if ctx.Command() != "dump <file>" {
		t.Errorf("command %q", ctx.Command())
	}

	if c.LogLevel != "warn" || c.Dump.Addr != "0x8000" || c.Dump.Format != "yaml" {
		t.Errorf("unexpected flags %+v", c)
	}

	if c.Dump.Magic != "0x36d76289" {
		t.Errorf("magic default %q", c.Dump.Magic)
	}
}

func TestGenThenDump(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	desc := filepath.Join(dir, "machine.hcl")
	out := filepath.Join(dir, "mem.bin")

	if err := os.WriteFile(desc, []byte(machine), 0o600); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer

	g := &cli.Globals{Stdout: &stdout, Stderr: &stderr}

	if err := (&cli.GenCMD{Machine: desc, Out: out}).Run(g); err != nil {
		t.Fatal(err)
	}

	dump := &cli.DumpCMD{File: out, Magic: "0x36d76289", Base: "0", Addr: "0x8000", Format: "yaml"}
	if err := dump.Run(g); err != nil {
		t.Fatal(err)
	}

	r := cli.Report{}
	if err := yaml.Unmarshal(stdout.Bytes(), &r); err != nil {
		t.Fatal(err)
	}

	if r.Cmdline != "console=ttyS0" || r.BootLoader != "GRUB 2.06" {
		t.Errorf("strings %q %q", r.Cmdline, r.BootLoader)
	}

	if r.Memory.AvailableKB != 639+255*1024 || len(r.Memory.Regions) != 2 {
		t.Errorf("memory %+v", r.Memory)
	}

	if r.Memory.LowerKB != 639 || r.Memory.UpperKB != 255*1024 {
		t.Errorf("basic meminfo %d %d", r.Memory.LowerKB, r.Memory.UpperKB)
	}

	if r.Archive == nil || r.Archive.Name != "components" || r.Archive.Address != "0x400000" {
		t.Errorf("archive %+v", r.Archive)
	}

	if r.Framebuffer != nil || r.ACPI != nil {
		t.Errorf("unexpected sections %+v %+v", r.Framebuffer, r.ACPI)
	}

	if r.Serial != "disabled" || r.LogBuffer != 6144 {
		t.Errorf("defaults %q %d", r.Serial, r.LogBuffer)
	}

	if r.LogIndex == 0 {
		t.Error("boot record does not reflect the summary written to the early log")
	}
}

func TestDumpHaltsOnBadMagic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	desc := filepath.Join(dir, "machine.hcl")
	out := filepath.Join(dir, "mem.bin")

	if err := os.WriteFile(desc, []byte(machine), 0o600); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer

	g := &cli.Globals{Stdout: &stdout, Stderr: &stderr}

	if err := (&cli.GenCMD{Machine: desc, Out: out}).Run(g); err != nil {
		t.Fatal(err)
	}

	dump := &cli.DumpCMD{File: out, Magic: "0x2badb002", Base: "0", Addr: "0x8000", Format: "yaml"}

	err := dump.Run(g)
	if !errors.Is(err, cli.ErrHalted) || !errors.Is(err, multiboot2.ErrBadMagic) {
		t.Fatalf("got %v, want a halt on bad magic", err)
	}

	if !strings.Contains(stderr.String(), "halting") {
		t.Errorf("halt not logged:\n%s", stderr.String())
	}

	if stdout.Len() != 0 {
		t.Errorf("report written after halt:\n%s", stdout.String())
	}
}

func TestDumpTextWithVerboseLog(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	desc := filepath.Join(dir, "machine.hcl")
	cfg := filepath.Join(dir, "mb2info.hcl")
	out := filepath.Join(dir, "mem.bin")

	if err := os.WriteFile(desc, []byte(machine), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(cfg, []byte("serial = true\nlog_level = \"error\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer

	g := &cli.Globals{Config: cfg, Verbose: true, Stdout: &stdout, Stderr: &stderr}

	if err := (&cli.GenCMD{Machine: desc, Out: out}).Run(g); err != nil {
		t.Fatal(err)
	}

	dump := &cli.DumpCMD{File: out, Magic: "0x36d76289", Base: "0", Addr: "0x8000", Format: "text"}
	if err := dump.Run(g); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(stdout.String(), "Serial:        0x3f8") {
		t.Errorf("report:\n%s", stdout.String())
	}

	// The summary reaches stderr both through the serial mirror and the flush.
	if n := strings.Count(stderr.String(), "Memory Info:"); n != 2 {
		t.Errorf("boot log printed %d times:\n%s", n, stderr.String())
	}
}
