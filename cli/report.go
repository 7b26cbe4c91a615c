package cli

import (
	"fmt"
	"io"

	"github.com/bobuhiro11/mb2info/bootinfo"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v2"
)

type RegionReport struct {
	Base   string `yaml:"base"`
	Length string `yaml:"length"`
	Type   string `yaml:"type"`
}

type MemoryReport struct {
	TotalKB     uint64         `yaml:"total_kb"`
	AvailableKB uint64         `yaml:"available_kb"`
	ReservedKB  uint64         `yaml:"reserved_kb"`
	LowerKB     uint32         `yaml:"lower_kb"`
	UpperKB     uint32         `yaml:"upper_kb"`
	Dropped     int            `yaml:"dropped,omitempty"`
	Regions     []RegionReport `yaml:"regions"`
}

type FramebufferReport struct {
	Addr     string `yaml:"addr"`
	Width    uint32 `yaml:"width"`
	Height   uint32 `yaml:"height"`
	Pitch    uint32 `yaml:"pitch"`
	Depth    uint8  `yaml:"depth"`
	Size     string `yaml:"size"`
	MaxChars uint32 `yaml:"max_chars"`
	MaxLines uint32 `yaml:"max_lines"`
}

type ArchiveReport struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Size    string `yaml:"size"`
}

type ACPIReport struct {
	Source        string `yaml:"source"`
	OEM           string `yaml:"oem"`
	Revision      uint8  `yaml:"revision"`
	RSDT          string `yaml:"rsdt"`
	XSDT          string `yaml:"xsdt,omitempty"`
	ChecksumValid bool   `yaml:"checksum_valid"`
}

// Report is the printable form of a handoff. Borrowed strings are copied.
type Report struct {
	Cmdline     string             `yaml:"cmdline"`
	BootLoader  string             `yaml:"bootloader"`
	Headless    bool               `yaml:"headless"`
	Serial      string             `yaml:"serial"`
	LogBuffer   uint16             `yaml:"log_buffer"`
	LogIndex    uint16             `yaml:"log_index"`
	Memory      MemoryReport       `yaml:"memory"`
	Framebuffer *FramebufferReport `yaml:"framebuffer,omitempty"`
	Archive     *ArchiveReport     `yaml:"archive,omitempty"`
	ACPI        *ACPIReport        `yaml:"acpi,omitempty"`
	Anomalies   int                `yaml:"anomalies"`
}

func NewReport(h *bootinfo.Handoff) Report {
	bi := h.BootInfo
	mi := &bi.MemoryInfo

	r := Report{
		Cmdline:    string(bi.Params),
		BootLoader: string(bi.BootLoaderName),
		Headless:   bi.Config.Headless,
		Serial:     "disabled",
		LogBuffer:  bi.EarlyLogBuffer.Size,
		LogIndex:   bi.EarlyLogBuffer.Index,
		Memory: MemoryReport{
			TotalKB:     mi.TotalPhysicalMemory,
			AvailableKB: mi.AvailableMemory,
			ReservedKB:  mi.ReservedMemory(),
			LowerKB:     mi.LowerKB,
			UpperKB:     mi.UpperKB,
			Dropped:     mi.Dropped,
			Regions:     []RegionReport{},
		},
		Anomalies: h.Anomalies,
	}

	if bi.Serial.Enabled {
		r.Serial = fmt.Sprintf("%#x", bi.Serial.Port)
	}

	for _, reg := range mi.Regions() {
		r.Memory.Regions = append(r.Memory.Regions, RegionReport{
			Base:   fmt.Sprintf("%#x", reg.BaseAddress),
			Length: humanize.IBytes(reg.Length * 1024),
			Type:   reg.Type.String(),
		})
	}

	if fb := bi.Framebuffer; fb.Enabled {
		r.Framebuffer = &FramebufferReport{
			Addr:     fmt.Sprintf("%#x", fb.Addr),
			Width:    fb.Width,
			Height:   fb.Height,
			Pitch:    fb.Pitch,
			Depth:    fb.Depth,
			Size:     humanize.IBytes(fb.Size),
			MaxChars: bi.Console.MaxChars,
			MaxLines: bi.Console.MaxLines,
		}
	}

	if ar := h.Archive; ar.Present {
		r.Archive = &ArchiveReport{
			Name:    string(ar.String),
			Address: fmt.Sprintf("%#x", ar.Address),
			Size:    humanize.IBytes(ar.Size),
		}
	}

	if a := h.Arch.ACPI; a.Source != bootinfo.ACPINone {
		r.ACPI = &ACPIReport{
			Source:        a.Source.String(),
			OEM:           a.RSDP.OEM(),
			Revision:      a.RSDP.Revision,
			RSDT:          fmt.Sprintf("%#x", a.RSDP.RSDTAddress),
			ChecksumValid: a.ChecksumValid,
		}

		if a.RSDP.Extended() {
			r.ACPI.XSDT = fmt.Sprintf("%#x", a.RSDP.XSDTAddress)
		}
	}

	return r
}

// WriteReport prints r as "text" or "yaml".
func WriteReport(w io.Writer, format string, r Report) error {
	if format == "yaml" {
		b, err := yaml.Marshal(r)
		if err != nil {
			return err
		}

		_, err = w.Write(b)

		return err
	}

	fmt.Fprintf(w, "Command line:  %s\n", r.Cmdline)
	fmt.Fprintf(w, "Boot loader:   %s\n", r.BootLoader)
	fmt.Fprintf(w, "Serial:        %s\n", r.Serial)
	fmt.Fprintf(w, "Memory:        %s total, %s available, %s reserved\n",
		humanize.IBytes(r.Memory.TotalKB*1024),
		humanize.IBytes(r.Memory.AvailableKB*1024),
		humanize.IBytes(r.Memory.ReservedKB*1024))

	for _, reg := range r.Memory.Regions {
		fmt.Fprintf(w, "  %18s %10s %s\n", reg.Base, reg.Length, reg.Type)
	}

	if r.Memory.Dropped > 0 {
		fmt.Fprintf(w, "  (%d regions dropped)\n", r.Memory.Dropped)
	}

	if fb := r.Framebuffer; fb != nil {
		fmt.Fprintf(w, "Framebuffer:   %dx%d at %s, %s, console %dx%d\n",
			fb.Width, fb.Height, fb.Addr, fb.Size, fb.MaxChars, fb.MaxLines)
	}

	if ar := r.Archive; ar != nil {
		fmt.Fprintf(w, "Archive:       %s at %s, %s\n", ar.Name, ar.Address, ar.Size)
	}

	if a := r.ACPI; a != nil {
		fmt.Fprintf(w, "ACPI:          %s %s rev %d rsdt %s checksum %t\n",
			a.Source, a.OEM, a.Revision, a.RSDT, a.ChecksumValid)
	}

	_, err := fmt.Fprintf(w, "Anomalies:     %d\n", r.Anomalies)

	return err
}
