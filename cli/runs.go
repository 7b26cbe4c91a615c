package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/bobuhiro11/mb2info/bootinfo"
	"github.com/bobuhiro11/mb2info/bootproto"
	"github.com/bobuhiro11/mb2info/config"
	"github.com/bobuhiro11/mb2info/device"
	"github.com/bobuhiro11/mb2info/earlylog"
	"github.com/bobuhiro11/mb2info/memory"
	"github.com/bobuhiro11/mb2info/multiboot2"
	"github.com/bobuhiro11/mb2info/probe"
	"github.com/bobuhiro11/mb2info/serial"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

var ErrHalted = errors.New("halted")

// Halt records at fatal level that the image was not started by a
// Multiboot2 loader. It does not exit: Run returns the error so deferred
// unmapping and profile writing happen before main exits non-zero.
func Halt(logger zerolog.Logger, err error) error {
	logger.WithLevel(zerolog.FatalLevel).Err(err).Msg("halting")

	return fmt.Errorf("%w: %w", ErrHalted, err)
}

func (d *DumpCMD) Run(g *Globals) error {
	logger, cfg, err := g.setup()
	if err != nil {
		return err
	}

	defaults, err := cfg.Defaults()
	if err != nil {
		return err
	}

	magic, err := parseUint("magic", d.Magic, 32)
	if err != nil {
		return err
	}

	base, err := parseUint("base", d.Base, 64)
	if err != nil {
		return err
	}

	addr, err := parseUint("addr", d.Addr, 64)
	if err != nil {
		return err
	}

	mem, err := memory.Map(d.File, base)
	if err != nil {
		return err
	}
	defer mem.Close()

	elog := earlylog.New(defaults.LogBufferSize)

	var com *serial.Serial

	if defaults.SerialEnabled {
		com = serial.New(defaults.SerialPort, g.stderr())

		bus, err := device.NewBus(com)
		if err != nil {
			return err
		}

		elog.MirrorTo(bus, defaults.SerialPort)
	}

	a := bootinfo.New(defaults, tee{elog, zlog{logger.With().Str("component", "assembler").Logger()}})

	h, err := bootinfo.Boot(uint32(magic), mem, addr, a)
	if errors.Is(err, multiboot2.ErrBadMagic) {
		return Halt(logger, err)
	}

	if err != nil {
		return err
	}

	elog.Publish(&h.BootInfo.EarlyLogBuffer)
	bootinfo.Summarize(elog, h)

	if com != nil && com.Dropped() > 0 {
		logger.Warn().Int("bytes", com.Dropped()).Msg("serial line refused boot log output")
	}

	logger.Info().
		Int("tags", a.Visited()).
		Int("anomalies", h.Anomalies).
		Str("available", humanize.IBytes(h.BootInfo.MemoryInfo.AvailableMemory*1024)).
		Msg("boot information assembled")

	if g.Verbose {
		if err := elog.Flush(g.stderr()); err != nil {
			return err
		}
	}

	return WriteReport(g.stdout(), d.Format, NewReport(h))
}

func (c *GenCMD) Run(g *Globals) error {
	logger, _, err := g.setup()
	if err != nil {
		return err
	}

	m, err := config.ParseMachine(c.Machine)
	if err != nil {
		return err
	}

	mem, addr, err := m.Build()
	if err != nil {
		return err
	}

	if err := os.WriteFile(c.Out, mem.Buf, 0o644); err != nil {
		return err
	}

	logger.Info().
		Str("out", c.Out).
		Str("size", humanize.IBytes(uint64(len(mem.Buf)))).
		Msgf("boot information written, dump with --addr %#x", addr)

	return nil
}

func (c *InspectCMD) Run(g *Globals) error {
	img, err := bootproto.New(c.Kernel)
	if err != nil {
		return err
	}

	return probe.Entry(g.stdout(), img, c.Count)
}

func (c *CPUCMD) Run(g *Globals) error {
	return probe.CPU(g.stdout())
}
