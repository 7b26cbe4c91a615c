// Package cli is the mb2info command line.
package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/bobuhiro11/mb2info/bootinfo"
	"github.com/bobuhiro11/mb2info/config"
	"github.com/pkg/profile"
	"github.com/rs/zerolog"
)

type Globals struct {
	Config   string `help:"HCL file with assembler settings." type:"path"`
	LogLevel string `help:"Log level, overrides the configuration file." name:"log-level"`
	Verbose  bool   `help:"Copy the early boot log to stderr." short:"v"`
	Profile  string `help:"Write a cpu or mem profile to the working directory." enum:"none,cpu,mem" default:"none"`

	Stdout io.Writer `kong:"-"`
	Stderr io.Writer `kong:"-"`
}

type CLI struct {
	Globals

	Dump    DumpCMD    `cmd:"" help:"Assemble the boot record from a memory image."`
	Gen     GenCMD     `cmd:"" help:"Write a memory image from a machine description."`
	Inspect InspectCMD `cmd:"" help:"Show the Multiboot2 header and entry code of a kernel."`
	CPU     CPUCMD     `cmd:"" name:"cpu" help:"Show the CPU vendor and features."`
}

type DumpCMD struct {
	File   string `arg:"" type:"existingfile" help:"Memory image holding the boot information."`
	Magic  string `help:"Value the boot loader left in EAX." default:"0x36d76289"`
	Base   string `help:"Physical address of the first byte of the image." default:"0"`
	Addr   string `help:"Physical address of the boot information." default:"0"`
	Format string `help:"Report format." enum:"text,yaml" default:"text"`
}

type GenCMD struct {
	Machine string `arg:"" type:"existingfile" help:"HCL machine description."`
	Out     string `arg:"" type:"path" help:"Memory image to write."`
}

type InspectCMD struct {
	Kernel string `arg:"" type:"existingfile" help:"Kernel image."`
	Count  int    `help:"Instructions to decode at the entry point." short:"n" default:"16"`
}

type CPUCMD struct{}

func Parse() error {
	c := CLI{}

	programName := "mb2info"
	programDesc := "mb2info assembles and inspects Multiboot2 boot information"

	ctx := kong.Parse(&c,
		kong.Name(programName),
		kong.Description(programDesc),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	switch c.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	}

	return ctx.Run(&c.Globals)
}

func (g *Globals) stdout() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}

	return g.Stdout
}

func (g *Globals) stderr() io.Writer {
	if g.Stderr == nil {
		return os.Stderr
	}

	return g.Stderr
}

// setup loads the configuration and builds the console logger.
func (g *Globals) setup() (zerolog.Logger, *config.Config, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: g.stderr()}).With().Timestamp().Logger()

	cfg, err := config.Parse(g.Config)
	if err != nil {
		return logger, nil, err
	}

	level := cfg.LogLevel
	if g.LogLevel != "" {
		level = g.LogLevel
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return logger, nil, fmt.Errorf("log level %q: %w", level, err)
	}

	return logger.Level(lvl), cfg, nil
}

func parseUint(name, s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", name, err)
	}

	return v, nil
}

// zlog forwards boot log lines to a zerolog logger at debug level.
type zlog struct {
	zerolog.Logger
}

func (l zlog) Logf(format string, args ...interface{}) {
	l.Debug().Msg(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

// tee sends every line to all loggers.
type tee []bootinfo.Logger

func (t tee) Logf(format string, args ...interface{}) {
	for _, l := range t {
		l.Logf(format, args...)
	}
}
