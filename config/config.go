// Package config reads the HCL files that tune the assembler and describe
// synthetic machines for the gen command.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/bobuhiro11/mb2info/bootinfo"
	"github.com/bobuhiro11/mb2info/flag"
	"github.com/hashicorp/hcl"
	"github.com/imdario/mergo"
)

var ErrInvalid = errors.New("invalid configuration value")

// Config holds the build-time settings of the assembler and the logging
// level of the command line tool.
type Config struct {
	LogLevel    string `hcl:"log_level"`
	LogCapacity string `hcl:"log_capacity"`
	Serial      bool   `hcl:"serial"`
	SerialPort  int    `hcl:"serial_port"`
	Headless    bool   `hcl:"headless"`
	KBMode      string `hcl:"kb_mode"`
}

func Default() *Config {
	return &Config{
		LogLevel:    "info",
		LogCapacity: "6k",
		SerialPort:  0x3f8,
		KBMode:      bootinfo.KBExact.String(),
	}
}

// Parse reads filename and fills unset values from Default. An empty
// filename yields the defaults.
func Parse(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}

	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot read configuration file: %w", err)
	}

	return Decode(content)
}

func Decode(content []byte) (*Config, error) {
	c := &Config{}
	if err := hcl.Unmarshal(content, c); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := mergo.Merge(c, Default()); err != nil {
		return nil, fmt.Errorf("cannot apply default configuration value: %w", err)
	}

	return c, nil
}

// Defaults converts c into the settings applied before the tag walk.
func (c *Config) Defaults() (bootinfo.Defaults, error) {
	d := bootinfo.BuildDefaults()

	size, err := flag.ParseSize(c.LogCapacity, "")
	if err != nil {
		return d, fmt.Errorf("log_capacity: %w", err)
	}

	if size <= 0 || size > 0xffff {
		return d, fmt.Errorf("%w: log_capacity %d out of [1, 65535]", ErrInvalid, size)
	}

	if c.SerialPort <= 0 || c.SerialPort > 0xffff {
		return d, fmt.Errorf("%w: serial_port %#x", ErrInvalid, c.SerialPort)
	}

	switch c.KBMode {
	case bootinfo.KBExact.String():
		d.KBMode = bootinfo.KBExact
	case bootinfo.KBLegacySplit.String():
		d.KBMode = bootinfo.KBLegacySplit
	default:
		return d, fmt.Errorf("%w: kb_mode %q", ErrInvalid, c.KBMode)
	}

	d.LogBufferSize = uint16(size)
	d.SerialEnabled = c.Serial
	d.SerialPort = uint16(c.SerialPort)
	d.Headless = c.Headless

	return d, nil
}
