package bootinfo

import (
	"github.com/bobuhiro11/mb2info/multiboot2"
)

const (
	glyphWidth  = 8
	glyphHeight = 16
)

// framebuffer enables the framebuffer and the console on top of it. Only
// direct RGB framebuffers are supported.
func (a *Assembler) framebuffer(bi *BootInfo, tag multiboot2.Tag) {
	fb, err := tag.Framebuffer()
	if err != nil {
		a.anomaly("framebuffer: %v", err)

		return
	}

	if fb.Type != multiboot2.FramebufferRGB {
		a.anomaly("framebuffer type %s is not supported", fb.Type)

		return
	}

	depth := fb.BPP / 8

	bi.Framebuffer = Framebuffer{
		Enabled: true,
		Addr:    fb.Addr,
		Width:   fb.Width,
		Height:  fb.Height,
		Pitch:   fb.Pitch,
		Depth:   depth,
		Size:    uint64(fb.Width) * uint64(fb.Height) * uint64(depth),
	}

	bi.Console = Console{
		CursorPos: 0,
		Line:      0,
		MaxChars:  fb.Width / glyphWidth,
		MaxLines:  fb.Height / glyphHeight,
	}
}
