package bootinfo

import (
	"github.com/bobuhiro11/mb2info/multiboot2"
)

// cmdline borrows the command line; it is not copied.
func (a *Assembler) cmdline(bi *BootInfo, tag multiboot2.Tag) {
	s, err := tag.Text()
	if err != nil {
		a.anomaly("cmdline: %v", err)

		return
	}

	bi.Params = s
}

func (a *Assembler) bootLoaderName(bi *BootInfo, tag multiboot2.Tag) {
	s, err := tag.Text()
	if err != nil {
		a.anomaly("boot loader name: %v", err)

		return
	}

	bi.BootLoaderName = s
}
