package main

import (
	"fmt"
	"os"

	"github.com/bobuhiro11/mb2info/cli"
)

func main() {
	if err := cli.Parse(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
