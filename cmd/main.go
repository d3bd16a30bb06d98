package main

import (
	"os"

	"github.com/timothy-pham/Blockly-BE/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
