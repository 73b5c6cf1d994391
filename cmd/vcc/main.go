package main

import (
	"os"

	"github.com/simonhull/vcc/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
