package main

import (
	"os"

	"github.com/Rrens/parley/internal/cli"
)

func main() {
	if err := cli.NewApp().CreateRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
