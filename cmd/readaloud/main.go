package main

import (
	"os"

	"github.com/mhutchins/readaloud/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
