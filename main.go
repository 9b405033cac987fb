package main

import (
	"os"

	"github.com/tvkcanada/tvk-be/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
