package main

import (
	"os"

	"github.com/streamq-io/streamq/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
