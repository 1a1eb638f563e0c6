package main

import (
	"os"

	"github.com/miradorstack/mirador-kb/cmd/kb-engine/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
