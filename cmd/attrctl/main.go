package main

import (
	"os"

	"github.com/dukerupert/addressattr/cmd/attrctl/commands"
)

func main() {
	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
