// Package main is the entry point for the corpusmill CLI.
package main

import (
	"os"

	"github.com/corpusmill/corpusmill/cmd/corpusmill/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
