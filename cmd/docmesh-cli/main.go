// Package main provides the entry point for docmesh-cli, the command-line
// tool for storing, listing, fetching and deleting documents on a docmesh
// node.
package main

import (
	"os"

	"github.com/yndnr/docmesh-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		command.PrintError("%v", err)
		os.Exit(1)
	}
}
