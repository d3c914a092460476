package main

import (
	"os"

	"github.com/a3tai/mcp-dtdict/internal/cli"
)

var version = "dev" // This will be set by build flags

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
