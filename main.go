package main

import (
	"os"

	"github.com/mxtools/userlib-cleanup/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		// Exit with error code 1 if command execution fails
		os.Exit(1)
	}
}
