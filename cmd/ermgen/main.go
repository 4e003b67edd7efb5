// Command ermgen generates erm components from a schema file.
package main

import (
	"os"

	"github.com/syssam/erm/cmd/ermgen/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
