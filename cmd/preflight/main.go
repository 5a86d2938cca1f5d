package main

import (
	"fmt"
	"os"

	"github.com/lindia/preflight/cmd/preflight/commands"
	"github.com/lindia/preflight/cmd/preflight/internal/clierr"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(clierr.ExitCodeOf(err))
	}
}
