package main

import (
	"fmt"
	"os"

	"wedding-rsvp/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(cli.GetExitCode(err))
	}
}
