package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"timesheet-engine/internal/cli"
	"timesheet-engine/internal/config"
)

func main() {
	root := cli.NewRootCommand(config.NewLoader(), newEngine)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
