// Package main provides the npdoc2json command.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/example/npdoc2json/internal/cli"
)

// Set at build time with -ldflags "-X main.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

func main() {
	if err := cli.Execute(context.Background(), versionString()); err != nil {
		os.Exit(1)
	}
}
