// Command billvault runs the billvault API server and its admin commands.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// version is overridden at build time: -ldflags "-X main.version=v1.2.3".
var version = "dev"

func newApp() *cli.Command {
	return &cli.Command{
		Name:     "billvault",
		Usage:    "Envelope encryption, secure artifact storage and credential guard",
		Version:  version,
		Commands: getCommands(version),
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "billvault: %v\n", err)
		os.Exit(1)
	}
}
