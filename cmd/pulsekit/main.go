// Command pulsekit is a development companion for the pulsekit client:
// "sink" runs a local collection endpoint to point trackers at, and
// "send" fires test events against an endpoint.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set via ldflags.
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "pulsekit",
		Short:   "Development tools for the pulsekit telemetry client",
		Version: Version,
	}
	root.AddCommand(newSinkCmd())
	root.AddCommand(newSendCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
