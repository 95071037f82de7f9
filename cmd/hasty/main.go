package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hasty",
		Short: "A minimal HTTP/1.1 server toolkit",
		Long: `Hasty serves one request per connection with a small route table,
query and body parsing, and a response encoder that can stream files
from disk or S3.

Configuration comes from defaults, an optional JSON file, HASTY_*
environment variables and command-line flags, in increasing order
of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		serveCmd(),
		routesCmd(),
		versionCmd(),
	)

	return root
}
