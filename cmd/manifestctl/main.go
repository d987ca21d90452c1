// Command manifestctl runs the manifest engine offline against vessel
// snapshot files (JSON or YAML), the same snapshots the host sends.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

type globalFlags struct {
	output     string
	deepFreeze bool
	logLevel   string
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "manifestctl",
		Short:         "Inspect vessel snapshots with the ship manifest engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVarP(&flags.output, "output", "o", "yaml", "Output format: yaml or json")
	root.PersistentFlags().BoolVar(&flags.deepFreeze, "deepfreeze", false, "Treat the cryogenic storage integration as installed")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "error", "Log level written to stderr")

	root.AddCommand(inspectCmd(flags))
	root.AddCommand(connectedCmd(flags))
	root.AddCommand(aggregateCmd(flags))
	root.AddCommand(validateCmd(flags))
	return root
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
