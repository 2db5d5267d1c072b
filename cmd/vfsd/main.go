// Command vfsd is a thin CLI wrapper around the virtual filesystem core:
// serve starts the JSON/HTTP service adapter, version prints build
// information.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCommand = &cobra.Command{
	Use:   "vfsd",
	Short: "vfsd serves the virtual filesystem's batching and streaming protocol",
}

var rootConfiguration struct {
	help bool
}

func init() {
	flags := rootCommand.Flags()
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")

	cobra.EnableCommandSorting = false

	rootCommand.AddCommand(
		serveCommand,
		versionCommand,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
