package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vfscore/vfscore/cmd"
	"github.com/vfscore/vfscore/pkg/vfsd"
)

func versionMain(command *cobra.Command, arguments []string) error {
	fmt.Println(vfsd.Version)
	return nil
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cmd.DisallowArguments,
	Run:   cmd.Mainify(versionMain),
}
