package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of clinvalidate",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "clinvalidate version %s\n", Version)
		},
	}
}
