package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/graphwire/graphwire/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the client version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version.Format(version.String()))
			return nil
		},
	}
}
