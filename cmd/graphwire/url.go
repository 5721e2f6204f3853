package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/graphwire/graphwire/internal/service"
)

func newURLCommand() *cobra.Command {
	flags := &connectionFlags{}

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the transit URL derived from the connection options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			options, svcOpts, err := flags.serviceOptions()
			if err != nil {
				return err
			}

			// Enabling performs no network I/O; the descriptor and its
			// URL are derived locally.
			svc := service.New(svcOpts...)
			if err := svc.Enable(options); err != nil {
				return err
			}
			defer func() { _ = svc.Disable() }()

			fmt.Fprintln(cmd.OutOrStdout(), svc.TransitURL())
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
