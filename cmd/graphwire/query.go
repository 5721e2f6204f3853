package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/graphwire/graphwire/internal/service"
)

func newQueryCommand() *cobra.Command {
	flags := &connectionFlags{}
	var scriptText string
	var paramFlags []string
	var compact bool

	cmd := &cobra.Command{
		Use:   "query [script-file]",
		Short: "Execute a query fragment against the server",
		Long: `Execute a script-style query fragment against the configured server.

The fragment runs with the caller parameters bound by name plus the
reserved "g" handle for the open traversal session, e.g.

  graphwire query --contact-points localhost \
      -e "g.submit('g.V().count()', {})"

Parameters given with --param are bound into the fragment by name and
may be forwarded to the server through the submit bindings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if scriptText == "" && len(args) == 1 {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read script file: %w", err)
				}
				scriptText = string(data)
			}
			if scriptText == "" {
				return errors.New("no script given: pass -e or a script file")
			}

			params, err := parseParams(paramFlags)
			if err != nil {
				return err
			}
			options, svcOpts, err := flags.serviceOptions()
			if err != nil {
				return err
			}

			svc := service.New(svcOpts...)
			if err := svc.Enable(options); err != nil {
				return err
			}
			defer func() { _ = svc.Disable() }()

			_, err = svc.ExecuteQuery(cmd.Context(), scriptText, params, func(row map[string]any, more bool) error {
				return printRow(cmd, row, compact)
			})
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&scriptText, "execute", "e", "", "script text to execute")
	cmd.Flags().StringArrayVar(&paramFlags, "param", nil, "query parameter as name=value (repeatable)")
	cmd.Flags().BoolVar(&compact, "json", false, "print the result row as compact JSON")
	return cmd
}

func printRow(cmd *cobra.Command, row map[string]any, compact bool) error {
	var out []byte
	var err error
	if compact {
		out, err = json.Marshal(row)
	} else {
		out, err = json.MarshalIndent(row, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode result row: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
