package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "graphwire",
		Short:         "Scriptable client for Gremlin-compatible graph servers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newQueryCommand(), newURLCommand(), newVersionCommand())
	return root
}
