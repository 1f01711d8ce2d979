package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opalmirror/opal/internal/config"
)

var (
	commit = "none"
	date   = "unknown"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Opal %s\ncommit: %s\nbuilt: %s\n", config.Version, commit, date)
			return nil
		},
	}

	return cmd
}
