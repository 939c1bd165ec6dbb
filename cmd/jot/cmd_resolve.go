package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jotvcs/jot/pkg/repo"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <paths...>",
		Short: "Mark conflicted paths resolved using their workspace content",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			for _, path := range args {
				if err := r.ResolvePath(path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "resolved %s\n", path)
			}
			return nil
		},
	}
}
