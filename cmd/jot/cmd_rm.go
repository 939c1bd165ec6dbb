package main

import (
	"github.com/spf13/cobra"

	"github.com/jotvcs/jot/pkg/repo"
)

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <files...>",
		Short: "Remove files from the working tree and the index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			return r.RemoveFiles(args)
		},
	}
}
