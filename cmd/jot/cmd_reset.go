package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jotvcs/jot/pkg/repo"
)

func newResetCmd() *cobra.Command {
	var hard bool

	cmd := &cobra.Command{
		Use:   "reset [paths...]",
		Short: "Unstage paths, or discard all changes with --hard",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			if hard {
				if len(args) > 0 {
					return fmt.Errorf("reset --hard takes no paths")
				}
				if err := r.ResetHard(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "working tree and index reset to HEAD")
				return nil
			}

			return r.Reset(args)
		},
	}

	cmd.Flags().BoolVar(&hard, "hard", false, "reset index and working tree to HEAD")

	return cmd
}
