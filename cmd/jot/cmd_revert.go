package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jotvcs/jot/pkg/repo"
)

func newRevertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revert <commit>",
		Short: "Create a new commit that backs out an earlier one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			report, err := r.Revert(args[0], resolveAuthor(r))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, f := range report.Files {
				printFileResolution(out, f)
			}
			if !report.Clean {
				fmt.Fprintln(out, "revert stopped on conflicts; fix, jot resolve, then jot commit")
				return nil
			}
			fmt.Fprintf(out, "revert committed as %s\n", report.MergeCommit.Short())
			return nil
		},
	}
}
