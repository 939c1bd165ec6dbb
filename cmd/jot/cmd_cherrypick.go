package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jotvcs/jot/pkg/repo"
)

func newCherryPickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cherry-pick <commit>",
		Short: "Apply the changes of a single commit onto the current branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			report, err := r.CherryPick(args[0], resolveAuthor(r))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, f := range report.Files {
				printFileResolution(out, f)
			}
			if !report.Clean {
				fmt.Fprintln(out, "cherry-pick stopped on conflicts; fix, jot resolve, then jot commit")
				return nil
			}
			fmt.Fprintf(out, "cherry-pick applied as %s\n", report.MergeCommit.Short())
			return nil
		},
	}
}
