package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jotvcs/jot/pkg/repo"
)

func newDiffCmd() *cobra.Command {
	var commits []string

	cmd := &cobra.Command{
		Use:   "diff [paths...]",
		Short: "Show changes between working tree, staging, and commits",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			var output string
			switch len(commits) {
			case 0:
				output, err = r.DiffWorktree(args)
			case 2:
				output, err = r.DiffCommits(commits[0], commits[1], args)
			default:
				return fmt.Errorf("--commits takes exactly two revisions")
			}
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), output)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&commits, "commits", nil, "diff two revisions (old,new) instead of the working tree")

	return cmd
}
