package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jotvcs/jot/pkg/repo"
)

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <branch>",
		Short: "Merge a branch into the current branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			branchName := args[0]

			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			current, err := r.CurrentBranch()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "merging %s into %s...\n", branchName, current)

			report, err := r.Merge(branchName, resolveAuthor(r))
			if err != nil {
				return err
			}

			if report.AlreadyMerged {
				fmt.Fprintln(out, "already up to date")
				return nil
			}
			if report.FastForward {
				fmt.Fprintf(out, "fast-forward to %s\n", report.MergeCommit.Short())
				return nil
			}

			for _, f := range report.Files {
				printFileResolution(out, f)
			}

			if !report.Clean {
				fmt.Fprintf(out, "merge completed with %d conflict", report.TotalConflicts)
				if report.TotalConflicts != 1 {
					fmt.Fprint(out, "s")
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, "fix conflicts, then jot resolve <path> and jot commit")
				return nil
			}

			fmt.Fprintln(out, "merge completed cleanly")
			fmt.Fprintf(out, "[%s %s] Merge branch '%s'\n", current, report.MergeCommit.Short(), branchName)
			return nil
		},
	}
}

func printFileResolution(out io.Writer, f repo.FileResolution) {
	switch f.Status {
	case "conflict":
		fmt.Fprintf(out, "  %s: CONFLICT — %d conflict", f.Path, f.ConflictCount)
		if f.ConflictCount != 1 {
			fmt.Fprint(out, "s")
		}
		fmt.Fprintln(out)
	case "added":
		fmt.Fprintf(out, "  %s: added\n", f.Path)
	case "deleted":
		fmt.Fprintf(out, "  %s: deleted\n", f.Path)
	default: // "clean"
		fmt.Fprintf(out, "  %s: clean\n", f.Path)
	}
}
