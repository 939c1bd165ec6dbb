package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jotvcs/jot/pkg/repo"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			entries, err := r.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			branch, _ := r.CurrentBranch()
			if branch == "" {
				branch = "HEAD (detached)"
			}
			if _, err := r.ResolveRef("HEAD"); err != nil {
				fmt.Fprintf(out, "on %s (no commits yet)\n", branch)
			} else {
				fmt.Fprintf(out, "on %s\n", branch)
			}

			var conflicts, staged, unstaged, untracked []string

			for _, e := range entries {
				if e.IndexStatus == repo.StatusConflict || e.WorkStatus == repo.StatusConflict {
					conflicts = append(conflicts, fmt.Sprintf("  ! %s", e.Path))
					continue
				}

				switch e.IndexStatus {
				case repo.StatusNew:
					staged = append(staged, fmt.Sprintf("  + %s", e.Path))
				case repo.StatusModified:
					staged = append(staged, fmt.Sprintf("  ~ %s", e.Path))
				case repo.StatusDeleted:
					staged = append(staged, fmt.Sprintf("  - %s", e.Path))
				}

				switch e.WorkStatus {
				case repo.StatusDirty:
					unstaged = append(unstaged, fmt.Sprintf("  ~ %s", e.Path))
				case repo.StatusDeleted:
					if e.IndexStatus != repo.StatusUntracked {
						unstaged = append(unstaged, fmt.Sprintf("  - %s", e.Path))
					}
				}

				if e.IndexStatus == repo.StatusUntracked {
					untracked = append(untracked, fmt.Sprintf("  %s", e.Path))
				}
			}

			printSection := func(title string, lines []string) {
				if len(lines) == 0 {
					return
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, title+":")
				for _, s := range lines {
					fmt.Fprintln(out, s)
				}
			}

			printSection("conflicts", conflicts)
			printSection("staged", staged)
			printSection("unstaged", unstaged)
			printSection("untracked", untracked)
			return nil
		},
	}
}
