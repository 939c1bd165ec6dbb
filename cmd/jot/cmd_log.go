package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jotvcs/jot/pkg/object"
	"github.com/jotvcs/jot/pkg/repo"
)

func newLogCmd() *cobra.Command {
	var oneline bool
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show commit history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			headHash, err := r.ResolveRef("HEAD")
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no commits yet")
				return nil
			}

			entries, err := r.Log(headHash, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no commits yet")
				return nil
			}

			branchName, _ := r.CurrentBranch()

			out := cmd.OutOrStdout()
			for _, entry := range entries {
				decoration := buildDecoration(entry.Hash, headHash, branchName)

				if oneline {
					if decoration != "" {
						fmt.Fprintf(out, "%s %s %s\n", entry.Hash.Short(), decoration, firstLine(entry.Commit.Message))
					} else {
						fmt.Fprintf(out, "%s %s\n", entry.Hash.Short(), firstLine(entry.Commit.Message))
					}
					continue
				}

				if decoration != "" {
					fmt.Fprintf(out, "commit %s %s\n", entry.Hash, decoration)
				} else {
					fmt.Fprintf(out, "commit %s\n", entry.Hash)
				}
				if entry.Commit.Signature != "" {
					fmt.Fprintln(out, "Signed: yes")
				}
				when := time.Unix(entry.Commit.Timestamp, 0)
				fmt.Fprintf(out, "Author: %s\n", entry.Commit.Author)
				fmt.Fprintf(out, "Date:   %s (%s)\n", when.Format("2006-01-02 15:04:05"), humanize.Time(when))
				fmt.Fprintln(out)
				fmt.Fprintf(out, "    %s\n", entry.Commit.Message)
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of commits to show")

	return cmd
}

// buildDecoration returns "(HEAD -> main)" for the current HEAD commit,
// "" otherwise.
func buildDecoration(commitHash, headHash object.Hash, branchName string) string {
	if commitHash != headHash {
		return ""
	}
	if branchName != "" {
		return "(HEAD -> " + branchName + ")"
	}
	return "(HEAD)"
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
