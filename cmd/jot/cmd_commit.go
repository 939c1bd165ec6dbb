package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jotvcs/jot/pkg/repo"
)

func newCommitCmd() *cobra.Command {
	var message string
	var author string
	var sign bool
	var keyPath string

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record changes to the repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("commit message is required (-m)")
			}

			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			if author == "" {
				author = resolveAuthor(r)
			}

			var signer repo.CommitSigner
			if sign {
				s, resolvedKey, err := newSSHCommitSigner(keyPath)
				if err != nil {
					return err
				}
				signer = s
				fmt.Fprintf(cmd.OutOrStdout(), "signing with %s\n", resolvedKey)
			}

			h, err := r.CommitWithSigner(message, author, signer)
			if err != nil {
				return err
			}

			branch, err := r.CurrentBranch()
			if err != nil || branch == "" {
				branch = "HEAD"
			}

			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", branch, h.Short(), message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&author, "author", "", "override author (default: user config, then $USER)")
	cmd.Flags().BoolVarP(&sign, "sign", "S", false, "sign the commit with an SSH key")
	cmd.Flags().StringVar(&keyPath, "key", "", "SSH private key for signing (default: ~/.ssh/id_*)")

	return cmd
}

// resolveAuthor picks the commit author: configured identity first, then
// $USER, then a fixed fallback.
func resolveAuthor(r *repo.Repo) string {
	if cfg, err := r.ReadConfig(); err == nil && cfg.User.Name != "" {
		return cfg.Author()
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "unknown"
}
