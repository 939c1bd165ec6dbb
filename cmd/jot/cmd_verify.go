package main

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh"

	"github.com/jotvcs/jot/pkg/object"
	"github.com/jotvcs/jot/pkg/repo"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [commit]",
		Short: "Verify object store integrity, or a commit's SSH signature",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			if len(args) == 1 {
				return verifyCommitSignature(cmd, r, args[0])
			}

			report, err := r.Store.Verify()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: verified %d object(s)\n", report.Objects)
			return nil
		},
	}
}

func verifyCommitSignature(cmd *cobra.Command, r *repo.Repo, rev string) error {
	h, err := r.ResolveRef(rev)
	if err != nil {
		return err
	}
	c, err := r.Store.ReadCommit(h)
	if err != nil {
		return err
	}
	if c.Signature == "" {
		return fmt.Errorf("commit %s is not signed", h.Short())
	}

	// Signature layout: prefix:format:pubkey-b64:sig-b64.
	parts := strings.SplitN(c.Signature, ":", 4)
	if len(parts) != 4 || parts[0] != commitSignaturePrefix {
		return fmt.Errorf("commit %s: unrecognized signature format", h.Short())
	}
	pubRaw, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return fmt.Errorf("commit %s: decode public key: %w", h.Short(), err)
	}
	sigRaw, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return fmt.Errorf("commit %s: decode signature: %w", h.Short(), err)
	}
	pub, err := ssh.ParsePublicKey(pubRaw)
	if err != nil {
		return fmt.Errorf("commit %s: parse public key: %w", h.Short(), err)
	}

	payload := object.CommitSigningPayload(c)
	if err := pub.Verify(payload, &ssh.Signature{Format: parts[1], Blob: sigRaw}); err != nil {
		return fmt.Errorf("commit %s: signature INVALID: %w", h.Short(), err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ok: commit %s has a valid %s signature (%s)\n",
		h.Short(), parts[1], ssh.FingerprintSHA256(pub))
	return nil
}
