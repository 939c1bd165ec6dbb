package repo

import (
	"errors"
	"fmt"

	"github.com/jotvcs/jot/pkg/object"
)

// ErrInvalidMergeInputs marks a merge rejected before diffing starts.
var ErrInvalidMergeInputs = errors.New("invalid merge inputs")

// MergeInputs names the three commits of one merge attempt. BaseOID may
// be empty (no common ancestor); LeftOID and RightOID must resolve to
// commits. Inputs are immutable for the duration of the attempt.
type MergeInputs struct {
	BaseOID   object.Hash
	LeftOID   object.Hash
	RightOID  object.Hash
	LeftName  string
	RightName string
}

// Validate checks the inputs against the store before any diffing.
func (in MergeInputs) Validate(store *object.Store) error {
	if in.LeftOID == "" {
		return fmt.Errorf("%w: missing left commit", ErrInvalidMergeInputs)
	}
	if in.RightOID == "" {
		return fmt.Errorf("%w: missing right commit", ErrInvalidMergeInputs)
	}
	if _, err := store.ReadCommit(in.LeftOID); err != nil {
		return fmt.Errorf("%w: left commit %s: %v", ErrInvalidMergeInputs, in.LeftOID.Short(), err)
	}
	if _, err := store.ReadCommit(in.RightOID); err != nil {
		return fmt.Errorf("%w: right commit %s: %v", ErrInvalidMergeInputs, in.RightOID.Short(), err)
	}
	if in.BaseOID != "" {
		if _, err := store.ReadCommit(in.BaseOID); err != nil {
			return fmt.Errorf("%w: base commit %s: %v", ErrInvalidMergeInputs, in.BaseOID.Short(), err)
		}
	}
	return nil
}

// AlreadyMerged reports that the right side is an ancestor of the left,
// so there is nothing to merge.
func (in MergeInputs) AlreadyMerged() bool {
	return in.BaseOID != "" && in.BaseOID == in.RightOID
}

// FastForward reports that the left side is an ancestor of the right, so
// the merge reduces to moving the ref.
func (in MergeInputs) FastForward() bool {
	return in.BaseOID != "" && in.BaseOID == in.LeftOID
}
