package repo

import (
	"github.com/jotvcs/jot/pkg/object"
)

// Repo represents an opened Jot repository.
type Repo struct {
	RootDir string        // working directory root
	JotDir  string        // .jot/ directory
	Store   *object.Store // content-addressed object store
}

// Workspace returns the working-directory collaborator for this repo.
func (r *Repo) Workspace() *Workspace {
	return &Workspace{root: r.RootDir}
}
