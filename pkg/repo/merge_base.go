package repo

import (
	"fmt"

	"github.com/jotvcs/jot/pkg/object"
)

const maxMergeBaseSteps = 1_000_000

// FindMergeBase finds the first common ancestor of two commits using an
// interleaved breadth-first walk from both sides. Returns "" when the
// histories are unrelated.
//
// Criss-cross histories have more than one best ancestor; only the first
// one reached is used, which can surface spurious conflicts in that rare
// shape. A virtual-ancestor strategy is intentionally not attempted.
func (r *Repo) FindMergeBase(a, b object.Hash) (object.Hash, error) {
	if a == "" || b == "" {
		return "", nil
	}
	if a == b {
		return a, nil
	}

	seenA := map[object.Hash]struct{}{a: {}}
	seenB := map[object.Hash]struct{}{b: {}}
	queueA := []object.Hash{a}
	queueB := []object.Hash{b}

	steps := 0
	for len(queueA) > 0 || len(queueB) > 0 {
		steps++
		if steps > maxMergeBaseSteps {
			return "", fmt.Errorf("find merge base: traversal exceeded %d steps", maxMergeBaseSteps)
		}

		if len(queueA) > 0 {
			cur := queueA[0]
			queueA = queueA[1:]
			if _, ok := seenB[cur]; ok {
				return cur, nil
			}
			parents, err := r.commitParents(cur)
			if err != nil {
				return "", err
			}
			for _, p := range parents {
				if _, ok := seenA[p]; !ok {
					seenA[p] = struct{}{}
					queueA = append(queueA, p)
				}
			}
		}

		if len(queueB) > 0 {
			cur := queueB[0]
			queueB = queueB[1:]
			if _, ok := seenA[cur]; ok {
				return cur, nil
			}
			parents, err := r.commitParents(cur)
			if err != nil {
				return "", err
			}
			for _, p := range parents {
				if _, ok := seenB[p]; !ok {
					seenB[p] = struct{}{}
					queueB = append(queueB, p)
				}
			}
		}
	}

	return "", nil
}

func (r *Repo) commitParents(h object.Hash) ([]object.Hash, error) {
	c, err := r.Store.ReadCommit(h)
	if err != nil {
		return nil, fmt.Errorf("find merge base: read commit %s: %w", h.Short(), err)
	}
	var parents []object.Hash
	for _, p := range c.Parents {
		if p != "" {
			parents = append(parents, p)
		}
	}
	return parents, nil
}
