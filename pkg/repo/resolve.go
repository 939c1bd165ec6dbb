package repo

import (
	"bytes"
	"fmt"

	"github.com/jotvcs/jot/pkg/diff3"
	"github.com/jotvcs/jot/pkg/object"
)

// FileResolution records the merge outcome for a single path.
type FileResolution struct {
	Path          string
	Status        string // "clean", "conflict", "added", "deleted"
	ConflictCount int
}

// Resolution is the overall result of one merge attempt. Conflicts are a
// normal completion state, not an error.
type Resolution struct {
	Clean          bool
	Files          []FileResolution
	ConflictPaths  []string
	TotalConflicts int
}

// MergeResolver drives one merge attempt: two tree diffs against the
// common ancestor, per-path classification, then workspace and index
// writes. A resolver is single-use; its tree cache is owned by this run
// and never shared.
type MergeResolver struct {
	repo   *Repo
	inputs MergeInputs
	loader *TreeLoader

	// MarkerStyle selects conflict rendering: "merge" (default) or
	// "diff3", which adds the base block between the markers.
	MarkerStyle string

	// OnProgress, when set, is called once per classified path.
	OnProgress func(FileResolution)

	cleanWrites  []pendingWrite
	cleanDeletes []string
	untracked    []pendingWrite
	displaced    []string // kind-mismatch file paths the directory side takes over
	conflicts    []conflictRecord
	report       Resolution
}

type pendingWrite struct {
	path    string
	content []byte
	mode    string
}

type conflictRecord struct {
	path    string
	base    *StageSlot
	ours    *StageSlot
	theirs  *StageSlot
	content []byte // workspace content; nil means leave the path alone
	mode    string
}

// NewMergeResolver creates a resolver for the given inputs.
func NewMergeResolver(r *Repo, inputs MergeInputs) *MergeResolver {
	return &MergeResolver{
		repo:   r,
		inputs: inputs,
		loader: NewTreeLoader(r.Store),
	}
}

// Resolve runs the merge: validate, diff, classify, apply. Object-store
// errors abort before any writes; a workspace write failure aborts the
// remaining apply steps without rolling back prior writes.
func (m *MergeResolver) Resolve() (*Resolution, error) {
	if err := m.inputs.Validate(m.repo.Store); err != nil {
		return nil, err
	}

	baseTree, err := m.treeOf(m.inputs.BaseOID)
	if err != nil {
		return nil, err
	}
	leftTree, err := m.treeOf(m.inputs.LeftOID)
	if err != nil {
		return nil, err
	}
	rightTree, err := m.treeOf(m.inputs.RightOID)
	if err != nil {
		return nil, err
	}

	leftDiff, err := m.loader.Diff(baseTree, leftTree, nil)
	if err != nil {
		return nil, fmt.Errorf("merge: diff base..%s: %w", m.inputs.LeftName, err)
	}
	rightDiff, err := m.loader.Diff(baseTree, rightTree, nil)
	if err != nil {
		return nil, fmt.Errorf("merge: diff base..%s: %w", m.inputs.RightName, err)
	}

	for _, path := range unionPaths(leftDiff, rightDiff) {
		base, left, right := deriveSides(path, leftDiff, rightDiff)
		if err := m.classify(path, base, left, right); err != nil {
			return nil, fmt.Errorf("merge %q: %w", path, err)
		}
	}

	if err := m.apply(); err != nil {
		return nil, err
	}

	m.report.Clean = len(m.conflicts) == 0
	return &m.report, nil
}

func (m *MergeResolver) treeOf(commitOID object.Hash) (object.Hash, error) {
	if commitOID == "" {
		return "", nil
	}
	c, err := m.repo.Store.ReadCommit(commitOID)
	if err != nil {
		return "", fmt.Errorf("merge: read commit %s: %w", commitOID.Short(), err)
	}
	return c.TreeHash, nil
}

// deriveSides reconstructs the (base, left, right) entries for a path
// from the two diffs. A path absent from one diff is unchanged on that
// side and keeps its base entry.
func deriveSides(path string, leftDiff, rightDiff TreeDiffMap) (base, left, right *Entry) {
	lp, inLeft := leftDiff[path]
	rp, inRight := rightDiff[path]

	if inLeft {
		base = lp.Old
	} else {
		base = rp.Old
	}

	left = base
	if inLeft {
		left = lp.New
	}
	right = base
	if inRight {
		right = rp.New
	}
	return base, left, right
}

// classify applies the merge rules in priority order and queues the
// resulting writes.
func (m *MergeResolver) classify(path string, base, left, right *Entry) error {
	switch {
	case left.Equal(right):
		// Identical on both sides; apply only if it differs from base.
		if !left.Equal(base) {
			return m.queueClean(path, left, "clean")
		}
		return nil

	case right.Equal(base):
		// Only left changed.
		return m.queueClean(path, left, cleanStatus(base, left))

	case left.Equal(base):
		// Only right changed.
		return m.queueClean(path, right, cleanStatus(base, right))
	}

	// Both sides changed, differently.
	switch {
	case left != nil && right != nil && left.IsDir() != right.IsDir():
		return m.classifyKindMismatch(path, base, left, right)
	case left == nil || right == nil:
		return m.classifyModifyDelete(path, base, left, right)
	case left.IsDir() && right.IsDir():
		return m.classifyDirOID(path, base, left, right)
	default:
		return m.classifyBlobMerge(path, base, left, right)
	}
}

func cleanStatus(base, side *Entry) string {
	switch {
	case side == nil:
		return "deleted"
	case base == nil:
		return "added"
	default:
		return "clean"
	}
}

// queueClean schedules a non-conflicting change: delete, or write the
// entry's blob content and stage it at stage 0. Directory entries only
// displace whatever leaf held the path; their content arrives through
// the descendant leaf changes.
func (m *MergeResolver) queueClean(path string, e *Entry, status string) error {
	if e == nil {
		m.cleanDeletes = append(m.cleanDeletes, path)
		m.record(FileResolution{Path: path, Status: "deleted"})
		return nil
	}
	if e.IsDir() {
		m.displaced = append(m.displaced, path)
		return nil
	}
	content, err := m.blobContent(e.OID)
	if err != nil {
		return err
	}
	m.cleanWrites = append(m.cleanWrites, pendingWrite{path: path, content: content, mode: e.Mode})
	m.record(FileResolution{Path: path, Status: status})
	return nil
}

// classifyKindMismatch handles a path that is a file on one side and a
// directory on the other. The file content moves to the disambiguated
// path "{path}~{branch}" named after the side that introduced the
// directory; the true path is staged three-way and the directory's own
// leaves merge independently.
func (m *MergeResolver) classifyKindMismatch(path string, base, left, right *Entry) error {
	fileSide, dirName := left, m.inputs.RightName
	if left.IsDir() {
		fileSide, dirName = right, m.inputs.LeftName
	}

	content, err := m.blobContent(fileSide.OID)
	if err != nil {
		return err
	}
	m.untracked = append(m.untracked, pendingWrite{
		path:    path + "~" + dirName,
		content: content,
		mode:    fileSide.Mode,
	})
	if !left.IsDir() {
		// The directory side takes over the workspace path; the file we
		// currently have there must move out of the way.
		m.displaced = append(m.displaced, path)
	}

	m.conflicts = append(m.conflicts, conflictRecord{
		path:   path,
		base:   slotOf(base),
		ours:   slotOf(left),
		theirs: slotOf(right),
	})
	m.record(FileResolution{Path: path, Status: "conflict", ConflictCount: 1})
	return nil
}

// classifyModifyDelete handles deletion on one side with modification on
// the other. The surviving content stays in the workspace unmarked; the
// index holds the base entry and the survivor at its own stage, with no
// stage-0 entry.
func (m *MergeResolver) classifyModifyDelete(path string, base, left, right *Entry) error {
	survivor := left
	if survivor == nil {
		survivor = right
	}

	var content []byte
	if !survivor.IsDir() {
		data, err := m.blobContent(survivor.OID)
		if err != nil {
			return err
		}
		content = data
	}

	m.conflicts = append(m.conflicts, conflictRecord{
		path:    path,
		base:    slotOf(base),
		ours:    slotOf(left),
		theirs:  slotOf(right),
		content: content,
		mode:    survivorMode(survivor),
	})
	m.record(FileResolution{Path: path, Status: "conflict", ConflictCount: 1})
	return nil
}

// classifyDirOID handles two directory entries at the same path with
// differing ids. Recursion has already expanded both sides' leaves, so
// this only arises when both sides replaced a file with diverging
// directories; the leaves merge on their own and the path itself needs
// no record.
func (m *MergeResolver) classifyDirOID(path string, base, left, right *Entry) error {
	if base != nil && !base.IsDir() {
		m.displaced = append(m.displaced, path)
	}
	return nil
}

// classifyBlobMerge merges two diverged blobs: a three-way text merge of
// the contents plus the mode merge. Binary content on any side makes the
// path an atomic conflict.
func (m *MergeResolver) classifyBlobMerge(path string, base, left, right *Entry) error {
	var baseData []byte
	if base != nil && !base.IsDir() {
		data, err := m.blobContent(base.OID)
		if err != nil {
			return err
		}
		baseData = data
	}
	leftData, err := m.blobContent(left.OID)
	if err != nil {
		return err
	}
	rightData, err := m.blobContent(right.OID)
	if err != nil {
		return err
	}

	mode, modeOK := mergeModes(base, left, right)

	if isBinary(baseData) || isBinary(leftData) || isBinary(rightData) {
		m.conflicts = append(m.conflicts, conflictRecord{
			path:    path,
			base:    slotOf(base),
			ours:    slotOf(left),
			theirs:  slotOf(right),
			content: leftData,
			mode:    mode,
		})
		m.record(FileResolution{Path: path, Status: "conflict", ConflictCount: 1})
		return nil
	}

	result := diff3.Merge(baseData, leftData, rightData)
	if result.IsClean() && modeOK {
		m.cleanWrites = append(m.cleanWrites, pendingWrite{
			path:    path,
			content: result.Render(m.inputs.LeftName, m.inputs.RightName),
			mode:    mode,
		})
		m.record(FileResolution{Path: path, Status: cleanStatus(base, left)})
		return nil
	}

	var content []byte
	if m.MarkerStyle == "diff3" {
		content = result.RenderWithBase(m.inputs.LeftName, "base", m.inputs.RightName)
	} else {
		content = result.Render(m.inputs.LeftName, m.inputs.RightName)
	}

	count := result.ConflictCount()
	if count == 0 {
		count = 1 // mode-only conflict
	}
	m.conflicts = append(m.conflicts, conflictRecord{
		path:    path,
		base:    slotOf(base),
		ours:    slotOf(left),
		theirs:  slotOf(right),
		content: content,
		mode:    mode,
	})
	m.record(FileResolution{Path: path, Status: "conflict", ConflictCount: count})
	return nil
}

// mergeModes applies the mode merge rule: unanimous value, or the side
// that changed when only one did. ok is false when both sides changed
// the mode differently.
func mergeModes(base, left, right *Entry) (string, bool) {
	lm, rm := normalizeFileMode(left.Mode), normalizeFileMode(right.Mode)
	if lm == rm {
		return lm, true
	}
	bm := ""
	if base != nil && !base.IsDir() {
		bm = normalizeFileMode(base.Mode)
	}
	switch bm {
	case lm:
		return rm, true
	case rm:
		return lm, true
	default:
		return lm, false
	}
}

// apply materializes the classification. Untracked (disambiguated) files
// go first so a later write into the same directory cannot clobber
// them; then clean changes; conflict-marker content and stages 1-3 last.
func (m *MergeResolver) apply() error {
	ws := m.repo.Workspace()
	stg, err := m.repo.ReadStaging()
	if err != nil {
		return fmt.Errorf("merge apply: %w", err)
	}

	for _, w := range m.untracked {
		if err := ws.Write(w.path, w.content, filePermFromMode(w.mode)); err != nil {
			return fmt.Errorf("merge apply: %w", err)
		}
	}

	// Files displaced by a directory taking over their path.
	for _, path := range m.displaced {
		if err := ws.Remove(path); err != nil {
			return fmt.Errorf("merge apply: %w", err)
		}
		stg.Remove(path)
	}

	for _, path := range m.cleanDeletes {
		if err := ws.Remove(path); err != nil {
			return fmt.Errorf("merge apply: %w", err)
		}
		stg.Remove(path)
	}

	for _, w := range m.cleanWrites {
		if err := ws.Write(w.path, w.content, filePermFromMode(w.mode)); err != nil {
			return fmt.Errorf("merge apply: %w", err)
		}
		blobHash, err := m.repo.Store.WriteBlob(&object.Blob{Data: w.content})
		if err != nil {
			return fmt.Errorf("merge apply: store %q: %w", w.path, err)
		}
		info, err := ws.Stat(w.path)
		if err != nil {
			return fmt.Errorf("merge apply: %w", err)
		}
		stg.SetStageZero(&StagingEntry{
			Path:     w.path,
			BlobHash: blobHash,
			Mode:     normalizeFileMode(w.mode),
			ModTime:  info.ModTime().UnixNano(),
			Size:     info.Size(),
		})
	}

	for _, c := range m.conflicts {
		if c.content != nil {
			if err := ws.Write(c.path, c.content, filePermFromMode(c.mode)); err != nil {
				return fmt.Errorf("merge apply: %w", err)
			}
		}
		stg.AddConflict(c.path, c.base, c.ours, c.theirs)
		m.report.ConflictPaths = append(m.report.ConflictPaths, c.path)
	}

	if err := m.repo.WriteStaging(stg); err != nil {
		return fmt.Errorf("merge apply: %w", err)
	}
	return nil
}

func (m *MergeResolver) record(fr FileResolution) {
	m.report.Files = append(m.report.Files, fr)
	m.report.TotalConflicts += fr.ConflictCount
	if m.OnProgress != nil {
		m.OnProgress(fr)
	}
}

func (m *MergeResolver) blobContent(h object.Hash) ([]byte, error) {
	blob, err := m.repo.Store.ReadBlob(h)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", h.Short(), err)
	}
	return blob.Data, nil
}

func slotOf(e *Entry) *StageSlot {
	if e == nil {
		return nil
	}
	return &StageSlot{OID: e.OID, Mode: e.Mode}
}

func survivorMode(e *Entry) string {
	if e.IsDir() {
		return object.TreeModeDir
	}
	return normalizeFileMode(e.Mode)
}

const binarySniffLen = 8000

// isBinary reports whether content looks binary: a NUL byte within the
// first 8000 bytes, following Git's heuristic.
func isBinary(data []byte) bool {
	if len(data) > binarySniffLen {
		data = data[:binarySniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}

func unionPaths(a, b TreeDiffMap) []string {
	merged := make(TreeDiffMap, len(a)+len(b))
	for p, pair := range a {
		merged[p] = pair
	}
	for p, pair := range b {
		merged[p] = pair
	}
	return merged.Paths()
}
