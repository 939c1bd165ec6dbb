// Package diff3 implements three-way text merging. Each side is aligned
// against the common ancestor with a line diff; regions where both sides
// track the ancestor in lockstep stay as-is, and divergent regions become
// clean or conflict chunks.
package diff3

import (
	"bytes"
	"strings"

	"github.com/jotvcs/jot/pkg/diff"
)

// Chunk is a contiguous section of the merge output. A clean chunk carries
// its final lines; a conflict chunk carries the three divergent slices.
type Chunk struct {
	Conflict bool
	Lines    []string // clean chunks only

	Base   []string // conflict chunks only
	Ours   []string
	Theirs []string
}

// Result is an ordered list of chunks which concatenates to the full merge
// output.
type Result struct {
	Chunks []Chunk
}

// Merge performs a three-way merge of base, ours, and theirs.
//
// Algorithm:
//  1. Split all three inputs into terminator-preserving lines.
//  2. Align ours and theirs against base, recording for each base line the
//     matching line index on the other side (the match set).
//  3. Walk base forward; while the next base line is matched identically
//     in both sets, all three cursors advance in lockstep.
//  4. On divergence, scan for the next base line matched in both sets (or
//     end of input); the three slices consumed in between form one chunk.
//  5. A chunk where only one side changed is clean; where both changed
//     identically it is clean; otherwise it is a conflict.
func Merge(base, ours, theirs []byte) *Result {
	m := &merger{
		o: diff.SplitLines(base),
		a: diff.SplitLines(ours),
		b: diff.SplitLines(theirs),
	}
	m.matchA = matchSet(m.o, m.a)
	m.matchB = matchSet(m.o, m.b)
	m.run()
	return &Result{Chunks: m.chunks}
}

// IsClean reports whether the merge produced no conflict chunks.
func (r *Result) IsClean() bool {
	for _, c := range r.Chunks {
		if c.Conflict {
			return false
		}
	}
	return true
}

// ConflictCount returns the number of conflict chunks.
func (r *Result) ConflictCount() int {
	n := 0
	for _, c := range r.Chunks {
		if c.Conflict {
			n++
		}
	}
	return n
}

// Render produces the merged content. Conflict chunks are rendered with
// standard markers:
//
//	<<<<<<< oursLabel
//	<ours lines>
//	=======
//	<theirs lines>
//	>>>>>>> theirsLabel
func (r *Result) Render(oursLabel, theirsLabel string) []byte {
	return r.render(oursLabel, "", theirsLabel, false)
}

// RenderWithBase renders like Render but additionally includes the base
// slice of each conflict, introduced by a "|||||||" marker between the
// ours lines and the "=======" separator.
func (r *Result) RenderWithBase(oursLabel, baseLabel, theirsLabel string) []byte {
	return r.render(oursLabel, baseLabel, theirsLabel, true)
}

func (r *Result) render(oursLabel, baseLabel, theirsLabel string, withBase bool) []byte {
	var buf bytes.Buffer
	for _, c := range r.Chunks {
		if !c.Conflict {
			for _, l := range c.Lines {
				buf.WriteString(l)
			}
			continue
		}

		writeMarker(&buf, "<<<<<<<", oursLabel)
		writeSlice(&buf, c.Ours)
		if withBase {
			writeMarker(&buf, "|||||||", baseLabel)
			writeSlice(&buf, c.Base)
		}
		writeMarker(&buf, "=======", "")
		writeSlice(&buf, c.Theirs)
		writeMarker(&buf, ">>>>>>>", theirsLabel)
	}
	return buf.Bytes()
}

func writeMarker(buf *bytes.Buffer, marker, label string) {
	buf.WriteString(marker)
	if label != "" {
		buf.WriteString(" " + label)
	}
	buf.WriteByte('\n')
}

// writeSlice writes lines, guaranteeing the slice ends with a newline so
// the following marker starts on its own line.
func writeSlice(buf *bytes.Buffer, lines []string) {
	for _, l := range lines {
		buf.WriteString(l)
	}
	if len(lines) > 0 && !strings.HasSuffix(lines[len(lines)-1], "\n") {
		buf.WriteByte('\n')
	}
}

// matchSet maps base line numbers to the matching side line numbers,
// 1-based, derived from the Equal edits of the two-way diff.
func matchSet(o, side []string) map[int]int {
	matches := make(map[int]int)
	for _, e := range diff.Diff(o, side) {
		if e.Type == diff.Equal {
			matches[e.AIndex+1] = e.BIndex + 1
		}
	}
	return matches
}

// merger holds the cursor state of one merge run. All fields are owned by
// a single Merge call; nothing is shared between runs.
type merger struct {
	o, a, b []string
	matchA  map[int]int
	matchB  map[int]int

	lineO, lineA, lineB int // lines consumed so far
	chunks              []Chunk
}

func (m *merger) run() {
	for {
		i, ok := m.findNextMismatch()
		if !ok {
			m.emitFinalChunk()
			return
		}

		if i == 1 {
			o, a, b, matched := m.findNextMatch()
			if !matched {
				m.emitFinalChunk()
				return
			}
			m.emitChunk(o, a, b)
		} else {
			// Lines 1..i-1 matched in lockstep; emit them as one chunk.
			m.emitChunk(m.lineO+i, m.lineA+i, m.lineB+i)
		}
	}
}

// findNextMismatch returns the 1-based offset of the first upcoming line
// that is not matched identically in both match sets, or ok=false when
// every remaining line matches.
func (m *merger) findNextMismatch() (int, bool) {
	i := 1
	for m.inBounds(i) &&
		m.matches(m.matchA, m.lineA, i) &&
		m.matches(m.matchB, m.lineB, i) {
		i++
	}
	if m.inBounds(i) {
		return i, true
	}
	return 0, false
}

func (m *merger) inBounds(i int) bool {
	return m.lineO+i <= len(m.o) || m.lineA+i <= len(m.a) || m.lineB+i <= len(m.b)
}

func (m *merger) matches(set map[int]int, offset, i int) bool {
	v, ok := set[m.lineO+i]
	return ok && v == offset+i
}

// findNextMatch scans base forward for the next line matched in both
// sets, returning the 1-based positions in all three sequences. matched
// is false when base runs out before such a line exists.
func (m *merger) findNextMatch() (o, a, b int, matched bool) {
	o = m.lineO + 1
	for o <= len(m.o) {
		_, inA := m.matchA[o]
		_, inB := m.matchB[o]
		if inA && inB {
			return o, m.matchA[o], m.matchB[o], true
		}
		o++
	}
	return 0, 0, 0, false
}

// emitChunk closes the region ending just before the given 1-based
// positions and advances all three cursors.
func (m *merger) emitChunk(o, a, b int) {
	m.writeChunk(
		m.o[m.lineO:o-1],
		m.a[m.lineA:a-1],
		m.b[m.lineB:b-1],
	)
	m.lineO = o - 1
	m.lineA = a - 1
	m.lineB = b - 1
}

func (m *merger) emitFinalChunk() {
	m.writeChunk(m.o[m.lineO:], m.a[m.lineA:], m.b[m.lineB:])
}

func (m *merger) writeChunk(o, a, b []string) {
	if len(o) == 0 && len(a) == 0 && len(b) == 0 {
		return
	}

	switch {
	case linesEqual(a, o) || linesEqual(a, b):
		// Ours tracks base, or both sides agree: take theirs.
		if len(b) > 0 {
			m.chunks = append(m.chunks, Chunk{Lines: b})
		}
	case linesEqual(b, o):
		// Theirs tracks base: take ours.
		if len(a) > 0 {
			m.chunks = append(m.chunks, Chunk{Lines: a})
		}
	default:
		m.chunks = append(m.chunks, Chunk{
			Conflict: true,
			Base:     o,
			Ours:     a,
			Theirs:   b,
		})
	}
}

func linesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
