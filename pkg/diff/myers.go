package diff

import "strings"

// EditType classifies an operation in an edit script.
type EditType int

const (
	Equal  EditType = iota // Line is unchanged between a and b.
	Insert                 // Line was inserted (present in b only).
	Delete                 // Line was deleted (present in a only).
)

// Edit is a single operation in an edit script produced by Diff. AIndex is
// the line's position in a (Equal, Delete), BIndex its position in b
// (Equal, Insert); an index that does not apply is -1.
type Edit struct {
	Type   EditType
	AIndex int
	BIndex int
	Text   string
}

// SplitLines splits data into terminator-preserving lines: every element
// except possibly the last ends with '\n'. Empty input yields nil.
func SplitLines(data []byte) []string {
	s := string(data)
	if s == "" {
		return nil
	}

	var lines []string
	for len(s) > 0 {
		idx := strings.IndexByte(s, '\n')
		if idx < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:idx+1])
		s = s[idx+1:]
	}
	return lines
}

// Diff computes the shortest edit script transforming a into b using the
// Myers algorithm operating on whole lines. Equal edits are emitted only
// where a[i] == b[j] exactly. Ties between equal-length scripts resolve
// deterministically in favor of the earliest match.
//
// The algorithm runs in O((N+M)*D) time where N and M are the lengths of
// a and b, and D is the size of the minimum edit script.
func Diff(a, b []string) []Edit {
	n := len(a)
	m := len(b)

	// Trivial cases.
	if n == 0 && m == 0 {
		return nil
	}
	if n == 0 {
		ops := make([]Edit, m)
		for i, line := range b {
			ops[i] = Edit{Type: Insert, AIndex: -1, BIndex: i, Text: line}
		}
		return ops
	}
	if m == 0 {
		ops := make([]Edit, n)
		for i, line := range a {
			ops[i] = Edit{Type: Delete, AIndex: i, BIndex: -1, Text: line}
		}
		return ops
	}

	max := n + m
	size := 2*max + 1

	v := make([]int, size)

	// trace[d] holds a snapshot of v after processing edit distance d.
	var trace [][]int

	for d := 0; d <= max; d++ {
		for k := -d; k <= d; k += 2 {
			idx := k + max
			var x int
			if k == -d || (k != d && v[idx-1] < v[idx+1]) {
				x = v[idx+1] // move down (insert)
			} else {
				x = v[idx-1] + 1 // move right (delete)
			}
			y := x - k

			// Follow diagonal (equal lines).
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}

			v[idx] = x

			if x >= n && y >= m {
				snap := make([]int, size)
				copy(snap, v)
				trace = append(trace, snap)
				return backtrack(trace, a, b, d)
			}
		}

		snap := make([]int, size)
		copy(snap, v)
		trace = append(trace, snap)
	}

	// Unreachable for valid inputs.
	return nil
}

// backtrack reconstructs the edit script from the trace of v snapshots.
func backtrack(trace [][]int, a, b []string, dFinal int) []Edit {
	n := len(a)
	m := len(b)
	max := n + m

	x := n
	y := m

	// Build the edit script in reverse.
	var ops []Edit

	for d := dFinal; d > 0; d-- {
		k := x - y
		idx := k + max

		vPrev := trace[d-1]

		var prevK int
		if k == -d || (k != d && vPrev[idx-1] < vPrev[idx+1]) {
			prevK = k + 1 // came from an insert (down move)
		} else {
			prevK = k - 1 // came from a delete (right move)
		}

		prevX := vPrev[prevK+max]
		prevY := prevX - prevK

		// Trace back along the diagonal (equal lines).
		for x > prevX && y > prevY {
			x--
			y--
			ops = append(ops, Edit{Type: Equal, AIndex: x, BIndex: y, Text: a[x]})
		}

		if k == prevK+1 {
			// This was a delete (right move).
			x--
			ops = append(ops, Edit{Type: Delete, AIndex: x, BIndex: -1, Text: a[x]})
		} else {
			// This was an insert (down move).
			y--
			ops = append(ops, Edit{Type: Insert, AIndex: -1, BIndex: y, Text: b[y]})
		}
	}

	// Remaining diagonal at d=0.
	for x > 0 && y > 0 {
		x--
		y--
		ops = append(ops, Edit{Type: Equal, AIndex: x, BIndex: y, Text: a[x]})
	}

	// Reverse to get forward order.
	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}

	return ops
}
