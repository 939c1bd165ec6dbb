package diff

import (
	"fmt"
	"strings"
)

// hunkContext is the number of unchanged lines shown around each change in
// unified output.
const hunkContext = 3

// hunk is a contiguous group of edits plus surrounding context.
type hunk struct {
	aStart, aLen int
	bStart, bLen int
	edits        []Edit
}

// FormatUnified produces unified-diff output for the change from a to b,
// labeled with the given file names. Identical inputs produce "".
func FormatUnified(aName, bName string, a, b []byte) string {
	aLines := SplitLines(a)
	bLines := SplitLines(b)

	script := Diff(aLines, bLines)
	hunks := groupHunks(script)
	if len(hunks) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n", aName)
	fmt.Fprintf(&sb, "+++ b/%s\n", bName)

	for _, h := range hunks {
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n", h.aStart+1, h.aLen, h.bStart+1, h.bLen)
		for _, e := range h.edits {
			switch e.Type {
			case Equal:
				sb.WriteString(" " + withNewline(e.Text))
			case Delete:
				sb.WriteString("-" + withNewline(e.Text))
			case Insert:
				sb.WriteString("+" + withNewline(e.Text))
			}
		}
	}
	return sb.String()
}

// groupHunks splits an edit script into hunks, keeping up to hunkContext
// Equal lines on either side of each changed region and merging regions
// whose context would overlap.
func groupHunks(script []Edit) []hunk {
	var hunks []hunk

	i := 0
	for i < len(script) {
		// Skip to the next non-Equal edit.
		if script[i].Type == Equal {
			i++
			continue
		}

		// Back up for leading context.
		start := i - hunkContext
		if start < 0 {
			start = 0
		}

		// Extend through the change and trailing context, merging any
		// changes whose context would touch.
		end := i
		equalRun := 0
		for end < len(script) {
			if script[end].Type == Equal {
				equalRun++
				if equalRun > 2*hunkContext {
					break
				}
			} else {
				equalRun = 0
			}
			end++
		}
		// Trim trailing context back to hunkContext lines.
		if equalRun > hunkContext {
			end -= equalRun - hunkContext
		}

		h := hunk{edits: script[start:end]}
		h.aStart, h.bStart = hunkOrigin(script, start)
		for _, e := range h.edits {
			switch e.Type {
			case Equal:
				h.aLen++
				h.bLen++
			case Delete:
				h.aLen++
			case Insert:
				h.bLen++
			}
		}
		hunks = append(hunks, h)
		i = end
	}
	return hunks
}

// hunkOrigin returns the a/b line offsets at position start of the script.
func hunkOrigin(script []Edit, start int) (aStart, bStart int) {
	for _, e := range script[:start] {
		switch e.Type {
		case Equal:
			aStart++
			bStart++
		case Delete:
			aStart++
		case Insert:
			bStart++
		}
	}
	return aStart, bStart
}

func withNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
