// Package linediff computes line-level diffs between two text
// snapshots. It is a pure, synchronous engine: the session store feeds
// it the VCS-head baseline and the live buffer and stores the result on
// the file tab.
package linediff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op classifies a diff line.
type Op int

const (
	// OpEqual is an unchanged line present in both snapshots.
	OpEqual Op = iota
	// OpInsert is a line only present in the modified snapshot.
	OpInsert
	// OpDelete is a line only present in the original snapshot.
	OpDelete
)

// String returns a human-readable name for the op.
func (o Op) String() string {
	switch o {
	case OpEqual:
		return "equal"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Line is a single line of diff output with its position in each
// snapshot. A zero line number means the line is absent on that side.
type Line struct {
	Op        Op
	Text      string
	OldNumber int
	NewNumber int
}

// Result holds the computed line diff plus summary counts.
type Result struct {
	Lines   []Line
	Added   int
	Removed int
}

// Changed reports whether the two snapshots differ at all.
func (r Result) Changed() bool {
	return r.Added > 0 || r.Removed > 0
}

// Compute diffs two text snapshots line by line. The line-mode
// transform keeps the comparison linear in line count rather than
// character count, which matters for large buffers on every debounced
// recompute.
func Compute(before, after string) Result {
	if before == after {
		return equalResult(before)
	}

	dmp := diffmatchpatch.New()
	beforeRunes, afterRunes, lineArray := dmp.DiffLinesToRunes(before, after)
	diffs := dmp.DiffMainRunes(beforeRunes, afterRunes, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var result Result
	oldNum, newNum := 1, 1

	for _, d := range diffs {
		for _, text := range splitKeepingLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				result.Lines = append(result.Lines, Line{
					Op: OpEqual, Text: text, OldNumber: oldNum, NewNumber: newNum,
				})
				oldNum++
				newNum++
			case diffmatchpatch.DiffDelete:
				result.Lines = append(result.Lines, Line{
					Op: OpDelete, Text: text, OldNumber: oldNum,
				})
				oldNum++
				result.Removed++
			case diffmatchpatch.DiffInsert:
				result.Lines = append(result.Lines, Line{
					Op: OpInsert, Text: text, NewNumber: newNum,
				})
				newNum++
				result.Added++
			}
		}
	}

	return result
}

// equalResult builds an all-equal result without running the diff.
func equalResult(text string) Result {
	lines := splitKeepingLines(text)
	result := Result{Lines: make([]Line, 0, len(lines))}
	for i, l := range lines {
		result.Lines = append(result.Lines, Line{
			Op: OpEqual, Text: l, OldNumber: i + 1, NewNumber: i + 1,
		})
	}
	return result
}

// splitKeepingLines splits diff text into logical lines, stripping the
// trailing newline of each. A trailing newline does not produce an
// empty phantom line.
func splitKeepingLines(text string) []string {
	if text == "" {
		return nil
	}
	trailing := strings.HasSuffix(text, "\n")
	if trailing {
		text = text[:len(text)-1]
	}
	return strings.Split(text, "\n")
}
