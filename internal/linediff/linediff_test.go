package linediff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCompute_IdenticalSnapshots(t *testing.T) {
	result := Compute("a\nb\nc\n", "a\nb\nc\n")

	assert.False(t, result.Changed())
	assert.Equal(t, 0, result.Added)
	assert.Equal(t, 0, result.Removed)
	require.Len(t, result.Lines, 3)
	for i, line := range result.Lines {
		assert.Equal(t, OpEqual, line.Op)
		assert.Equal(t, i+1, line.OldNumber)
		assert.Equal(t, i+1, line.NewNumber)
	}
}

func TestCompute_InsertedLine(t *testing.T) {
	result := Compute("a\nc\n", "a\nb\nc\n")

	assert.True(t, result.Changed())
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 0, result.Removed)

	var inserted []Line
	for _, l := range result.Lines {
		if l.Op == OpInsert {
			inserted = append(inserted, l)
		}
	}
	require.Len(t, inserted, 1)
	assert.Equal(t, "b", inserted[0].Text)
	assert.Equal(t, 2, inserted[0].NewNumber)
	assert.Equal(t, 0, inserted[0].OldNumber)
}

func TestCompute_DeletedLine(t *testing.T) {
	result := Compute("a\nb\nc\n", "a\nc\n")

	assert.Equal(t, 0, result.Added)
	assert.Equal(t, 1, result.Removed)

	var deleted []Line
	for _, l := range result.Lines {
		if l.Op == OpDelete {
			deleted = append(deleted, l)
		}
	}
	require.Len(t, deleted, 1)
	assert.Equal(t, "b", deleted[0].Text)
	assert.Equal(t, 2, deleted[0].OldNumber)
	assert.Equal(t, 0, deleted[0].NewNumber)
}

func TestCompute_ModifiedLine(t *testing.T) {
	result := Compute("a\nold\nc\n", "a\nnew\nc\n")

	// A modified line surfaces as delete plus insert.
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Removed)
}

func TestCompute_EmptyBaseline(t *testing.T) {
	result := Compute("", "a\nb\n")

	assert.Equal(t, 2, result.Added)
	assert.Equal(t, 0, result.Removed)
	for _, l := range result.Lines {
		assert.Equal(t, OpInsert, l.Op)
	}
}

func TestCompute_EmptyModified(t *testing.T) {
	result := Compute("a\nb\n", "")

	assert.Equal(t, 0, result.Added)
	assert.Equal(t, 2, result.Removed)
}

func TestCompute_BothEmpty(t *testing.T) {
	result := Compute("", "")

	assert.False(t, result.Changed())
	assert.Empty(t, result.Lines)
}

func TestCompute_NoTrailingNewline(t *testing.T) {
	result := Compute("a\nb", "a\nb")

	require.Len(t, result.Lines, 2)
	assert.Equal(t, "b", result.Lines[1].Text)
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "equal", OpEqual.String())
	assert.Equal(t, "insert", OpInsert.String())
	assert.Equal(t, "delete", OpDelete.String())
	assert.Equal(t, "unknown", Op(99).String())
}

// Property: reconstructing each side from the diff output yields the
// original snapshots, and the summary counts match the line ops.
func TestCompute_Reconstruction(t *testing.T) {
	lineGen := rapid.SampledFrom([]string{"alpha", "beta", "gamma", "delta", ""})

	rapid.Check(t, func(t *rapid.T) {
		beforeLines := rapid.SliceOfN(lineGen, 0, 8).Draw(t, "before")
		afterLines := rapid.SliceOfN(lineGen, 0, 8).Draw(t, "after")

		before := joinLines(beforeLines)
		after := joinLines(afterLines)

		result := Compute(before, after)

		var rebuiltBefore, rebuiltAfter []string
		added, removed := 0, 0
		for _, l := range result.Lines {
			switch l.Op {
			case OpEqual:
				rebuiltBefore = append(rebuiltBefore, l.Text)
				rebuiltAfter = append(rebuiltAfter, l.Text)
			case OpDelete:
				rebuiltBefore = append(rebuiltBefore, l.Text)
				removed++
			case OpInsert:
				rebuiltAfter = append(rebuiltAfter, l.Text)
				added++
			}
		}

		if joinLines(rebuiltBefore) != before {
			t.Fatalf("before reconstruction mismatch: %q != %q", joinLines(rebuiltBefore), before)
		}
		if joinLines(rebuiltAfter) != after {
			t.Fatalf("after reconstruction mismatch: %q != %q", joinLines(rebuiltAfter), after)
		}
		if added != result.Added || removed != result.Removed {
			t.Fatalf("count mismatch: counted %d/%d, reported %d/%d", added, removed, result.Added, result.Removed)
		}
	})
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
