package formatter

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ChangeKind labels a run of lines in a diff.
type ChangeKind string

const (
	ChangeEqual  ChangeKind = "equal"
	ChangeInsert ChangeKind = "insert"
	ChangeDelete ChangeKind = "delete"
)

// Change is a run of consecutive lines with the same kind.
type Change struct {
	Kind  ChangeKind `json:"kind"`
	Lines []string   `json:"lines"`
}

// LineDiff compares two texts line by line.
type LineDiff struct {
	Changes []Change `json:"changes"`
	Added   int      `json:"added"`
	Removed int      `json:"removed"`
}

// Changed reports whether the texts differ.
func (d *LineDiff) Changed() bool {
	return d.Added > 0 || d.Removed > 0
}

// Diff computes the line changes that turn before into after, the way the
// "changes" view shows what formatting did to the input.
func Diff(before, after string) *LineDiff {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	out := &LineDiff{Changes: make([]Change, 0, len(diffs))}
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		if d.Text == "" {
			continue
		}
		c := Change{Lines: strings.Split(text, "\n")}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			c.Kind = ChangeInsert
			out.Added += len(c.Lines)
		case diffmatchpatch.DiffDelete:
			c.Kind = ChangeDelete
			out.Removed += len(c.Lines)
		default:
			c.Kind = ChangeEqual
		}
		out.Changes = append(out.Changes, c)
	}

	return out
}

// Unified renders the diff with +, - and space prefixes.
func (d *LineDiff) Unified() string {
	var b strings.Builder
	for _, c := range d.Changes {
		prefix := "  "
		switch c.Kind {
		case ChangeInsert:
			prefix = "+ "
		case ChangeDelete:
			prefix = "- "
		}
		for _, line := range c.Lines {
			b.WriteString(prefix)
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	return b.String()
}
