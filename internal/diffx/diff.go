// Package diffx computes line-level diffs between two text contents.
// It is pure: identical inputs always produce identical output, and nothing
// here touches storage or the clock.
package diffx

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Op classifies a line record in a diff.
type Op int

const (
	OpEqual Op = iota
	OpAdd
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpEqual:
		return "equal"
	case OpAdd:
		return "add"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Line is one aligned line record. Text keeps its original line ending so
// that records concatenate back into the exact source text.
type Line struct {
	Op   Op
	Text string
}

// Result is the outcome of comparing two contents.
type Result struct {
	// Lines is the full alignment in order: equal, added and removed records.
	Lines []Line
	// Additions and Deletions list the changed line texts with line endings
	// stripped, for presentation.
	Additions []string
	Deletions []string
	// Unified is the conventional unified-diff rendering.
	Unified string
}

// Empty reports whether the two contents were identical.
func (r *Result) Empty() bool {
	return len(r.Additions) == 0 && len(r.Deletions) == 0
}

// splitLines splits content into lines keeping line endings, so that
// strings.Join(lines, "") == content. Empty content has no lines.
func splitLines(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Diff compares two contents with generic from/to labels.
func Diff(a, b string) (*Result, error) {
	return DiffWithLabels(a, b, "a", "b")
}

// DiffWithLabels compares two contents and labels the unified-diff header
// with the given names.
func DiffWithLabels(a, b, fromLabel, toLabel string) (*Result, error) {
	aLines := splitLines(a)
	bLines := splitLines(b)

	m := difflib.NewMatcher(aLines, bLines)

	res := &Result{
		Lines:     make([]Line, 0, len(aLines)+len(bLines)),
		Additions: []string{},
		Deletions: []string{},
	}

	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'e':
			for _, l := range aLines[op.I1:op.I2] {
				res.Lines = append(res.Lines, Line{Op: OpEqual, Text: l})
			}
		case 'd':
			res.appendDeletions(aLines[op.I1:op.I2])
		case 'i':
			res.appendAdditions(bLines[op.J1:op.J2])
		case 'r':
			res.appendDeletions(aLines[op.I1:op.I2])
			res.appendAdditions(bLines[op.J1:op.J2])
		}
	}

	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        aLines,
		B:        bLines,
		FromFile: fromLabel,
		ToFile:   toLabel,
		Context:  3,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering unified diff: %w", err)
	}
	res.Unified = unified

	return res, nil
}

func (r *Result) appendDeletions(lines []string) {
	for _, l := range lines {
		r.Lines = append(r.Lines, Line{Op: OpDelete, Text: l})
		r.Deletions = append(r.Deletions, strings.TrimSuffix(l, "\n"))
	}
}

func (r *Result) appendAdditions(lines []string) {
	for _, l := range lines {
		r.Lines = append(r.Lines, Line{Op: OpAdd, Text: l})
		r.Additions = append(r.Additions, strings.TrimSuffix(l, "\n"))
	}
}

// Apply replays the diff records against the original content and returns
// the target content. It fails if the records do not line up with a, which
// guards against applying a diff to the wrong base.
func Apply(a string, lines []Line) (string, error) {
	rest := a
	var b strings.Builder

	for i, rec := range lines {
		switch rec.Op {
		case OpEqual:
			if !strings.HasPrefix(rest, rec.Text) {
				return "", fmt.Errorf("record %d: base text mismatch", i)
			}
			rest = rest[len(rec.Text):]
			b.WriteString(rec.Text)
		case OpDelete:
			if !strings.HasPrefix(rest, rec.Text) {
				return "", fmt.Errorf("record %d: base text mismatch", i)
			}
			rest = rest[len(rec.Text):]
		case OpAdd:
			b.WriteString(rec.Text)
		default:
			return "", fmt.Errorf("record %d: unknown op %d", i, rec.Op)
		}
	}

	if rest != "" {
		return "", fmt.Errorf("diff does not cover %d trailing bytes of base", len(rest))
	}

	return b.String(), nil
}
