// internal/diff/diff.go
package diff

import (
	"bytes"
	"strings"
)

// Kind classifies a diff segment
type Kind int

const (
	Equal Kind = iota
	Added
	Removed
)

// Segment is one classified line of a diff. Text keeps the original
// line terminator so concatenating the right segments reconstructs a
// document byte for byte.
type Segment struct {
	Kind Kind
	Text string
}

// Result contains the complete diff information
type Result struct {
	Segments []Segment
	Stats    struct {
		Additions int
		Removals  int
	}
}

// Engine provides line-level diffing between two text blobs
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Diff computes an ordered segment sequence between two contents using
// a longest-common-subsequence line diff. Segments follow the document
// order of the new text, with removals interleaved at the point of
// divergence. Same inputs always yield the same sequence.
func (e *Engine) Diff(oldContent, newContent []byte) (*Result, error) {
	oldLines := splitLines(oldContent)
	newLines := splitLines(newContent)

	lcs := e.computeLCS(oldLines, newLines)

	result := &Result{}
	result.Segments = e.walk(oldLines, newLines, lcs)

	for _, seg := range result.Segments {
		switch seg.Kind {
		case Added:
			result.Stats.Additions++
		case Removed:
			result.Stats.Removals++
		}
	}

	return result, nil
}

// computeLCS builds a suffix LCS matrix: lcs[i][j] is the length of the
// longest common subsequence of oldLines[i:] and newLines[j:].
func (e *Engine) computeLCS(oldLines, newLines [][]byte) [][]int {
	matrix := make([][]int, len(oldLines)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(newLines)+1)
	}

	for i := len(oldLines) - 1; i >= 0; i-- {
		for j := len(newLines) - 1; j >= 0; j-- {
			if bytes.Equal(oldLines[i], newLines[j]) {
				matrix[i][j] = matrix[i+1][j+1] + 1
			} else {
				matrix[i][j] = max(matrix[i+1][j], matrix[i][j+1])
			}
		}
	}

	return matrix
}

// walk emits segments front to back, preferring removals over additions
// at a divergence point.
func (e *Engine) walk(oldLines, newLines [][]byte, lcs [][]int) []Segment {
	var segments []Segment

	i, j := 0, 0
	for i < len(oldLines) || j < len(newLines) {
		switch {
		case i < len(oldLines) && j < len(newLines) && bytes.Equal(oldLines[i], newLines[j]):
			segments = append(segments, Segment{Kind: Equal, Text: string(oldLines[i])})
			i++
			j++
		case i < len(oldLines) && (j == len(newLines) || lcs[i+1][j] >= lcs[i][j+1]):
			segments = append(segments, Segment{Kind: Removed, Text: string(oldLines[i])})
			i++
		default:
			segments = append(segments, Segment{Kind: Added, Text: string(newLines[j])})
			j++
		}
	}

	return segments
}

// splitLines splits content after each newline, keeping the terminator.
// A trailing line without a terminator is preserved as-is.
func splitLines(content []byte) [][]byte {
	if len(content) == 0 {
		return nil
	}

	var lines [][]byte
	start := 0
	for k, b := range content {
		if b == '\n' {
			lines = append(lines, content[start:k+1])
			start = k + 1
		}
	}
	if start < len(content) {
		lines = append(lines, content[start:])
	}

	return lines
}

// Format returns a unified-style string representation of the diff
func (r *Result) Format() string {
	var buf bytes.Buffer

	for _, seg := range r.Segments {
		switch seg.Kind {
		case Added:
			buf.WriteString("+ ")
		case Removed:
			buf.WriteString("- ")
		case Equal:
			buf.WriteString("  ")
		}
		buf.WriteString(seg.Text)
		if !strings.HasSuffix(seg.Text, "\n") {
			buf.WriteString("\n")
		}
	}

	return buf.String()
}
