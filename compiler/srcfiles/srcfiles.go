// Package srcfiles maps byte offsets in RelQ source text to line/column
// positions and renders positioned compile errors.  The compiler core
// itself never interprets positions; node spans index into a File and
// passes use it to attach positions to their diagnostics.
package srcfiles

import (
	"sort"
)

// File holds one source text and its line offsets.
type File struct {
	Name  string
	Text  string
	lines []int
}

func New(name, text string) *File {
	lines := []int{0}
	for offset, b := range []byte(text) {
		if b == '\n' {
			lines = append(lines, offset+1)
		}
	}
	return &File{Name: name, Text: text, lines: lines}
}

func (f *File) Position(pos int) Position {
	if f == nil || pos < 0 {
		return Position{-1, -1, -1}
	}
	i := searchLine(f.lines, pos)
	return Position{
		Pos:    pos,
		Line:   i + 1,
		Column: pos - f.lines[i] + 1,
	}
}

// LineOfPos returns the full source line containing pos, without its
// trailing newline.
func (f *File) LineOfPos(pos int) string {
	i := searchLine(f.lines, pos)
	start := f.lines[i]
	end := len(f.Text)
	if i+1 < len(f.lines) {
		end = f.lines[i+1]
	}
	line := f.Text[start:end]
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	return line
}

func searchLine(lines []int, offset int) int {
	i := sort.Search(len(lines), func(i int) bool { return lines[i] > offset }) - 1
	if i < 0 {
		return 0
	}
	return i
}

type Position struct {
	Pos    int `json:"pos"`    // Byte offset into File.Text.
	Line   int `json:"line"`   // 1-based line number.
	Column int `json:"column"` // 1-based column number.
}

func (p Position) IsValid() bool { return p.Pos >= 0 }
