package srcfiles

import (
	"fmt"
	"strings"
)

// ErrorList is a list of Errors.
type ErrorList []*Error

// Append appends an Error to e.
func (e *ErrorList) Append(file *File, msg string, pos, end int) {
	*e = append(*e, &Error{msg, pos, end, file})
}

// Error concatenates the errors in e with a newline between each.
func (e ErrorList) Error() string {
	var b strings.Builder
	for i, err := range e {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

type Error struct {
	Msg  string
	Pos  int
	End  int
	file *File
}

func (e *Error) Error() string {
	if e.file == nil || e.Pos < 0 {
		return e.Msg
	}
	start := e.file.Position(e.Pos)
	end := e.file.Position(e.End)
	var b strings.Builder
	b.WriteString(e.Msg)
	if e.file.Name != "" {
		fmt.Fprintf(&b, " in %s", e.file.Name)
	}
	line := e.file.LineOfPos(e.Pos)
	fmt.Fprintf(&b, " at line %d, column %d:\n%s\n", start.Line, start.Column, line)
	if end.IsValid() && end.Pos > start.Pos {
		formatSpanError(&b, line, start, end)
	} else {
		formatPointError(&b, start)
	}
	return b.String()
}

func formatSpanError(b *strings.Builder, line string, start, end Position) {
	b.WriteString(strings.Repeat(" ", start.Column-1))
	n := end.Column - start.Column + 1
	if start.Line != end.Line {
		n = len(line) - start.Column + 1
	}
	b.WriteString(strings.Repeat("~", n))
}

func formatPointError(b *strings.Builder, start Position) {
	col := start.Column - 1
	for k := 0; k < col; k++ {
		if k >= col-4 && k != col-1 {
			b.WriteByte('=')
		} else {
			b.WriteByte(' ')
		}
	}
	b.WriteString("^ ===")
}
