package srcfiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosition(t *testing.T) {
	f := New("q.relq", "from t\nfilter a > 1\n")
	cases := []struct {
		pos, line, column int
	}{
		{0, 1, 1},
		{5, 1, 6},
		{7, 2, 1},
		{14, 2, 8},
	}
	for _, c := range cases {
		p := f.Position(c.pos)
		assert.Equal(t, c.line, p.Line, "pos %d", c.pos)
		assert.Equal(t, c.column, p.Column, "pos %d", c.pos)
		assert.True(t, p.IsValid())
	}
	assert.False(t, f.Position(-1).IsValid())
	var nilFile *File
	assert.False(t, nilFile.Position(0).IsValid())
}

func TestLineOfPos(t *testing.T) {
	f := New("q.relq", "from t\nfilter a > 1\ntake 3")
	assert.Equal(t, "from t", f.LineOfPos(0))
	assert.Equal(t, "filter a > 1", f.LineOfPos(7))
	assert.Equal(t, "take 3", f.LineOfPos(21))
}

func TestSpanError(t *testing.T) {
	f := New("q.relq", "from t | fliter x\n")
	var list ErrorList
	list.Append(f, `unknown transform "fliter"`, 9, 17)
	msg := list.Error()
	require.Contains(t, msg, `unknown transform "fliter" in q.relq at line 1, column 10:`)
	require.Contains(t, msg, "from t | fliter x\n")
	assert.Contains(t, msg, "         ~~~~~~~~")
}

func TestPointError(t *testing.T) {
	f := New("", "from t | fliter x\n")
	var list ErrorList
	list.Append(f, "bad stage", 9, 9)
	assert.Contains(t, list.Error(), "^ ===")
}

func TestErrorWithoutFile(t *testing.T) {
	var list ErrorList
	list.Append(nil, "no position", -1, -1)
	list.Append(nil, "second", -1, -1)
	assert.Equal(t, "no position\nsecond", list.Error())
}
