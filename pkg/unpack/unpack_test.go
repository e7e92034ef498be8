package unpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shape interface {
	area() int
}

type circle struct {
	Op     string `json:"op" unpack:""`
	Radius int    `json:"radius"`
}

type rect struct {
	Op     string `json:"op" unpack:"rectangle"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (c *circle) area() int { return 3 * c.Radius * c.Radius }
func (r *rect) area() int   { return r.Width * r.Height }

type drawing struct {
	Top    shape   `json:"top"`
	Extras []shape `json:"extras"`
	Title  string  `json:"title"`
}

var shapes = New(circle{}, rect{})

func TestUnmarshalInterface(t *testing.T) {
	var s shape
	err := shapes.Unmarshal([]byte(`{"op":"circle","radius":2}`), &s)
	require.NoError(t, err)
	c, ok := s.(*circle)
	require.True(t, ok)
	assert.Equal(t, 2, c.Radius)
}

// The discriminator value defaults to the struct's type name and may be
// overridden by the tag.
func TestDiscriminatorTagOverride(t *testing.T) {
	var s shape
	err := shapes.Unmarshal([]byte(`{"op":"rectangle","width":3,"height":4}`), &s)
	require.NoError(t, err)
	r, ok := s.(*rect)
	require.True(t, ok)
	assert.Equal(t, 12, r.area())
}

func TestUnmarshalNested(t *testing.T) {
	text := `{
		"title": "two shapes",
		"top": {"op":"circle","radius":1},
		"extras": [{"op":"rectangle","width":2,"height":5}, null]
	}`
	var d drawing
	require.NoError(t, shapes.Unmarshal([]byte(text), &d))
	assert.Equal(t, "two shapes", d.Title)
	require.IsType(t, &circle{}, d.Top)
	require.Len(t, d.Extras, 2)
	assert.Equal(t, 10, d.Extras[0].area())
	assert.Nil(t, d.Extras[1])
}

func TestUnmarshalNullInterface(t *testing.T) {
	var d drawing
	require.NoError(t, shapes.Unmarshal([]byte(`{"top":null}`), &d))
	assert.Nil(t, d.Top)
}

func TestUnknownVariant(t *testing.T) {
	var s shape
	err := shapes.Unmarshal([]byte(`{"op":"triangle"}`), &s)
	require.ErrorContains(t, err, `unknown variant "triangle"`)
}

func TestMissingDiscriminator(t *testing.T) {
	var s shape
	err := shapes.Unmarshal([]byte(`{"radius":1}`), &s)
	require.ErrorContains(t, err, "no discriminator")
}

func TestUnmarshalObject(t *testing.T) {
	anon := map[string]any{"op": "circle", "radius": 3}
	var s shape
	require.NoError(t, shapes.UnmarshalObject(anon, &s))
	assert.Equal(t, 27, s.area())
}

func TestResultMustBePointer(t *testing.T) {
	var s shape
	err := shapes.Unmarshal([]byte(`{"op":"circle"}`), s)
	require.ErrorContains(t, err, "non-nil pointer")
}

func TestAddRejectsConflicts(t *testing.T) {
	assert.Panics(t, func() {
		New(circle{}, struct {
			Op string `json:"op" unpack:"circle"`
		}{})
	})
	assert.Panics(t, func() {
		New(struct{ Op string }{})
	})
}
