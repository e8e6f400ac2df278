package filename

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertSequentialNumbers(t *testing.T) {
	for i, want := range []string{"000", "001", "002"} {
		assert.Equal(t, want, Convert("photo.jpg", "<d:2:0>", i))
	}
	assert.Equal(t, "000.jpg", Convert("photo.jpg", "<d:2:0>.<old>", 0))
	assert.Equal(t, "img_0012.png", Convert("x.tif", "img_<d:3:10>.png", 2))
}

func TestConvertCase(t *testing.T) {
	assert.Equal(t, "IMG.JPG", Convert("Img.JPG", "<c:2>.<old>", 0))
	assert.Equal(t, "img.JPG", Convert("Img.JPG", "<c:1>.<old>", 0))
	assert.Equal(t, "Img.JPG", Convert("Img.JPG", "<c:0>.<old>", 0))
	assert.Equal(t, "Img.webp", Convert("Img.JPG", "<c:0>.webp", 0))
}

func TestConvertLiteralAndBaseName(t *testing.T) {
	assert.Equal(t, "a_done.png", Convert("a.png", "<c:0>_done.<old>", 0))
	assert.Equal(t, "holiday-a-01.png", Convert("a.png", "holiday-<c:0>-<d:1:1>.<old>", 0))
	assert.Equal(t, "noext_1", Convert("noext", "<c:0>_<d:0:1>.<old>", 0))
}

func TestConvertDropsMalformedTokens(t *testing.T) {
	assert.Equal(t, "a-.png", Convert("a.png", "<c:0>-<x:3>.<old>", 0))
	assert.Equal(t, "a.png", Convert("a.png", "<c:0><d:q:1>.<old>", 0))

	_, errs := Parse("<c:0><zz:1><d:1>.<old>")
	assert.Len(t, errs, 1)
}

func TestConvertEmptyPattern(t *testing.T) {
	assert.Equal(t, "", Convert("a.png", "", 3))
}

func TestPatternRoundTrip(t *testing.T) {
	patterns := []Pattern{
		{Tokens: []Token{{Kind: BaseName, Case: UpperCase}}, KeepExt: true},
		{Tokens: []Token{{Kind: Literal, Text: "shot_"}, {Kind: Number, Width: 3, Start: 5}}, Ext: ".jpg"},
		{Tokens: []Token{
			{Kind: Number, Width: 0},
			{Kind: Literal, Text: "-"},
			{Kind: BaseName, Case: LowerCase},
			{Kind: Literal, Text: "_x"},
		}, KeepExt: true},
	}
	for _, p := range patterns {
		t.Run(p.String(), func(t *testing.T) {
			got, errs := Parse(p.String())
			require.Empty(t, errs)
			assert.Equal(t, p, got)
		})
	}
}
