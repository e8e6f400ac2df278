package settings

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreTypedAccess(t *testing.T) {
	s := NewMemStore()
	SetFloat(s, "ResizeBatch", "ScaleFactor", 0.5)
	SetInt(s, "ResizeBatch", "Mode", 3)
	SetBool(s, "ResizeBatch", "CorrectGamma", true)
	SetList(s, "General", "FileList", []string{"/a/b.png", "/c d/e.jpg"})

	assert.Equal(t, 0.5, Float(s, "ResizeBatch", "ScaleFactor", 1))
	assert.Equal(t, 3, Int(s, "ResizeBatch", "Mode", 0))
	assert.True(t, Bool(s, "ResizeBatch", "CorrectGamma", false))
	assert.Equal(t, []string{"/a/b.png", "/c d/e.jpg"}, List(s, "General", "FileList"))
	assert.Equal(t, 7, Int(s, "Missing", "Mode", 7))
	assert.Equal(t, []string{"ResizeBatch", "General"}, s.Groups())

	s.Clear()
	assert.Empty(t, s.Groups())
}

func TestINIStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.pnm")

	s := NewINIStore(path)
	SetList(s, "General", "FileList", []string{"/in/a.png", "/in/b #2.png"})
	s.Set("General", "FileNamePattern", "<c:0>_done.<old>")
	SetInt(s, "SaveInfo", "Mode", 1)
	s.Set(SubGroup("PluginBatch", "Adjust"), "Sigma", "1.5")
	require.NoError(t, s.Save())

	loaded, err := OpenINI(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/in/a.png", "/in/b #2.png"}, List(loaded, "General", "FileList"))
	assert.Equal(t, "<c:0>_done.<old>", String(loaded, "General", "FileNamePattern", ""))
	assert.Equal(t, 1, Int(loaded, "SaveInfo", "Mode", 0))
	assert.Equal(t, []string{"General", "SaveInfo", "PluginBatch/Adjust"}, loaded.Groups())
	assert.True(t, IsSubGroup("PluginBatch/Adjust"))
}

func TestINIStoreKeepsBackslashesAndSpaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.pnm")

	s := NewINIStore(path)
	s.Set("General", "OutputDirPath", `/in/back\`)
	s.Set("General", "FileNamePattern", "  lead.png")
	s.Set("General", "Other", `C:\out\`)
	require.NoError(t, s.Save())

	loaded, err := OpenINI(path)
	require.NoError(t, err)
	assert.Equal(t, `/in/back\`, String(loaded, "General", "OutputDirPath", ""))
	assert.Equal(t, "  lead.png", String(loaded, "General", "FileNamePattern", ""))
	assert.Equal(t, `C:\out\`, String(loaded, "General", "Other", ""))
}

func TestOpenINIMissingFile(t *testing.T) {
	_, err := OpenINI(filepath.Join(t.TempDir(), "nope.pnm"))
	assert.Error(t, err)
}
