package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	p, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestLoadReadsDefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "portal")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prefs.toml"),
		[]byte("default_tab = \"playlists\"\nshow_descriptions = false\n"), 0o644))

	p, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "playlists", p.DefaultTab)
	assert.False(t, p.ShowDescriptions)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.toml")
	want := Prefs{DefaultTab: "popularVideos", ShowDescriptions: false}

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUnknownTabFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	require.NoError(t, os.WriteFile(path, []byte("default_tab = \"shorts\"\n"), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "latestVideos", p.DefaultTab)
	assert.True(t, p.ShowDescriptions)
}

func TestMalformedFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	require.NoError(t, os.WriteFile(path, []byte("default_tab = = \n"), 0o644))

	p, err := Load(path)
	assert.Error(t, err)
	assert.Equal(t, Default(), p)
}
