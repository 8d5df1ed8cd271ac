package userconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectedServer_RoundTrip(t *testing.T) {
	t.Setenv("CRUISEMATE_CONFIG_DIR", filepath.Join(t.TempDir(), "cfg"))

	selected, err := GetSelectedServer()
	require.NoError(t, err)
	assert.Empty(t, selected)

	require.NoError(t, SetSelectedServer("http://127.0.0.1:8000/api/"))

	selected, err = GetSelectedServer()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8000/api/", selected)
}

func TestLoad_Corrupt(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CRUISEMATE_CONFIG_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte("nope"), 0644))

	_, err := Load()
	assert.ErrorContains(t, err, "failed to parse user config file")
}
