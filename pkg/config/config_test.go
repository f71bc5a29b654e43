package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hansbonini/isotools/pkg/cdimage"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "isotools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "auto", cfg.Layout)
	assert.False(t, cfg.Verbose)
	assert.True(t, cfg.StripVersions)
	assert.True(t, cfg.Manifest.IncludeDirs)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, cdimage.LayoutAuto, cfg.ImageLayout())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
layout: mode2
verbose: true
strip_versions: false
manifest:
  include_dirs: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mode2", cfg.Layout)
	assert.True(t, cfg.Verbose)
	assert.False(t, cfg.StripVersions)
	assert.False(t, cfg.Manifest.IncludeDirs)
	assert.Equal(t, cdimage.LayoutMode2Form1, cfg.ImageLayout())
}

func TestLoad_KeepsDefaultsForMissingKeys(t *testing.T) {
	cfg, err := Load(writeConfig(t, "layout: iso\n"))
	require.NoError(t, err)

	assert.Equal(t, cdimage.LayoutISO, cfg.ImageLayout())
	assert.True(t, cfg.StripVersions)
	assert.True(t, cfg.Manifest.IncludeDirs)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		errText string
	}{
		{"invalid layout", "layout: cue\n", "invalid layout"},
		{"malformed yaml", "layout: [iso\n", "failed to parse config file"},
		{"wrong type", "verbose: maybe\n", "failed to parse config file"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errText)
		})
	}
}

func TestLoad_InvalidLayoutWrapsSentinel(t *testing.T) {
	_, err := Load(writeConfig(t, "layout: toc\n"))
	assert.ErrorIs(t, err, cdimage.ErrUnknownLayout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestImageLayout_InvalidFallsBackToAuto(t *testing.T) {
	cfg := &Config{Layout: "bogus"}
	assert.Error(t, cfg.Validate())
	assert.Equal(t, cdimage.LayoutAuto, cfg.ImageLayout())
}
