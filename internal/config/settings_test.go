package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptySettingsDefaults(t *testing.T) {
	cfg := EmptySettings()

	assert.Equal(t, DefaultMinProjectDimension, cfg.GetMinProjectDimension())
	assert.Equal(t, "Collection", cfg.GetProtectedCollection())
	assert.Zero(t, cfg.GetSpacingX())
	assert.Zero(t, cfg.GetSpacingY())
	assert.Zero(t, cfg.GetColumns())
	assert.Equal(t, ".scene", cfg.GetSceneExtension())
}

func TestLoadSettingsPartial(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "settings.json")
	testJSON := `{
  "min_project_dimension": 0.5,
  "columns": 4
}`
	require.NoError(t, os.WriteFile(configPath, []byte(testJSON), 0644))

	cfg, err := LoadSettings(configPath)
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.GetMinProjectDimension())
	assert.Equal(t, 4, cfg.GetColumns())
	// Omitted fields keep their defaults.
	assert.Equal(t, "Collection", cfg.GetProtectedCollection())
}

func TestLoadSettingsRejectsBadValues(t *testing.T) {
	tmpDir := t.TempDir()

	cases := map[string]string{
		"negative_columns.json":  `{"columns": -1}`,
		"zero_dimension.json":    `{"min_project_dimension": 0}`,
		"empty_protected.json":   `{"protected_collection": ""}`,
		"dotless_extension.json": `{"scene_extension": "scene"}`,
	}
	for name, body := range cases {
		path := filepath.Join(tmpDir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		_, err := LoadSettings(path)
		assert.Error(t, err, name)
	}
}

func TestLoadSettingsRequiresJSONExtension(t *testing.T) {
	_, err := LoadSettings("settings.yaml")
	assert.Error(t, err)
}
