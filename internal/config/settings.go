// Package config loads the tool's settings. Fields are pointers decoded
// from JSON so partial config files are safe: anything omitted falls back
// to a built-in default through the Get* accessors.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Built-in defaults. MinProjectDimension keeps grid cells from collapsing
// when a source file has no measurable geometry.
const (
	DefaultMinProjectDimension = 0.1
	DefaultProtectedCollection = "Collection"
	DefaultSceneExtension      = ".scene"
	DefaultColumns             = 0
	DefaultSpacing             = 0.0
)

// Settings is the root configuration for scenetools. The schema matches the
// CLI flag surface so the same JSON can seed defaults for every subcommand.
type Settings struct {
	// MinProjectDimension is the minimum footprint edge length for
	// imported projects.
	MinProjectDimension *float64 `json:"min_project_dimension,omitempty"`

	// ProtectedCollection is the collection name the empty-collection
	// sweep never deletes.
	ProtectedCollection *string `json:"protected_collection,omitempty"`

	// SpacingX and SpacingY are the default extra grid spacing per axis.
	SpacingX *float64 `json:"spacing_x,omitempty"`
	SpacingY *float64 `json:"spacing_y,omitempty"`

	// Columns is the default projects-per-row count; 0 means a single row.
	Columns *int `json:"columns,omitempty"`

	// SceneExtension is the native scene-file extension, dot included.
	SceneExtension *string `json:"scene_extension,omitempty"`
}

// EmptySettings returns a Settings with all fields unset. Use LoadSettings
// to populate from a file; the Get* accessors fall back to defaults.
func EmptySettings() *Settings {
	return &Settings{}
}

// LoadSettings loads Settings from a JSON file. The file must have a .json
// extension and stay under the max file size. Fields omitted from the JSON
// keep their defaults, so partial configs are safe.
func LoadSettings(path string) (*Settings, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySettings()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Settings) Validate() error {
	if c.MinProjectDimension != nil && *c.MinProjectDimension <= 0 {
		return fmt.Errorf("min_project_dimension must be positive, got %f", *c.MinProjectDimension)
	}
	if c.Columns != nil && *c.Columns < 0 {
		return fmt.Errorf("columns must be non-negative, got %d", *c.Columns)
	}
	if c.ProtectedCollection != nil && *c.ProtectedCollection == "" {
		return fmt.Errorf("protected_collection must not be empty")
	}
	if c.SceneExtension != nil && !strings.HasPrefix(*c.SceneExtension, ".") {
		return fmt.Errorf("scene_extension must start with a dot, got %q", *c.SceneExtension)
	}
	return nil
}

// GetMinProjectDimension returns the minimum project dimension or the default.
func (c *Settings) GetMinProjectDimension() float64 {
	if c.MinProjectDimension == nil {
		return DefaultMinProjectDimension
	}
	return *c.MinProjectDimension
}

// GetProtectedCollection returns the protected collection name or the default.
func (c *Settings) GetProtectedCollection() string {
	if c.ProtectedCollection == nil {
		return DefaultProtectedCollection
	}
	return *c.ProtectedCollection
}

// GetSpacingX returns the X spacing or the default.
func (c *Settings) GetSpacingX() float64 {
	if c.SpacingX == nil {
		return DefaultSpacing
	}
	return *c.SpacingX
}

// GetSpacingY returns the Y spacing or the default.
func (c *Settings) GetSpacingY() float64 {
	if c.SpacingY == nil {
		return DefaultSpacing
	}
	return *c.SpacingY
}

// GetColumns returns the projects-per-row count or the default.
func (c *Settings) GetColumns() int {
	if c.Columns == nil {
		return DefaultColumns
	}
	return *c.Columns
}

// GetSceneExtension returns the scene-file extension or the default.
func (c *Settings) GetSceneExtension() string {
	if c.SceneExtension == nil {
		return DefaultSceneExtension
	}
	return *c.SceneExtension
}
