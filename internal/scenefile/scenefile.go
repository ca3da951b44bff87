// Package scenefile reads and writes the native .scene container. A scene
// file is a sqlite database whose schema is managed by embedded migrations,
// so files written by earlier releases can be upgraded in place.
package scenefile

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Extension is the native scene-file extension.
const Extension = ".scene"

// FormatGenerator identifies the writer in scene_meta.
const FormatGenerator = "scenetools"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// EnsureExtension appends ext to path unless it already carries it
// (case-insensitive).
func EnsureExtension(path, ext string) string {
	if strings.EqualFold(filepath.Ext(path), ext) {
		return path
	}
	return path + ext
}

// open opens an existing scene file read-write. The file must exist; a
// missing path is an error rather than an implicitly created empty
// database.
func open(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("scene file %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open scene file %s: %w", path, err)
	}
	return db, nil
}

// create creates a fresh scene file at path, replacing any existing file,
// and brings its schema to the latest version.
func create(path string) (*sql.DB, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("replace scene file %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create scene file directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("create scene file %s: %w", path, err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		os.Remove(path)
		return nil, fmt.Errorf("initialize scene file schema: %w", err)
	}
	return db, nil
}
