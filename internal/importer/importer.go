// Package importer lays out scene files from a folder on a grid inside a
// live document. It runs two passes over the sources: a measurement pass
// that loads, measures and discards each file's objects, and an import
// pass that loads them for real and translates them to their grid cell.
package importer

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/forge3d/scenetools/internal/config"
	"github.com/forge3d/scenetools/internal/fsutil"
	"github.com/forge3d/scenetools/internal/layout"
	"github.com/forge3d/scenetools/internal/monitoring"
	"github.com/forge3d/scenetools/internal/scene"
	"github.com/forge3d/scenetools/internal/scenefile"
)

var (
	// ErrValidation is the base class of every precondition failure.
	// Nothing has been mutated when an error wrapping it is returned.
	ErrValidation = errors.New("import validation failed")

	ErrNotAFolder = fmt.Errorf("%w: source folder does not exist or is not a directory", ErrValidation)
	ErrNoSources  = fmt.Errorf("%w: no scene files under source folder", ErrValidation)
)

// Library is the load capability the importer runs against. Both calls
// report exactly the entities they introduced into the document.
type Library interface {
	LoadObjects(d *scene.Document, path string) (*scenefile.LoadResult, error)
	Load(d *scene.Document, path string) (*scenefile.LoadResult, error)
}

// Reference is an explicit start origin for the grid.
type Reference struct {
	X, Y float64
}

// Options control a single import run.
type Options struct {
	// Folder is scanned recursively for scene files.
	Folder string
	// Reference, when set, anchors the grid. When nil the grid starts
	// just beyond the document's existing content bounds.
	Reference *Reference
	// SpacingX and SpacingY add extra distance between cells.
	SpacingX float64
	SpacingY float64
	// Columns caps the number of columns; zero means a single row.
	Columns int
}

// Placement records where one source file landed.
type Placement struct {
	SourcePath string
	Row, Col   int
	TargetX    float64
	TargetY    float64
	Extent     layout.Extent
	Container  string
	Objects    int
}

// Result summarizes an import run for callers and for report rendering.
type Result struct {
	Folder     string
	Grid       layout.Grid
	Placements []Placement
}

// Files reports how many source files were imported.
func (r *Result) Files() int { return len(r.Placements) }

// Importer wires the capabilities an import run needs.
type Importer struct {
	Library  Library
	FS       fsutil.FileSystem
	Reporter *monitoring.Reporter
	Config   *config.Settings
}

// New returns an Importer with OS-backed defaults for any nil capability.
func New(lib Library, fs fsutil.FileSystem, rep *monitoring.Reporter, cfg *config.Settings) *Importer {
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	if rep == nil {
		rep = monitoring.NewReporter()
	}
	if cfg == nil {
		cfg = config.EmptySettings()
	}
	return &Importer{Library: lib, FS: fs, Reporter: rep, Config: cfg}
}

// Run imports every scene file under opts.Folder into doc, placing each
// file's content on its own grid cell and re-homing loaded entities under
// a per-file container collection.
func (imp *Importer) Run(doc *scene.Document, opts Options) (*Result, error) {
	files, err := imp.collectSources(opts.Folder)
	if err != nil {
		return nil, err
	}

	extents, err := imp.scan(doc, files)
	if err != nil {
		return nil, err
	}

	minDim := imp.Config.GetMinProjectDimension()
	cellW, cellD := layout.MaxCell(extents, minDim)
	startX, startY := imp.startOrigin(doc, opts, cellW, cellD)
	grid := layout.Grid{
		Columns:   opts.Columns,
		SpacingX:  opts.SpacingX,
		SpacingY:  opts.SpacingY,
		CellWidth: cellW,
		CellDepth: cellD,
		StartX:    startX,
		StartY:    startY,
	}

	res := &Result{Folder: opts.Folder, Grid: grid}
	for i, path := range files {
		placement, err := imp.importOne(doc, grid, i, path, extents[i])
		if err != nil {
			imp.Reporter.Errorf("import of %s failed: %v", path, err)
			return nil, fmt.Errorf("import %s: %w", path, err)
		}
		res.Placements = append(res.Placements, placement)
	}

	imp.Reporter.Infof("imported %d scene files from %s", len(files), opts.Folder)
	return res, nil
}

// collectSources gathers the scene files under folder in lexicographic
// order. Extension matching is case-insensitive.
func (imp *Importer) collectSources(folder string) ([]string, error) {
	if !imp.FS.IsDir(folder) {
		imp.Reporter.Errorf("source folder %q does not exist or is not a directory", folder)
		return nil, fmt.Errorf("%w: %s", ErrNotAFolder, folder)
	}
	ext := imp.Config.GetSceneExtension()
	var files []string
	err := imp.FS.WalkFiles(folder, func(path string) error {
		if strings.EqualFold(filepath.Ext(path), ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", folder, err)
	}
	if len(files) == 0 {
		imp.Reporter.Warnf("no %s files under %s, nothing to import", ext, folder)
		return nil, fmt.Errorf("%w: %s", ErrNoSources, folder)
	}
	sort.Strings(files)
	return files, nil
}

// scan measures each source file's footprint. Every object it loads is
// removed again and the dirty flag is put back, so the document comes out
// of the pass exactly as it went in.
func (imp *Importer) scan(doc *scene.Document, files []string) ([]layout.Extent, error) {
	wasDirty := doc.Dirty()
	defer doc.SetDirty(wasDirty)

	minDim := imp.Config.GetMinProjectDimension()
	extents := make([]layout.Extent, 0, len(files))
	for _, path := range files {
		loaded, err := imp.Library.LoadObjects(doc, path)
		if err != nil {
			imp.Reporter.Errorf("could not read %s: %v", path, err)
			return nil, fmt.Errorf("scan %s: %w", path, err)
		}
		ext := layout.FootprintOf(loaded.Objects, minDim)
		ext.SourcePath = path
		extents = append(extents, ext)
		loaded.RemoveFrom(doc)
	}
	return extents, nil
}

// startOrigin picks the grid anchor: the explicit reference when given,
// else one cell beyond the document's current content, else the origin.
func (imp *Importer) startOrigin(doc *scene.Document, opts Options, cellW, cellD float64) (x, y float64) {
	if opts.Reference != nil {
		return opts.Reference.X, opts.Reference.Y
	}
	box, ok := doc.ContentBounds()
	if !ok {
		return 0, 0
	}
	return box.Max.X + cellW + opts.SpacingX, box.Max.Y + cellD + opts.SpacingY
}

// importOne loads one source file for real, re-homes its entities under a
// per-file container and moves its objects to their grid cell.
func (imp *Importer) importOne(doc *scene.Document, grid layout.Grid, index int, path string, ext layout.Extent) (Placement, error) {
	loaded, err := imp.Library.Load(doc, path)
	if err != nil {
		return Placement{}, err
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	container := doc.NewCollection(stem)
	if active := doc.ActiveScene(); active != nil {
		doc.LinkChild(active.Root, container)
	}

	// Top-level loaded collections are the ones no other loaded
	// collection claims as a child.
	loadedColl := make(map[*scene.Collection]bool, len(loaded.Collections))
	for _, c := range loaded.Collections {
		loadedColl[c] = true
	}
	childOfLoaded := make(map[*scene.Collection]bool)
	owned := make(map[*scene.Object]bool)
	for _, c := range loaded.Collections {
		for _, child := range c.Children() {
			if loadedColl[child] {
				childOfLoaded[child] = true
			}
		}
		for _, o := range c.Objects() {
			owned[o] = true
		}
	}
	for _, c := range loaded.Collections {
		if !childOfLoaded[c] {
			doc.LinkChild(container, c)
		}
	}

	var orphans *scene.Collection
	for _, o := range loaded.Objects {
		if owned[o] {
			continue
		}
		if orphans == nil {
			orphans = doc.NewCollection(stem + "_orphans")
			doc.LinkChild(container, orphans)
		}
		doc.LinkObject(orphans, o)
	}

	dx, dy := grid.Offset(index, ext)
	for _, o := range loaded.Objects {
		o.Location.X += dx
		o.Location.Y += dy
	}
	if len(loaded.Objects) > 0 {
		doc.MarkDirty()
	}

	row, col := grid.Cell(index)
	tx, ty := grid.Target(index)
	return Placement{
		SourcePath: path,
		Row:        row,
		Col:        col,
		TargetX:    tx,
		TargetY:    ty,
		Extent:     ext,
		Container:  container.Name,
		Objects:    len(loaded.Objects),
	}, nil
}
