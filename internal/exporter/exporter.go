// Package exporter writes one collection of a document to a standalone
// scene file with its image payloads packed. The document is staged in
// place (pivot-shifted positions, a scratch scene and collection) and the
// staging is unconditionally undone whether the write succeeds or fails.
package exporter

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/forge3d/scenetools/internal/config"
	"github.com/forge3d/scenetools/internal/fsutil"
	"github.com/forge3d/scenetools/internal/monitoring"
	"github.com/forge3d/scenetools/internal/scene"
	"github.com/forge3d/scenetools/internal/scenefile"
)

var (
	// ErrValidation is the base class of every precondition failure.
	// Nothing has been mutated when an error wrapping it is returned.
	ErrValidation = errors.New("export validation failed")

	ErrUnsavedDocument   = fmt.Errorf("%w: document has never been saved", ErrValidation)
	ErrUnknownCollection = fmt.Errorf("%w: no such collection", ErrValidation)
	ErrEmptyCollection   = fmt.Errorf("%w: collection holds no objects", ErrValidation)
)

// Store is the serialization surface the exporter writes through.
type Store interface {
	SaveDocument(d *scene.Document) error
	WriteBundle(path string, b *scene.Bundle) error
}

// fileStore serializes through the scene-file package.
type fileStore struct{}

func (fileStore) SaveDocument(d *scene.Document) error { return scenefile.SaveDocument(d) }
func (fileStore) WriteBundle(path string, b *scene.Bundle) error {
	return scenefile.WriteBundle(path, b)
}

// Exporter wires the capabilities an export needs.
type Exporter struct {
	Store    Store
	FS       fsutil.FileSystem
	Reporter *monitoring.Reporter
	Config   *config.Settings
}

// New returns an Exporter with OS-backed defaults for any nil capability.
func New(store Store, fs fsutil.FileSystem, rep *monitoring.Reporter, cfg *config.Settings) *Exporter {
	if store == nil {
		store = fileStore{}
	}
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	if rep == nil {
		rep = monitoring.NewReporter()
	}
	if cfg == nil {
		cfg = config.EmptySettings()
	}
	return &Exporter{Store: store, FS: fs, Reporter: rep, Config: cfg}
}

// Run exports the named collection's objects to targetPath and returns the
// path actually written. After it returns, success or not, every object is
// back at its original location and no scratch entity remains.
func (e *Exporter) Run(doc *scene.Document, collectionName, targetPath string) (string, error) {
	if doc.SavePath() == "" {
		e.Reporter.Errorf("save the document before exporting")
		return "", ErrUnsavedDocument
	}
	coll := doc.CollectionByName(collectionName)
	if coll == nil {
		e.Reporter.Errorf("collection %q does not exist", collectionName)
		return "", fmt.Errorf("%w: %s", ErrUnknownCollection, collectionName)
	}
	objects := subtreeObjects(coll)
	if len(objects) == 0 {
		e.Reporter.Errorf("collection %q holds no objects", collectionName)
		return "", fmt.Errorf("%w: %s", ErrEmptyCollection, collectionName)
	}

	if doc.Dirty() {
		e.Reporter.Warnf("saving document to pack external data")
		if err := e.Store.SaveDocument(doc); err != nil {
			return "", fmt.Errorf("save before export: %w", err)
		}
	}
	packed, err := scenefile.PackExternalData(doc, e.FS)
	if err != nil {
		return "", fmt.Errorf("pack external data: %w", err)
	}
	if packed > 0 {
		if err := e.Store.SaveDocument(doc); err != nil {
			return "", fmt.Errorf("save packed document: %w", err)
		}
	}

	bundle := scene.BuildBundle(objects)

	// Staging mutates the document. Everything below is compensated on
	// every exit path; the dirty flag goes back last.
	wasDirty := doc.Dirty()
	defer doc.SetDirty(wasDirty)

	originals := make(map[*scene.Object]r3.Vec, len(objects))
	for _, o := range objects {
		originals[o] = o.Location
	}
	defer func() {
		for o, loc := range originals {
			o.Location = loc
		}
	}()
	pivot := pivotOf(objects)
	for _, o := range objects {
		o.Location = r3.Sub(o.Location, pivot)
	}

	// The scratch scene and stage collection have no owner besides the
	// document, so teardown never has to check for other references.
	scratchScene := doc.NewScene("Export")
	stage := doc.NewCollection("Export Stage")
	doc.LinkChild(scratchScene.Root, stage)
	for _, o := range objects {
		doc.LinkObject(stage, o)
	}
	defer func() {
		doc.RemoveCollection(stage)
		doc.RemoveScene(scratchScene)
	}()
	bundle.AddScene(scratchScene)
	bundle.AddCollection(stage)

	out := scenefile.EnsureExtension(targetPath, e.Config.GetSceneExtension())
	if err := e.Store.WriteBundle(out, bundle); err != nil {
		e.Reporter.Errorf("export to %s failed: %v", out, err)
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	e.Reporter.Infof("exported %d objects from %q to %s", len(objects), collectionName, out)
	return out, nil
}

// subtreeObjects collects the objects of a collection and all of its
// descendants, deduplicated, in link order.
func subtreeObjects(c *scene.Collection) []*scene.Object {
	seen := make(map[*scene.Object]bool)
	var out []*scene.Object
	var walk func(c *scene.Collection)
	walk = func(c *scene.Collection) {
		for _, o := range c.Objects() {
			if !seen[o] {
				seen[o] = true
				out = append(out, o)
			}
		}
		for _, child := range c.Children() {
			walk(child)
		}
	}
	walk(c)
	return out
}

// pivotOf is the location of the object whose world bounds reach lowest
// on Y. Subtracting it re-bases the exported set near the origin.
func pivotOf(objects []*scene.Object) r3.Vec {
	pivot := objects[0].Location
	minY := objects[0].WorldBounds().Min.Y
	for _, o := range objects[1:] {
		if y := o.WorldBounds().Min.Y; y < minY {
			minY = y
			pivot = o.Location
		}
	}
	return pivot
}
