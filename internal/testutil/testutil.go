// Package testutil provides shared test utilities and document fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/forge3d/scenetools/internal/scene"
	"github.com/forge3d/scenetools/internal/scenefile"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewBoxObject adds a cube-like object centered on loc with the given half
// extent on X and Y and linked to no collection.
func NewBoxObject(d *scene.Document, name string, loc r3.Vec, half float64) *scene.Object {
	return d.NewObject(name, loc, &scene.Box{
		Min: r3.Vec{X: -half, Y: -half, Z: 0},
		Max: r3.Vec{X: half, Y: half, Z: 2 * half},
	}, nil)
}

// NewTexturedDocument builds a saved document whose "Props" collection
// holds one meshed object with a node material and a packed image.
func NewTexturedDocument(t *testing.T) *scene.Document {
	t.Helper()
	d := scene.NewDocument()

	img := &scene.Image{Name: "grid.png", SourcePath: "//textures/grid.png", Packed: true, Payload: []byte("png")}
	d.AddImage(img)
	mat := &scene.Material{Name: "Grid", UseNodes: true,
		Nodes: []scene.MaterialNode{{Name: "Image Texture", Image: img}}}
	d.AddMaterial(mat)
	mesh := &scene.Mesh{Name: "PropMesh", Geometry: []byte("geom"), Materials: []*scene.Material{mat}}
	d.AddMesh(mesh)

	prop := NewBoxObject(d, "Prop", r3.Vec{}, 1)
	prop.Mesh = mesh
	props := d.NewCollection("Props")
	d.LinkObject(props, prop)
	d.LinkChild(d.ActiveScene().Root, props)

	AssertNoError(t, scenefile.SaveDocumentAs(d, filepath.Join(t.TempDir(), "fixture.scene")))
	return d
}

// WriteSceneFile saves a document under dir and returns the file path.
func WriteSceneFile(t *testing.T, dir, name string, d *scene.Document) string {
	t.Helper()
	path := filepath.Join(dir, name)
	AssertNoError(t, scenefile.SaveDocumentAs(d, path))
	return path
}
