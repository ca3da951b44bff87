package importer

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/forge3d/scenetools/internal/scene"
	"github.com/forge3d/scenetools/internal/scenefile"
	"github.com/forge3d/scenetools/internal/testutil"
)

// writeSourceFolder builds a folder with two source files: a.scene holds a
// 2x2 cube inside a "Props" collection, b.scene holds a single point-like
// object owned only by its scene's master collection.
func writeSourceFolder(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	a := scene.NewDocument()
	cube := testutil.NewBoxObject(a, "Cube", r3.Vec{}, 1)
	props := a.NewCollection("Props")
	a.LinkObject(props, cube)
	a.LinkChild(a.ActiveScene().Root, props)
	testutil.WriteSceneFile(t, dir, "a.scene", a)

	b := scene.NewDocument()
	empty := b.NewObject("Anchor", r3.Vec{X: 3, Y: 4}, nil, nil)
	b.LinkObject(b.ActiveScene().Root, empty)
	testutil.WriteSceneFile(t, dir, "b.scene", b)
	return dir
}

func newTestImporter() *Importer {
	return New(scenefile.Library{}, nil, nil, nil)
}

func TestRunRejectsMissingFolder(t *testing.T) {
	imp := newTestImporter()
	_, err := imp.Run(scene.NewDocument(), Options{Folder: filepath.Join(t.TempDir(), "nope")})
	if !errors.Is(err, ErrNotAFolder) {
		t.Fatalf("err = %v, want ErrNotAFolder", err)
	}
	if !errors.Is(err, ErrValidation) {
		t.Error("folder error does not classify as validation")
	}
}

func TestRunRejectsFolderWithoutSources(t *testing.T) {
	imp := newTestImporter()
	_, err := imp.Run(scene.NewDocument(), Options{Folder: t.TempDir()})
	if !errors.Is(err, ErrNoSources) {
		t.Fatalf("err = %v, want ErrNoSources", err)
	}
}

func TestRunPlacesFilesOnGrid(t *testing.T) {
	dir := writeSourceFolder(t)
	imp := newTestImporter()
	doc := scene.NewDocument()

	res, err := imp.Run(doc, Options{Folder: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Files() != 2 {
		t.Fatalf("files = %d, want 2", res.Files())
	}

	// Empty document, no reference: the grid starts at the origin. Cells
	// are sized by the largest footprint, the 2x2 cube.
	if res.Grid.CellWidth != 2 || res.Grid.CellDepth != 2 {
		t.Errorf("cell = %gx%g, want 2x2", res.Grid.CellWidth, res.Grid.CellDepth)
	}
	pa, pb := res.Placements[0], res.Placements[1]
	if filepath.Base(pa.SourcePath) != "a.scene" || filepath.Base(pb.SourcePath) != "b.scene" {
		t.Fatalf("placement order not lexicographic: %s, %s", pa.SourcePath, pb.SourcePath)
	}
	if pa.TargetX != 0 || pa.TargetY != 0 || pb.TargetX != 2 || pb.TargetY != 0 {
		t.Errorf("targets = (%g,%g) (%g,%g), want (0,0) (2,0)",
			pa.TargetX, pa.TargetY, pb.TargetX, pb.TargetY)
	}

	root := doc.ActiveScene().Root
	ca := doc.CollectionByName("a")
	cb := doc.CollectionByName("b")
	if ca == nil || cb == nil {
		t.Fatal("per-file containers missing")
	}
	if !root.HasChild(ca) || !root.HasChild(cb) {
		t.Error("containers not linked under the active scene root")
	}

	// a.scene's cube keeps its Props collection; b.scene's unowned object
	// goes to the per-file orphans container.
	props := doc.CollectionByName("Props")
	if props == nil || !ca.HasChild(props) {
		t.Error("Props did not land under container a")
	}
	orphans := doc.CollectionByName("b_orphans")
	if orphans == nil || !cb.HasChild(orphans) {
		t.Fatal("b_orphans did not land under container b")
	}
	if len(orphans.Objects()) != 1 {
		t.Fatalf("orphans holds %d objects, want 1", len(orphans.Objects()))
	}

	// Offsets cancel each footprint's origin. The cube's footprint origin
	// is (-1,-1), so it moves to (1,1); the point object at (3,4) moves to
	// its cell target (2,0).
	cube := props.Objects()[0]
	if cube.Location.X != 1 || cube.Location.Y != 1 {
		t.Errorf("cube at (%g,%g), want (1,1)", cube.Location.X, cube.Location.Y)
	}
	anchor := orphans.Objects()[0]
	if anchor.Location.X != 2 || anchor.Location.Y != 0 {
		t.Errorf("anchor at (%g,%g), want (2,0)", anchor.Location.X, anchor.Location.Y)
	}
	if !doc.Dirty() {
		t.Error("import left the document clean")
	}
}

func TestRunColumnsWrapRows(t *testing.T) {
	dir := writeSourceFolder(t)
	imp := newTestImporter()

	res, err := imp.Run(scene.NewDocument(), Options{Folder: dir, Columns: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Placements[0].Row != 0 || res.Placements[1].Row != 1 {
		t.Errorf("rows = %d,%d, want 0,1",
			res.Placements[0].Row, res.Placements[1].Row)
	}
	if res.Placements[1].Col != 0 {
		t.Errorf("second col = %d, want 0", res.Placements[1].Col)
	}
}

func TestRunStartsBeyondExistingContent(t *testing.T) {
	dir := writeSourceFolder(t)
	imp := newTestImporter()

	doc := scene.NewDocument()
	existing := doc.NewObject("Floor", r3.Vec{}, &scene.Box{
		Min: r3.Vec{X: -5, Y: -5}, Max: r3.Vec{X: 5, Y: 5, Z: 1},
	}, nil)
	doc.LinkObject(doc.ActiveScene().Root, existing)

	res, err := imp.Run(doc, Options{Folder: dir, SpacingX: 1, SpacingY: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Content max is (5,5), cell 2x2, spacing 1: the grid anchors at (8,8).
	if res.Grid.StartX != 8 || res.Grid.StartY != 8 {
		t.Errorf("start = (%g,%g), want (8,8)", res.Grid.StartX, res.Grid.StartY)
	}
}

func TestRunDeterministicPlacements(t *testing.T) {
	dir := writeSourceFolder(t)
	imp := newTestImporter()
	ref := &Reference{X: 10, Y: 20}

	first, err := imp.Run(scene.NewDocument(), Options{Folder: dir, Reference: ref})
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := imp.Run(scene.NewDocument(), Options{Folder: dir, Reference: ref})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if diff := cmp.Diff(first.Placements, second.Placements); diff != "" {
		t.Errorf("placements differ between identical runs:\n%s", diff)
	}
}

func TestRunPointOnlyFootprintClamped(t *testing.T) {
	dir := writeSourceFolder(t)
	imp := newTestImporter()

	res, err := imp.Run(scene.NewDocument(), Options{Folder: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	ext := res.Placements[1].Extent
	if math.Abs(ext.Width-0.1) > 1e-9 || math.Abs(ext.Depth-0.1) > 1e-9 {
		t.Errorf("point footprint = %gx%g, want clamp to 0.1x0.1", ext.Width, ext.Depth)
	}
}

// loadRefuser measures fine but refuses the real load, standing in for a
// file that goes unreadable between the two passes.
type loadRefuser struct {
	scenefile.Library
}

func (loadRefuser) Load(d *scene.Document, path string) (*scenefile.LoadResult, error) {
	return nil, errors.New("file vanished")
}

func TestRunLoadFailureLeavesDocumentUntouched(t *testing.T) {
	dir := writeSourceFolder(t)
	imp := New(loadRefuser{}, nil, nil, nil)
	doc := scene.NewDocument()

	if _, err := imp.Run(doc, Options{Folder: dir}); err == nil {
		t.Fatal("expected load failure")
	}
	if n := len(doc.Objects()); n != 0 {
		t.Errorf("objects = %d after failed run, want 0", n)
	}
	if n := len(doc.Collections()); n != 1 {
		t.Errorf("collections = %d after failed run, want only the default", n)
	}
	if doc.Dirty() {
		t.Error("failed run left the document dirty")
	}
}
