package scenefile

import (
	"errors"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/forge3d/scenetools/internal/fsutil"
	"github.com/forge3d/scenetools/internal/scene"
)

func sampleDocument() *scene.Document {
	d := scene.NewDocument()

	img := &scene.Image{Name: "bricks.png", SourcePath: "//textures/bricks.png", Packed: true, Payload: []byte{0x89, 0x50}}
	d.AddImage(img)
	mat := &scene.Material{Name: "Bricks", UseNodes: true,
		Nodes: []scene.MaterialNode{{Name: "Image Texture", Image: img}}}
	d.AddMaterial(mat)
	mesh := &scene.Mesh{Name: "CubeMesh", Geometry: []byte("cube"), Materials: []*scene.Material{mat}}
	d.AddMesh(mesh)

	cube := d.NewObject("Cube", r3.Vec{X: 1, Y: 2, Z: 3},
		&scene.Box{Min: r3.Vec{X: -1, Y: -1, Z: -1}, Max: r3.Vec{X: 1, Y: 1, Z: 1}}, mesh)
	empty := d.NewObject("Anchor", r3.Vec{X: 5}, nil, nil)

	props := d.NewCollection("Props")
	detail := d.NewCollection("Props Detail")
	d.LinkChild(props, detail)
	d.LinkObject(props, cube)
	d.LinkObject(detail, empty)
	d.LinkChild(d.ActiveScene().Root, props)
	return d
}

func TestEnsureExtension(t *testing.T) {
	cases := []struct{ in, want string }{
		{"props", "props.scene"},
		{"props.scene", "props.scene"},
		{"props.SCENE", "props.SCENE"},
		{"props.blend", "props.blend.scene"},
	}
	for _, c := range cases {
		if got := EnsureExtension(c.in, Extension); got != c.want {
			t.Errorf("EnsureExtension(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSaveAndLoadDocument(t *testing.T) {
	d := sampleDocument()
	path := filepath.Join(t.TempDir(), "sample.scene")
	if err := SaveDocumentAs(d, path); err != nil {
		t.Fatalf("SaveDocumentAs: %v", err)
	}
	if d.Dirty() {
		t.Error("document still dirty after save")
	}
	if d.SavePath() != path {
		t.Errorf("save path = %q, want %q", d.SavePath(), path)
	}

	got, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if got.Dirty() {
		t.Error("loaded document is dirty")
	}
	if got.SavePath() != path {
		t.Errorf("loaded save path = %q, want %q", got.SavePath(), path)
	}
	if n := len(got.Objects()); n != 2 {
		t.Fatalf("objects = %d, want 2", n)
	}
	if n := len(got.Collections()); n != 3 {
		t.Fatalf("collections = %d, want 3 (Collection, Props, Props Detail)", n)
	}

	props := got.CollectionByName("Props")
	if props == nil {
		t.Fatal("Props collection missing after load")
	}
	if len(props.Objects()) != 1 || props.Objects()[0].Name != "Cube" {
		t.Errorf("Props members = %v, want [Cube]", props.Objects())
	}
	if len(props.Children()) != 1 || props.Children()[0].Name != "Props Detail" {
		t.Errorf("Props children wrong: %v", props.Children())
	}

	active := got.ActiveScene()
	if active == nil {
		t.Fatal("no active scene after load")
	}
	if !active.Root.HasChild(props) {
		t.Error("scene master collection lost Props child")
	}

	cube := props.Objects()[0]
	if cube.Mesh == nil || cube.Mesh.Name != "CubeMesh" {
		t.Fatal("cube lost its mesh")
	}
	if cube.Bounds == nil || cube.Bounds.Max.X != 1 {
		t.Error("cube lost its bounds")
	}
	imgs := cube.Mesh.Materials[0].Images()
	if len(imgs) != 1 || imgs[0].Name != "bricks.png" || !imgs[0].Packed {
		t.Fatalf("material images wrong after load: %v", imgs)
	}
	if string(imgs[0].Payload) != string([]byte{0x89, 0x50}) {
		t.Error("packed payload changed across save/load")
	}
}

func TestLibraryLoadRenamesOnRepeat(t *testing.T) {
	src := sampleDocument()
	path := filepath.Join(t.TempDir(), "lib.scene")
	if err := SaveDocumentAs(src, path); err != nil {
		t.Fatalf("SaveDocumentAs: %v", err)
	}

	var lib Library
	d := scene.NewDocument()
	first, err := lib.Load(d, path)
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}
	// The source carries its own default collection alongside Props and
	// Props Detail; only scene master collections stay behind.
	if len(first.Objects) != 2 || len(first.Collections) != 3 {
		t.Fatalf("first load introduced %d objects, %d collections, want 2 and 3",
			len(first.Objects), len(first.Collections))
	}
	second, err := lib.Load(d, path)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}

	if d.CollectionByName("Props") == nil || d.CollectionByName("Props.001") == nil {
		t.Error("second load did not pick a fresh collection name")
	}
	for _, o := range second.Objects {
		for _, prev := range first.Objects {
			if o == prev || o.ID == prev.ID {
				t.Fatalf("second load reused entity %q", o.Name)
			}
		}
	}
}

func TestLibraryLoadCollectionOrderStable(t *testing.T) {
	src := scene.NewDocument()
	for _, name := range []string{"Zulu", "Echo", "Alpha", "Tango", "Mike"} {
		src.LinkChild(src.ActiveScene().Root, src.NewCollection(name))
	}
	path := filepath.Join(t.TempDir(), "order.scene")
	if err := SaveDocumentAs(src, path); err != nil {
		t.Fatalf("SaveDocumentAs: %v", err)
	}

	// Collections arrive in stored name order on every load, so link
	// indices of a later save do not drift between runs. The source's own
	// default collection comes along and picks up a suffix against the
	// destination's default.
	want := []string{"Alpha", "Collection.001", "Echo", "Mike", "Tango", "Zulu"}
	for run := 0; run < 4; run++ {
		d := scene.NewDocument()
		res, err := Library{}.Load(d, path)
		if err != nil {
			t.Fatalf("run %d: Load: %v", run, err)
		}
		if len(res.Collections) != len(want) {
			t.Fatalf("run %d: introduced %d collections, want %d", run, len(res.Collections), len(want))
		}
		for i, c := range res.Collections {
			if c.Name != want[i] {
				t.Fatalf("run %d: collection %d is %q, want %q", run, i, c.Name, want[i])
			}
		}
	}
}

func TestLibraryLoadDropsMasterMemberships(t *testing.T) {
	src := scene.NewDocument()
	root := src.ActiveScene().Root
	loose := src.NewObject("Loose", r3.Vec{}, nil, nil)
	src.LinkObject(root, loose)
	path := filepath.Join(t.TempDir(), "loose.scene")
	if err := SaveDocumentAs(src, path); err != nil {
		t.Fatalf("SaveDocumentAs: %v", err)
	}

	d := scene.NewDocument()
	res, err := Library{}.Load(d, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Objects) != 1 {
		t.Fatalf("objects introduced = %d, want 1", len(res.Objects))
	}
	// The source's master collection is not appended, so its members
	// arrive unowned.
	for _, c := range d.Collections() {
		if c.HasObject(res.Objects[0]) {
			t.Errorf("loaded object unexpectedly owned by %q", c.Name)
		}
	}
}

func TestLoadObjectsSkipsCollections(t *testing.T) {
	src := sampleDocument()
	path := filepath.Join(t.TempDir(), "objs.scene")
	if err := SaveDocumentAs(src, path); err != nil {
		t.Fatalf("SaveDocumentAs: %v", err)
	}

	d := scene.NewDocument()
	res, err := Library{}.LoadObjects(d, path)
	if err != nil {
		t.Fatalf("LoadObjects: %v", err)
	}
	if len(res.Objects) != 2 {
		t.Fatalf("objects = %d, want 2", len(res.Objects))
	}
	if len(res.Collections) != 0 {
		t.Fatalf("collections = %d, want 0", len(res.Collections))
	}
	if n := len(d.Collections()); n != 1 {
		t.Errorf("document collections = %d, want only the default", n)
	}
	if len(res.Meshes) != 1 || len(res.Materials) != 1 || len(res.Images) != 1 {
		t.Error("data payloads did not come along with the objects")
	}
}

func TestLoadResultRemoveFrom(t *testing.T) {
	src := sampleDocument()
	path := filepath.Join(t.TempDir(), "scan.scene")
	if err := SaveDocumentAs(src, path); err != nil {
		t.Fatalf("SaveDocumentAs: %v", err)
	}

	d := scene.NewDocument()
	res, err := Library{}.LoadObjects(d, path)
	if err != nil {
		t.Fatalf("LoadObjects: %v", err)
	}
	res.RemoveFrom(d)

	if n := len(d.Objects()); n != 0 {
		t.Errorf("objects after removal = %d, want 0", n)
	}
	if n := len(d.Meshes()); n != 0 {
		t.Errorf("meshes after removal = %d, want 0", n)
	}
	if n := len(d.Materials()); n != 0 {
		t.Errorf("materials after removal = %d, want 0", n)
	}
	if n := len(d.Images()); n != 0 {
		t.Errorf("images after removal = %d, want 0", n)
	}
}

func TestMigrateVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.scene")
	if err := SaveDocumentAs(scene.NewDocument(), path); err != nil {
		t.Fatalf("SaveDocumentAs: %v", err)
	}
	version, dirty, err := MigrateVersion(path)
	if err != nil {
		t.Fatalf("MigrateVersion: %v", err)
	}
	if dirty {
		t.Error("fresh file reports dirty schema")
	}
	if version != 2 {
		t.Errorf("schema version = %d, want 2", version)
	}
	// Running again finds nothing to do.
	if err := Migrate(path); err != nil {
		t.Fatalf("Migrate on current file: %v", err)
	}
}

func TestPackExternalData(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	if err := fs.WriteFile("/tex/bricks.png", []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d := scene.NewDocument()
	ext := &scene.Image{Name: "bricks.png", SourcePath: "/tex/bricks.png"}
	already := &scene.Image{Name: "wood.png", SourcePath: "/tex/wood.png", Packed: true, Payload: []byte("x")}
	generated := &scene.Image{Name: "noise"}
	d.AddImage(ext)
	d.AddImage(already)
	d.AddImage(generated)

	n, err := PackExternalData(d, fs)
	if err != nil {
		t.Fatalf("PackExternalData: %v", err)
	}
	if n != 1 {
		t.Errorf("packed = %d, want 1", n)
	}
	if !ext.Packed || string(ext.Payload) != "png-bytes" {
		t.Error("external image not embedded")
	}
	if string(already.Payload) != "x" {
		t.Error("already packed image was touched")
	}
	if !d.Dirty() {
		t.Error("packing did not mark the document dirty")
	}

	n, err = PackExternalData(d, fs)
	if err != nil {
		t.Fatalf("second PackExternalData: %v", err)
	}
	if n != 0 {
		t.Errorf("second pass packed = %d, want 0", n)
	}
}

func TestPackExternalDataMissingFile(t *testing.T) {
	d := scene.NewDocument()
	d.AddImage(&scene.Image{Name: "gone.png", SourcePath: "/tex/gone.png"})
	if _, err := PackExternalData(d, fsutil.NewMemoryFileSystem()); err == nil {
		t.Fatal("expected error for missing source file")
	}
}

func TestPackExternalDataPartialFailureMarksDirty(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	if err := fs.WriteFile("/tex/ok.png", []byte("ok"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	fs.ReadErr["/tex/bad.png"] = errors.New("read denied")

	d := scene.NewDocument()
	ok := &scene.Image{Name: "ok.png", SourcePath: "/tex/ok.png"}
	d.AddImage(ok)
	d.AddImage(&scene.Image{Name: "bad.png", SourcePath: "/tex/bad.png"})
	d.MarkSaved(filepath.Join(t.TempDir(), "doc.scene"))

	n, err := PackExternalData(d, fs)
	if err == nil {
		t.Fatal("expected error for unreadable source file")
	}
	if n != 1 || !ok.Packed {
		t.Fatalf("packed = %d (ok.Packed = %t), want 1 packed before the failure", n, ok.Packed)
	}
	// The image packed before the failure is an unsaved mutation.
	if !d.Dirty() {
		t.Error("partial pack left the document clean")
	}
}

func TestDescribe(t *testing.T) {
	src := sampleDocument()
	path := filepath.Join(t.TempDir(), "desc.scene")
	if err := SaveDocumentAs(src, path); err != nil {
		t.Fatalf("SaveDocumentAs: %v", err)
	}
	s, err := Describe(path)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if s.Generator != FormatGenerator {
		t.Errorf("generator = %q, want %q", s.Generator, FormatGenerator)
	}
	if len(s.Scenes) != 1 || s.Scenes[0] != "Scene" {
		t.Errorf("scenes = %v, want [Scene]", s.Scenes)
	}
	if s.Objects != 2 || s.Meshes != 1 || s.Materials != 1 || s.Images != 1 {
		t.Errorf("counts wrong: %+v", s)
	}
	if s.Packed != 1 {
		t.Errorf("packed images = %d, want 1", s.Packed)
	}
}
