// Package scene holds the in-memory document model the content tools
// operate on: objects, data payloads, materials, images, collections and
// scenes. The model is deliberately minimal; it carries exactly the state
// the import, export and cleanup operations need.
package scene

import (
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultCollectionName is the name of the collection a fresh document
// starts with. The empty-collection sweep never deletes it.
const DefaultCollectionName = "Collection"

// Document is the live project state. All entity creation, removal and
// linking goes through it so that save-path and dirty-state tracking stay
// in one place. Documents are not safe for concurrent use; operations run
// to completion one at a time, matching the host model they stand in for.
type Document struct {
	savePath string
	dirty    bool

	objects     []*Object
	collections []*Collection
	meshes      []*Mesh
	materials   []*Material
	images      []*Image
	scenes      []*SceneRoot
	active      *SceneRoot

	// names holds the taken names per entity kind so duplicates get a
	// numeric suffix, the way the host deduplicates datablock names.
	names map[string]map[string]bool
}

// NewDocument creates an empty document with the default scene and the
// default collection linked under its master collection.
func NewDocument() *Document {
	d := NewBareDocument()
	s := d.NewScene("Scene")
	d.active = s
	def := d.NewCollection(DefaultCollectionName)
	d.LinkChild(s.Root, def)
	d.dirty = false
	return d
}

// NewBareDocument creates a document with no scenes or entities at all.
// The scene-file loader uses it to reconstruct a document exactly as
// stored, without the defaults NewDocument seeds.
func NewBareDocument() *Document {
	return &Document{names: make(map[string]map[string]bool)}
}

func (d *Document) uniqueName(kind, base string) string {
	taken := d.names[kind]
	if taken == nil {
		taken = make(map[string]bool)
		d.names[kind] = taken
	}
	if base == "" {
		base = kind
	}
	name := base
	for i := 1; taken[name]; i++ {
		name = fmt.Sprintf("%s.%03d", base, i)
	}
	taken[name] = true
	return name
}

func (d *Document) releaseName(kind, name string) {
	if taken := d.names[kind]; taken != nil {
		delete(taken, name)
	}
}

// SavePath returns the path the document was last saved to, or "" if the
// document has never been saved.
func (d *Document) SavePath() string { return d.savePath }

// Dirty reports whether the document has unsaved changes.
func (d *Document) Dirty() bool { return d.dirty }

// MarkDirty flags the document as having unsaved changes.
func (d *Document) MarkDirty() { d.dirty = true }

// SetDirty overwrites the dirty flag. The footprint scan pass uses it to
// leave the document exactly as it found it after a measure-and-discard
// cycle.
func (d *Document) SetDirty(dirty bool) { d.dirty = dirty }

// MarkSaved records a successful save to path and clears the dirty flag.
func (d *Document) MarkSaved(path string) {
	d.savePath = path
	d.dirty = false
}

// NewScene creates a scene with a fresh master collection. Master
// collections belong to their scene only and never appear in Collections.
func (d *Document) NewScene(name string) *SceneRoot {
	s := &SceneRoot{
		ID:   uuid.New().String(),
		Name: d.uniqueName("scene", name),
		Root: &Collection{ID: uuid.New().String(), Name: name + " Collection"},
	}
	d.scenes = append(d.scenes, s)
	d.dirty = true
	return s
}

// AddScene registers a reconstructed scene with the document, assigning an
// ID if it has none and deduplicating its name. The scene's master
// collection stays out of the document's collection list.
func (d *Document) AddScene(s *SceneRoot) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	s.Name = d.uniqueName("scene", s.Name)
	d.scenes = append(d.scenes, s)
	if d.active == nil {
		d.active = s
	}
	d.dirty = true
}

// RemoveScene removes a scene and drops its master collection. Removal is
// unconditional: scratch scenes are never given a second owner.
func (d *Document) RemoveScene(s *SceneRoot) {
	for i, x := range d.scenes {
		if x == s {
			d.scenes = append(d.scenes[:i], d.scenes[i+1:]...)
			d.releaseName("scene", s.Name)
			if d.active == s {
				d.active = nil
				if len(d.scenes) > 0 {
					d.active = d.scenes[0]
				}
			}
			d.dirty = true
			return
		}
	}
}

// Scenes returns a snapshot of the document's scenes.
func (d *Document) Scenes() []*SceneRoot {
	out := make([]*SceneRoot, len(d.scenes))
	copy(out, d.scenes)
	return out
}

// ActiveScene returns the scene imports land in.
func (d *Document) ActiveScene() *SceneRoot { return d.active }

// SetActiveScene makes s the active scene. s must belong to the document.
func (d *Document) SetActiveScene(s *SceneRoot) { d.active = s }

// NewObject creates an object and adds it to the document. bounds may be
// nil for point-like objects; mesh may be nil.
func (d *Document) NewObject(name string, loc r3.Vec, bounds *Box, mesh *Mesh) *Object {
	o := &Object{ID: uuid.New().String(), Name: name, Location: loc, Bounds: bounds, Mesh: mesh}
	d.AddObject(o)
	return o
}

// AddObject registers a fully formed object with the document, assigning an
// ID if it has none and deduplicating its name.
func (d *Document) AddObject(o *Object) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	o.Name = d.uniqueName("object", o.Name)
	d.objects = append(d.objects, o)
	d.dirty = true
}

// RemoveObject unlinks o from every collection in the document, including
// scene master collections, and removes it. The object's data payload is
// not removed; callers discard loaded payloads explicitly.
func (d *Document) RemoveObject(o *Object) {
	for _, c := range d.collections {
		c.unlinkObject(o)
	}
	for _, s := range d.scenes {
		s.Root.unlinkObject(o)
	}
	for i, x := range d.objects {
		if x == o {
			d.objects = append(d.objects[:i], d.objects[i+1:]...)
			break
		}
	}
	d.releaseName("object", o.Name)
	d.dirty = true
}

// Objects returns a snapshot of all objects in insertion order.
func (d *Document) Objects() []*Object {
	out := make([]*Object, len(d.objects))
	copy(out, d.objects)
	return out
}

// NewCollection creates an empty collection and adds it to the document.
func (d *Document) NewCollection(name string) *Collection {
	c := &Collection{ID: uuid.New().String()}
	c.Name = d.uniqueName("collection", name)
	d.collections = append(d.collections, c)
	d.dirty = true
	return c
}

// AddCollection registers a fully formed collection, assigning an ID if it
// has none and deduplicating its name.
func (d *Document) AddCollection(c *Collection) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.Name = d.uniqueName("collection", c.Name)
	d.collections = append(d.collections, c)
	d.dirty = true
}

// RemoveCollection unlinks c from every parent and removes it from the
// document. Objects and children linked under c are not removed, only
// unowned by it.
func (d *Document) RemoveCollection(c *Collection) {
	for _, p := range d.collections {
		p.unlinkChild(c)
	}
	for _, s := range d.scenes {
		s.Root.unlinkChild(c)
	}
	for i, x := range d.collections {
		if x == c {
			d.collections = append(d.collections[:i], d.collections[i+1:]...)
			break
		}
	}
	d.releaseName("collection", c.Name)
	d.dirty = true
}

// Collections returns a snapshot of the document's collections, excluding
// scene master collections.
func (d *Document) Collections() []*Collection {
	out := make([]*Collection, len(d.collections))
	copy(out, d.collections)
	return out
}

// CollectionByName returns the collection with the given name, or nil.
func (d *Document) CollectionByName(name string) *Collection {
	for _, c := range d.collections {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// LinkObject links o into c.
func (d *Document) LinkObject(c *Collection, o *Object) {
	c.linkObject(o)
	d.dirty = true
}

// UnlinkObject unlinks o from c.
func (d *Document) UnlinkObject(c *Collection, o *Object) {
	c.unlinkObject(o)
	d.dirty = true
}

// LinkChild links child under parent.
func (d *Document) LinkChild(parent, child *Collection) {
	parent.linkChild(child)
	d.dirty = true
}

// UnlinkChild unlinks child from parent.
func (d *Document) UnlinkChild(parent, child *Collection) {
	parent.unlinkChild(child)
	d.dirty = true
}

// AddMesh registers a mesh payload with the document.
func (d *Document) AddMesh(m *Mesh) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.Name = d.uniqueName("mesh", m.Name)
	d.meshes = append(d.meshes, m)
	d.dirty = true
}

// RemoveMesh removes a mesh payload from the document.
func (d *Document) RemoveMesh(m *Mesh) {
	for i, x := range d.meshes {
		if x == m {
			d.meshes = append(d.meshes[:i], d.meshes[i+1:]...)
			break
		}
	}
	d.releaseName("mesh", m.Name)
	d.dirty = true
}

// Meshes returns a snapshot of the document's mesh payloads.
func (d *Document) Meshes() []*Mesh {
	out := make([]*Mesh, len(d.meshes))
	copy(out, d.meshes)
	return out
}

// AddMaterial registers a material with the document.
func (d *Document) AddMaterial(m *Material) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.Name = d.uniqueName("material", m.Name)
	d.materials = append(d.materials, m)
	d.dirty = true
}

// RemoveMaterial removes a material from the document.
func (d *Document) RemoveMaterial(m *Material) {
	for i, x := range d.materials {
		if x == m {
			d.materials = append(d.materials[:i], d.materials[i+1:]...)
			break
		}
	}
	d.releaseName("material", m.Name)
	d.dirty = true
}

// Materials returns a snapshot of the document's materials.
func (d *Document) Materials() []*Material {
	out := make([]*Material, len(d.materials))
	copy(out, d.materials)
	return out
}

// AddImage registers an image with the document.
func (d *Document) AddImage(img *Image) {
	if img.ID == "" {
		img.ID = uuid.New().String()
	}
	img.Name = d.uniqueName("image", img.Name)
	d.images = append(d.images, img)
	d.dirty = true
}

// RemoveImage removes an image from the document.
func (d *Document) RemoveImage(img *Image) {
	for i, x := range d.images {
		if x == img {
			d.images = append(d.images[:i], d.images[i+1:]...)
			break
		}
	}
	d.releaseName("image", img.Name)
	d.dirty = true
}

// Images returns a snapshot of the document's images.
func (d *Document) Images() []*Image {
	out := make([]*Image, len(d.images))
	copy(out, d.images)
	return out
}

// ContentBounds returns the union world-space bounds over every object in
// the document. ok is false when the document holds no objects.
func (d *Document) ContentBounds() (box Box, ok bool) {
	for i, o := range d.objects {
		wb := o.WorldBounds()
		if i == 0 {
			box = wb
			continue
		}
		box = box.Union(wb)
	}
	return box, len(d.objects) > 0
}
