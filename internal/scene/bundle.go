package scene

// Bundle is the deduplicated transitive entity set needed to serialize a
// selection standalone: scenes, collections, objects, their data payloads,
// the materials those payloads reference and the images referenced by
// node-based materials.
type Bundle struct {
	Scenes      []*SceneRoot
	Collections []*Collection
	Objects     []*Object
	Meshes      []*Mesh
	Materials   []*Material
	Images      []*Image
}

// BuildBundle computes the bundle for a set of objects with one forward
// traversal: object -> mesh -> materials -> images. Entities are
// deduplicated by identity; input order is preserved.
func BuildBundle(objects []*Object) *Bundle {
	b := &Bundle{}
	seenObj := make(map[*Object]bool)
	seenMesh := make(map[*Mesh]bool)
	seenMat := make(map[*Material]bool)
	seenImg := make(map[*Image]bool)

	for _, o := range objects {
		if o == nil || seenObj[o] {
			continue
		}
		seenObj[o] = true
		b.Objects = append(b.Objects, o)

		m := o.Mesh
		if m == nil {
			continue
		}
		if !seenMesh[m] {
			seenMesh[m] = true
			b.Meshes = append(b.Meshes, m)
		}
		for _, mat := range m.Materials {
			if mat == nil {
				continue
			}
			if !seenMat[mat] {
				seenMat[mat] = true
				b.Materials = append(b.Materials, mat)
			}
			for _, img := range mat.Images() {
				if !seenImg[img] {
					seenImg[img] = true
					b.Images = append(b.Images, img)
				}
			}
		}
	}
	return b
}

// AddScene stages a scene (and its master collection) into the bundle.
func (b *Bundle) AddScene(s *SceneRoot) {
	b.Scenes = append(b.Scenes, s)
}

// AddCollection stages a collection into the bundle.
func (b *Bundle) AddCollection(c *Collection) {
	b.Collections = append(b.Collections, c)
}
