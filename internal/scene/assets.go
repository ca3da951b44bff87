package scene

// Mesh is an object data payload: an opaque geometry blob plus material
// slots. The tool never interprets the geometry, it only carries it between
// scene files.
type Mesh struct {
	ID       string
	Name     string
	Geometry []byte

	// Materials are the mesh's material slots, in slot order.
	Materials []*Material
}

// MaterialNode is a single node of a node-based material. Only image nodes
// matter to the export bundle; other node kinds carry a nil Image.
type MaterialNode struct {
	Name  string
	Image *Image
}

// Material is a surface definition. Node-based materials reference images
// through their node tree.
type Material struct {
	ID       string
	Name     string
	UseNodes bool
	Nodes    []MaterialNode
}

// Images returns the images referenced by the material's node tree,
// deduplicated by identity. Non-node materials reference no images.
func (m *Material) Images() []*Image {
	if !m.UseNodes {
		return nil
	}
	seen := make(map[*Image]bool)
	var out []*Image
	for _, n := range m.Nodes {
		if n.Image == nil || seen[n.Image] {
			continue
		}
		seen[n.Image] = true
		out = append(out, n.Image)
	}
	return out
}

// Image is a texture datablock. SourcePath points at the external file the
// image came from; once packed, Payload holds the file contents and the
// image no longer depends on anything outside the document.
type Image struct {
	ID         string
	Name       string
	SourcePath string
	Packed     bool
	Payload    []byte
}
