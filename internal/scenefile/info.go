package scenefile

// Summary describes the contents of a scene file without materializing
// a document from it.
type Summary struct {
	Path        string
	Generator   string
	Scenes      []string
	Collections int
	Objects     int
	Meshes      int
	Materials   int
	Images      int
	Packed      int
}

// Describe reads a scene file and reports entity counts and scene names.
func Describe(path string) (*Summary, error) {
	c, err := readContents(path)
	if err != nil {
		return nil, err
	}
	s := &Summary{
		Path:        path,
		Generator:   c.meta["generator"],
		Collections: len(c.collections),
		Objects:     len(c.objects),
		Meshes:      len(c.meshes),
		Materials:   len(c.materials),
		Images:      len(c.images),
	}
	for _, row := range c.scenes {
		s.Scenes = append(s.Scenes, row.name)
	}
	for _, img := range c.images {
		if img.Packed {
			s.Packed++
		}
	}
	return s, nil
}
