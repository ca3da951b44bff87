package scene

// Collection is a named grouping of objects and child collections. Linking
// an object or a child into a collection makes the collection one of its
// owners; the import and export paths keep every entity single-owned.
type Collection struct {
	ID   string
	Name string

	objects  []*Object
	children []*Collection
}

// Objects returns a snapshot of the directly linked objects.
func (c *Collection) Objects() []*Object {
	out := make([]*Object, len(c.objects))
	copy(out, c.objects)
	return out
}

// Children returns a snapshot of the child collections.
func (c *Collection) Children() []*Collection {
	out := make([]*Collection, len(c.children))
	copy(out, c.children)
	return out
}

// HasObject reports whether o is directly linked into c.
func (c *Collection) HasObject(o *Object) bool {
	for _, x := range c.objects {
		if x == o {
			return true
		}
	}
	return false
}

// HasChild reports whether child is directly linked into c.
func (c *Collection) HasChild(child *Collection) bool {
	for _, x := range c.children {
		if x == child {
			return true
		}
	}
	return false
}

// Empty reports whether the collection holds neither objects nor children.
func (c *Collection) Empty() bool {
	return len(c.objects) == 0 && len(c.children) == 0
}

func (c *Collection) linkObject(o *Object) {
	if c.HasObject(o) {
		return
	}
	c.objects = append(c.objects, o)
}

func (c *Collection) unlinkObject(o *Object) {
	for i, x := range c.objects {
		if x == o {
			c.objects = append(c.objects[:i], c.objects[i+1:]...)
			return
		}
	}
}

func (c *Collection) linkChild(child *Collection) {
	if c.HasChild(child) || child == c {
		return
	}
	c.children = append(c.children, child)
}

func (c *Collection) unlinkChild(child *Collection) {
	for i, x := range c.children {
		if x == child {
			c.children = append(c.children[:i], c.children[i+1:]...)
			return
		}
	}
}

// SceneRoot is a scene with its master collection. Master collections are
// owned by their scene and are not part of the document's collection list,
// so grouping operations (sweep, export staging) never touch them directly.
type SceneRoot struct {
	ID   string
	Name string
	Root *Collection
}
