package scene

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Box is an axis-aligned bounding box in document units.
type Box struct {
	Min r3.Vec
	Max r3.Vec
}

// Translated returns the box shifted by v.
func (b Box) Translated(v r3.Vec) Box {
	return Box{
		Min: r3.Add(b.Min, v),
		Max: r3.Add(b.Max, v),
	}
}

// Union returns the smallest box containing both b and o.
func (b Box) Union(o Box) Box {
	u := b
	if o.Min.X < u.Min.X {
		u.Min.X = o.Min.X
	}
	if o.Min.Y < u.Min.Y {
		u.Min.Y = o.Min.Y
	}
	if o.Min.Z < u.Min.Z {
		u.Min.Z = o.Min.Z
	}
	if o.Max.X > u.Max.X {
		u.Max.X = o.Max.X
	}
	if o.Max.Y > u.Max.Y {
		u.Max.Y = o.Max.Y
	}
	if o.Max.Z > u.Max.Z {
		u.Max.Z = o.Max.Z
	}
	return u
}

// PointBox returns a degenerate box collapsed onto p.
func PointBox(p r3.Vec) Box {
	return Box{Min: p, Max: p}
}

// Object is a placeable entity in the document. Volumetric objects carry a
// local-space bounding box and usually a mesh payload; point-like objects
// (lights, cameras, empties) have neither.
type Object struct {
	ID       string
	Name     string
	Location r3.Vec

	// Bounds is the local-space AABB, nil for point-like objects.
	Bounds *Box

	// Mesh is the object's data payload, nil for point-like objects.
	Mesh *Mesh
}

// HasBounds reports whether the object has a volumetric bound.
func (o *Object) HasBounds() bool {
	return o.Bounds != nil
}

// WorldBounds returns the object's world-space bounding box. For point-like
// objects it collapses to the object's world-space origin, so callers can
// always union the result into a footprint.
func (o *Object) WorldBounds() Box {
	if o.Bounds == nil {
		return PointBox(o.Location)
	}
	return o.Bounds.Translated(o.Location)
}
