// Package layout holds the geometric core of the batch importer: per-source
// footprint extents in the X/Y plane and the regular grid lattice imported
// projects are placed into. Everything here is pure computation so the
// placement of an import run is a deterministic function of its inputs.
package layout

import (
	"math"

	"github.com/forge3d/scenetools/internal/scene"
)

// DefaultMinDimension is the fallback footprint edge length for source
// files with no measurable geometry. Extents below degenerateEpsilon are
// clamped up to the configured minimum so grid cells never collapse or
// overlap.
const DefaultMinDimension = 0.1

// degenerateEpsilon is the threshold below which a computed width or depth
// counts as degenerate (a file of point-like objects on a shared axis, or
// nothing at all).
const degenerateEpsilon = 1e-3

// Extent is the X/Y-plane footprint of the objects loaded from one source
// file. Origin is the minimum corner; placement translates a project so its
// origin lands on its grid cell's corner.
type Extent struct {
	SourcePath string
	OriginX    float64
	OriginY    float64
	Width      float64
	Depth      float64
}

// FootprintOf computes the union footprint of objects, using each object's
// world-space bounding box and falling back to its origin point for
// point-like objects. minDim clamps degenerate results:
//
//   - zero objects: a minDim x minDim placeholder at the world origin;
//   - width or depth below degenerateEpsilon: clamped up to minDim.
func FootprintOf(objects []*scene.Object, minDim float64) Extent {
	if minDim <= 0 {
		minDim = DefaultMinDimension
	}
	if len(objects) == 0 {
		return Extent{Width: minDim, Depth: minDim}
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	volumetric := false
	for _, o := range objects {
		wb := o.WorldBounds()
		if o.HasBounds() {
			volumetric = true
		}
		minX = math.Min(minX, wb.Min.X)
		maxX = math.Max(maxX, wb.Max.X)
		minY = math.Min(minY, wb.Min.Y)
		maxY = math.Max(maxY, wb.Max.Y)
	}

	width := maxX - minX
	depth := maxY - minY
	if !volumetric || width < degenerateEpsilon {
		width = math.Max(width, minDim)
	}
	if !volumetric || depth < degenerateEpsilon {
		depth = math.Max(depth, minDim)
	}

	return Extent{OriginX: minX, OriginY: minY, Width: width, Depth: depth}
}

// MaxCell returns the uniform grid cell size: the maximum width and depth
// across all extents, clamped to at least minDim on each axis.
func MaxCell(extents []Extent, minDim float64) (width, depth float64) {
	if minDim <= 0 {
		minDim = DefaultMinDimension
	}
	width, depth = minDim, minDim
	for _, e := range extents {
		width = math.Max(width, e.Width)
		depth = math.Max(depth, e.Depth)
	}
	return width, depth
}
