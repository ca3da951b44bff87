package layout

// Grid is a regular lattice of uniform cells. Cell size is the maximum
// footprint over all placed projects, not per-cell, so rows and columns
// line up.
type Grid struct {
	// Columns is the number of cells per row. Zero means a single row
	// growing along X.
	Columns int

	// SpacingX and SpacingY add extra padding between cells on each axis.
	SpacingX float64
	SpacingY float64

	// CellWidth and CellDepth are the uniform cell dimensions.
	CellWidth float64
	CellDepth float64

	// StartX and StartY are the world coordinates of cell (0,0)'s corner.
	StartX float64
	StartY float64
}

// Cell maps a placement index to its (row, column) in the lattice.
func (g Grid) Cell(index int) (row, col int) {
	if g.Columns > 0 {
		return index / g.Columns, index % g.Columns
	}
	return 0, index
}

// Target returns the world X/Y coordinates of the cell corner for the given
// placement index. Rows advance in positive Y.
func (g Grid) Target(index int) (x, y float64) {
	row, col := g.Cell(index)
	x = g.StartX + float64(col)*(g.CellWidth+g.SpacingX)
	y = g.StartY + float64(row)*(g.CellDepth+g.SpacingY)
	return x, y
}

// Offset returns the translation that moves an extent's origin onto the
// cell corner for the given placement index.
func (g Grid) Offset(index int, e Extent) (dx, dy float64) {
	x, y := g.Target(index)
	return x - e.OriginX, y - e.OriginY
}
