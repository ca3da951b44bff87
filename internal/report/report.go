// Package report renders the layout computed by an import run: an
// interactive HTML scatter of cell placements and a static PNG diagram of
// the grid.
package report

import (
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/forge3d/scenetools/internal/importer"
	"github.com/forge3d/scenetools/internal/layout"
)

// WriteHTML renders an interactive scatter of the run's placements, one
// point per source file at its cell target.
func WriteHTML(w io.Writer, res *importer.Result) error {
	data := make([]opts.ScatterData, 0, len(res.Placements))
	maxX, maxY := 0.0, 0.0
	for _, p := range res.Placements {
		if p.TargetX > maxX {
			maxX = p.TargetX
		}
		if p.TargetY > maxY {
			maxY = p.TargetY
		}
		data = append(data, opts.ScatterData{
			Name:  fmt.Sprintf("%s (%.2g x %.2g)", p.SourcePath, p.Extent.Width, p.Extent.Depth),
			Value: []interface{}{p.TargetX, p.TargetY, p.Objects},
		})
	}
	padX := res.Grid.CellWidth + res.Grid.SpacingX
	padY := res.Grid.CellDepth + res.Grid.SpacingY

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Import Layout", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Import Layout",
			Subtitle: fmt.Sprintf("folder=%s files=%d cell=%gx%g", res.Folder, res.Files(), res.Grid.CellWidth, res.Grid.CellDepth),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Formatter: "{b}"}),
		charts.WithXAxisOpts(opts.XAxis{Min: res.Grid.StartX - padX, Max: maxX + padX, Name: "X"}),
		charts.WithYAxisOpts(opts.YAxis{Min: res.Grid.StartY - padY, Max: maxY + padY, Name: "Y"}),
	)
	scatter.AddSeries("placements", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}))
	return scatter.Render(w)
}

// WriteHTMLFile renders the HTML report to a file.
func WriteHTMLFile(path string, res *importer.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := WriteHTML(f, res); err != nil {
		f.Close()
		return fmt.Errorf("render report: %w", err)
	}
	return f.Close()
}

// WritePNG draws the grid as a static diagram: one outlined rectangle per
// occupied cell with a marker at the footprint target.
func WritePNG(path string, res *importer.Result) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Import Layout: %s", res.Folder)
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"

	targets := make(plotter.XYs, 0, len(res.Placements))
	for i, placement := range res.Placements {
		x, y := res.Grid.Target(i)
		cell, err := plotter.NewLine(cellOutline(res.Grid, x, y))
		if err != nil {
			return fmt.Errorf("cell outline: %w", err)
		}
		cell.Color = color.RGBA{R: 0x60, G: 0x60, B: 0x60, A: 255}
		cell.Width = vg.Points(1)
		p.Add(cell)
		targets = append(targets, plotter.XY{X: placement.TargetX, Y: placement.TargetY})
	}

	marks, err := plotter.NewScatter(targets)
	if err != nil {
		return fmt.Errorf("target markers: %w", err)
	}
	marks.GlyphStyle.Color = color.RGBA{R: 0xff, G: 0x52, B: 0x52, A: 255}
	marks.GlyphStyle.Radius = vg.Points(3)
	p.Add(marks)
	p.Legend.Add("targets", marks)
	p.Legend.Top = true

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save diagram: %w", err)
	}
	return nil
}

// cellOutline traces the cell rectangle anchored at its target corner.
func cellOutline(g layout.Grid, x, y float64) plotter.XYs {
	return plotter.XYs{
		{X: x, Y: y},
		{X: x + g.CellWidth, Y: y},
		{X: x + g.CellWidth, Y: y + g.CellDepth},
		{X: x, Y: y + g.CellDepth},
		{X: x, Y: y},
	}
}
