package jetres

import (
	"fmt"
	"math"
	"os"

	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// ResGrid accumulates the spread of a residual in bins of two truth
// variables. It implements plotter.GridXYZ.
type ResGrid struct {
	hCount, hV, hV2 *hbook.H2D
	nBinsX, nBinsY  int

	// MinEntries is the population below which a cell reports Empty.
	MinEntries float64
	Empty      float64
}

func NewResGrid(nBinsX int, xLow, xHigh float64, nBinsY int, yLow, yHigh float64) *ResGrid {
	return &ResGrid{
		hCount:     hbook.NewH2D(nBinsX, xLow, xHigh, nBinsY, yLow, yHigh),
		hV:         hbook.NewH2D(nBinsX, xLow, xHigh, nBinsY, yLow, yHigh),
		hV2:        hbook.NewH2D(nBinsX, xLow, xHigh, nBinsY, yLow, yHigh),
		nBinsX:     nBinsX,
		nBinsY:     nBinsY,
		MinEntries: 3,
	}
}

// Fill adds residual z at (x, y). NaN residuals are dropped.
func (g *ResGrid) Fill(x, y, z float64) {
	if math.IsNaN(z) {
		return
	}
	g.hCount.Fill(x, y, 1)
	g.hV.Fill(x, y, z)
	g.hV2.Fill(x, y, z*z)
}

func (g *ResGrid) Dims() (int, int) { return g.nBinsX, g.nBinsY }

// Count returns the number of residuals in cell (i, j).
func (g *ResGrid) Count(i, j int) float64 {
	return g.hCount.GridXYZ().Z(i, j)
}

// Z returns the standard deviation of the residuals in cell (i, j).
func (g *ResGrid) Z(i, j int) float64 {
	n := g.Count(i, j)
	if n < g.MinEntries || n == 0 {
		return g.Empty
	}
	mean := g.hV.GridXYZ().Z(i, j) / n
	mean2 := g.hV2.GridXYZ().Z(i, j) / n
	return math.Sqrt(math.Max(mean2-mean*mean, 0))
}

func (g *ResGrid) X(i int) float64 { return g.hCount.GridXYZ().X(i) }

func (g *ResGrid) Y(j int) float64 { return g.hCount.GridXYZ().Y(j) }

// MapOptions labels a resolution map.
type MapOptions struct {
	Title, XLabel, YLabel string
	// Max is the top of the colour scale.
	Max float64
}

// SaveResGrid renders g as a heat map with a colour bar and writes it to
// path as PNG.
func SaveResGrid(g *ResGrid, path string, opts MapOptions) error {
	img := vgimg.New(670, 400)
	dc := draw.New(img)
	dcMap := draw.Crop(dc, 0, -70, 0, 0)
	dcBar := draw.Crop(dc, 620, 0, 0, 0)

	colorMap := moreland.ExtendedBlackBody()
	colorMap.SetMin(0)
	colorMap.SetMax(opts.Max)

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	p.X.Tick.Marker = PreciseTicks{NSuggestedTicks: 5}
	p.Y.Tick.Marker = PreciseTicks{NSuggestedTicks: 5}
	heatMap := plotter.NewHeatMap(g, colorMap.Palette(1000))
	heatMap.Min = 0
	heatMap.Max = opts.Max
	p.Add(heatMap)
	p.Draw(dcMap)

	bar := plot.New()
	bar.Add(&plotter.ColorBar{ColorMap: colorMap, Vertical: true})
	bar.HideX()
	bar.Y.Padding = 0
	bar.Draw(dcBar)

	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("jetres: %w", err)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("jetres: write %s: %w", path, err)
	}
	return w.Close()
}
