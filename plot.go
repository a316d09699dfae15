package jetres

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/decibelcooper/jetres/analysis"
	"github.com/decibelcooper/jetres/gausfit"
)

var fitColor = color.RGBA{R: 200, A: 255}

// PlotOptions controls the rendering of one residual distribution.
type PlotOptions struct {
	Title string
	// UnitArea scales the histogram and the fitted curve by 1/N.
	UnitArea bool
	Ticks    int
}

// PlotDistribution draws the histogram of d with the fitted Gaussian on
// top. A degenerate fit is not drawn.
func PlotDistribution(d *analysis.Distribution, fit gausfit.Result, opts PlotOptions) *plot.Plot {
	p := plot.New()
	p.Title.Text = opts.Title
	if p.Title.Text == "" {
		p.Title.Text = d.Name
	}
	_, leaf := analysis.SplitChannel(d.Name)
	p.X.Label.Text = leaf
	p.X.Tick.Marker = PreciseTicks{NSuggestedTicks: opts.Ticks}
	p.Y.Tick.Marker = PreciseTicks{NSuggestedTicks: opts.Ticks}

	hist, scale := d.Hist(), 1.0
	if opts.UnitArea && d.Entries() > 0 {
		hist, scale = d.UnitArea(), 1/float64(d.Entries())
	}
	h := hplot.NewH1D(hist)
	h.Infos.Style = hplot.HInfoSummary
	p.Add(h)

	if fit.Status != gausfit.Degenerate && fit.Sigma > 0 {
		fn := plotter.NewFunction(func(x float64) float64 { return scale * fit.Eval(x) })
		fn.Color = fitColor
		fn.Width = vg.Points(1.5)
		fn.Samples = 400
		p.Add(fn)
		p.Legend.Add(fmt.Sprintf("μ=%.3g σ=%.3g", fit.Mean, fit.Sigma), fn)
		p.Legend.Top = true
	}
	return p
}

// PlotFileName maps a channel name to a file under dir.
func PlotFileName(dir, channel, ext string) string {
	return filepath.Join(dir, strings.ReplaceAll(channel, "/", "_")+"."+strings.TrimPrefix(ext, "."))
}

// SaveDistributions renders every distribution that has a fit result into
// dir with the given extension.
func SaveDistributions(dir, ext string, ds []*analysis.Distribution, fits map[string]gausfit.Result, opts PlotOptions) error {
	for _, d := range ds {
		fit, ok := fits[d.Name]
		if !ok {
			continue
		}
		o := opts
		o.Title = ""
		p := PlotDistribution(d, fit, o)
		name := PlotFileName(dir, d.Name, ext)
		if err := p.Save(6*vg.Inch, 4*vg.Inch, name); err != nil {
			return fmt.Errorf("jetres: save %s: %w", name, err)
		}
	}
	return nil
}
