// Package gausfit extracts the core width of a residual distribution by
// fitting a Gaussian in a window that narrows around the previous fit.
//
// Every fit level performs three passes: the first on the window it is
// handed, the next two on [μ-r·σ, μ+r·σ] of the pass before. When the
// last pass still has chi²/ndf above the threshold the procedure descends
// one level with r reduced by a fixed step. The number of levels is
// bounded by ⌈(InitialRange-MinRange)/Step⌉, and that budget binds before
// MinRange does: with the defaults the last level fitted uses r = 0.6,
// and r = 0.5 is never reached.
package gausfit

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/hbook"
)

const passesPerLevel = 3

// Status is the terminal state of a fit.
type Status int

const (
	// Converged means chi²/ndf ended at or below the threshold.
	Converged Status = iota
	// RangeExhausted means the level budget or the minimum range was
	// reached first; the last fit is reported as is.
	RangeExhausted
	// Degenerate means there was nothing sensible to fit: too few
	// populated bins, zero chi² or zero degrees of freedom.
	Degenerate
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case RangeExhausted:
		return "range-exhausted"
	case Degenerate:
		return "degenerate"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Window is a closed fit interval.
type Window struct {
	Lo, Hi float64
}

func (w Window) Contains(x float64) bool { return x >= w.Lo && x <= w.Hi }

func (w Window) Width() float64 { return w.Hi - w.Lo }

func (w Window) String() string { return fmt.Sprintf("[%g, %g]", w.Lo, w.Hi) }

// Result describes the last fit performed.
type Result struct {
	Amplitude float64
	Mean      float64
	Sigma     float64
	Chi2      float64
	NDF       int
	Chi2NDF   float64

	// Levels is the number of fit levels entered and Fits the number of
	// single passes attempted.
	Levels int
	Fits   int
	Range  float64
	Window Window
	Status Status
}

// Eval returns the fitted curve at x.
func (r Result) Eval(x float64) float64 {
	return gaussian(x, []float64{r.Amplitude, r.Mean, r.Sigma})
}

func (r Result) String() string {
	return fmt.Sprintf("mean=%.4g sigma=%.4g chi2/ndf=%.3g (%s, %d levels, %d fits)",
		r.Mean, r.Sigma, r.Chi2NDF, r.Status, r.Levels, r.Fits)
}

// Fitter holds the narrowing policy. The zero value is not usable; start
// from Default.
type Fitter struct {
	InitialWindow Window
	InitialRange  float64
	MinRange      float64
	Step          float64
	MaxChi2NDF    float64

	// pass replaces the single Gaussian fit in tests.
	pass func(h *hbook.H1D, w Window) (params, error)
}

func Default() Fitter {
	return Fitter{
		InitialWindow: Window{-2, 2},
		InitialRange:  2.0,
		MinRange:      0.5,
		Step:          0.1,
		MaxChi2NDF:    2.0,
	}
}

// MaxLevels is the level budget.
func (f Fitter) MaxLevels() int {
	if f.Step <= 0 || f.InitialRange < f.MinRange {
		return 1
	}
	n := int(math.Ceil((f.InitialRange-f.MinRange)/f.Step - 1e-9))
	if n < 1 {
		n = 1
	}
	return n
}

// MaxFits is the worst case number of single passes.
func (f Fitter) MaxFits() int {
	return passesPerLevel * f.MaxLevels()
}

// Fit runs the adaptive procedure on h. It never modifies h.
func (f Fitter) Fit(h *hbook.H1D) Result {
	return f.fitLevel(h, f.InitialWindow, 0, Result{})
}

// FitSamples histograms samples with n equal bins over [lo, hi) and fits
// the result. Values outside the range land in the overflow bins and take
// no part in the fit.
func (f Fitter) FitSamples(samples []float64, n int, lo, hi float64) Result {
	h := hbook.NewH1D(n, lo, hi)
	for _, x := range samples {
		h.Fill(x, 1)
	}
	return f.Fit(h)
}

func (f Fitter) rangeAt(level int) float64 {
	return f.InitialRange - float64(level)*f.Step
}

func (f Fitter) fitLevel(h *hbook.H1D, w Window, level int, res Result) Result {
	single := f.pass
	if single == nil {
		single = fitGaussian
	}

	r := f.rangeAt(level)
	res.Levels = level + 1
	res.Range = r

	var p params
	for i := 0; i < passesPerLevel; i++ {
		if i > 0 {
			w = Window{p.mean - r*p.sigma, p.mean + r*p.sigma}
		}
		res.Window = w
		res.Fits++

		var err error
		p, err = single(h, w)
		if err != nil {
			res.Status = Degenerate
			return res
		}
		res.Amplitude = p.amp
		res.Mean = p.mean
		res.Sigma = p.sigma
		res.Chi2 = p.chi2
		res.NDF = p.ndf
		res.Chi2NDF = 0
		if p.ndf != 0 {
			res.Chi2NDF = p.chi2 / float64(p.ndf)
		}
	}

	switch {
	case res.Chi2 == 0 || res.NDF == 0:
		res.Status = Degenerate
		return res
	case res.Chi2NDF <= f.MaxChi2NDF:
		res.Status = Converged
		return res
	case r < f.MinRange || level+1 >= f.MaxLevels():
		res.Status = RangeExhausted
		return res
	}
	return f.fitLevel(h, w, level+1, res)
}
