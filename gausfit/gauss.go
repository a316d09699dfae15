package gausfit

import (
	"errors"
	"fmt"
	"math"

	"go-hep.org/x/hep/fit"
	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

const nparams = 3

var (
	errTooFewBins = errors.New("gausfit: too few populated bins in window")
	errBadFit     = errors.New("gausfit: fit did not produce a usable width")
)

type params struct {
	amp, mean, sigma float64
	chi2             float64
	ndf              int
}

func gaussian(x float64, ps []float64) float64 {
	v := (x - ps[1]) / ps[2]
	return ps[0] * math.Exp(-0.5*v*v)
}

// binsIn returns centre, content and error of the populated bins of h
// whose centre lies in w.
func binsIn(h *hbook.H1D, w Window) (xs, ys, errs []float64) {
	for _, bin := range h.Binning.Bins {
		x := bin.XMid()
		if !w.Contains(x) || bin.SumW() == 0 {
			continue
		}
		sw2 := bin.SumW2()
		if sw2 <= 0 {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, bin.SumW())
		errs = append(errs, math.Sqrt(sw2))
	}
	return xs, ys, errs
}

// fitGaussian is one chi-square fit of A·exp(-½((x-μ)/σ)²) to the
// populated bins of h inside w.
func fitGaussian(h *hbook.H1D, w Window) (params, error) {
	if !(w.Width() > 0) {
		return params{}, fmt.Errorf("%w: empty window %v", errTooFewBins, w)
	}
	xs, ys, errs := binsIn(h, w)
	if len(xs) < nparams {
		return params{}, fmt.Errorf("%w: %d bins in %v", errTooFewBins, len(xs), w)
	}

	weights := make([]float64, len(ys))
	for i, y := range ys {
		weights[i] = math.Max(y, 0)
	}
	mean, sigma := stat.MeanStdDev(xs, weights)
	if !(sigma > 0) {
		sigma = w.Width() / 4
	}
	amp := floats.Max(ys)

	res, err := fit.Curve1D(
		fit.Func1D{
			F:   gaussian,
			X:   xs,
			Y:   ys,
			Err: errs,
			Ps:  []float64{amp, mean, sigma},
		},
		nil, &optimize.NelderMead{},
	)
	if err != nil {
		return params{}, fmt.Errorf("gausfit: minimization in %v: %w", w, err)
	}

	p := params{
		amp:   res.X[0],
		mean:  res.X[1],
		sigma: math.Abs(res.X[2]),
		ndf:   len(xs) - nparams,
	}
	if !(p.sigma > 0) || math.IsInf(p.sigma, 0) || math.IsNaN(p.mean) {
		return params{}, fmt.Errorf("%w: sigma=%g mean=%g", errBadFit, p.sigma, p.mean)
	}
	ps := []float64{p.amp, p.mean, p.sigma}
	for i, x := range xs {
		d := (ys[i] - gaussian(x, ps)) / errs[i]
		p.chi2 += d * d
	}
	return p, nil
}
