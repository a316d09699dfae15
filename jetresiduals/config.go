package main

import (
	"fmt"
	"math"

	"github.com/decibelcooper/jetres"
	"github.com/decibelcooper/jetres/analysis"
	"github.com/decibelcooper/jetres/lcioevt"
	"github.com/decibelcooper/jetres/matching"
	"github.com/decibelcooper/jetres/residual"
)

// fileConfig is the layout of the -config file: the analysis settings at
// the top level and the input collection names below "collections".
type fileConfig struct {
	analysis.Config `yaml:",inline"`
	Collections     lcioevt.Collections `yaml:"collections"`
}

// loadConfig reads path (if any) over the defaults and applies the
// command-line overrides.
func loadConfig(path string, method int, window *jetres.FloatList) (fileConfig, error) {
	fc := fileConfig{
		Config:      analysis.DefaultConfig(),
		Collections: lcioevt.DefaultCollections(),
	}
	if path != "" {
		if err := analysis.ReadYAML(path, &fc); err != nil {
			return fc, err
		}
	}
	if method != 0 {
		fc.MatchingMethod = matching.Method(method)
	}
	if window != nil && window.IsSet() {
		w, err := window.Pair()
		if err != nil {
			return fc, fmt.Errorf("-window: %w", err)
		}
		fc.Fit.Window = w
	}
	if err := fc.Validate(); err != nil {
		return fc, err
	}
	return fc, nil
}

func newEnergyGrid(eMax float64) *jetres.ResGrid {
	return jetres.NewResGrid(10, 0, 1, 10, 0, eMax)
}

// fillEnergyGrid adds the relative energy residual of every jet record
// against the given truth reference.
func fillEnergyGrid(g *jetres.ResGrid, prefix string, res analysis.EventResult) {
	for _, rec := range res.Records {
		if rec.Prefix != prefix || !(rec.Truth.E() > 0) {
			continue
		}
		g.Fill(math.Abs(math.Cos(rec.Truth.Theta())), rec.Truth.E(), rec.Raw[residual.E]/rec.Truth.E())
	}
}
