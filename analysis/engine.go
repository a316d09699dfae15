package analysis

import (
	"github.com/decibelcooper/jetres/event"
	"github.com/decibelcooper/jetres/gausfit"
	"github.com/decibelcooper/jetres/kinematics"
	"github.com/decibelcooper/jetres/matching"
	"github.com/decibelcooper/jetres/residual"
)

// Engine is the set of operations a Run is built from. Each of them can
// be used on its own.
type Engine interface {
	// Match returns the jet matches followed by the lepton matches of ev.
	Match(ev *event.Event) []matching.Match
	Residual(truth, reco kinematics.FourMomentum) residual.Residuals
	Resolution(reco kinematics.FourMomentum, cov kinematics.Covariance) residual.Resolutions
	Fit(d *Distribution) gausfit.Result
}

type engine struct {
	matcher    *matching.Matcher
	leptons    bool
	propagator residual.Propagator
	fitter     gausfit.Fitter
}

// NewEngine returns the Engine configured by cfg.
func NewEngine(cfg Config) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m, err := matching.New(matching.Options{
		Method:             cfg.MatchingMethod,
		Direction:          cfg.TruthDirection,
		RequireEqualCounts: cfg.RequireEqualJetCounts,
	})
	if err != nil {
		return nil, err
	}
	return &engine{
		matcher:    m,
		leptons:    cfg.IncludeIsolatedLeptons,
		propagator: residual.Propagator{Convention: cfg.PhiConvention()},
		fitter:     cfg.Fit.Fitter(),
	}, nil
}

func (e *engine) Match(ev *event.Event) []matching.Match {
	matches := e.matcher.Jets(ev.Truth, ev.Reco)
	if e.leptons {
		matches = append(matches, e.matcher.Leptons(ev.Truth, ev.Reco)...)
	}
	return matches
}

func (e *engine) Residual(truth, reco kinematics.FourMomentum) residual.Residuals {
	return residual.Compute(truth, reco)
}

func (e *engine) Resolution(reco kinematics.FourMomentum, cov kinematics.Covariance) residual.Resolutions {
	return e.propagator.Resolutions(reco, cov)
}

func (e *engine) Fit(d *Distribution) gausfit.Result {
	return e.fitter.Fit(d.Hist())
}
