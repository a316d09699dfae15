package analysis

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/decibelcooper/jetres/event"
	"github.com/decibelcooper/jetres/gausfit"
	"github.com/decibelcooper/jetres/kinematics"
	"github.com/decibelcooper/jetres/matching"
	"github.com/decibelcooper/jetres/residual"
	"github.com/decibelcooper/jetres/tracks"
)

func ref(collection string, i int) event.ParticleRef {
	return event.ParticleRef{Collection: collection, Index: i}
}

func jet(typ event.JetType, partonIndex int, p kinematics.FourMomentum) event.TruthJet {
	return event.TruthJet{
		Type:           typ,
		Parton:         ref("MCParticle", partonIndex),
		PartonMomentum: p,
		True:           p,
		TrueSeen:       p,
		Seen:           p,
	}
}

func newRun(t *testing.T, modify func(*Config), opts ...Option) *Run {
	t.Helper()
	cfg := DefaultConfig()
	if modify != nil {
		modify(&cfg)
	}
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	r, err := NewRun(cfg, opts...)
	require.NoError(t, err)
	r.Start()
	return r
}

func TestIdenticalJetEndToEnd(t *testing.T) {
	r := newRun(t, nil)
	p := kinematics.NewFourMomentum(3, 4, 0, 5)
	ev := &event.Event{
		Run: 1, Number: 7,
		Truth: event.NewTruth([]event.TruthJet{jet(event.HadronicString, 0, p)}),
		Reco: &event.Reco{Jets: []event.RecoObject{{
			Momentum:   p,
			Covariance: kinematics.DiagonalCovariance(0.25, 0.25, 0, 0),
		}}},
	}

	res := r.OnEvent(ev)
	require.Len(t, res.Matches, 1)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "jet/trueSeen", res.Records[0].Prefix)
	assert.Equal(t, "jet/seen", res.Records[1].Prefix)
	for _, rec := range res.Records {
		assert.Equal(t, residual.Residuals{}, rec.Raw)
		assert.Equal(t, 0.0, rec.Normalized[residual.Px])
		assert.Equal(t, 0.0, rec.Normalized[residual.Py])
		assert.Equal(t, 0.0, rec.Normalized[residual.Phi])
	}

	d, ok := r.Distribution("jet/trueSeen/ResidualPx")
	require.True(t, ok)
	assert.Equal(t, 1, d.Entries())
	d, ok = r.Distribution("jet/trueSeen/NormalizedPz")
	require.True(t, ok)
	assert.Equal(t, 0, d.Entries())
	assert.Equal(t, 1, d.Undefined())

	assert.Equal(t, Counters{Events: 1, JetMatches: 1}, r.Counters())
}

func TestTruthReferenceSelectsMomentum(t *testing.T) {
	tj := jet(event.HadronicString, 0, kinematics.NewFourMomentum(10, 0, 0, 10))
	tj.True = kinematics.NewFourMomentum(11, 0, 0, 11)
	reco := &event.Reco{Jets: []event.RecoObject{{
		Momentum:   kinematics.NewFourMomentum(10, 0.1, 0, 10),
		Covariance: kinematics.DiagonalCovariance(1, 1, 1, 1),
	}}}
	ev := &event.Event{Truth: event.NewTruth([]event.TruthJet{tj}), Reco: reco}

	seenRun := newRun(t, nil)
	trueRun := newRun(t, func(c *Config) { c.TruthReference = matching.TrueDirection })

	a := seenRun.OnEvent(ev).Records[0]
	b := trueRun.OnEvent(ev).Records[0]
	assert.Equal(t, "jet/trueSeen", a.Prefix)
	assert.Equal(t, "jet/true", b.Prefix)
	assert.InDelta(t, 0.0, a.Raw[residual.Px], 1e-12)
	assert.InDelta(t, -1.0, b.Raw[residual.Px], 1e-12)
	assert.NotEqual(t, a.Record, b.Record)
}

func TestGateRejectsMismatchedCounts(t *testing.T) {
	r := newRun(t, nil)
	p := kinematics.NewFourMomentum(1, 0, 0, 1)
	ev := &event.Event{
		Truth: event.NewTruth([]event.TruthJet{
			jet(event.HadronicString, 0, p),
			jet(event.HadronicString, 1, kinematics.NewFourMomentum(0, 1, 0, 1)),
		}),
		Reco: &event.Reco{Jets: []event.RecoObject{{Momentum: p}}},
	}
	res := r.OnEvent(ev)
	assert.True(t, res.GateRejected)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 1, r.Counters().GateRejected)

	open := newRun(t, func(c *Config) { c.RequireEqualJetCounts = false })
	res = open.OnEvent(ev)
	assert.False(t, res.GateRejected)
	assert.Len(t, res.Matches, 1)
}

func TestLeptonsAndISRCorrection(t *testing.T) {
	r := newRun(t, func(c *Config) {
		c.IncludeIsolatedLeptons = true
		c.IncludeFSRPhotonCorrection = true
	})
	hadron := kinematics.NewFourMomentum(20, 0, 0, 20)
	photon := kinematics.NewFourMomentum(2, 0.2, 0, math.Hypot(2, 0.2))
	lepton := kinematics.NewFourMomentum(0, 15, 0, 15)
	ev := &event.Event{
		Truth: event.NewTruth([]event.TruthJet{
			jet(event.HadronicString, 0, hadron),
			jet(event.ISR, 1, photon),
			jet(event.Leptonic, 2, lepton),
		}),
		Reco: &event.Reco{
			Jets:    []event.RecoObject{{Momentum: hadron.Add(photon), Covariance: kinematics.DiagonalCovariance(1, 1, 1, 1)}},
			Leptons: []event.RecoObject{{Momentum: lepton, Covariance: kinematics.DiagonalCovariance(1, 1, 1, 1)}},
		},
	}

	res := r.OnEvent(ev)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, matching.ISRAssociation{0: {1}}, res.ISR)
	assert.Equal(t, matching.Lepton, res.Matches[1].Kind)

	require.Len(t, res.Records, 4)
	jetRec := res.Records[0]
	assert.Equal(t, hadron.Add(photon), jetRec.Truth)
	assert.InDelta(t, 0.0, jetRec.Raw[residual.E], 1e-12)
	assert.Equal(t, "lepton/trueSeen", res.Records[2].Prefix)
	assert.Equal(t, "lepton/seen", res.Records[3].Prefix)

	_, ok := r.Distribution("lepton/seen/NormalizedE")
	assert.True(t, ok)
	assert.Equal(t, Counters{Events: 1, JetMatches: 1, LeptonMatches: 1}, r.Counters())
}

func TestSpeciesAccounting(t *testing.T) {
	r := newRun(t, func(c *Config) {
		c.IncludeTrackSpecies = true
		c.MinProtonTrackEnergy = 100
	})
	omega := tracks.EB(tracks.DefaultBField) / 10 // pT = 10 GeV
	constituents := []event.Particle{
		{Tracks: []tracks.Helix{{Omega: omega, InKaonCollection: true}}},
		{Tracks: []tracks.Helix{{Omega: omega, InProtonCollection: true}}},
		{Tracks: []tracks.Helix{{Omega: -omega}}},
	}
	p := kinematics.NewFourMomentum(10, 0, 0, 10)
	tj := jet(event.HadronicString, 0, p)
	tj.TrueParticles = []event.Particle{
		{PDG: -321, GenStatus: 1, Momentum: kinematics.FromMass(kinematics.Vec3{3, 0, 0}, tracks.KaonMass)},
		{PDG: 2212, GenStatus: 1, Momentum: kinematics.FromMass(kinematics.Vec3{4, 0, 0}, tracks.ProtonMass)},
		{PDG: 2212, GenStatus: 2, Momentum: p},
		{PDG: 211, GenStatus: 1, Momentum: p},
	}
	ev := &event.Event{
		Truth: event.NewTruth([]event.TruthJet{tj}),
		Reco:  &event.Reco{Jets: []event.RecoObject{{Momentum: p, Constituents: constituents}}},
	}

	res := r.OnEvent(ev)
	require.NotNil(t, res.Species)
	s := res.Species
	assert.Len(t, s.TrueKaonEnergies, 1)
	assert.Len(t, s.TrueProtonEnergies, 1)
	assert.InDelta(t, math.Hypot(3, tracks.KaonMass), s.TrueKaonTotal, 1e-12)
	assert.InDelta(t, math.Hypot(4, tracks.ProtonMass), s.TrueProtonTotal, 1e-12)

	assert.Len(t, s.Tracks.Values(tracks.Kaon), 1)
	assert.Empty(t, s.Tracks.Values(tracks.Proton), "proton below threshold falls back to pion")
	assert.Len(t, s.Tracks.Values(tracks.Pion), 2)
	assert.InDelta(t, math.Hypot(10, tracks.KaonMass), s.Tracks.Total(tracks.Kaon), 1e-9)
}

func TestSkipLogsWarning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := newRun(t, nil, WithLogger(zap.New(core)))

	r.Skip(3, 42, event.MissingCollection("TrueJets"))
	assert.Equal(t, 1, r.Counters().Skipped)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "skipping event", entry.Message)
	assert.Equal(t, int64(42), entry.ContextMap()["event"])
}

func TestCalibrateUnknownChannel(t *testing.T) {
	r := newRun(t, nil)
	_, err := r.Calibrate("jet/nowhere/ResidualPx")
	assert.True(t, errors.Is(err, ErrUnknownChannel))

	res, err := r.Calibrate("jet/seen/ResidualE")
	require.NoError(t, err)
	assert.Equal(t, gausfit.Degenerate, res.Status)
}

func TestFinishFitsEveryChannel(t *testing.T) {
	r := newRun(t, func(c *Config) { c.FitWorkers = 3 })
	rng := rand.New(rand.NewSource(9))
	truth := kinematics.NewFourMomentum(30, 10, 20, 40)
	for i := 0; i < 5000; i++ {
		reco := kinematics.NewFourMomentum(30+rng.NormFloat64(), 10, 20, 40+0.5*rng.NormFloat64())
		r.Record("jet/true", truth, reco, kinematics.DiagonalCovariance(1, 1, 1, 0.25))
	}

	results, err := r.Finish(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, len(r.Distributions()))
	assert.Contains(t, results, "jet/seen/NormalizedPhi")

	px := results["jet/true/ResidualPx"]
	require.Equal(t, gausfit.Converged, px.Status, px.String())
	assert.InDelta(t, 0, px.Mean, 0.1)
	assert.InDelta(t, 1, px.Sigma, 0.1)

	pull := results["jet/true/NormalizedE"]
	require.Equal(t, gausfit.Converged, pull.Status, pull.String())
	assert.InDelta(t, 1, pull.Sigma, 0.1)

	// channels without entries are still reported
	assert.Equal(t, gausfit.Degenerate, results["jet/seen/ResidualPx"].Status)
}

func TestFinishCancelled(t *testing.T) {
	r := newRun(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Finish(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

type stubEngine struct {
	Engine
	fits int
}

func (s *stubEngine) Fit(d *Distribution) gausfit.Result {
	s.fits++
	return gausfit.Result{Mean: float64(d.Entries())}
}

func TestWithEngine(t *testing.T) {
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	stub := &stubEngine{Engine: e}
	r := newRun(t, nil, WithEngine(stub))

	r.Record("jet/seen", kinematics.NewFourMomentum(1, 0, 0, 1), kinematics.NewFourMomentum(1, 0, 0, 1), kinematics.Covariance{})
	res, err := r.Calibrate("jet/seen/ResidualPx")
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Mean)
	assert.Equal(t, 1, stub.fits)
}
