package lcioevt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/lcio"
	"go.uber.org/zap/zaptest"

	"github.com/decibelcooper/jetres/event"
	"github.com/decibelcooper/jetres/kinematics"
	"github.com/decibelcooper/jetres/tracks"
)

type fixture struct {
	evt     *lcio.Event
	mcps    *lcio.McParticleContainer
	pfos    *lcio.RecParticleContainer
	tjs     *lcio.RecParticleContainer
	jets    *lcio.RecParticleContainer
	leptons *lcio.RecParticleContainer
	kaons   *lcio.TrackContainer
}

// newFixture builds an event with one hadronic truth jet made of a quark,
// a kaon, a neutrino and two PFOs, an ISR truth jet without elementon and
// one reconstructed jet.
func newFixture() *fixture {
	cols := DefaultCollections()
	f := &fixture{
		evt: &lcio.Event{RunNumber: 3, EventNumber: 11},
		mcps: &lcio.McParticleContainer{Particles: []lcio.McParticle{
			{PDG: 1, GenStatus: 2, P: [3]float64{10, 0, 0}},
			{PDG: 321, GenStatus: 1, P: [3]float64{6, 0, 0}, Mass: tracks.KaonMass},
			{PDG: -14, GenStatus: 1, P: [3]float64{3, 0, 0}},
			{PDG: 22, GenStatus: 1, P: [3]float64{0, 0, 4}},
		}},
		pfos: &lcio.RecParticleContainer{Parts: []lcio.RecParticle{
			{Type: 211, P: [3]float32{5, 0, 0}, Energy: 5},
			{Type: 22, P: [3]float32{1, 0, 0}, Energy: 1},
			{Type: 22, P: [3]float32{0, 0, 4}, Energy: 4},
		}},
		tjs: &lcio.RecParticleContainer{Parts: []lcio.RecParticle{
			{P: [3]float32{6, 0, 0}, Energy: 6, PIDs: []lcio.ParticleID{{Type: 101}}},
			{P: [3]float32{0, 0, 4}, Energy: 4, PIDs: []lcio.ParticleID{{Type: 4}}},
		}},
		kaons: &lcio.TrackContainer{Tracks: []lcio.Track{
			{States: []lcio.TrackState{{Phi: 0, Omega: float32(tracks.EB(tracks.DefaultBField) / 5), TanL: 0}}},
		}},
	}
	f.pfos.Parts[0].Tracks = []*lcio.Track{&f.kaons.Tracks[0]}

	f.jets = &lcio.RecParticleContainer{Parts: []lcio.RecParticle{{
		P:      [3]float32{6, 0, 4},
		Energy: 10,
		Cov:    [10]float32{1, 0, 1, 0, 0, 1, 0, 0, 0, 2},
		Recs:   []*lcio.RecParticle{&f.pfos.Parts[0], &f.pfos.Parts[1], &f.pfos.Parts[2]},
	}}}
	f.leptons = &lcio.RecParticleContainer{Parts: []lcio.RecParticle{{
		P: [3]float32{0, 2, 0}, Energy: 2, Cov: [10]float32{0.1, 0, 0.1, 0, 0, 0.1, 0, 0, 0, 0.1},
	}}}

	tj := f.tjs.Parts
	mc := f.mcps.Particles
	elementons := &lcio.RelationContainer{Rels: []lcio.Relation{
		{From: &tj[0], To: &mc[0], Weight: 1},
	}}
	pfoLinks := &lcio.RelationContainer{Rels: []lcio.Relation{
		{From: &tj[0], To: &f.pfos.Parts[0], Weight: 1},
		{From: &tj[0], To: &f.pfos.Parts[1], Weight: 1},
		{From: &tj[1], To: &f.pfos.Parts[2], Weight: 1},
	}}
	mcLinks := &lcio.RelationContainer{Rels: []lcio.Relation{
		{From: &tj[0], To: &mc[1], Weight: 1},
		{From: &tj[0], To: &mc[2], Weight: 1},
		{From: &tj[1], To: &mc[3], Weight: 1},
	}}

	f.evt.Add(cols.MCParticles, f.mcps)
	f.evt.Add(cols.PFOs, f.pfos)
	f.evt.Add(cols.TrueJets, f.tjs)
	f.evt.Add(cols.RecoJets, f.jets)
	f.evt.Add(cols.IsolatedLeptons, f.leptons)
	f.evt.Add(cols.KaonTracks, f.kaons)
	f.evt.Add(cols.FinalElementonLink, elementons)
	f.evt.Add(cols.TrueJetPFOLink, pfoLinks)
	f.evt.Add(cols.TrueJetMCParticleLink, mcLinks)
	return f
}

func TestDecodeTruth(t *testing.T) {
	f := newFixture()
	ev, err := NewDecoder(DefaultCollections()).Decode(f.evt)
	require.NoError(t, err)
	assert.Equal(t, 3, ev.Run)
	assert.Equal(t, 11, ev.Number)

	truth := ev.Truth
	require.Equal(t, 2, truth.TruthJetCount())
	assert.Equal(t, event.HadronicString, truth.TruthJetType(0))
	assert.Equal(t, event.ISR, truth.TruthJetType(1))

	assert.Equal(t, event.ParticleRef{Collection: "MCParticlesSkimmed", Index: 0}, truth.Parton(0))
	assert.Equal(t, event.ParticleRef{Collection: "TrueJets", Index: 1}, truth.Parton(1))
	assert.InDelta(t, 10.0, truth.PartonMomentum(0).Px(), 1e-12)

	// the neutrino counts for true but not for trueSeen
	assert.InDelta(t, 9.0, truth.TrueMomentum(0).Px(), 1e-12)
	assert.InDelta(t, 6.0, truth.TrueSeenMomentum(0).Px(), 1e-12)
	assert.InDelta(t, 6.0, truth.SeenMomentum(0).E(), 1e-6)
	assert.Len(t, truth.TrueParticles(0), 2)

	assert.Equal(t, []event.ParticleRef{
		{Collection: "PandoraPFOs", Index: 0},
		{Collection: "PandoraPFOs", Index: 1},
	}, truth.SeenConstituents(0))
	owner, ok := truth.OwningTruthJet(event.ParticleRef{Collection: "PandoraPFOs", Index: 2})
	require.True(t, ok)
	assert.Equal(t, 1, owner)
}

func TestDecodeReco(t *testing.T) {
	f := newFixture()
	dec := NewDecoder(DefaultCollections(), WithLeptons(true), WithTracks(true), WithLogger(zaptest.NewLogger(t)))
	ev, err := dec.Decode(f.evt)
	require.NoError(t, err)

	reco := ev.Reco
	require.Equal(t, 1, reco.RecoJetCount())
	assert.Equal(t, kinematics.NewFourMomentum(6, 0, 4, 10), reco.RecoJetMomentum(0))
	assert.Equal(t, kinematics.Covariance{1, 0, 1, 0, 0, 1, 0, 0, 0, 2}, reco.RecoJetCovariance(0))

	constituents := reco.RecoJetConstituents(0)
	require.Len(t, constituents, 3)
	assert.Equal(t, 211, constituents[0].PDG)
	assert.Equal(t, event.ParticleRef{Collection: "PandoraPFOs", Index: 2}, constituents[2].Ref)
	require.Len(t, constituents[0].Tracks, 1)
	helix := constituents[0].Tracks[0]
	assert.True(t, helix.InKaonCollection)
	assert.False(t, helix.InProtonCollection)
	species, p4 := helix.Hypothesis(tracks.DefaultBField, tracks.Thresholds{})
	assert.Equal(t, tracks.Kaon, species)
	assert.InDelta(t, 5.0, p4.Pt(), 1e-4)

	require.Equal(t, 1, reco.RecoLeptonCount())
	assert.InDelta(t, 2.0, reco.RecoLeptonMomentum(0).Py(), 1e-12)
}

func TestDecodeMissingCollection(t *testing.T) {
	f := newFixture()
	cols := DefaultCollections()
	cols.TrueJets = "NoSuchJets"
	_, err := NewDecoder(cols).Decode(f.evt)
	require.Error(t, err)
	assert.True(t, errors.Is(err, event.ErrMissingCollection))
	assert.Contains(t, err.Error(), "NoSuchJets")

	cols = DefaultCollections()
	cols.IsolatedLeptons = "NoLeptons"
	_, err = NewDecoder(cols).Decode(f.evt)
	assert.NoError(t, err, "leptons are only read on request")
	_, err = NewDecoder(cols, WithLeptons(true)).Decode(f.evt)
	assert.True(t, errors.Is(err, event.ErrMissingCollection))
}

func TestDecodeWrongCollectionType(t *testing.T) {
	f := newFixture()
	cols := DefaultCollections()
	cols.RecoJets = cols.MCParticles
	_, err := NewDecoder(cols).Decode(f.evt)
	require.Error(t, err)
	assert.False(t, errors.Is(err, event.ErrMissingCollection))
}

func TestMissingRefitCollectionFallsBackToPion(t *testing.T) {
	f := newFixture()
	cols := DefaultCollections()
	cols.KaonTracks = "NoKaons"
	ev, err := NewDecoder(cols, WithTracks(true)).Decode(f.evt)
	require.NoError(t, err)
	helix := ev.Reco.RecoJetConstituents(0)[0].Tracks[0]
	assert.False(t, helix.InKaonCollection)
	species, _ := helix.Hypothesis(tracks.DefaultBField, tracks.Thresholds{})
	assert.Equal(t, tracks.Pion, species)
}
