// Package lcioevt builds the truth and reconstruction views of an event
// from LCIO collections written by the TrueJet processor and a jet
// clustering chain.
package lcioevt

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/lcio"
	"go.uber.org/zap"

	"github.com/decibelcooper/jetres/event"
	"github.com/decibelcooper/jetres/kinematics"
	"github.com/decibelcooper/jetres/tracks"
)

// Collections names the LCIO collections read by a Decoder.
type Collections struct {
	RecoJets              string `yaml:"reco_jets"`
	IsolatedLeptons       string `yaml:"isolated_leptons"`
	PFOs                  string `yaml:"pfos"`
	MCParticles           string `yaml:"mc_particles"`
	TrueJets              string `yaml:"true_jets"`
	FinalElementonLink    string `yaml:"final_elementon_link"`
	TrueJetPFOLink        string `yaml:"true_jet_pfo_link"`
	TrueJetMCParticleLink string `yaml:"true_jet_mc_particle_link"`
	KaonTracks            string `yaml:"kaon_tracks"`
	ProtonTracks          string `yaml:"proton_tracks"`
}

func DefaultCollections() Collections {
	return Collections{
		RecoJets:              "Durham_nJets",
		IsolatedLeptons:       "IsolatedLeptons",
		PFOs:                  "PandoraPFOs",
		MCParticles:           "MCParticlesSkimmed",
		TrueJets:              "TrueJets",
		FinalElementonLink:    "FinalElementonLink",
		TrueJetPFOLink:        "TrueJetPFOLink",
		TrueJetMCParticleLink: "TrueJetMCParticleLink",
		KaonTracks:            "MarlinTrkTracksKaon",
		ProtonTracks:          "MarlinTrkTracksProton",
	}
}

type Option func(*Decoder)

func WithLogger(l *zap.Logger) Option {
	return func(d *Decoder) { d.log = l }
}

// WithLeptons makes the isolated lepton collection required.
func WithLeptons(on bool) Option {
	return func(d *Decoder) { d.leptons = on }
}

// WithTracks attaches track helices to the reconstructed constituents.
func WithTracks(on bool) Option {
	return func(d *Decoder) { d.tracks = on }
}

// Decoder converts LCIO events. It holds no per-event state.
type Decoder struct {
	cols    Collections
	leptons bool
	tracks  bool
	log     *zap.Logger
}

func NewDecoder(cols Collections, opts ...Option) *Decoder {
	d := &Decoder{cols: cols, log: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func get[T any](evt *lcio.Event, name string) (*T, error) {
	if !evt.Has(name) {
		return nil, event.MissingCollection(name)
	}
	coll, ok := evt.Get(name).(*T)
	if !ok {
		return nil, fmt.Errorf("lcioevt: collection %q has type %T", name, evt.Get(name))
	}
	return coll, nil
}

// refs hands out particle references for the elements of one collection.
// Pointers from outside the collection get negative indices so that they
// keep a stable identity within the event.
type refs[T any] struct {
	name  string
	index map[*T]int
}

func newRefs[T any](name string, elems []T) *refs[T] {
	r := &refs[T]{name: name, index: make(map[*T]int, len(elems))}
	for i := range elems {
		r.index[&elems[i]] = i
	}
	return r
}

func (r *refs[T]) of(p *T) event.ParticleRef {
	i, ok := r.index[p]
	if !ok {
		i = -len(r.index) - 1
		r.index[p] = i
	}
	return event.ParticleRef{Collection: r.name, Index: i}
}

func recMomentum(p *lcio.RecParticle) kinematics.FourMomentum {
	return kinematics.NewFourMomentum(float64(p.P[0]), float64(p.P[1]), float64(p.P[2]), float64(p.Energy))
}

func mcMomentum(p *lcio.McParticle) kinematics.FourMomentum {
	return kinematics.FromMass(kinematics.Vec3(p.P), p.Mass)
}

// Decode reads the collections of evt. A missing required collection
// yields an error wrapping event.ErrMissingCollection.
func (d *Decoder) Decode(evt *lcio.Event) (*event.Event, error) {
	truth, pfoRefs, err := d.decodeTruth(evt)
	if err != nil {
		return nil, err
	}
	reco, err := d.decodeReco(evt, pfoRefs)
	if err != nil {
		return nil, err
	}
	return &event.Event{
		Run:    int(evt.RunNumber),
		Number: int(evt.EventNumber),
		Truth:  truth,
		Reco:   reco,
	}, nil
}

func (d *Decoder) decodeTruth(evt *lcio.Event) (*event.Truth, *refs[lcio.RecParticle], error) {
	tjs, err := get[lcio.RecParticleContainer](evt, d.cols.TrueJets)
	if err != nil {
		return nil, nil, err
	}
	pfos, err := get[lcio.RecParticleContainer](evt, d.cols.PFOs)
	if err != nil {
		return nil, nil, err
	}
	mcps, err := get[lcio.McParticleContainer](evt, d.cols.MCParticles)
	if err != nil {
		return nil, nil, err
	}
	elementons, err := get[lcio.RelationContainer](evt, d.cols.FinalElementonLink)
	if err != nil {
		return nil, nil, err
	}
	pfoLinks, err := get[lcio.RelationContainer](evt, d.cols.TrueJetPFOLink)
	if err != nil {
		return nil, nil, err
	}
	mcLinks, err := get[lcio.RelationContainer](evt, d.cols.TrueJetMCParticleLink)
	if err != nil {
		return nil, nil, err
	}

	jetIndex := make(map[*lcio.RecParticle]int, len(tjs.Parts))
	jets := make([]event.TruthJet, len(tjs.Parts))
	for i := range tjs.Parts {
		tj := &tjs.Parts[i]
		jetIndex[tj] = i
		jets[i].Seen = recMomentum(tj)
		if len(tj.PIDs) > 0 {
			jets[i].Type = event.JetType(tj.PIDs[0].Type % 100)
		}
	}
	hasParton := make([]bool, len(jets))
	owner := func(rel lcio.Relation) (int, bool) {
		tj, ok := rel.From.(*lcio.RecParticle)
		if !ok {
			return 0, false
		}
		i, ok := jetIndex[tj]
		return i, ok
	}

	mcRefs := newRefs(d.cols.MCParticles, mcps.Particles)
	pfoRefs := newRefs(d.cols.PFOs, pfos.Parts)

	for _, rel := range elementons.Rels {
		i, ok := owner(rel)
		mcp, isMC := rel.To.(*lcio.McParticle)
		if !ok || !isMC {
			continue
		}
		jets[i].Parton = mcRefs.of(mcp)
		jets[i].PartonMomentum = mcMomentum(mcp)
		hasParton[i] = true
	}
	for _, rel := range pfoLinks.Rels {
		i, ok := owner(rel)
		pfo, isPFO := rel.To.(*lcio.RecParticle)
		if !ok || !isPFO {
			continue
		}
		jets[i].SeenConstituents = append(jets[i].SeenConstituents, pfoRefs.of(pfo))
	}
	for _, rel := range mcLinks.Rels {
		i, ok := owner(rel)
		mcp, isMC := rel.To.(*lcio.McParticle)
		if !ok || !isMC {
			continue
		}
		p := event.Particle{
			Ref:       mcRefs.of(mcp),
			PDG:       int(mcp.PDG),
			GenStatus: int(mcp.GenStatus),
			Momentum:  mcMomentum(mcp),
		}
		jets[i].TrueParticles = append(jets[i].TrueParticles, p)
		jets[i].True = jets[i].True.Add(p.Momentum)
		if !p.IsNeutrino() {
			jets[i].TrueSeen = jets[i].TrueSeen.Add(p.Momentum)
		}
	}

	for i := range jets {
		if !hasParton[i] {
			// jets without an elementon keep their own identity
			jets[i].Parton = event.ParticleRef{Collection: d.cols.TrueJets, Index: i}
		}
	}
	return event.NewTruth(jets), pfoRefs, nil
}

func (d *Decoder) decodeReco(evt *lcio.Event, pfoRefs *refs[lcio.RecParticle]) (*event.Reco, error) {
	jets, err := get[lcio.RecParticleContainer](evt, d.cols.RecoJets)
	if err != nil {
		return nil, err
	}

	var species trackSets
	if d.tracks {
		species = d.trackSets(evt)
	}

	reco := &event.Reco{Jets: make([]event.RecoObject, len(jets.Parts))}
	for i := range jets.Parts {
		jet := &jets.Parts[i]
		obj := event.RecoObject{
			Momentum:   recMomentum(jet),
			Covariance: kinematics.CovarianceFrom32(jet.Cov),
		}
		for _, pfo := range jet.Recs {
			p := event.Particle{
				Ref:      pfoRefs.of(pfo),
				PDG:      int(pfo.Type),
				Momentum: recMomentum(pfo),
			}
			if d.tracks {
				p.Tracks = species.helices(pfo.Tracks)
			}
			obj.Constituents = append(obj.Constituents, p)
		}
		reco.Jets[i] = obj
	}

	if !d.leptons {
		return reco, nil
	}
	leptons, err := get[lcio.RecParticleContainer](evt, d.cols.IsolatedLeptons)
	if err != nil {
		return nil, err
	}
	for i := range leptons.Parts {
		lep := &leptons.Parts[i]
		reco.Leptons = append(reco.Leptons, event.RecoObject{
			Momentum:   recMomentum(lep),
			Covariance: kinematics.CovarianceFrom32(lep.Cov),
		})
	}
	return reco, nil
}

type trackSets struct {
	kaon, proton map[*lcio.Track]bool
}

// trackSets collects the refit collections. They are optional: a missing
// one only disables the corresponding hypothesis.
func (d *Decoder) trackSets(evt *lcio.Event) trackSets {
	set := func(name string) map[*lcio.Track]bool {
		coll, err := get[lcio.TrackContainer](evt, name)
		if err != nil {
			d.log.Warn("track collection unavailable", zap.String("collection", name), zap.Error(err))
			return nil
		}
		m := make(map[*lcio.Track]bool, len(coll.Tracks))
		for i := range coll.Tracks {
			m[&coll.Tracks[i]] = true
		}
		return m
	}
	return trackSets{kaon: set(d.cols.KaonTracks), proton: set(d.cols.ProtonTracks)}
}

func (s trackSets) helices(trks []*lcio.Track) []tracks.Helix {
	var out []tracks.Helix
	for _, trk := range trks {
		if trk == nil || len(trk.States) == 0 || trk.Omega() == 0 || math.IsNaN(trk.Omega()) {
			continue
		}
		out = append(out, tracks.Helix{
			Phi:                trk.Phi(),
			Omega:              trk.Omega(),
			TanLambda:          trk.TanL(),
			InKaonCollection:   s.kaon[trk],
			InProtonCollection: s.proton[trk],
		})
	}
	return out
}
