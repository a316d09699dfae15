package event

import "github.com/decibelcooper/jetres/kinematics"

// Truth is a TruthSource backed by a slice.
type Truth struct {
	Jets  []TruthJet
	owner map[ParticleRef]int
}

// TruthCollection names the identities given to truth jets that carry no
// parton reference.
const TruthCollection = "truth"

// NewTruth indexes the seen constituents of jets. When a particle is
// listed by more than one jet the first one owns it. A jet without a
// parton reference is reported by Parton with its own identity in
// TruthCollection.
func NewTruth(jets []TruthJet) *Truth {
	t := &Truth{Jets: jets, owner: make(map[ParticleRef]int)}
	for i, jet := range jets {
		for _, ref := range jet.SeenConstituents {
			if _, ok := t.owner[ref]; !ok {
				t.owner[ref] = i
			}
		}
	}
	return t
}

func (t *Truth) TruthJetCount() int                             { return len(t.Jets) }
func (t *Truth) TruthJetType(i int) JetType                     { return t.Jets[i].Type }
func (t *Truth) PartonMomentum(i int) kinematics.FourMomentum   { return t.Jets[i].PartonMomentum }
func (t *Truth) TrueMomentum(i int) kinematics.FourMomentum     { return t.Jets[i].True }
func (t *Truth) TrueSeenMomentum(i int) kinematics.FourMomentum { return t.Jets[i].TrueSeen }
func (t *Truth) SeenMomentum(i int) kinematics.FourMomentum     { return t.Jets[i].Seen }
func (t *Truth) SeenConstituents(i int) []ParticleRef           { return t.Jets[i].SeenConstituents }
func (t *Truth) TrueParticles(i int) []Particle                 { return t.Jets[i].TrueParticles }

// Parton falls back to a per-jet identity for jets without a parton
// reference so that distinct jets are never merged.
func (t *Truth) Parton(i int) ParticleRef {
	if t.Jets[i].Parton == (ParticleRef{}) {
		return ParticleRef{Collection: TruthCollection, Index: i}
	}
	return t.Jets[i].Parton
}

func (t *Truth) OwningTruthJet(ref ParticleRef) (int, bool) {
	if t.owner != nil {
		i, ok := t.owner[ref]
		return i, ok
	}
	for i, jet := range t.Jets {
		for _, seen := range jet.SeenConstituents {
			if seen == ref {
				return i, true
			}
		}
	}
	return -1, false
}

// Reco is a RecoSource backed by slices.
type Reco struct {
	Jets    []RecoObject
	Leptons []RecoObject
}

func (r *Reco) RecoJetCount() int                                { return len(r.Jets) }
func (r *Reco) RecoJetMomentum(i int) kinematics.FourMomentum    { return r.Jets[i].Momentum }
func (r *Reco) RecoJetCovariance(i int) kinematics.Covariance    { return r.Jets[i].Covariance }
func (r *Reco) RecoJetConstituents(i int) []Particle             { return r.Jets[i].Constituents }
func (r *Reco) RecoLeptonCount() int                             { return len(r.Leptons) }
func (r *Reco) RecoLeptonMomentum(i int) kinematics.FourMomentum { return r.Leptons[i].Momentum }
func (r *Reco) RecoLeptonCovariance(i int) kinematics.Covariance { return r.Leptons[i].Covariance }
