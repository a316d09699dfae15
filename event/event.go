// Package event describes the per-event inputs of the residual engine: the
// truth jets supplied by the truth-association collaborator and the
// reconstructed jets and isolated leptons supplied by the reconstruction.
package event

import (
	"errors"
	"fmt"

	"github.com/decibelcooper/jetres/kinematics"
	"github.com/decibelcooper/jetres/tracks"
)

// ErrMissingCollection is wrapped by decoders when an input collection is
// absent from an event.
var ErrMissingCollection = errors.New("event: missing input collection")

// MissingCollection wraps ErrMissingCollection with the collection name.
func MissingCollection(name string) error {
	return fmt.Errorf("%w %q", ErrMissingCollection, name)
}

// ParticleRef identifies a particle within one event.
type ParticleRef struct {
	Collection string
	Index      int
}

func (r ParticleRef) String() string {
	return fmt.Sprintf("%s[%d]", r.Collection, r.Index)
}

// JetType classifies a truth jet by the object it originates from.
type JetType int

const (
	HadronicString  JetType = 1
	Leptonic        JetType = 2
	HadronicCluster JetType = 3
	ISR             JetType = 4
	Overlay         JetType = 5
	MEPhoton        JetType = 6
)

var jetTypeNames = map[JetType]string{
	HadronicString:  "hadronic (string)",
	Leptonic:        "leptonic",
	HadronicCluster: "hadronic (cluster)",
	ISR:             "ISR",
	Overlay:         "overlay",
	MEPhoton:        "M.E. photon",
}

func (t JetType) String() string {
	if name, ok := jetTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// Particle is a generated or reconstructed particle.
type Particle struct {
	Ref       ParticleRef
	PDG       int
	GenStatus int
	Momentum  kinematics.FourMomentum
	Tracks    []tracks.Helix
}

// IsNeutrino reports whether the particle type is one of the three
// neutrino flavours.
func (p Particle) IsNeutrino() bool {
	switch abs(p.PDG) {
	case 12, 14, 16:
		return true
	}
	return false
}

// TruthJet is one truth-level grouping of generated particles.
type TruthJet struct {
	Type             JetType
	Parton           ParticleRef
	PartonMomentum   kinematics.FourMomentum
	True             kinematics.FourMomentum
	TrueSeen         kinematics.FourMomentum
	Seen             kinematics.FourMomentum
	SeenConstituents []ParticleRef
	TrueParticles    []Particle
}

// RecoObject is a reconstructed jet or isolated lepton.
type RecoObject struct {
	Momentum     kinematics.FourMomentum
	Covariance   kinematics.Covariance
	Constituents []Particle
}

// TruthSource gives read access to the truth jets of one event.
type TruthSource interface {
	TruthJetCount() int
	TruthJetType(i int) JetType
	// Parton identifies the parent parton or lepton. Two truth jets sharing
	// a parton share an identity.
	Parton(i int) ParticleRef
	PartonMomentum(i int) kinematics.FourMomentum
	TrueMomentum(i int) kinematics.FourMomentum
	TrueSeenMomentum(i int) kinematics.FourMomentum
	SeenMomentum(i int) kinematics.FourMomentum
	SeenConstituents(i int) []ParticleRef
	// OwningTruthJet returns the truth jet whose seen constituents contain
	// ref.
	OwningTruthJet(ref ParticleRef) (int, bool)
	TrueParticles(i int) []Particle
}

// RecoSource gives read access to the reconstructed objects of one event.
type RecoSource interface {
	RecoJetCount() int
	RecoJetMomentum(i int) kinematics.FourMomentum
	RecoJetCovariance(i int) kinematics.Covariance
	RecoJetConstituents(i int) []Particle
	RecoLeptonCount() int
	RecoLeptonMomentum(i int) kinematics.FourMomentum
	RecoLeptonCovariance(i int) kinematics.Covariance
}

// Event bundles the collaborators of one event.
type Event struct {
	Run    int
	Number int
	Truth  TruthSource
	Reco   RecoSource
}

// CountType returns the number of truth jets of the given type.
func CountType(truth TruthSource, typ JetType) int {
	n := 0
	for i := 0; i < truth.TruthJetCount(); i++ {
		if truth.TruthJetType(i) == typ {
			n++
		}
	}
	return n
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
