package matching

import (
	"fmt"

	"github.com/decibelcooper/jetres/event"
	"github.com/decibelcooper/jetres/kinematics"
)

// Direction names the truth momentum class used as a truth jet direction.
type Direction string

const (
	PartonDirection   Direction = "parton"
	TrueDirection     Direction = "true"
	TrueSeenDirection Direction = "trueSeen"
	SeenDirection     Direction = "seen"
)

type momentumFunc func(event.TruthSource, int) kinematics.FourMomentum

func (d Direction) momentum() (momentumFunc, error) {
	switch d {
	case PartonDirection:
		return event.TruthSource.PartonMomentum, nil
	case TrueDirection:
		return event.TruthSource.TrueMomentum, nil
	case TrueSeenDirection, "":
		return event.TruthSource.TrueSeenMomentum, nil
	case SeenDirection:
		return event.TruthSource.SeenMomentum, nil
	}
	return nil, fmt.Errorf("matching: unknown truth direction %q", string(d))
}

// Valid reports whether d names a known momentum class.
func (d Direction) Valid() bool {
	_, err := d.momentum()
	return err == nil
}

// Of returns the momentum of truth jet i in the class d. Unknown classes
// fall back to trueSeen.
func (d Direction) Of(truth event.TruthSource, i int) kinematics.FourMomentum {
	f, err := d.momentum()
	if err != nil {
		f = event.TruthSource.TrueSeenMomentum
	}
	return f(truth, i)
}

// DirectionNearestMatch walks the reconstructed jets in order and gives
// each one the hadronic truth jet with the largest cosine to it among
// those whose parton has not been taken yet. There is no backtracking.
func DirectionNearestMatch(truth event.TruthSource, reco event.RecoSource, dir Direction) []Match {
	return nearest(truth, reco.RecoJetCount(), reco.RecoJetMomentum, event.HadronicString, dir, Jet)
}

// LeptonMatch is the nearest-direction scan between isolated leptons and
// leptonic truth jets.
func LeptonMatch(truth event.TruthSource, reco event.RecoSource, dir Direction) []Match {
	if truth.TruthJetCount() == 0 || reco.RecoLeptonCount() == 0 {
		return nil
	}
	return nearest(truth, reco.RecoLeptonCount(), reco.RecoLeptonMomentum, event.Leptonic, dir, Lepton)
}

func nearest(truth event.TruthSource, nReco int, recoMomentum func(int) kinematics.FourMomentum, typ event.JetType, dir Direction, kind Kind) []Match {
	truthMomentum, err := dir.momentum()
	if err != nil {
		truthMomentum = event.TruthSource.TrueSeenMomentum
	}

	var candidates []int
	for i := 0; i < truth.TruthJetCount(); i++ {
		if truth.TruthJetType(i) == typ {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	consumed := make(map[event.ParticleRef]bool)
	var matches []Match
	for iReco := 0; iReco < nReco; iReco++ {
		recoUnit := recoMomentum(iReco).Unit()

		best := -1
		bestCos := -1.0
		for _, iTruth := range candidates {
			if consumed[truth.Parton(iTruth)] {
				continue
			}
			cos := kinematics.Clamp(recoUnit.Dot(truthMomentum(truth, iTruth).Unit()))
			if cos >= bestCos {
				bestCos = cos
				best = iTruth
			}
		}
		if best < 0 {
			continue
		}

		consumed[truth.Parton(best)] = true
		matches = append(matches, Match{
			TruthIndex: best,
			RecoIndex:  iReco,
			Method:     DirectionNearest,
			Kind:       kind,
		})
	}
	return matches
}
