package matching

import (
	"sort"

	"github.com/decibelcooper/jetres/event"
	"github.com/decibelcooper/jetres/kinematics"
)

// ISRAssociation maps a reconstructed jet index to the ISR truth jets
// whose visible photon it most likely absorbed.
type ISRAssociation map[int][]int

// Jets returns the reconstructed jet indices holding ISR, sorted.
func (a ISRAssociation) Jets() []int {
	jets := make([]int, 0, len(a))
	for iReco := range a {
		jets = append(jets, iReco)
	}
	sort.Ints(jets)
	return jets
}

// AssociateISR compares the seen direction of every ISR truth jet with
// every reconstructed jet and marks the closest one. ISR photons that left
// nothing in the detector are ignored.
func AssociateISR(truth event.TruthSource, reco event.RecoSource) ISRAssociation {
	assoc := make(ISRAssociation)
	if reco.RecoJetCount() == 0 {
		return assoc
	}
	for iTruth := 0; iTruth < truth.TruthJetCount(); iTruth++ {
		if truth.TruthJetType(iTruth) != event.ISR {
			continue
		}
		seen := truth.SeenMomentum(iTruth)
		if seen.P2() == 0 {
			continue
		}
		seenUnit := seen.Unit()

		best := -1
		bestCos := -1.0
		for iReco := 0; iReco < reco.RecoJetCount(); iReco++ {
			cos := kinematics.Clamp(seenUnit.Dot(reco.RecoJetMomentum(iReco).Unit()))
			if cos >= bestCos {
				bestCos = cos
				best = iReco
			}
		}
		assoc[best] = append(assoc[best], iTruth)
	}
	return assoc
}
