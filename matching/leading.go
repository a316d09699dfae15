package matching

import "github.com/decibelcooper/jetres/event"

// LeadingConstituent returns the index of the most energetic constituent that
// is not a neutrino, or -1.
func LeadingConstituent(constituents []event.Particle) int {
	leading := -1
	maxEnergy := 0.0
	for i, p := range constituents {
		if p.IsNeutrino() {
			continue
		}
		if leading < 0 || p.Momentum.E() > maxEnergy {
			leading = i
			maxEnergy = p.Momentum.E()
		}
	}
	return leading
}

// LeadingParticleMatch pairs every reconstructed jet with the truth jet
// owning its leading particle, provided that truth jet is a hadronic
// string jet. Truth ownership is not checked for duplicates: the owner
// lookup is expected to be disjoint already.
func LeadingParticleMatch(truth event.TruthSource, reco event.RecoSource) []Match {
	var matches []Match
	for iReco := 0; iReco < reco.RecoJetCount(); iReco++ {
		constituents := reco.RecoJetConstituents(iReco)
		leading := LeadingConstituent(constituents)
		if leading < 0 {
			continue
		}

		iTruth, ok := truth.OwningTruthJet(constituents[leading].Ref)
		if !ok || truth.TruthJetType(iTruth) != event.HadronicString {
			continue
		}

		matches = append(matches, Match{
			TruthIndex: iTruth,
			RecoIndex:  iReco,
			Method:     LeadingParticle,
			Kind:       Jet,
		})
	}
	return matches
}
