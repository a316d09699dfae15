package analysis

import (
	"github.com/decibelcooper/jetres/event"
	"github.com/decibelcooper/jetres/tracks"
)

const (
	pdgKaon   = 321
	pdgProton = 2212
)

// SpeciesSummary compares the energy carried by charged kaons and protons
// at generator level with the track energies under each mass hypothesis.
type SpeciesSummary struct {
	Tracks tracks.Tally

	TrueKaonEnergies   []float64
	TrueKaonTotal      float64
	TrueProtonEnergies []float64
	TrueProtonTotal    float64
}

// Add accounts one matched pair: the tracks of the reconstructed jet
// constituents and the final state kaons and protons of the truth jet.
func (s *SpeciesSummary) Add(constituents, truthParticles []event.Particle, bField float64, th tracks.Thresholds) {
	for _, p := range truthParticles {
		if p.GenStatus != 1 {
			continue
		}
		switch abs(p.PDG) {
		case pdgKaon:
			s.TrueKaonEnergies = append(s.TrueKaonEnergies, p.Momentum.E())
			s.TrueKaonTotal += p.Momentum.E()
		case pdgProton:
			s.TrueProtonEnergies = append(s.TrueProtonEnergies, p.Momentum.E())
			s.TrueProtonTotal += p.Momentum.E()
		}
	}
	for _, pfo := range constituents {
		for _, trk := range pfo.Tracks {
			species, p4 := trk.Hypothesis(bField, th)
			s.Tracks.Add(species, p4.E())
		}
	}
}

// AccountSpecies returns the summary of a single matched pair.
func AccountSpecies(constituents, truthParticles []event.Particle, bField float64, th tracks.Thresholds) SpeciesSummary {
	var s SpeciesSummary
	s.Add(constituents, truthParticles, bField, th)
	return s
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
