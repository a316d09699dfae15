// Package tracks turns helix track parameters into four-momenta under a
// mass hypothesis and tallies track energies per hadron species.
package tracks

import (
	"math"

	"github.com/decibelcooper/jetres/kinematics"
)

const (
	PionMass   = 0.13957018
	KaonMass   = 0.493677
	ProtonMass = 0.938272088

	// DefaultBField is the solenoid field in Tesla.
	DefaultBField = 3.5

	speedOfLight = 2.99792458e8
	mm2m         = 1e-3
	eV2GeV       = 1e-9
)

// Species is a charged hadron mass hypothesis.
type Species int

const (
	Pion Species = iota
	Kaon
	Proton
	numSpecies
)

func (s Species) String() string {
	switch s {
	case Pion:
		return "pion"
	case Kaon:
		return "kaon"
	case Proton:
		return "proton"
	}
	return "unknown"
}

func (s Species) Mass() float64 {
	switch s {
	case Kaon:
		return KaonMass
	case Proton:
		return ProtonMass
	}
	return PionMass
}

// Helix holds the track parameters at the reference point together with
// the refit collections the track was found in.
type Helix struct {
	Phi       float64
	Omega     float64
	TanLambda float64

	InKaonCollection   bool
	InProtonCollection bool
}

// EB converts a field in Tesla into the GeV/mm curvature factor.
func EB(bField float64) float64 {
	return bField * speedOfLight * mm2m * eV2GeV
}

// Momentum is the three-momentum of the track in GeV.
func (h Helix) Momentum(bField float64) kinematics.Vec3 {
	pT := EB(bField) / math.Abs(h.Omega)
	return kinematics.Vec3{
		pT * math.Cos(h.Phi),
		pT * math.Sin(h.Phi),
		pT * h.TanLambda,
	}
}

func (h Helix) FourMomentum(mass, bField float64) kinematics.FourMomentum {
	return kinematics.FromMass(h.Momentum(bField), mass)
}

// Thresholds are the minimum energies for the heavy hypotheses. A track
// found in the proton or kaon refit collection falls back to the pion
// hypothesis when its energy under the heavy mass is below threshold.
type Thresholds struct {
	MinKaonEnergy   float64
	MinProtonEnergy float64
}

// Hypothesis picks the species of a track and returns its four-momentum
// under that mass.
func (h Helix) Hypothesis(bField float64, th Thresholds) (Species, kinematics.FourMomentum) {
	if h.InProtonCollection {
		p4 := h.FourMomentum(ProtonMass, bField)
		if p4.E() >= th.MinProtonEnergy {
			return Proton, p4
		}
	}
	if h.InKaonCollection {
		p4 := h.FourMomentum(KaonMass, bField)
		if p4.E() >= th.MinKaonEnergy {
			return Kaon, p4
		}
	}
	return Pion, h.FourMomentum(PionMass, bField)
}

// Tally collects energies per species.
type Tally struct {
	Energies [numSpecies][]float64
	Totals   [numSpecies]float64
}

func (t *Tally) Add(s Species, energy float64) {
	t.Energies[s] = append(t.Energies[s], energy)
	t.Totals[s] += energy
}

func (t *Tally) Total(s Species) float64 {
	return t.Totals[s]
}

func (t *Tally) Values(s Species) []float64 {
	return t.Energies[s]
}
