// Package matching pairs reconstructed jets and isolated leptons with the
// truth jets they most plausibly come from.
//
// Both strategies are greedy and order dependent on purpose: the result
// for a reconstructed object never changes because of objects processed
// after it.
package matching

import (
	"errors"
	"fmt"

	"github.com/decibelcooper/jetres/event"
)

// ErrUnknownMethod is returned when a matcher is configured with a method
// other than LeadingParticle or DirectionNearest.
var ErrUnknownMethod = errors.New("matching: unknown method")

// Method selects the jet matching strategy.
type Method int

const (
	LeadingParticle  Method = 1
	DirectionNearest Method = 2
)

func (m Method) String() string {
	switch m {
	case LeadingParticle:
		return "leading-particle"
	case DirectionNearest:
		return "direction-nearest"
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// Kind tells which reconstructed collection a match refers to.
type Kind int

const (
	Jet Kind = iota
	Lepton
)

func (k Kind) String() string {
	if k == Lepton {
		return "lepton"
	}
	return "jet"
}

// Match pairs a truth jet with a reconstructed object.
type Match struct {
	TruthIndex int
	RecoIndex  int
	Method     Method
	Kind       Kind
}

// Options tune a Matcher.
type Options struct {
	Method Method
	// Direction selects which truth momentum gives a truth jet its
	// direction in the nearest-direction scans.
	Direction Direction
	// RequireEqualCounts skips hadronic matching for events in which the
	// number of hadronic truth jets differs from the number of reco jets.
	RequireEqualCounts bool
}

// Matcher runs the configured jet strategy and the lepton scan.
type Matcher struct {
	opts Options
}

func New(opts Options) (*Matcher, error) {
	switch opts.Method {
	case LeadingParticle, DirectionNearest:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, int(opts.Method))
	}
	if opts.Direction == "" {
		opts.Direction = TrueSeenDirection
	}
	if _, err := opts.Direction.momentum(); err != nil {
		return nil, err
	}
	return &Matcher{opts: opts}, nil
}

func (m *Matcher) Options() Options {
	return m.opts
}

// Jets matches the hadronic truth jets of an event. Nothing is matched
// when either side is empty or when the count gate rejects the event.
func (m *Matcher) Jets(truth event.TruthSource, reco event.RecoSource) []Match {
	if truth.TruthJetCount() == 0 || reco.RecoJetCount() == 0 {
		return nil
	}
	if m.opts.RequireEqualCounts && !CountGate(truth, reco) {
		return nil
	}
	switch m.opts.Method {
	case LeadingParticle:
		return LeadingParticleMatch(truth, reco)
	default:
		return DirectionNearestMatch(truth, reco, m.opts.Direction)
	}
}

// Leptons matches isolated leptons to leptonic truth jets.
func (m *Matcher) Leptons(truth event.TruthSource, reco event.RecoSource) []Match {
	return LeptonMatch(truth, reco, m.opts.Direction)
}

// CountGate reports whether the event has as many reconstructed jets as
// hadronic-string truth jets.
func CountGate(truth event.TruthSource, reco event.RecoSource) bool {
	return event.CountType(truth, event.HadronicString) == reco.RecoJetCount()
}
