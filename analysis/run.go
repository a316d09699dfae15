// Package analysis drives the residual engine over a sequence of events:
// it matches, computes and accumulates residuals per channel and fits the
// accumulated distributions at the end of the run.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/decibelcooper/jetres/event"
	"github.com/decibelcooper/jetres/gausfit"
	"github.com/decibelcooper/jetres/kinematics"
	"github.com/decibelcooper/jetres/matching"
	"github.com/decibelcooper/jetres/residual"
)

// ErrUnknownChannel is returned by Calibrate for a name that was never
// booked.
var ErrUnknownChannel = errors.New("analysis: unknown channel")

// Counters are the run level bookkeeping.
type Counters struct {
	Events        int
	Skipped       int
	GateRejected  int
	JetMatches    int
	LeptonMatches int
}

// PairRecord is the outcome for one matched pair against one reference.
type PairRecord struct {
	Match  matching.Match
	Prefix string
	Truth  kinematics.FourMomentum
	Reco   kinematics.FourMomentum
	residual.Record
}

// EventResult is what OnEvent computed for one event.
type EventResult struct {
	Run   int
	Event int

	NTruthJets    int
	NTruthLeptons int
	NRecoJets     int
	NRecoLeptons  int
	TruthJetTypes []event.JetType

	GateRejected bool
	Matches      []matching.Match
	ISR          matching.ISRAssociation
	Records      []PairRecord
	// Species is filled only when track species accounting is enabled.
	Species *SpeciesSummary
}

type Option func(*Run)

func WithLogger(l *zap.Logger) Option {
	return func(r *Run) { r.log = l }
}

// WithEngine replaces the engine built from the configuration.
func WithEngine(e Engine) Option {
	return func(r *Run) { r.engine = e }
}

// Run owns the configuration, the distributions and the counters of one
// analysis run. It is not safe for concurrent use.
type Run struct {
	cfg    Config
	log    *zap.Logger
	engine Engine

	dists    map[string]*Distribution
	order    []string
	counters Counters
	started  bool
}

func NewRun(cfg Config, opts ...Option) (*Run, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Run{cfg: cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if r.engine == nil {
		e, err := NewEngine(cfg)
		if err != nil {
			return nil, err
		}
		r.engine = e
	}
	return r, nil
}

func (r *Run) Config() Config { return r.cfg }

func (r *Run) Counters() Counters { return r.counters }

// Prefixes lists the channel prefixes booked by Start.
func (r *Run) Prefixes() []string {
	ref := string(r.cfg.TruthReference)
	prefixes := []string{Prefix(JetObject, ref), Prefix(JetObject, SeenReference)}
	if r.cfg.IncludeIsolatedLeptons {
		prefixes = append(prefixes, Prefix(LeptonObject, ref), Prefix(LeptonObject, SeenReference))
	}
	return prefixes
}

// Start resets the counters and books every distribution.
func (r *Run) Start() {
	r.dists = make(map[string]*Distribution)
	r.order = r.order[:0]
	r.counters = Counters{}
	for _, prefix := range r.Prefixes() {
		r.book(prefix)
	}
	r.started = true
	r.log.Debug("run started",
		zap.Stringer("method", r.cfg.MatchingMethod),
		zap.String("reference", string(r.cfg.TruthReference)),
		zap.Int("channels", len(r.order)),
	)
}

func (r *Run) book(prefix string) {
	for _, kind := range []Kind{Raw, Normalized} {
		for _, q := range residual.Quantities() {
			name := ChannelName(prefix, kind, q)
			if _, ok := r.dists[name]; ok {
				continue
			}
			r.dists[name] = NewDistribution(name, r.cfg.Binning.For(kind, q))
			r.order = append(r.order, name)
		}
	}
}

// Distribution returns the named distribution.
func (r *Run) Distribution(name string) (*Distribution, bool) {
	d, ok := r.dists[name]
	return d, ok
}

// Distributions returns every distribution in booking order.
func (r *Run) Distributions() []*Distribution {
	out := make([]*Distribution, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.dists[name])
	}
	return out
}

// Skip accounts an event that could not be processed.
func (r *Run) Skip(run, evt int, reason error) {
	r.counters.Skipped++
	r.log.Warn("skipping event",
		zap.Int("run", run),
		zap.Int("event", evt),
		zap.Error(reason),
	)
}

// Record computes the residuals of reco against truth, fills the
// distributions of the channel prefix and returns the record. Unknown
// prefixes are booked on first use.
func (r *Run) Record(prefix string, truth, reco kinematics.FourMomentum, cov kinematics.Covariance) residual.Record {
	if !r.started {
		r.Start()
	}
	rec := residual.Record{
		Raw:   r.engine.Residual(truth, reco),
		Sigma: r.engine.Resolution(reco, cov),
	}
	rec.Normalized = residual.Normalize(rec.Raw, rec.Sigma)

	if _, ok := r.dists[ChannelName(prefix, Raw, residual.Px)]; !ok {
		r.book(prefix)
	}
	for _, q := range residual.Quantities() {
		r.dists[ChannelName(prefix, Raw, q)].Fill(rec.Raw[q])
		r.dists[ChannelName(prefix, Normalized, q)].Fill(rec.Normalized[q])
	}
	return rec
}

// OnEvent processes one event.
func (r *Run) OnEvent(ev *event.Event) EventResult {
	if !r.started {
		r.Start()
	}
	r.counters.Events++

	truth, reco := ev.Truth, ev.Reco
	res := EventResult{
		Run:           ev.Run,
		Event:         ev.Number,
		NTruthJets:    event.CountType(truth, event.HadronicString),
		NTruthLeptons: event.CountType(truth, event.Leptonic),
		NRecoJets:     reco.RecoJetCount(),
		NRecoLeptons:  reco.RecoLeptonCount(),
	}
	for i := 0; i < truth.TruthJetCount(); i++ {
		res.TruthJetTypes = append(res.TruthJetTypes, truth.TruthJetType(i))
	}
	if r.cfg.RequireEqualJetCounts && !matching.CountGate(truth, reco) {
		res.GateRejected = true
		r.counters.GateRejected++
		r.log.Debug("jet count mismatch",
			zap.Int("event", ev.Number),
			zap.Int("truth", res.NTruthJets),
			zap.Int("reco", res.NRecoJets),
		)
	}

	res.Matches = r.engine.Match(ev)
	if r.cfg.IncludeFSRPhotonCorrection {
		res.ISR = matching.AssociateISR(truth, reco)
	}
	if r.cfg.IncludeTrackSpecies {
		res.Species = &SpeciesSummary{}
	}

	ref := r.cfg.TruthReference
	for _, m := range res.Matches {
		object := JetObject
		var recoMom kinematics.FourMomentum
		var cov kinematics.Covariance
		switch m.Kind {
		case matching.Lepton:
			object = LeptonObject
			recoMom = reco.RecoLeptonMomentum(m.RecoIndex)
			cov = reco.RecoLeptonCovariance(m.RecoIndex)
			r.counters.LeptonMatches++
		default:
			recoMom = reco.RecoJetMomentum(m.RecoIndex)
			cov = reco.RecoJetCovariance(m.RecoIndex)
			r.counters.JetMatches++
		}

		for _, dir := range []matching.Direction{ref, matching.SeenDirection} {
			truthMom := dir.Of(truth, m.TruthIndex)
			if m.Kind == matching.Jet {
				for _, iISR := range res.ISR[m.RecoIndex] {
					truthMom = truthMom.Add(dir.Of(truth, iISR))
				}
			}
			prefix := Prefix(object, string(dir))
			rec := r.Record(prefix, truthMom, recoMom, cov)
			res.Records = append(res.Records, PairRecord{
				Match:  m,
				Prefix: prefix,
				Truth:  truthMom,
				Reco:   recoMom,
				Record: rec,
			})
			if undef := rec.Undefined(); len(undef) > 0 {
				r.log.Debug("undefined normalized residuals",
					zap.Int("event", ev.Number),
					zap.String("channel", prefix),
					zap.Stringers("quantities", undef),
				)
			}
		}

		if res.Species != nil && m.Kind == matching.Jet {
			res.Species.Add(reco.RecoJetConstituents(m.RecoIndex), truth.TrueParticles(m.TruthIndex),
				r.cfg.BField, r.cfg.Thresholds())
		}
	}

	r.log.Debug("event processed",
		zap.Int("run", ev.Run),
		zap.Int("event", ev.Number),
		zap.Int("matches", len(res.Matches)),
		zap.Int("isrJets", len(res.ISR)),
	)
	return res
}

// Calibrate fits the named distribution.
func (r *Run) Calibrate(name string) (gausfit.Result, error) {
	d, ok := r.dists[name]
	if !ok {
		return gausfit.Result{}, fmt.Errorf("%w %q", ErrUnknownChannel, name)
	}
	return r.engine.Fit(d), nil
}

// Finish fits every distribution, concurrently. A degenerate channel is
// reported through its status and never aborts the others; only a
// cancelled context makes Finish fail.
func (r *Run) Finish(ctx context.Context) (map[string]gausfit.Result, error) {
	workers := r.cfg.FitWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	names := append([]string(nil), r.order...)
	results := make([]gausfit.Result, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range names {
		d := r.dists[name]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = r.engine.Fit(d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis: fitting distributions: %w", err)
	}

	out := make(map[string]gausfit.Result, len(names))
	for i, name := range names {
		out[name] = results[i]
	}
	r.logSummary(out)
	return out, nil
}

func (r *Run) logSummary(results map[string]gausfit.Result) {
	r.log.Info("run finished",
		zap.Int("events", r.counters.Events),
		zap.Int("skipped", r.counters.Skipped),
		zap.Int("gateRejected", r.counters.GateRejected),
		zap.Int("jetMatches", r.counters.JetMatches),
		zap.Int("leptonMatches", r.counters.LeptonMatches),
	)
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		res := results[name]
		d := r.dists[name]
		r.log.Info("calibration",
			zap.String("channel", name),
			zap.Int("entries", d.Entries()),
			zap.Int("undefined", d.Undefined()),
			zap.Float64("mean", res.Mean),
			zap.Float64("sigma", res.Sigma),
			zap.Float64("chi2ndf", res.Chi2NDF),
			zap.Stringer("status", res.Status),
		)
	}
}
