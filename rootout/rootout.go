// Package rootout persists per-event residual records in a ROOT tree and
// the accumulated distributions as ROOT histograms.
package rootout

import (
	"fmt"
	"strings"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/decibelcooper/jetres/analysis"
	"github.com/decibelcooper/jetres/matching"
	"github.com/decibelcooper/jetres/residual"
	"github.com/decibelcooper/jetres/tracks"
)

// TreeName is the name of the per-event tree.
const TreeName = "eventTree"

type row struct {
	Run          int32
	Event        int32
	NTrueJets    int32
	NTrueLeptons int32
	NRecoJets    int32
	NRecoLeptons int32
	GateRejected int32

	NTypes      int32
	TrueJetType []int32

	NTrueKaons          int32
	TrueKaonEnergy      []float32
	TrueKaonEnergyTotal float32
	NTrueProtons        int32
	TrueProtonEnergy    []float32
	TrueProtonTotal     float32

	NTracks      [3]int32
	TrackEnergy  [3][]float32
	TrackTotal   [3]float32
	trackSpecies [3]tracks.Species

	NRecords   int32
	Lepton     []int32
	Seen       []int32
	TruthIndex []int32
	RecoIndex  []int32
	Raw        [residual.NumQuantities][]float32
	Sigma      [residual.NumQuantities][]float32
	Normalized [residual.NumQuantities][]float32
}

func (r *row) vars() []rtree.WriteVar {
	vars := []rtree.WriteVar{
		{Name: "run", Value: &r.Run},
		{Name: "event", Value: &r.Event},
		{Name: "nTrueJets", Value: &r.NTrueJets},
		{Name: "nTrueLeptons", Value: &r.NTrueLeptons},
		{Name: "nRecoJets", Value: &r.NRecoJets},
		{Name: "nRecoLeptons", Value: &r.NRecoLeptons},
		{Name: "gateRejected", Value: &r.GateRejected},
		{Name: "nTrueJetTypes", Value: &r.NTypes},
		{Name: "trueJetType", Value: &r.TrueJetType, Count: "nTrueJetTypes"},
		{Name: "nTrueKaons", Value: &r.NTrueKaons},
		{Name: "trueKaonEnergy", Value: &r.TrueKaonEnergy, Count: "nTrueKaons"},
		{Name: "trueKaonEnergyTotal", Value: &r.TrueKaonEnergyTotal},
		{Name: "nTrueProtons", Value: &r.NTrueProtons},
		{Name: "trueProtonEnergy", Value: &r.TrueProtonEnergy, Count: "nTrueProtons"},
		{Name: "trueProtonEnergyTotal", Value: &r.TrueProtonTotal},
	}
	r.trackSpecies = [3]tracks.Species{tracks.Pion, tracks.Kaon, tracks.Proton}
	for i, s := range r.trackSpecies {
		name := s.String()
		n := "n" + strings.ToUpper(name[:1]) + name[1:] + "Tracks"
		vars = append(vars,
			rtree.WriteVar{Name: n, Value: &r.NTracks[i]},
			rtree.WriteVar{Name: name + "TrackEnergy", Value: &r.TrackEnergy[i], Count: n},
			rtree.WriteVar{Name: name + "TrackEnergyTotal", Value: &r.TrackTotal[i]},
		)
	}
	vars = append(vars,
		rtree.WriteVar{Name: "nRecords", Value: &r.NRecords},
		rtree.WriteVar{Name: "recordLepton", Value: &r.Lepton, Count: "nRecords"},
		rtree.WriteVar{Name: "recordSeen", Value: &r.Seen, Count: "nRecords"},
		rtree.WriteVar{Name: "truthIndex", Value: &r.TruthIndex, Count: "nRecords"},
		rtree.WriteVar{Name: "recoIndex", Value: &r.RecoIndex, Count: "nRecords"},
	)
	for _, q := range residual.Quantities() {
		vars = append(vars,
			rtree.WriteVar{Name: "residual" + q.String(), Value: &r.Raw[q], Count: "nRecords"},
			rtree.WriteVar{Name: "sigma" + q.String(), Value: &r.Sigma[q], Count: "nRecords"},
			rtree.WriteVar{Name: "normalized" + q.String(), Value: &r.Normalized[q], Count: "nRecords"},
		)
	}
	return vars
}

func (r *row) set(res analysis.EventResult) {
	*r = row{trackSpecies: r.trackSpecies}
	r.Run = int32(res.Run)
	r.Event = int32(res.Event)
	r.NTrueJets = int32(res.NTruthJets)
	r.NTrueLeptons = int32(res.NTruthLeptons)
	r.NRecoJets = int32(res.NRecoJets)
	r.NRecoLeptons = int32(res.NRecoLeptons)
	if res.GateRejected {
		r.GateRejected = 1
	}
	for _, typ := range res.TruthJetTypes {
		r.TrueJetType = append(r.TrueJetType, int32(typ))
	}
	r.NTypes = int32(len(r.TrueJetType))

	if s := res.Species; s != nil {
		r.TrueKaonEnergy = float32s(s.TrueKaonEnergies)
		r.NTrueKaons = int32(len(r.TrueKaonEnergy))
		r.TrueKaonEnergyTotal = float32(s.TrueKaonTotal)
		r.TrueProtonEnergy = float32s(s.TrueProtonEnergies)
		r.NTrueProtons = int32(len(r.TrueProtonEnergy))
		r.TrueProtonTotal = float32(s.TrueProtonTotal)
		for i, sp := range r.trackSpecies {
			r.TrackEnergy[i] = float32s(s.Tracks.Values(sp))
			r.NTracks[i] = int32(len(r.TrackEnergy[i]))
			r.TrackTotal[i] = float32(s.Tracks.Total(sp))
		}
	}

	for _, rec := range res.Records {
		r.Lepton = append(r.Lepton, boolInt(rec.Match.Kind == matching.Lepton))
		_, ref := splitPrefix(rec.Prefix)
		r.Seen = append(r.Seen, boolInt(ref == analysis.SeenReference))
		r.TruthIndex = append(r.TruthIndex, int32(rec.Match.TruthIndex))
		r.RecoIndex = append(r.RecoIndex, int32(rec.Match.RecoIndex))
		for _, q := range residual.Quantities() {
			r.Raw[q] = append(r.Raw[q], float32(rec.Raw[q]))
			r.Sigma[q] = append(r.Sigma[q], float32(rec.Sigma[q]))
			r.Normalized[q] = append(r.Normalized[q], float32(rec.Normalized[q]))
		}
	}
	r.NRecords = int32(len(res.Records))
}

func splitPrefix(prefix string) (object, reference string) {
	object, reference, _ = strings.Cut(prefix, "/")
	return object, reference
}

func float32s(vs []float64) []float32 {
	out := make([]float32, len(vs))
	for i, v := range vs {
		out[i] = float32(v)
	}
	return out
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// Writer owns an output ROOT file.
type Writer struct {
	f    *groot.File
	tree rtree.Writer
	row  *row
}

// Create opens path for writing. The event tree is only booked when
// withTree is set.
func Create(path string, withTree bool) (*Writer, error) {
	f, err := groot.Create(path)
	if err != nil {
		return nil, fmt.Errorf("rootout: create %s: %w", path, err)
	}
	w := &Writer{f: f}
	if !withTree {
		return w, nil
	}
	w.row = &row{}
	w.tree, err = rtree.NewWriter(f, TreeName, w.row.vars(), rtree.WithTitle("matched jet and lepton residuals"))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("rootout: book %s: %w", TreeName, err)
	}
	return w, nil
}

// Fill appends one event to the tree. It is a no-op without a tree.
func (w *Writer) Fill(res analysis.EventResult) error {
	if w.tree == nil {
		return nil
	}
	w.row.set(res)
	if _, err := w.tree.Write(); err != nil {
		return fmt.Errorf("rootout: write event %d: %w", res.Event, err)
	}
	return nil
}

// KeyName flattens a channel name into a ROOT key.
func KeyName(channel string) string {
	return strings.ReplaceAll(channel, "/", "_")
}

// PutDistributions stores every distribution as a histogram, scaled to
// unit area when normalize is set.
func (w *Writer) PutDistributions(ds []*analysis.Distribution, normalize bool) error {
	for _, d := range ds {
		h := d.Hist()
		if normalize {
			h = d.UnitArea()
		}
		if err := w.f.Put(KeyName(d.Name), rhist.NewH1DFrom(h)); err != nil {
			return fmt.Errorf("rootout: put %s: %w", d.Name, err)
		}
	}
	return nil
}

func (w *Writer) Close() error {
	if w.tree != nil {
		if err := w.tree.Close(); err != nil {
			w.f.Close()
			return fmt.Errorf("rootout: close tree: %w", err)
		}
	}
	return w.f.Close()
}
