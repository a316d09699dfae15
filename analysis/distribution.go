package analysis

import (
	"fmt"
	"math"
	"strings"

	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/gonum/stat"

	"github.com/decibelcooper/jetres/residual"
)

// Kind separates raw residual channels from normalized ones.
type Kind int

const (
	Raw Kind = iota
	Normalized
)

func (k Kind) String() string {
	if k == Normalized {
		return "Normalized"
	}
	return "Residual"
}

const (
	JetObject    = "jet"
	LeptonObject = "lepton"
	// SeenReference is the reference name of residuals computed against
	// the seen momentum of a truth jet.
	SeenReference = "seen"
)

// Prefix joins an object and a reference into a channel prefix such as
// "jet/trueSeen".
func Prefix(object, reference string) string {
	return object + "/" + reference
}

// ChannelName is the name of the distribution of q for the given channel
// prefix, e.g. "jet/true/ResidualPx" or "jet/seen/NormalizedTheta".
func ChannelName(prefix string, kind Kind, q residual.Quantity) string {
	return fmt.Sprintf("%s/%s%s", prefix, kind, q)
}

// SplitChannel is the inverse of ChannelName for the prefix.
func SplitChannel(name string) (prefix, leaf string) {
	i := strings.LastIndexByte(name, '/')
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}

// Distribution accumulates the values of one channel over a run. NaN
// values are counted but neither buffered nor histogrammed.
type Distribution struct {
	Name string

	samples   []float64
	hist      *hbook.H1D
	undefined int
}

func NewDistribution(name string, b Binning) *Distribution {
	h := hbook.NewH1D(b.Bins, b.Min, b.Max)
	h.Annotation()["name"] = name
	return &Distribution{Name: name, hist: h}
}

func (d *Distribution) Fill(v float64) {
	if math.IsNaN(v) {
		d.undefined++
		return
	}
	d.samples = append(d.samples, v)
	d.hist.Fill(v, 1)
}

// Samples returns the buffered values in fill order.
func (d *Distribution) Samples() []float64 { return d.samples }

// Entries is the number of defined values filled.
func (d *Distribution) Entries() int { return len(d.samples) }

// Undefined is the number of NaN values filled.
func (d *Distribution) Undefined() int { return d.undefined }

// Hist returns the accumulated histogram. Callers must not fill it.
func (d *Distribution) Hist() *hbook.H1D { return d.hist }

// UnitArea returns a copy of the histogram with every entry weighted by
// 1/N, or the histogram itself when it is empty.
func (d *Distribution) UnitArea() *hbook.H1D {
	n := len(d.samples)
	if n == 0 {
		return d.hist
	}
	h := hbook.NewH1D(d.hist.Len(), d.hist.XMin(), d.hist.XMax())
	h.Annotation()["name"] = d.Name
	w := 1 / float64(n)
	for _, v := range d.samples {
		h.Fill(v, w)
	}
	return h
}

// Mean and StdDev summarize the buffered samples, ignoring the binning.
func (d *Distribution) Mean() float64 {
	if len(d.samples) == 0 {
		return math.NaN()
	}
	return stat.Mean(d.samples, nil)
}

func (d *Distribution) StdDev() float64 {
	if len(d.samples) < 2 {
		return math.NaN()
	}
	return stat.StdDev(d.samples, nil)
}
