package analysis

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/decibelcooper/jetres/gausfit"
	"github.com/decibelcooper/jetres/matching"
	"github.com/decibelcooper/jetres/residual"
	"github.com/decibelcooper/jetres/tracks"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("analysis: invalid configuration")

var validate = validator.New()

// Binning is a fixed histogram binning.
type Binning struct {
	Bins int     `yaml:"bins" validate:"gt=0"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max" validate:"gtfield=Min"`
}

// BinningConfig gives the binning of each kind of distribution.
type BinningConfig struct {
	// Momentum is used for px, py, pz and E residuals in GeV.
	Momentum Binning `yaml:"momentum"`
	// Angle is used for theta and phi residuals in radians.
	Angle      Binning `yaml:"angle"`
	Normalized Binning `yaml:"normalized"`
}

// For returns the binning of the distribution of q in the given kind.
func (b BinningConfig) For(kind Kind, q residual.Quantity) Binning {
	switch {
	case kind == Normalized:
		return b.Normalized
	case q == residual.Theta || q == residual.Phi:
		return b.Angle
	}
	return b.Momentum
}

// FitConfig is the narrowing policy of the end of run fits.
type FitConfig struct {
	Window     [2]float64 `yaml:"window"`
	Range      float64    `yaml:"range" validate:"gt=0"`
	MinRange   float64    `yaml:"min_range" validate:"gte=0,ltefield=Range"`
	Step       float64    `yaml:"step" validate:"gt=0"`
	MaxChi2NDF float64    `yaml:"max_chi2_ndf" validate:"gt=0"`
}

func (f FitConfig) Fitter() gausfit.Fitter {
	return gausfit.Fitter{
		InitialWindow: gausfit.Window{Lo: f.Window[0], Hi: f.Window[1]},
		InitialRange:  f.Range,
		MinRange:      f.MinRange,
		Step:          f.Step,
		MaxChi2NDF:    f.MaxChi2NDF,
	}
}

// Config drives a Run.
type Config struct {
	MatchingMethod        matching.Method `yaml:"matching_method" validate:"oneof=1 2"`
	RequireEqualJetCounts bool            `yaml:"require_equal_jet_counts"`
	// TruthDirection is the truth momentum class that gives a truth jet
	// its direction in nearest-direction matching.
	TruthDirection matching.Direction `yaml:"truth_direction" validate:"oneof=parton true trueSeen seen"`
	// TruthReference is the truth momentum the residuals are computed
	// against. Residuals against the seen momentum are always recorded.
	TruthReference matching.Direction `yaml:"truth_reference" validate:"oneof=true trueSeen"`

	IncludeIsolatedLeptons     bool `yaml:"include_isolated_leptons"`
	IncludeFSRPhotonCorrection bool `yaml:"include_fsr_photon_correction"`
	IncludeTrackSpecies        bool `yaml:"include_track_species"`

	MinKaonTrackEnergy   float64 `yaml:"min_kaon_track_energy" validate:"gte=0"`
	MinProtonTrackEnergy float64 `yaml:"min_proton_track_energy" validate:"gte=0"`
	BField               float64 `yaml:"b_field" validate:"gt=0"`

	FillTree            bool   `yaml:"fill_tree"`
	PhiSignConvention   string `yaml:"phi_sign_convention" validate:"oneof=positive negative"`
	NormalizeHistograms bool   `yaml:"normalize_histograms"`
	// FitWorkers bounds the number of concurrent fits in Finish. Zero
	// means one per CPU.
	FitWorkers int `yaml:"fit_workers" validate:"gte=0"`

	Fit     FitConfig     `yaml:"fit"`
	Binning BinningConfig `yaml:"binning"`
}

func DefaultConfig() Config {
	return Config{
		MatchingMethod:        matching.DirectionNearest,
		RequireEqualJetCounts: true,
		TruthDirection:        matching.TrueSeenDirection,
		TruthReference:        matching.TrueSeenDirection,
		BField:                tracks.DefaultBField,
		FillTree:              true,
		PhiSignConvention:     residual.DefaultPhiConvention.String(),
		Fit: FitConfig{
			Window:     [2]float64{-2, 2},
			Range:      2.0,
			MinRange:   0.5,
			Step:       0.1,
			MaxChi2NDF: 2.0,
		},
		Binning: BinningConfig{
			Momentum:   Binning{Bins: 200, Min: -20, Max: 20},
			Angle:      Binning{Bins: 200, Min: -0.2, Max: 0.2},
			Normalized: Binning{Bins: 200, Min: -10, Max: 10},
		},
	}
}

// Validate checks field ranges and the constraints between fields.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if !(c.Fit.Window[1] > c.Fit.Window[0]) {
		return fmt.Errorf("%w: fit window %v is empty", ErrInvalidConfig, c.Fit.Window)
	}
	return nil
}

// PhiConvention returns the parsed phi sign convention.
func (c Config) PhiConvention() residual.PhiSignConvention {
	conv, _ := residual.ParsePhiSignConvention(c.PhiSignConvention)
	return conv
}

func (c Config) Thresholds() tracks.Thresholds {
	return tracks.Thresholds{
		MinKaonEnergy:   c.MinKaonTrackEnergy,
		MinProtonEnergy: c.MinProtonTrackEnergy,
	}
}

// DecodeYAML decodes r into out, rejecting keys out does not know. An
// empty document leaves out untouched.
func DecodeYAML(r io.Reader, out any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ReadYAML decodes the file at path into out.
func ReadYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := DecodeYAML(bytes.NewReader(data), out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// LoadConfig reads a YAML configuration on top of DefaultConfig and
// validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := ReadYAML(path, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
