package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/pkg/profile"
	"go-hep.org/x/hep/lcio"
	"go.uber.org/zap"

	"github.com/decibelcooper/jetres"
	"github.com/decibelcooper/jetres/analysis"
	"github.com/decibelcooper/jetres/event"
	"github.com/decibelcooper/jetres/gausfit"
	"github.com/decibelcooper/jetres/lcioevt"
	"github.com/decibelcooper/jetres/rootout"
)

var (
	configFile = flag.String("config", "", "YAML configuration file")
	method     = flag.Int("method", 0, "jet matching method (1: leading particle, 2: direction nearest), overrides the configuration")
	output     = flag.String("o", "jetresiduals.root", "output ROOT file")
	plotDir    = flag.String("plots", "", "directory for residual plots (none if empty)")
	plotFormat = flag.String("format", "png", "plot file format")
	resMap     = flag.String("resmap", "", "PNG file for the jet energy resolution map (none if empty)")
	resMapEMax = flag.Float64("resmaxe", 150, "upper truth energy of the resolution map")
	resMapZMax = flag.Float64("resmaxz", 0.3, "top of the resolution map colour scale")
	verbose    = flag.Bool("v", false, "debug logging")
	cpuProfile = flag.String("cpuprofile", "", "write a CPU profile into this directory")
	window     jetres.FloatList
)

func init() {
	flag.Var(&window, "window", "initial fit window, given twice or as lo,hi")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: `+os.Args[0]+` [options] <lcio-input-files>...

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() < 1 {
		printUsage()
		log.Fatal("Invalid arguments")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, options{
		config:     *configFile,
		method:     *method,
		window:     &window,
		output:     *output,
		plotDir:    *plotDir,
		plotFormat: *plotFormat,
		resMap:     *resMap,
		resMapEMax: *resMapEMax,
		resMapZMax: *resMapZMax,
		verbose:    *verbose,
		cpuProfile: *cpuProfile,
		inputs:     flag.Args(),
	})
	stop()
	if err != nil {
		log.Fatal(err)
	}
}

type options struct {
	config     string
	method     int
	window     *jetres.FloatList
	output     string
	plotDir    string
	plotFormat string
	resMap     string
	resMapEMax float64
	resMapZMax float64
	verbose    bool
	cpuProfile string
	inputs     []string
}

// run processes every input and writes the outputs. The ROOT file is
// closed on every return path, so a failing input leaves a readable file
// with the events processed so far.
func run(ctx context.Context, o options) (err error) {
	fc, err := loadConfig(o.config, o.method, o.window)
	if err != nil {
		return err
	}

	logger, err := newLogger(o.verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if o.cpuProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(o.cpuProfile), profile.Quiet).Stop()
	}

	ana, err := analysis.NewRun(fc.Config, analysis.WithLogger(logger))
	if err != nil {
		return err
	}
	ana.Start()

	out, err := rootout.Create(o.output, fc.FillTree)
	if err != nil {
		return err
	}
	closed := false
	defer func() {
		if closed {
			return
		}
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var grid *jetres.ResGrid
	if o.resMap != "" {
		grid = newEnergyGrid(o.resMapEMax)
	}

	dec := lcioevt.NewDecoder(fc.Collections,
		lcioevt.WithLogger(logger),
		lcioevt.WithLeptons(fc.IncludeIsolatedLeptons),
		lcioevt.WithTracks(fc.IncludeTrackSpecies),
	)
	for _, filename := range o.inputs {
		if err := processFile(filename, dec, ana, out, grid); err != nil {
			logger.Error("reading input", zap.String("file", filename), zap.Error(err))
			return fmt.Errorf("%s: %w", filename, err)
		}
	}

	fits, err := ana.Finish(ctx)
	if err != nil {
		return err
	}

	if err := out.PutDistributions(ana.Distributions(), fc.NormalizeHistograms); err != nil {
		return err
	}
	closed = true
	if err := out.Close(); err != nil {
		return err
	}

	if o.plotDir != "" {
		if err := os.MkdirAll(o.plotDir, 0o755); err != nil {
			return err
		}
		opts := jetres.PlotOptions{UnitArea: fc.NormalizeHistograms, Ticks: 5}
		if err := jetres.SaveDistributions(o.plotDir, o.plotFormat, ana.Distributions(), fits, opts); err != nil {
			return err
		}
	}
	if grid != nil {
		mapOpts := jetres.MapOptions{
			Title:  "jet energy resolution",
			XLabel: "|cos θ|",
			YLabel: "E (GeV)",
			Max:    o.resMapZMax,
		}
		if err := jetres.SaveResGrid(grid, o.resMap, mapOpts); err != nil {
			return err
		}
	}

	printCalibration(os.Stdout, ana, fits)
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func processFile(filename string, dec *lcioevt.Decoder, ana *analysis.Run, out *rootout.Writer, grid *jetres.ResGrid) error {
	r, err := lcio.Open(filename)
	if err != nil {
		return err
	}
	defer r.Close()

	ref := analysis.Prefix(analysis.JetObject, string(ana.Config().TruthReference))
	for r.Next() {
		evt := r.Event()
		ev, err := dec.Decode(&evt)
		switch {
		case errors.Is(err, event.ErrMissingCollection):
			ana.Skip(int(evt.RunNumber), int(evt.EventNumber), err)
			continue
		case err != nil:
			return err
		}

		res := ana.OnEvent(ev)
		if err := out.Fill(res); err != nil {
			return err
		}
		if grid != nil {
			fillEnergyGrid(grid, ref, res)
		}
	}
	if err := r.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func printCalibration(w io.Writer, ana *analysis.Run, fits map[string]gausfit.Result) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "channel\tentries\tundefined\tmean\tsigma\tchi2/ndf\tstatus")
	for _, d := range ana.Distributions() {
		fit, ok := fits[d.Name]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.4g\t%.4g\t%.3g\t%s\n",
			d.Name, d.Entries(), d.Undefined(), fit.Mean, fit.Sigma, fit.Chi2NDF, fit.Status)
	}
	tw.Flush()
}
