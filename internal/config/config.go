// Package config defines the skim configuration and its loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Selection thresholds live in named profiles; Profile selects the active one.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/okian/tauskim/internal/domain/histograms"
	"github.com/okian/tauskim/internal/domain/pairing"
	"github.com/okian/tauskim/internal/domain/selection"
	"github.com/okian/tauskim/internal/domain/skim"
	"github.com/okian/tauskim/internal/domain/weights"
)

// Profile names shipped with the defaults.
const (
	ProfileMuTau       = "mutau"
	ProfileMuTauSumIso = "mutau_sumiso"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// MetricsAddr enables the /healthz and /stats endpoints during a run, e.g. ":9080".
	MetricsAddr string `koanf:"metrics_addr"`

	// InputDir holds <sample>.root files; OutputDir receives <sample>Skim.root.
	InputDir  string `koanf:"input_dir"`
	OutputDir string `koanf:"output_dir"`
	// TreeName is the event tree in both input and output files.
	TreeName string `koanf:"tree_name"`

	// WorkerCount sets the number of batch workers per sample.
	WorkerCount int `koanf:"worker_count"`
	// QueueSize bounds the number of in-flight batches.
	QueueSize int `koanf:"queue_size"`
	// BatchSize is the number of events read per batch.
	BatchSize int `koanf:"batch_size"`
	// SampleParallelism caps how many samples are skimmed at once.
	SampleParallelism int `koanf:"sample_parallelism"`

	// ManifestPath is the SQLite run manifest. Empty disables it.
	ManifestPath string `koanf:"manifest_path"`

	// Profile names the active entry of Profiles.
	Profile  string             `koanf:"profile"`
	Profiles map[string]Profile `koanf:"profiles"`

	// Luminosity in pb^-1 scales MC weights.
	Luminosity float64          `koanf:"luminosity"`
	Samples    []weights.Sample `koanf:"samples"`

	Histograms Histograms `koanf:"histograms"`
}

// Profile is one named selection.
type Profile struct {
	Trigger      string         `koanf:"trigger"`
	MaxLeadingPt float32        `koanf:"max_leading_pt"`
	Muon         selection.Cuts `koanf:"muon"`
	Tau          selection.Cuts `koanf:"tau"`
	Jet          selection.Cuts `koanf:"jet"`
	// TauIsolation is column, sum or relative_sum.
	TauIsolation string  `koanf:"tau_isolation"`
	MinDeltaR    float64 `koanf:"min_delta_r"`
}

// Selection converts the profile into pipeline configuration.
func (p Profile) Selection() skim.Selection {
	return skim.Selection{
		Preselection: skim.Preselection{Trigger: p.Trigger, MaxLeadingPt: p.MaxLeadingPt},
		Muons:        p.Muon,
		Taus:         p.Tau,
		Jets:         p.Jet,
		TauIsolation: pairing.Isolation(p.TauIsolation),
		MinDeltaR:    p.MinDeltaR,
	}
}

// Histograms configures the histogram and plot stage.
type Histograms struct {
	// Output is the ROOT file receiving the booked histograms.
	Output string `koanf:"output"`
	// PlotDir receives one PNG per variable. Empty disables plotting.
	PlotDir   string                        `koanf:"plot_dir"`
	Baseline  histograms.Baseline           `koanf:"baseline"`
	Binning   map[string]histograms.Binning `koanf:"binning"`
	Processes []histograms.Process          `koanf:"processes"`
}

// New creates a Config with defaults reproducing the Run2012 mu-tau skim.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		InputDir:          "data",
		OutputDir:         "skims",
		TreeName:          "Events",
		WorkerCount:       runtime.NumCPU(),
		QueueSize:         64,
		BatchSize:         10_000,
		SampleParallelism: 2,
		ManifestPath:      "tauskim.db",
		Profile:           ProfileMuTau,
		Profiles: map[string]Profile{
			ProfileMuTau:       muTauProfile("column"),
			ProfileMuTauSumIso: muTauProfile("sum"),
		},
		Luminosity: weights.DefaultLuminosity,
		Samples:    weights.DefaultSamples(),
		Histograms: Histograms{
			Output:    "histograms.root",
			Baseline:  histograms.DefaultBaseline(),
			Binning:   histograms.DefaultBinning(),
			Processes: histograms.DefaultProcesses(),
		},
	}
}

func muTauProfile(iso string) Profile {
	return Profile{
		Trigger:      "HLT_IsoMu17_eta2p1_LooseIsoPFTau20",
		MaxLeadingPt: 1000,
		Muon:         selection.Cuts{MinPt: 25, MaxAbsEta: 2.1, Flags: []string{"tightId"}},
		Tau: selection.Cuts{
			MinPt:         25,
			MaxAbsEta:     2.4,
			RequireCharge: true,
			Flags:         []string{"idDecayMode", "idIsoTight", "idAntiEleTight", "idAntiMuTight"},
		},
		Jet:          selection.Cuts{MinPt: 20, MaxAbsEta: 2.4, Flags: []string{"puId"}},
		TauIsolation: iso,
		MinDeltaR:    pairing.DefaultMinDeltaR,
	}
}

// ActiveProfile returns the profile named by Profile.
func (c *Config) ActiveProfile() (Profile, error) {
	p, ok := c.Profiles[c.Profile]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %w %q (have %v)", ErrInvalidConfig, ErrUnknownProfile, c.Profile, c.ProfileNames())
	}
	return p, nil
}

// ProfileNames returns the configured profile names in lexical order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for n := range c.Profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// WeightTable builds the immutable sample weight table.
func (c *Config) WeightTable() (*weights.Table, error) {
	t, err := weights.New(c.Luminosity, c.Samples)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return t, nil
}

// Validate checks the fields every command depends on.
func (c *Config) Validate() error {
	switch {
	case c.InputDir == "":
		return fmt.Errorf("%w: input_dir must not be empty", ErrInvalidConfig)
	case c.OutputDir == "":
		return fmt.Errorf("%w: output_dir must not be empty", ErrInvalidConfig)
	case c.TreeName == "":
		return fmt.Errorf("%w: tree_name must not be empty", ErrInvalidConfig)
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.SampleParallelism <= 0:
		return fmt.Errorf("%w: sample_parallelism must be positive, got %d", ErrInvalidConfig, c.SampleParallelism)
	}

	p, err := c.ActiveProfile()
	if err != nil {
		return err
	}
	if err := p.Selection().Validate(); err != nil {
		return fmt.Errorf("%w: profile %s: %w", ErrInvalidConfig, c.Profile, err)
	}
	if _, err := c.WeightTable(); err != nil {
		return err
	}
	return nil
}
