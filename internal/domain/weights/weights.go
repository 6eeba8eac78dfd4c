// Package weights resolves the per-sample normalization weight.
package weights

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownSample is returned when a sample has no table entry.
	ErrUnknownSample = errors.New("unknown sample")
	// ErrInvalidSample is returned when a table entry cannot produce a weight.
	ErrInvalidSample = errors.New("invalid sample")
)

// Kind distinguishes simulated samples from recorded data.
type Kind string

const (
	KindMC   Kind = "mc"
	KindData Kind = "data"
)

// DefaultLuminosity is the integrated luminosity of Run2012B+C in pb^-1.
const DefaultLuminosity = 11.467 * 1000.0

// Sample describes one dataset.
type Sample struct {
	Name string `koanf:"name" yaml:"name"`
	Kind Kind   `koanf:"kind" yaml:"kind"`
	// CrossSection in pb; only read for MC.
	CrossSection float64 `koanf:"cross_section" yaml:"cross_section"`
	// GeneratedEvents is the number of simulated events before any selection.
	GeneratedEvents int64 `koanf:"generated_events" yaml:"generated_events"`
}

// DefaultSamples returns the Run2012 mu-tau sample set.
func DefaultSamples() []Sample {
	return []Sample{
		{Name: "GluGluToHToTauTau", Kind: KindMC, CrossSection: 19.6, GeneratedEvents: 476963},
		{Name: "VBF_HToTauTau", Kind: KindMC, CrossSection: 1.55, GeneratedEvents: 491653},
		{Name: "DYJetsToLL", Kind: KindMC, CrossSection: 3503.7, GeneratedEvents: 30458871},
		{Name: "TTbar", Kind: KindMC, CrossSection: 225.2, GeneratedEvents: 6423106},
		{Name: "W1JetsToLNu", Kind: KindMC, CrossSection: 6381.2, GeneratedEvents: 29784800},
		{Name: "W2JetsToLNu", Kind: KindMC, CrossSection: 2039.8, GeneratedEvents: 30693853},
		{Name: "W3JetsToLNu", Kind: KindMC, CrossSection: 612.5, GeneratedEvents: 15241144},
		{Name: "Run2012B_SingleMu", Kind: KindData},
		{Name: "Run2012C_SingleMu", Kind: KindData},
	}
}

// Table is an immutable sample-to-weight mapping. It is safe for concurrent use.
type Table struct {
	lumi    float64
	weights map[string]float64
	samples map[string]Sample
}

// New validates the samples and computes every weight up front.
func New(lumi float64, samples []Sample) (*Table, error) {
	if !(lumi > 0) {
		return nil, fmt.Errorf("%w: luminosity must be positive, got %v", ErrInvalidSample, lumi)
	}
	t := &Table{
		lumi:    lumi,
		weights: make(map[string]float64, len(samples)),
		samples: make(map[string]Sample, len(samples)),
	}
	for _, s := range samples {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalidSample)
		}
		if _, dup := t.weights[s.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate sample %q", ErrInvalidSample, s.Name)
		}
		w, err := weightOf(s, lumi)
		if err != nil {
			return nil, err
		}
		t.weights[s.Name] = w
		t.samples[s.Name] = s
	}
	return t, nil
}

// Default returns the table for DefaultSamples at DefaultLuminosity.
func Default() *Table {
	t, err := New(DefaultLuminosity, DefaultSamples())
	if err != nil {
		panic(err)
	}
	return t
}

func weightOf(s Sample, lumi float64) (float64, error) {
	switch s.Kind {
	case KindData:
		return 1.0, nil
	case KindMC:
		if !(s.CrossSection > 0) {
			return 0, fmt.Errorf("%w: %s: cross section must be positive", ErrInvalidSample, s.Name)
		}
		if s.GeneratedEvents <= 0 {
			return 0, fmt.Errorf("%w: %s: generated events must be positive", ErrInvalidSample, s.Name)
		}
		return s.CrossSection / float64(s.GeneratedEvents) * lumi, nil
	}
	return 0, fmt.Errorf("%w: %s: unknown kind %q", ErrInvalidSample, s.Name, s.Kind)
}

// Weight returns the weight of the named sample.
func (t *Table) Weight(name string) (float64, error) {
	w, ok := t.weights[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSample, name)
	}
	return w, nil
}

// Sample returns the configured entry for name.
func (t *Table) Sample(name string) (Sample, bool) {
	s, ok := t.samples[name]
	return s, ok
}

// Luminosity returns the integrated luminosity the MC weights are scaled to.
func (t *Table) Luminosity() float64 {
	return t.lumi
}

// Names returns the sample names in lexical order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.weights))
	for n := range t.weights {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
