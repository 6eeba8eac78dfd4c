// Package histograms books weighted distributions of skimmed rows per
// process, split into an opposite-sign signal region and a same-sign
// control region, and derives the data-driven QCD template.
package histograms

import (
	"errors"
	"fmt"
	"sort"

	"go-hep.org/x/hep/hbook"

	"github.com/okian/tauskim/internal/domain/variables"
)

var (
	// ErrUnknownVariable is returned when a binning names a column the skim does not write.
	ErrUnknownVariable = errors.New("unknown variable")
	// ErrInvalidBinning is returned for an empty or inverted axis.
	ErrInvalidBinning = errors.New("invalid binning")
)

// QCDLabel names the estimated QCD template.
const QCDLabel = "QCD"

// Region is the charge region of a filled row.
type Region int

const (
	// SignalRegion holds opposite-sign pairs.
	SignalRegion Region = iota
	// ControlRegion holds same-sign pairs.
	ControlRegion
)

// Suffix is appended to histogram names of the region.
func (r Region) Suffix() string {
	if r == ControlRegion {
		return "_cr"
	}
	return ""
}

// Baseline is the selection applied before the charge split.
type Baseline struct {
	MaxMT1  float64 `koanf:"max_mt_1" yaml:"max_mt_1"`
	MaxIso1 float64 `koanf:"max_iso_1" yaml:"max_iso_1"`
}

// DefaultBaseline suppresses W+jets and requires an isolated muon.
func DefaultBaseline() Baseline {
	return Baseline{MaxMT1: 20, MaxIso1: 0.1}
}

// Pass reports whether r passes the baseline.
func (b Baseline) Pass(r *variables.Record) bool {
	return float64(r.MT1) < b.MaxMT1 && float64(r.Iso1) < b.MaxIso1
}

// RegionOf classifies a row by the product of the pair charges. Rows with a
// zero charge product belong to neither region.
func RegionOf(r *variables.Record) (Region, bool) {
	switch q := r.Q1 * r.Q2; {
	case q < 0:
		return SignalRegion, true
	case q > 0:
		return ControlRegion, true
	}
	return 0, false
}

// Booker creates histogram sets sharing one binning and baseline.
type Booker struct {
	binning  map[string]Binning
	vars     []string
	baseline Baseline
}

// NewBooker validates the binning against the output schema.
func NewBooker(binning map[string]Binning, baseline Baseline) (*Booker, error) {
	vars := make([]string, 0, len(binning))
	for name, b := range binning {
		if !variables.HasColumn(name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
		}
		if b.Bins <= 0 || !(b.Max > b.Min) {
			return nil, fmt.Errorf("%w: %s: %d bins over [%v, %v)", ErrInvalidBinning, name, b.Bins, b.Min, b.Max)
		}
		vars = append(vars, name)
	}
	sort.Strings(vars)
	return &Booker{binning: binning, vars: vars, baseline: baseline}, nil
}

// Variables returns the booked variables in lexical order.
func (b *Booker) Variables() []string {
	return b.vars
}

// NewSet books empty histograms for label.
func (b *Booker) NewSet(label string) *Set {
	s := &Set{Label: label, booker: b, hists: make(map[key]*hbook.H1D, 2*len(b.vars))}
	for _, v := range b.vars {
		for _, r := range []Region{SignalRegion, ControlRegion} {
			bin := b.binning[v]
			h := hbook.NewH1D(bin.Bins, bin.Min, bin.Max)
			h.Ann["name"] = Name(label, v, r)
			h.Ann["title"] = v
			s.hists[key{v, r}] = h
		}
	}
	return s
}

// Name is the stored name of a histogram.
func Name(label, variable string, r Region) string {
	return label + "_" + variable + r.Suffix()
}

type key struct {
	variable string
	region   Region
}

// Set is the histograms of one process label. It is not safe for concurrent use.
type Set struct {
	Label  string
	booker *Booker
	hists  map[key]*hbook.H1D
	filled int
}

// Fill adds a row weighted by its weight column. It reports whether the row
// passed the baseline and landed in a region.
func (s *Set) Fill(r *variables.Record) bool {
	if !s.booker.baseline.Pass(r) {
		return false
	}
	region, ok := RegionOf(r)
	if !ok {
		return false
	}
	w := float64(r.Weight)
	for _, v := range s.booker.vars {
		x, _ := r.Value(v)
		s.hists[key{v, region}].Fill(x, w)
	}
	s.filled++
	return true
}

// Filled returns the number of rows accepted by Fill.
func (s *Set) Filled() int {
	return s.filled
}

// Hist returns the histogram of variable in region, or nil.
func (s *Set) Hist(variable string, r Region) *hbook.H1D {
	return s.hists[key{variable, r}]
}

// All returns every histogram ordered by name.
func (s *Set) All() []*hbook.H1D {
	out := make([]*hbook.H1D, 0, len(s.hists))
	for _, v := range s.booker.vars {
		out = append(out, s.hists[key{v, SignalRegion}], s.hists[key{v, ControlRegion}])
	}
	return out
}

// Add accumulates alpha times o into s bin by bin, outflows included.
// Bin errors add in quadrature. Both sets must come from the same booker.
func (s *Set) Add(o *Set, alpha float64) {
	for k, dst := range s.hists {
		s.hists[k] = hbook.AddScaledH1D(dst, alpha, o.hists[k])
	}
	s.filled += o.filled
}

// Merge sums sets into a new set named label.
func (b *Booker) Merge(label string, sets ...*Set) *Set {
	out := b.NewSet(label)
	for _, s := range sets {
		out.Add(s, 1)
	}
	return out
}

// EstimateQCD returns the QCD template: summed data minus summed MC in the
// same-sign control region, with negative bins set to zero. The result is
// stored in both regions so it can be used as the signal-region shape.
func (b *Booker) EstimateQCD(data, mc []*Set) *Set {
	cr := b.NewSet(QCDLabel)
	for _, d := range data {
		cr.Add(d, 1)
	}
	for _, m := range mc {
		cr.Add(m, -1)
	}

	qcd := b.NewSet(QCDLabel)
	for _, v := range b.vars {
		src := cr.hists[key{v, ControlRegion}]
		clip(src)
		for _, r := range []Region{SignalRegion, ControlRegion} {
			h := src.Clone()
			h.Ann["name"] = Name(QCDLabel, v, r)
			qcd.hists[key{v, r}] = h
		}
	}
	return qcd
}

// clip empties every bin and outflow with a negative sum of weights and
// recomputes the totals from what is left.
func clip(h *hbook.H1D) {
	bng := &h.Binning
	var total hbook.Dist1D
	keep := func(d *hbook.Dist1D) {
		if d.SumW() < 0 {
			*d = hbook.Dist1D{}
			return
		}
		total.Dist.N += d.Dist.N
		total.Dist.SumW += d.Dist.SumW
		total.Dist.SumW2 += d.Dist.SumW2
		total.Stats.SumWX += d.Stats.SumWX
		total.Stats.SumWX2 += d.Stats.SumWX2
	}
	for i := range bng.Bins {
		keep(&bng.Bins[i].Dist)
	}
	keep(&bng.Outflows[0])
	keep(&bng.Outflows[1])
	bng.Dist = total
}

// Content returns the summed weights of every in-range bin.
func Content(h *hbook.H1D) []float64 {
	out := make([]float64, len(h.Binning.Bins))
	for i := range h.Binning.Bins {
		out[i] = h.Binning.Bins[i].SumW()
	}
	return out
}
