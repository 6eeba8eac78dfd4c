// Package skim composes the per-event selection stages into one pipeline.
package skim

import (
	"errors"
	"fmt"

	"github.com/okian/tauskim/internal/domain/model"
	"github.com/okian/tauskim/internal/domain/pairing"
	"github.com/okian/tauskim/internal/domain/selection"
	"github.com/okian/tauskim/internal/domain/variables"
)

// ErrInvalidSelection is returned for a selection that cannot be applied.
var ErrInvalidSelection = errors.New("invalid selection")

// Stage names one filter of the pipeline, in evaluation order.
type Stage string

const (
	StageTrigger    Stage = "trigger"
	StageObjects    Stage = "objects"
	StageSanity     Stage = "sanity"
	StageCandidates Stage = "good_candidates"
	StagePair       Stage = "valid_pair"
)

// Stages lists every filter in evaluation order.
var Stages = []Stage{StageTrigger, StageObjects, StageSanity, StageCandidates, StagePair}

// Preselection holds the cheap event-level requirements applied before
// any candidate selection.
type Preselection struct {
	// Trigger names the path that must have fired. Empty disables the check.
	Trigger string `koanf:"trigger" yaml:"trigger"`
	// MaxLeadingPt rejects events whose first muon or tau has pt >= the value.
	// Zero disables the check.
	MaxLeadingPt float32 `koanf:"max_leading_pt" yaml:"max_leading_pt"`
}

// Selection configures every stage of the pipeline.
type Selection struct {
	Preselection Preselection
	Muons        selection.Cuts
	Taus         selection.Cuts
	Jets         selection.Cuts
	TauIsolation pairing.Isolation
	MinDeltaR    float64
}

// Validate rejects thresholds that cannot select anything meaningful.
func (s Selection) Validate() error {
	if !(s.MinDeltaR > 0) {
		return fmt.Errorf("%w: min delta R must be positive, got %v", ErrInvalidSelection, s.MinDeltaR)
	}
	for kind, c := range map[string]selection.Cuts{"muon": s.Muons, "tau": s.Taus, "jet": s.Jets} {
		if !(c.MaxAbsEta > 0) {
			return fmt.Errorf("%w: %s max |eta| must be positive", ErrInvalidSelection, kind)
		}
	}
	if _, err := pairing.ParseIsolation(string(s.TauIsolation)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSelection, err)
	}
	return nil
}

// CutFlow counts events entering the pipeline and passing each stage.
type CutFlow struct {
	Read   int
	Passed map[Stage]int
}

// NewCutFlow returns an empty cut flow.
func NewCutFlow() CutFlow {
	return CutFlow{Passed: make(map[Stage]int, len(Stages))}
}

// Add accumulates o into c.
func (c *CutFlow) Add(o CutFlow) {
	if c.Passed == nil {
		c.Passed = make(map[Stage]int, len(Stages))
	}
	c.Read += o.Read
	for s, n := range o.Passed {
		c.Passed[s] += n
	}
}

// Pipeline applies the selection to events and derives output rows. It holds
// no mutable state and is safe for concurrent use.
type Pipeline struct {
	sel      Selection
	selector pairing.Selector
	calc     variables.Calculator
	weight   float32
}

// NewPipeline builds a pipeline stamping every output row with weight.
func NewPipeline(sel Selection, weight float64) (*Pipeline, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	iso, _ := pairing.ParseIsolation(string(sel.TauIsolation))
	sel.TauIsolation = iso
	return &Pipeline{
		sel:      sel,
		selector: pairing.Selector{MinDeltaR: sel.MinDeltaR},
		calc:     variables.Calculator{Jets: sel.Jets},
		weight:   float32(weight),
	}, nil
}

// Selection returns the configured selection.
func (p *Pipeline) Selection() Selection {
	return p.sel
}

// Process runs one event through every stage. It returns the row and true
// when the event survives, or the stage that dropped it.
func (p *Pipeline) Process(ev *model.Event) (variables.Record, Stage, bool) {
	pre := p.sel.Preselection
	if pre.Trigger != "" && !ev.Triggers[pre.Trigger] {
		return variables.Record{}, StageTrigger, false
	}
	if ev.Muons.Len() == 0 || ev.Taus.Len() == 0 {
		return variables.Record{}, StageObjects, false
	}
	if pre.MaxLeadingPt > 0 && !(ev.Muons.Pt[0] < pre.MaxLeadingPt && ev.Taus.Pt[0] < pre.MaxLeadingPt) {
		return variables.Record{}, StageSanity, false
	}

	muMask := p.sel.Muons.Mask(&ev.Muons)
	tauMask := p.sel.Taus.Mask(&ev.Taus)
	if !selection.HasGoodCandidates(tauMask, muMask) {
		return variables.Record{}, StageCandidates, false
	}

	iso := p.sel.TauIsolation.Values(&ev.Taus)
	pair := p.selector.Select(
		muMask, pairing.CandidatesOf(&ev.Muons, ev.Muons.Iso),
		tauMask, pairing.CandidatesOf(&ev.Taus, iso),
	)
	if !pair.Valid() {
		return variables.Record{}, StagePair, false
	}

	r := p.calc.Compute(ev, pair, iso[pair.Second])
	r.Weight = p.weight
	return r, "", true
}

// Result is the outcome of one batch.
type Result struct {
	Sample  string
	Seq     int
	Records []variables.Record
	CutFlow CutFlow
}

// Check reports a column the selection or the output row reads that ev
// does not carry.
func (p *Pipeline) Check(ev *model.Event) error {
	checks := []struct {
		kind    string
		cuts    selection.Cuts
		col     *model.Collection
		columns []string
	}{
		{"Muon", p.sel.Muons, &ev.Muons, []string{model.ColumnMass, model.ColumnCharge, model.ColumnIso}},
		{"Tau", p.sel.Taus, &ev.Taus, append([]string{model.ColumnMass, model.ColumnCharge, model.ColumnDecayMode}, p.sel.TauIsolation.Columns()...)},
		{"Jet", p.sel.Jets, &ev.Jets, []string{model.ColumnMass, model.ColumnBTag}},
	}
	for _, c := range checks {
		if err := c.cuts.Check(c.kind, c.col); err != nil {
			return err
		}
		if err := c.col.Require(c.kind, c.columns...); err != nil {
			return err
		}
	}
	return nil
}

// ProcessBatch validates and processes every event of the batch in order.
// A malformed event or one missing a selection column aborts the batch.
func (p *Pipeline) ProcessBatch(b model.Batch) (Result, error) {
	res := Result{Sample: b.Sample, Seq: b.Seq, CutFlow: NewCutFlow()}
	for i := range b.Events {
		ev := &b.Events[i]
		if err := ev.Validate(); err != nil {
			return Result{}, fmt.Errorf("entry %d: %w", ev.Entry, err)
		}
		if err := p.Check(ev); err != nil {
			return Result{}, fmt.Errorf("entry %d: %w", ev.Entry, err)
		}
		res.CutFlow.Read++
		r, dropped, ok := p.Process(ev)
		for _, s := range Stages {
			if !ok && s == dropped {
				break
			}
			res.CutFlow.Passed[s]++
		}
		if ok {
			res.Records = append(res.Records, r)
		}
	}
	return res, nil
}
