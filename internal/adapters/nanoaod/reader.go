// Package nanoaod reads NanoAOD-style event trees from ROOT files into
// model.Event batches.
package nanoaod

import (
	"context"
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/okian/tauskim/internal/domain/model"
	"github.com/okian/tauskim/internal/domain/pairing"
	"github.com/okian/tauskim/internal/domain/skim"
	"github.com/okian/tauskim/pkg/logger"
)

// Layout lists the optional branches a selection needs on top of the
// kinematic columns every event carries.
type Layout struct {
	Trigger      string
	MuonFlags    []string
	TauFlags     []string
	JetFlags     []string
	TauIsolation pairing.Isolation
}

// LayoutFor derives the branch layout a selection reads.
func LayoutFor(sel skim.Selection) Layout {
	return Layout{
		Trigger:      sel.Preselection.Trigger,
		MuonFlags:    sel.Muons.Flags,
		TauFlags:     sel.Taus.Flags,
		JetFlags:     sel.Jets.Flags,
		TauIsolation: sel.TauIsolation,
	}
}

// Branches returns every branch name the layout reads.
func (l Layout) Branches() []string {
	var b buffers
	b.bind(l)
	names := make([]string, len(b.vars))
	for i, v := range b.vars {
		names[i] = v.Name
	}
	return names
}

// Reader streams events of one tree.
type Reader struct {
	file   *groot.File
	tree   rtree.Tree
	layout Layout
	path   string

	logger logger.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the reader logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}

// Open opens path and checks every branch of the layout exists before any
// event is read.
func Open(path, treeName string, layout Layout, opts ...Option) (*Reader, error) {
	f, err := groot.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	obj, err := f.Get(treeName)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("get %s from %s: %w", treeName, path, err)
	}
	tree, ok := obj.(rtree.Tree)
	if !ok {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s in %s is %T", ErrNotATree, treeName, path, obj)
	}

	for _, name := range layout.Branches() {
		if tree.Branch(name) == nil {
			_ = f.Close()
			return nil, fmt.Errorf("%w: %s in %s", ErrMissingColumn, name, path)
		}
	}

	r := &Reader{
		file:   f,
		tree:   tree,
		layout: layout,
		path:   path,
		logger: logger.Get().Named("nanoaod"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Entries returns the number of events in the tree.
func (r *Reader) Entries() int64 {
	return r.tree.Entries()
}

// ReadBatches reads every event in order and hands them to fn in batches
// of at most size events, numbered from 0. An error from fn or the end of
// ctx stops reading.
func (r *Reader) ReadBatches(ctx context.Context, sample string, size int, fn func(model.Batch) error) error {
	if size <= 0 {
		size = 1
	}

	var b buffers
	b.bind(r.layout)

	rr, err := rtree.NewReader(r.tree, b.vars)
	if err != nil {
		return fmt.Errorf("reader for %s: %w", r.path, err)
	}
	defer rr.Close()

	seq := 0
	events := make([]model.Event, 0, size)
	flush := func() error {
		if len(events) == 0 {
			return nil
		}
		batch := model.Batch{Sample: sample, Seq: seq, Events: events}
		seq++
		events = make([]model.Event, 0, size)
		return fn(batch)
	}

	err = rr.Read(func(rctx rtree.RCtx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		events = append(events, b.event(rctx.Entry, r.layout))
		if len(events) == size {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}

	r.logger.Debug(ctx, "tree read",
		logger.String("path", r.path),
		logger.String("sample", sample),
		logger.Int("batches", seq),
	)
	return nil
}

// Close releases the file.
func (r *Reader) Close() error {
	return r.file.Close()
}

type collection struct {
	pt, eta, phi, mass []float32
	charge, decayMode  []int32
	iso, chIso, neIso  []float32
	btag               []float32
	flags              [][]bool
	flagNames          []string
}

// buffers holds the destinations the tree reader decodes into. They are
// overwritten on every entry.
type buffers struct {
	run     uint32
	npv     int32
	metPt   float32
	metPhi  float32
	trigger bool

	muons, taus, jets collection

	vars []rtree.ReadVar
}

func (b *buffers) add(name string, ptr any) {
	b.vars = append(b.vars, rtree.ReadVar{Name: name, Value: ptr})
}

func (b *buffers) bind(l Layout) {
	b.add("run", &b.run)
	b.add("PV_npvs", &b.npv)
	b.add("MET_pt", &b.metPt)
	b.add("MET_phi", &b.metPhi)
	if l.Trigger != "" {
		b.add(l.Trigger, &b.trigger)
	}

	b.bindKinematics("Muon", &b.muons)
	b.add("Muon_charge", &b.muons.charge)
	b.add("Muon_pfRelIso03_all", &b.muons.iso)
	b.bindFlags("Muon", &b.muons, l.MuonFlags)

	b.bindKinematics("Tau", &b.taus)
	b.add("Tau_charge", &b.taus.charge)
	b.add("Tau_decayMode", &b.taus.decayMode)
	switch l.TauIsolation {
	case pairing.IsolationSum, pairing.IsolationRelativeSum:
		b.add("Tau_chargedIso", &b.taus.chIso)
		b.add("Tau_neutralIso", &b.taus.neIso)
	default:
		b.add("Tau_relIso_all", &b.taus.iso)
	}
	b.bindFlags("Tau", &b.taus, l.TauFlags)

	b.bindKinematics("Jet", &b.jets)
	b.add("Jet_btag", &b.jets.btag)
	b.bindFlags("Jet", &b.jets, l.JetFlags)
}

func (b *buffers) bindKinematics(kind string, c *collection) {
	b.add(kind+"_pt", &c.pt)
	b.add(kind+"_eta", &c.eta)
	b.add(kind+"_phi", &c.phi)
	b.add(kind+"_mass", &c.mass)
}

func (b *buffers) bindFlags(kind string, c *collection, names []string) {
	c.flagNames = names
	c.flags = make([][]bool, len(names))
	for i, n := range names {
		b.add(kind+"_"+n, &c.flags[i])
	}
}

// event copies the current entry out of the reused buffers.
func (b *buffers) event(entry int64, l Layout) model.Event {
	ev := model.Event{
		Entry:  entry,
		Run:    b.run,
		NPV:    b.npv,
		METPt:  b.metPt,
		METPhi: b.metPhi,
		Muons:  b.muons.copy(),
		Taus:   b.taus.copy(),
		Jets:   b.jets.copy(),
	}
	if l.Trigger != "" {
		ev.Triggers = map[string]bool{l.Trigger: b.trigger}
	}
	return ev
}

func (c *collection) copy() model.Collection {
	out := model.Collection{
		Pt:         clone(c.pt),
		Eta:        clone(c.eta),
		Phi:        clone(c.phi),
		Mass:       clone(c.mass),
		Charge:     clone(c.charge),
		DecayMode:  clone(c.decayMode),
		Iso:        clone(c.iso),
		ChargedIso: clone(c.chIso),
		NeutralIso: clone(c.neIso),
		BTag:       clone(c.btag),
	}
	if len(c.flagNames) > 0 {
		out.Flags = make(map[string][]bool, len(c.flagNames))
		for i, n := range c.flagNames {
			out.Flags[n] = clone(c.flags[i])
		}
	}
	return out
}

// clone returns a copy of s. An unbound (nil) column stays nil so Validate
// skips it; a bound column with no entries becomes empty but non-nil.
func clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}
