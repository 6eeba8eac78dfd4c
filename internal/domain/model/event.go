// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for malformed collections.
var (
	// ErrColumnLength reports attribute columns of one collection with differing lengths.
	ErrColumnLength = errors.New("column length mismatch")
	// ErrMissingColumn reports an optional column a consumer needs but that was not loaded.
	ErrMissingColumn = errors.New("missing column")
)

// Optional column names accepted by Require.
const (
	ColumnMass       = "mass"
	ColumnCharge     = "charge"
	ColumnDecayMode  = "decayMode"
	ColumnIso        = "iso"
	ColumnChargedIso = "chargedIso"
	ColumnNeutralIso = "neutralIso"
	ColumnBTag       = "btag"
)

// Collection holds the per-candidate columns of one particle kind. Index i
// refers to the same candidate in every non-empty column. Optional columns
// may be nil when the active profile does not load them.
type Collection struct {
	Pt   []float32
	Eta  []float32
	Phi  []float32
	Mass []float32

	Charge    []int32
	DecayMode []int32

	Iso        []float32 // primary isolation column
	ChargedIso []float32
	NeutralIso []float32
	BTag       []float32

	// Flags holds boolean identification columns keyed by suffix
	// (e.g. "tightId" for Muon_tightId).
	Flags map[string][]bool
}

// Len returns the number of candidates.
func (c *Collection) Len() int {
	return len(c.Pt)
}

// Flag returns the named flag column, or nil when it was not loaded.
func (c *Collection) Flag(name string) []bool {
	if c.Flags == nil {
		return nil
	}
	return c.Flags[name]
}

// Validate checks that every loaded column matches len(Pt).
func (c *Collection) Validate(kind string) error {
	n := c.Len()
	check := func(name string, got int, loaded bool) error {
		if loaded && got != n {
			return fmt.Errorf("%w: %s_%s has %d entries, %s_pt has %d", ErrColumnLength, kind, name, got, kind, n)
		}
		return nil
	}

	cols := []struct {
		name   string
		length int
		loaded bool
	}{
		{"eta", len(c.Eta), true},
		{"phi", len(c.Phi), true},
		{"mass", len(c.Mass), c.Mass != nil},
		{"charge", len(c.Charge), c.Charge != nil},
		{"decayMode", len(c.DecayMode), c.DecayMode != nil},
		{"iso", len(c.Iso), c.Iso != nil},
		{"chargedIso", len(c.ChargedIso), c.ChargedIso != nil},
		{"neutralIso", len(c.NeutralIso), c.NeutralIso != nil},
		{"btag", len(c.BTag), c.BTag != nil},
	}
	for _, col := range cols {
		if err := check(col.name, col.length, col.loaded); err != nil {
			return err
		}
	}
	for name, flag := range c.Flags {
		if err := check(name, len(flag), true); err != nil {
			return err
		}
	}
	return nil
}

// Require reports the first named optional column that is not loaded. An
// empty collection satisfies every requirement.
func (c *Collection) Require(kind string, names ...string) error {
	if c.Len() == 0 {
		return nil
	}
	for _, name := range names {
		var loaded bool
		switch name {
		case ColumnMass:
			loaded = c.Mass != nil
		case ColumnCharge:
			loaded = c.Charge != nil
		case ColumnDecayMode:
			loaded = c.DecayMode != nil
		case ColumnIso:
			loaded = c.Iso != nil
		case ColumnChargedIso:
			loaded = c.ChargedIso != nil
		case ColumnNeutralIso:
			loaded = c.NeutralIso != nil
		case ColumnBTag:
			loaded = c.BTag != nil
		default:
			return fmt.Errorf("%w: %s_%s is not a known column", ErrMissingColumn, kind, name)
		}
		if !loaded {
			return fmt.Errorf("%w: %s_%s", ErrMissingColumn, kind, name)
		}
	}
	return nil
}

// Event is one collision event as read from the input tree.
type Event struct {
	Entry int64 // entry number in the input tree

	Run uint32
	NPV int32

	METPt  float32
	METPhi float32

	// Triggers holds the decision of every loaded trigger path.
	Triggers map[string]bool

	Muons Collection
	Taus  Collection
	Jets  Collection
}

// Validate checks every collection for aligned columns.
func (e *Event) Validate() error {
	if err := e.Muons.Validate("Muon"); err != nil {
		return err
	}
	if err := e.Taus.Validate("Tau"); err != nil {
		return err
	}
	return e.Jets.Validate("Jet")
}

// Batch is a contiguous run of events read from one sample. Seq orders
// batches within the sample so results can be written back in input order.
type Batch struct {
	Sample string
	Seq    int
	Events []Event
}
