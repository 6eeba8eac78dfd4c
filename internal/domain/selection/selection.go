// Package selection builds per-candidate quality masks and the event-level
// existence filter.
package selection

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/tauskim/internal/domain/model"
)

// ErrMissingFlag reports a configured identification flag the collection does not carry.
var ErrMissingFlag = errors.New("missing identification flag")

// Mask marks candidates passing quality selection; it is aligned to one collection.
type Mask []bool

// Cuts is a conjunction of thresholds applied to one candidate kind.
type Cuts struct {
	// MinPt requires pt > MinPt.
	MinPt float32 `koanf:"min_pt" yaml:"min_pt"`
	// MaxAbsEta requires |eta| < MaxAbsEta.
	MaxAbsEta float32 `koanf:"max_abs_eta" yaml:"max_abs_eta"`
	// RequireCharge requires charge != 0.
	RequireCharge bool `koanf:"require_charge" yaml:"require_charge"`
	// Flags lists boolean identification columns that must all be true.
	Flags []string `koanf:"flags" yaml:"flags"`
}

// Check verifies the collection carries every column these cuts read.
// It is meant to run once per sample, not per event.
func (c Cuts) Check(kind string, col *model.Collection) error {
	for _, f := range c.Flags {
		if col.Flag(f) == nil && col.Len() > 0 {
			return fmt.Errorf("%w: %s_%s", ErrMissingFlag, kind, f)
		}
	}
	if c.RequireCharge && col.Charge == nil && col.Len() > 0 {
		return fmt.Errorf("%w: %s_charge", ErrMissingFlag, kind)
	}
	return nil
}

// Mask evaluates the cuts on every candidate of the collection. A candidate
// whose flag or charge column is absent does not pass.
func (c Cuts) Mask(col *model.Collection) Mask {
	n := col.Len()
	m := make(Mask, n)

	flags := make([][]bool, len(c.Flags))
	for i, f := range c.Flags {
		flags[i] = col.Flag(f)
	}

	for i := 0; i < n; i++ {
		m[i] = c.pass(col, flags, i)
	}
	return m
}

func (c Cuts) pass(col *model.Collection, flags [][]bool, i int) bool {
	// NaN fails both comparisons.
	if !(col.Pt[i] > c.MinPt) {
		return false
	}
	if !(float32(math.Abs(float64(col.Eta[i]))) < c.MaxAbsEta) {
		return false
	}
	if c.RequireCharge {
		if i >= len(col.Charge) || col.Charge[i] == 0 {
			return false
		}
	}
	for _, f := range flags {
		if i >= len(f) || !f[i] {
			return false
		}
	}
	return true
}

// Count returns the number of true entries.
func Count(m Mask) int {
	n := 0
	for _, ok := range m {
		if ok {
			n++
		}
	}
	return n
}

// Index returns the position of the k-th (0-based) true entry, or -1 when
// the mask has fewer than k+1 true entries.
func Index(m Mask, k int) int {
	for i, ok := range m {
		if !ok {
			continue
		}
		if k == 0 {
			return i
		}
		k--
	}
	return -1
}

// HasGoodCandidates reports whether every mask has at least one true entry.
func HasGoodCandidates(masks ...Mask) bool {
	for _, m := range masks {
		if Index(m, 0) < 0 {
			return false
		}
	}
	return true
}
