package pairing

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/tauskim/internal/domain/model"
)

// ErrUnknownIsolation is returned for an isolation mode that is not one of the known ones.
var ErrUnknownIsolation = errors.New("unknown isolation mode")

// Isolation selects how a candidate's isolation value is formed.
type Isolation string

const (
	// IsolationColumn reads the collection's Iso column.
	IsolationColumn Isolation = "column"
	// IsolationSum adds ChargedIso and NeutralIso.
	IsolationSum Isolation = "sum"
	// IsolationRelativeSum divides the sum by pt; pt == 0 yields +Inf.
	IsolationRelativeSum Isolation = "relative_sum"
)

// ParseIsolation validates a configured mode. An empty string means IsolationColumn.
func ParseIsolation(s string) (Isolation, error) {
	switch Isolation(s) {
	case "", IsolationColumn:
		return IsolationColumn, nil
	case IsolationSum, IsolationRelativeSum:
		return Isolation(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownIsolation, s)
}

// Values returns one isolation value per candidate of the collection.
func (m Isolation) Values(c *model.Collection) []float32 {
	switch m {
	case IsolationSum, IsolationRelativeSum:
		out := make([]float32, c.Len())
		for i := range out {
			sum := c.ChargedIso[i] + c.NeutralIso[i]
			if m == IsolationSum {
				out[i] = sum
				continue
			}
			if c.Pt[i] == 0 {
				out[i] = float32(math.Inf(1))
				continue
			}
			out[i] = sum / c.Pt[i]
		}
		return out
	default:
		return c.Iso
	}
}

// Columns lists the collection columns the mode reads.
func (m Isolation) Columns() []string {
	switch m {
	case IsolationSum, IsolationRelativeSum:
		return []string{model.ColumnChargedIso, model.ColumnNeutralIso}
	default:
		return []string{model.ColumnIso}
	}
}

// CandidatesOf projects the columns the selector needs out of a collection.
func CandidatesOf(c *model.Collection, iso []float32) Candidates {
	return Candidates{Pt: c.Pt, Eta: c.Eta, Phi: c.Phi, Iso: iso}
}
