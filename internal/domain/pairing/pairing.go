// Package pairing chooses the best cross-kind candidate pair of an event.
//
// The choice runs in two passes over the valid pairs: first the kind-A
// candidate with the highest pt, then, among pairs using that candidate,
// the kind-B candidate with the lowest isolation. A pair (i, j) is valid
// when both candidates pass their masks and their angular separation
// exceeds the selector's ΔR threshold.
package pairing

import (
	"github.com/okian/tauskim/internal/domain/kinematics"
	"github.com/okian/tauskim/internal/domain/selection"
)

// DefaultMinDeltaR is the separation a pair must exceed.
const DefaultMinDeltaR = 0.5

// Pair indexes one candidate of each kind. Either both indices are -1 or
// neither is.
type Pair struct {
	First  int
	Second int
}

// NoPair is returned when an event has no valid pair.
var NoPair = Pair{First: -1, Second: -1}

// Valid reports whether the pair points at real candidates.
func (p Pair) Valid() bool {
	return p.First != -1 && p.Second != -1
}

// Candidates are the columns the selector reads for one kind. Iso is only
// read for kind B.
type Candidates struct {
	Pt  []float32
	Eta []float32
	Phi []float32
	Iso []float32
}

// Selector picks the best pair per event.
type Selector struct {
	MinDeltaR float64
}

// NewSelector returns a selector using DefaultMinDeltaR.
func NewSelector() Selector {
	return Selector{MinDeltaR: DefaultMinDeltaR}
}

// Select returns the best valid pair or NoPair.
//
// Ties on pt resolve to the lowest kind-A index and ties on isolation to
// the lowest kind-B index. NaN pt or isolation values never win a pass;
// when every isolation of the restricted pairs is NaN the result is NoPair.
func (s Selector) Select(maskA selection.Mask, a Candidates, maskB selection.Mask, b Candidates) Pair {
	if len(maskA) == 0 || len(maskB) == 0 {
		return NoPair
	}

	// Pass 1: highest-pt kind-A candidate taking part in any valid pair.
	first := -1
	var maxPt float32
	for i := range maskA {
		for j := range maskB {
			if !s.valid(maskA, a, i, maskB, b, j) {
				continue
			}
			pt := a.Pt[i]
			if pt != pt {
				continue
			}
			if first == -1 || pt > maxPt {
				first, maxPt = i, pt
			}
		}
	}
	if first == -1 {
		return NoPair
	}

	// Pass 2: most isolated kind-B partner of that candidate.
	second := -1
	var minIso float32
	for j := range maskB {
		if !s.valid(maskA, a, first, maskB, b, j) {
			continue
		}
		iso := b.Iso[j]
		if iso != iso {
			continue
		}
		if second == -1 || iso < minIso {
			second, minIso = j, iso
		}
	}
	if second == -1 {
		return NoPair
	}

	return Pair{First: first, Second: second}
}

// CountValid returns the number of valid pairs in the cross product.
func (s Selector) CountValid(maskA selection.Mask, a Candidates, maskB selection.Mask, b Candidates) int {
	n := 0
	for i := range maskA {
		for j := range maskB {
			if s.valid(maskA, a, i, maskB, b, j) {
				n++
			}
		}
	}
	return n
}

func (s Selector) valid(maskA selection.Mask, a Candidates, i int, maskB selection.Mask, b Candidates, j int) bool {
	if !maskA[i] || !maskB[j] {
		return false
	}
	dr := kinematics.DeltaR(
		float64(a.Eta[i]), float64(a.Phi[i]),
		float64(b.Eta[j]), float64(b.Phi[j]),
	)
	// NaN separations fail here.
	return dr > s.MinDeltaR
}
