// Package kinematics implements the angular and four-vector arithmetic used
// by pair selection and derived variables.
package kinematics

import (
	"math"

	"go-hep.org/x/hep/fmom"
)

// DeltaPhi returns phi1-phi2 reduced into (-pi, pi].
func DeltaPhi(phi1, phi2 float64) float64 {
	r := math.Mod(phi1-phi2, 2*math.Pi)
	switch {
	case r <= -math.Pi:
		r += 2 * math.Pi
	case r > math.Pi:
		r -= 2 * math.Pi
	}
	return r
}

// DeltaR returns the angular separation sqrt(deta^2 + dphi^2) with the
// azimuthal difference wrapped.
func DeltaR(eta1, phi1, eta2, phi2 float64) float64 {
	return math.Hypot(eta1-eta2, DeltaPhi(phi1, phi2))
}

// P4 builds the cartesian four-vector of a candidate given (pt, eta, phi, m).
func P4(pt, eta, phi, m float64) fmom.PxPyPzE {
	v := fmom.NewPtEtaPhiM(pt, eta, phi, m)
	return fmom.NewPxPyPzE(v.Px(), v.Py(), v.Pz(), v.E())
}

// System is the summed four-vector of two candidates.
type System struct {
	p4 fmom.PxPyPzE
}

// Sum adds the four-vectors of two candidates.
func Sum(pt1, eta1, phi1, m1, pt2, eta2, phi2, m2 float64) System {
	a := P4(pt1, eta1, phi1, m1)
	b := P4(pt2, eta2, phi2, m2)
	return System{p4: fmom.NewPxPyPzE(
		a.Px()+b.Px(),
		a.Py()+b.Py(),
		a.Pz()+b.Pz(),
		a.E()+b.E(),
	)}
}

// M is the invariant mass. A negative m^2 from rounding yields -sqrt(-m^2).
func (s System) M() float64 {
	return s.p4.M()
}

// Pt is the transverse momentum of the system.
func (s System) Pt() float64 {
	return s.p4.Pt()
}

// TransverseMass returns sqrt(2*pt*met*(1-cos(dphi))) for a candidate and
// the missing transverse momentum.
func TransverseMass(pt, phi, met, metPhi float64) float64 {
	v := 2 * pt * met * (1 - math.Cos(DeltaPhi(phi, metPhi)))
	if v < 0 {
		return 0
	}
	return math.Sqrt(v)
}
