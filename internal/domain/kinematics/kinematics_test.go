package kinematics_test

import (
	"math"
	"testing"

	"github.com/okian/tauskim/internal/domain/kinematics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDeltaPhi(t *testing.T) {
	Convey("Given two azimuthal angles across the -pi/pi seam", t, func() {
		Convey("When phi1=3.0 and phi2=-3.0", func() {
			d := kinematics.DeltaPhi(3.0, -3.0)

			Convey("Then the difference should wrap to about -0.283", func() {
				So(d, ShouldAlmostEqual, 6.0-2*math.Pi, 1e-12)
				So(d, ShouldAlmostEqual, -0.2832, 1e-4)
			})
		})

		Convey("When the angles are swapped", func() {
			Convey("Then the sign should flip", func() {
				So(kinematics.DeltaPhi(-3.0, 3.0), ShouldAlmostEqual, 2*math.Pi-6.0, 1e-12)
			})
		})

		Convey("When the raw difference is exactly -pi", func() {
			Convey("Then it should map onto +pi", func() {
				So(kinematics.DeltaPhi(0, math.Pi), ShouldAlmostEqual, math.Pi, 1e-12)
			})
		})

		Convey("When the raw difference is several turns", func() {
			Convey("Then it should stay within (-pi, pi]", func() {
				d := kinematics.DeltaPhi(7*math.Pi+0.1, 0)
				So(d, ShouldBeGreaterThan, -math.Pi)
				So(d, ShouldBeLessThanOrEqualTo, math.Pi)
				So(d, ShouldAlmostEqual, -math.Pi+0.1, 1e-9)
			})
		})
	})
}

func TestDeltaR(t *testing.T) {
	Convey("Given a muon at (eta=0.1, phi=0) and taus nearby", t, func() {
		Convey("When the tau sits at (0.3, 0.6)", func() {
			Convey("Then the separation should be below 0.7", func() {
				dr := kinematics.DeltaR(0.1, 0, 0.3, 0.6)
				So(dr, ShouldAlmostEqual, math.Sqrt(0.04+0.36), 1e-6)
			})
		})

		Convey("When the tau sits at (1.0, 0.6)", func() {
			Convey("Then the separation should be about 1.08", func() {
				dr := kinematics.DeltaR(0.1, 0, 1.0, 0.6)
				So(dr, ShouldAlmostEqual, math.Sqrt(0.81+0.36), 1e-6)
			})
		})

		Convey("When the candidates straddle the phi seam", func() {
			Convey("Then the wrapped difference should be used", func() {
				dr := kinematics.DeltaR(0, 3.1, 0, -3.1)
				So(dr, ShouldAlmostEqual, 2*math.Pi-6.2, 1e-9)
			})
		})
	})
}

func TestSum(t *testing.T) {
	Convey("Given two massless back-to-back candidates", t, func() {
		s := kinematics.Sum(40, 0, 0, 0, 40, 0, math.Pi, 0)

		Convey("Then the system should have mass 80 and no transverse momentum", func() {
			So(s.M(), ShouldAlmostEqual, 80, 1e-9)
			So(s.Pt(), ShouldAlmostEqual, 0, 1e-9)
		})
	})

	Convey("Given two massive candidates at arbitrary angles", t, func() {
		pt1, eta1, phi1, m1 := 60.0, 0.1, 0.0, 0.105
		pt2, eta2, phi2, m2 := 40.0, 1.0, 0.6, 1.2
		s := kinematics.Sum(pt1, eta1, phi1, m1, pt2, eta2, phi2, m2)

		Convey("Then mass and pt should match the explicit formula", func() {
			comp := func(pt, eta, phi, m float64) (float64, float64, float64, float64) {
				px := pt * math.Cos(phi)
				py := pt * math.Sin(phi)
				pz := pt * math.Sinh(eta)
				return px, py, pz, math.Sqrt(px*px + py*py + pz*pz + m*m)
			}
			ax, ay, az, ae := comp(pt1, eta1, phi1, m1)
			bx, by, bz, be := comp(pt2, eta2, phi2, m2)
			px, py, pz, e := ax+bx, ay+by, az+bz, ae+be

			So(s.M(), ShouldAlmostEqual, math.Sqrt(e*e-px*px-py*py-pz*pz), 1e-9)
			So(s.Pt(), ShouldAlmostEqual, math.Hypot(px, py), 1e-9)
		})
	})
}

func TestTransverseMass(t *testing.T) {
	Convey("Given a muon and MET", t, func() {
		Convey("When they are back to back", func() {
			Convey("Then mt should be 2*sqrt(pt*met)", func() {
				So(kinematics.TransverseMass(30, 0, 30, math.Pi), ShouldAlmostEqual, 60, 1e-9)
			})
		})

		Convey("When they are collinear", func() {
			Convey("Then mt should vanish", func() {
				So(kinematics.TransverseMass(30, 1.2, 25, 1.2), ShouldAlmostEqual, 0, 1e-9)
			})
		})
	})
}
