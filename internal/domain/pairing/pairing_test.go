package pairing_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/tauskim/internal/domain/model"
	"github.com/okian/tauskim/internal/domain/pairing"
	"github.com/okian/tauskim/internal/domain/selection"
	. "github.com/smartystreets/goconvey/convey"
)

var nan = float32(math.NaN())

func all(n int) selection.Mask {
	m := make(selection.Mask, n)
	for i := range m {
		m[i] = true
	}
	return m
}

func TestSelect(t *testing.T) {
	sel := pairing.NewSelector()

	Convey("Given one muon and two taus where the closer tau is better isolated", t, func() {
		mu := pairing.Candidates{Pt: []float32{60}, Eta: []float32{0.1}, Phi: []float32{0.0}}
		tau := pairing.Candidates{
			Pt:  []float32{40, 40},
			Eta: []float32{0.3, 1.0},
			Phi: []float32{0.2, 0.6},
			Iso: []float32{0.1, 0.2},
		}

		Convey("When the pair is selected", func() {
			p := sel.Select(all(1), mu, all(2), tau)

			Convey("Then the overlapping tau should be rejected by the separation cut", func() {
				So(p, ShouldResemble, pairing.Pair{First: 0, Second: 1})
				So(p.Valid(), ShouldBeTrue)
			})
		})

		Convey("When the separation cut is dropped to zero", func() {
			loose := pairing.Selector{MinDeltaR: 0}
			p := loose.Select(all(1), mu, all(2), tau)

			Convey("Then the better isolated tau should win", func() {
				So(p, ShouldResemble, pairing.Pair{First: 0, Second: 0})
			})
		})
	})

	Convey("Given two valid muons with pt 50 and 80", t, func() {
		mu := pairing.Candidates{Pt: []float32{50, 80}, Eta: []float32{0, 0}, Phi: []float32{0, 0.1}}
		tau := pairing.Candidates{Pt: []float32{30}, Eta: []float32{0}, Phi: []float32{3}, Iso: []float32{0.05}}

		Convey("Then the harder muon should always be chosen", func() {
			for i := 0; i < 10; i++ {
				So(sel.Select(all(2), mu, all(1), tau).First, ShouldEqual, 1)
			}
		})

		Convey("When the pts are bit-identical", func() {
			mu.Pt = []float32{80, 80}

			Convey("Then the lowest index should be chosen", func() {
				So(sel.Select(all(2), mu, all(1), tau).First, ShouldEqual, 0)
			})
		})

		Convey("When the harder muon only overlaps the tau", func() {
			mu.Phi = []float32{0, 3}

			Convey("Then the softer muon should be chosen", func() {
				So(sel.Select(all(2), mu, all(1), tau), ShouldResemble, pairing.Pair{First: 0, Second: 0})
			})
		})
	})

	Convey("Given the tau choice is restricted to the chosen muon", t, func() {
		// Tau 0 is the most isolated overall but only pairs with the soft muon.
		mu := pairing.Candidates{Pt: []float32{30, 70}, Eta: []float32{0, 2}, Phi: []float32{0, 0}}
		tau := pairing.Candidates{
			Pt:  []float32{30, 30},
			Eta: []float32{2, 0},
			Phi: []float32{0, 0},
			Iso: []float32{0.01, 0.5},
		}

		Convey("Then the tau should be the best partner of the hardest muon", func() {
			So(sel.Select(all(2), mu, all(2), tau), ShouldResemble, pairing.Pair{First: 1, Second: 1})
		})
	})

	Convey("Given degenerate inputs", t, func() {
		mu := pairing.Candidates{Pt: []float32{50}, Eta: []float32{0}, Phi: []float32{0}}
		tau := pairing.Candidates{Pt: []float32{30}, Eta: []float32{0}, Phi: []float32{2}, Iso: []float32{0.1}}

		Convey("When either side is empty", func() {
			So(sel.Select(selection.Mask{}, pairing.Candidates{}, all(1), tau), ShouldResemble, pairing.NoPair)
			So(sel.Select(all(1), mu, selection.Mask{}, pairing.Candidates{}), ShouldResemble, pairing.NoPair)
		})

		Convey("When every candidate is masked out", func() {
			So(sel.Select(selection.Mask{false}, mu, all(1), tau), ShouldResemble, pairing.NoPair)
			So(sel.Select(all(1), mu, selection.Mask{false}, tau), ShouldResemble, pairing.NoPair)
		})

		Convey("When every pair fails the separation cut", func() {
			tau.Phi = []float32{0.3}
			So(sel.Select(all(1), mu, all(1), tau), ShouldResemble, pairing.NoPair)
		})

		Convey("When the separation equals the cut exactly", func() {
			tau.Phi = []float32{0.5}
			So(sel.Select(all(1), mu, all(1), tau), ShouldResemble, pairing.NoPair)
		})

		Convey("When an angle is NaN", func() {
			tau.Eta = []float32{nan}
			So(sel.Select(all(1), mu, all(1), tau), ShouldResemble, pairing.NoPair)
		})

		Convey("When the only isolation is NaN", func() {
			tau.Iso = []float32{nan}
			So(sel.Select(all(1), mu, all(1), tau), ShouldResemble, pairing.NoPair)
		})

		Convey("When a NaN pt competes with a finite one", func() {
			mu = pairing.Candidates{Pt: []float32{nan, 40}, Eta: []float32{0, 0}, Phi: []float32{0, 0}}
			So(sel.Select(all(2), mu, all(1), tau).First, ShouldEqual, 1)
		})
	})
}

func TestPairInvariant(t *testing.T) {
	Convey("Given many generated events", t, func() {
		sel := pairing.NewSelector()

		Convey("Then a selected pair is either fully valid or fully empty", func() {
			for k := 0; k < 200; k++ {
				nA, nB := k%4, (k/4)%4
				a := pairing.Candidates{}
				b := pairing.Candidates{}
				ma := make(selection.Mask, nA)
				mb := make(selection.Mask, nB)
				for i := 0; i < nA; i++ {
					a.Pt = append(a.Pt, float32(20+(k*7+i*13)%60))
					a.Eta = append(a.Eta, float32((k+i)%5)*0.4-1)
					a.Phi = append(a.Phi, float32((k*3+i)%7)-3)
					ma[i] = (k+i)%3 != 0
				}
				for j := 0; j < nB; j++ {
					b.Pt = append(b.Pt, float32(20+(k*5+j*11)%50))
					b.Eta = append(b.Eta, float32((k+2*j)%5)*0.4-1)
					b.Phi = append(b.Phi, float32((k*5+j)%7)-3)
					b.Iso = append(b.Iso, float32((k+j)%4)*0.05)
					mb[j] = (k+j)%4 != 1
				}

				p := sel.Select(ma, a, mb, b)
				So(p.First == -1, ShouldEqual, p.Second == -1)
				So(p.Valid(), ShouldEqual, sel.CountValid(ma, a, mb, b) > 0)
				if p.Valid() {
					So(ma[p.First], ShouldBeTrue)
					So(mb[p.Second], ShouldBeTrue)
				}

				loose := pairing.Selector{MinDeltaR: 0}
				So(loose.CountValid(ma, a, mb, b), ShouldBeGreaterThanOrEqualTo, sel.CountValid(ma, a, mb, b))
			}
		})
	})
}

func TestIsolation(t *testing.T) {
	Convey("Given a tau collection with split isolation", t, func() {
		c := &model.Collection{
			Pt:         []float32{40, 0},
			Iso:        []float32{0.3, 0.4},
			ChargedIso: []float32{1, 1},
			NeutralIso: []float32{3, 0},
		}

		Convey("Then column mode should read the Iso column", func() {
			So(pairing.IsolationColumn.Values(c), ShouldResemble, []float32{0.3, 0.4})
		})

		Convey("Then sum mode should add the two components", func() {
			So(pairing.IsolationSum.Values(c), ShouldResemble, []float32{4, 1})
		})

		Convey("Then relative sum should divide by pt and give +Inf for pt 0", func() {
			v := pairing.IsolationRelativeSum.Values(c)
			So(v[0], ShouldAlmostEqual, 0.1, 1e-6)
			So(math.IsInf(float64(v[1]), 1), ShouldBeTrue)
		})
	})

	Convey("Given configured mode names", t, func() {
		Convey("Then known names should parse", func() {
			m, err := pairing.ParseIsolation("")
			So(err, ShouldBeNil)
			So(m, ShouldEqual, pairing.IsolationColumn)

			m, err = pairing.ParseIsolation("relative_sum")
			So(err, ShouldBeNil)
			So(m, ShouldEqual, pairing.IsolationRelativeSum)
		})

		Convey("Then unknown names should fail", func() {
			_, err := pairing.ParseIsolation("combined")
			So(errors.Is(err, pairing.ErrUnknownIsolation), ShouldBeTrue)
		})
	})
}
