package selection_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/tauskim/internal/domain/model"
	"github.com/okian/tauskim/internal/domain/selection"
	. "github.com/smartystreets/goconvey/convey"
)

func muonCuts() selection.Cuts {
	return selection.Cuts{MinPt: 25, MaxAbsEta: 2.1, Flags: []string{"tightId"}}
}

func TestCutsMask(t *testing.T) {
	Convey("Given muon cuts and a muon collection", t, func() {
		cuts := muonCuts()
		col := &model.Collection{
			Pt:    []float32{30, 20, 40, 50, float32(math.NaN())},
			Eta:   []float32{0.5, 0.1, 2.2, -1.0, 0},
			Phi:   []float32{0, 0, 0, 0, 0},
			Flags: map[string][]bool{"tightId": {true, true, true, false, true}},
		}

		Convey("When the mask is built", func() {
			m := cuts.Mask(col)

			Convey("Then only candidates passing every cut should be marked", func() {
				So(m, ShouldResemble, selection.Mask{true, false, false, false, false})
				So(selection.Count(m), ShouldEqual, 1)
			})
		})

		Convey("When pt sits exactly on the threshold", func() {
			col.Pt[0] = 25

			Convey("Then the candidate should fail the strict comparison", func() {
				So(cuts.Mask(col)[0], ShouldBeFalse)
			})
		})
	})

	Convey("Given tau cuts requiring a non-zero charge", t, func() {
		cuts := selection.Cuts{MinPt: 25, MaxAbsEta: 2.4, RequireCharge: true}
		col := &model.Collection{
			Pt:     []float32{30, 30},
			Eta:    []float32{0, 0},
			Phi:    []float32{0, 0},
			Charge: []int32{0, -1},
		}

		Convey("Then neutral candidates should be rejected", func() {
			So(cuts.Mask(col), ShouldResemble, selection.Mask{false, true})
		})
	})

	Convey("Given an empty collection", t, func() {
		m := muonCuts().Mask(&model.Collection{})

		Convey("Then the mask should be empty", func() {
			So(m, ShouldHaveLength, 0)
			So(selection.Count(m), ShouldEqual, 0)
		})
	})
}

func TestCutsCheck(t *testing.T) {
	Convey("Given cuts naming a flag the collection lacks", t, func() {
		cuts := muonCuts()
		col := &model.Collection{Pt: []float32{30}, Eta: []float32{0}, Phi: []float32{0}}

		Convey("Then Check should report the missing column", func() {
			err := cuts.Check("Muon", col)
			So(errors.Is(err, selection.ErrMissingFlag), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "Muon_tightId")
		})

		Convey("When the flag is present", func() {
			col.Flags = map[string][]bool{"tightId": {true}}

			Convey("Then Check should pass", func() {
				So(cuts.Check("Muon", col), ShouldBeNil)
			})
		})
	})
}

func TestHasGoodCandidates(t *testing.T) {
	Convey("Given masks for two kinds", t, func() {
		Convey("When both have a true entry", func() {
			So(selection.HasGoodCandidates(selection.Mask{false, true}, selection.Mask{true}), ShouldBeTrue)
		})

		Convey("When one is all false", func() {
			So(selection.HasGoodCandidates(selection.Mask{true}, selection.Mask{false, false}), ShouldBeFalse)
		})

		Convey("When one is empty", func() {
			So(selection.HasGoodCandidates(selection.Mask{true}, selection.Mask{}), ShouldBeFalse)
		})
	})
}

func TestIndex(t *testing.T) {
	Convey("Given a mask with true entries at 1 and 3", t, func() {
		m := selection.Mask{false, true, false, true}

		Convey("Then the k-th true position should follow array order", func() {
			So(selection.Index(m, 0), ShouldEqual, 1)
			So(selection.Index(m, 1), ShouldEqual, 3)
			So(selection.Index(m, 2), ShouldEqual, -1)
		})
	})
}
