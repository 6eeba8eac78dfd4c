package plot

import (
	"testing"

	"go-hep.org/x/hep/hbook"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScaled(t *testing.T) {
	Convey("Given a histogram of four unit entries and an overflow", t, func() {
		h := hbook.NewH1D(2, 0, 2)
		h.Ann["name"] = "Data_pt_1"
		for range 4 {
			h.Fill(0.5, 1)
		}
		h.Fill(5, 2)

		Convey("When it is scaled by three", func() {
			out := scaled(h, 3)

			Convey("Then contents and errors should scale by three", func() {
				So(out.Binning.Bins[0].SumW(), ShouldAlmostEqual, 12, 1e-12)
				So(out.Binning.Bins[0].ErrW(), ShouldAlmostEqual, 6, 1e-12)
				So(out.Binning.Bins[0].Entries(), ShouldEqual, int64(4))
				So(out.Binning.Overflow().SumW(), ShouldAlmostEqual, 6, 1e-12)
				So(out.Name(), ShouldEqual, "Data_pt_1")
			})

			Convey("Then the source should be untouched", func() {
				So(h.Binning.Bins[0].SumW(), ShouldAlmostEqual, 4, 1e-12)
				So(h.Binning.Bins[0].ErrW(), ShouldAlmostEqual, 2, 1e-12)
			})
		})
	})
}
