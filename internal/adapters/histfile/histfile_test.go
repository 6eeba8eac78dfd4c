package histfile_test

import (
	"path/filepath"
	"testing"

	"github.com/okian/tauskim/internal/adapters/histfile"
	"github.com/okian/tauskim/internal/domain/histograms"
	"github.com/okian/tauskim/internal/domain/variables"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWriteRead(t *testing.T) {
	Convey("Given two filled sets", t, func() {
		b, err := histograms.NewBooker(map[string]histograms.Binning{
			"pt_1":  {Bins: 4, Min: 0, Max: 40},
			"m_vis": {Bins: 2, Min: 0, Max: 200},
		}, histograms.DefaultBaseline())
		So(err, ShouldBeNil)

		tt := b.NewSet("TT")
		tt.Fill(&variables.Record{Pt1: 15, MVis: 90, MT1: 5, Iso1: 0.01, Q1: 1, Q2: -1, Weight: 2})
		data := b.NewSet("dataRunB")
		data.Fill(&variables.Record{Pt1: 35, MVis: 150, MT1: 5, Iso1: 0.01, Q1: 1, Q2: 1, Weight: 1})

		path := filepath.Join(t.TempDir(), "out", "histograms.root")
		So(histfile.Write(path, tt, data), ShouldBeNil)

		Convey("When read back", func() {
			hists, err := histfile.Read(path)
			So(err, ShouldBeNil)

			Convey("Then every histogram should be present under its name", func() {
				So(histfile.Names(hists), ShouldResemble, []string{
					"TT_m_vis", "TT_m_vis_cr", "TT_pt_1", "TT_pt_1_cr",
					"dataRunB_m_vis", "dataRunB_m_vis_cr", "dataRunB_pt_1", "dataRunB_pt_1_cr",
				})
			})

			Convey("Then bin contents should survive", func() {
				So(histograms.Content(hists["TT_pt_1"]), ShouldResemble, []float64{0, 2, 0, 0})
				So(histograms.Content(hists["dataRunB_m_vis_cr"]), ShouldResemble, []float64{0, 1})
				So(histograms.Content(hists["dataRunB_pt_1"]), ShouldResemble, []float64{0, 0, 0, 0})
			})
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := histfile.Read(filepath.Join(t.TempDir(), "none.root"))

		Convey("Then reading should fail", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
