package weights_test

import (
	"errors"
	"testing"

	"github.com/okian/tauskim/internal/domain/weights"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaultTable(t *testing.T) {
	Convey("Given the default weight table", t, func() {
		tbl := weights.Default()

		Convey("When a data sample is looked up", func() {
			w, err := tbl.Weight("Run2012B_SingleMu")

			Convey("Then its weight should be exactly one", func() {
				So(err, ShouldBeNil)
				So(w, ShouldEqual, 1.0)
			})
		})

		Convey("When an MC sample is looked up", func() {
			w, err := tbl.Weight("GluGluToHToTauTau")

			Convey("Then its weight should be xsec / nGen * lumi", func() {
				So(err, ShouldBeNil)
				So(w, ShouldAlmostEqual, 19.6/476963.0*11467.0, 1e-12)
			})
		})

		Convey("When an unconfigured sample is looked up", func() {
			w, err := tbl.Weight("ZPrimeToTauTau")

			Convey("Then it should fail instead of defaulting", func() {
				So(errors.Is(err, weights.ErrUnknownSample), ShouldBeTrue)
				So(w, ShouldEqual, 0)
			})
		})

		Convey("Then every default sample should be listed", func() {
			So(tbl.Names(), ShouldHaveLength, 9)
			So(tbl.Luminosity(), ShouldEqual, 11467.0)
			s, ok := tbl.Sample("TTbar")
			So(ok, ShouldBeTrue)
			So(s.Kind, ShouldEqual, weights.KindMC)
		})
	})
}

func TestNewValidation(t *testing.T) {
	Convey("Given invalid sample entries", t, func() {
		cases := map[string][]weights.Sample{
			"zero events":   {{Name: "A", Kind: weights.KindMC, CrossSection: 1}},
			"negative xsec": {{Name: "A", Kind: weights.KindMC, CrossSection: -1, GeneratedEvents: 10}},
			"duplicate":     {{Name: "A", Kind: weights.KindData}, {Name: "A", Kind: weights.KindData}},
			"unknown kind":  {{Name: "A", Kind: "sim"}},
			"empty name":    {{Kind: weights.KindData}},
		}

		for name, samples := range cases {
			_, err := weights.New(100, samples)
			Convey("Then construction should fail for "+name, func() {
				So(errors.Is(err, weights.ErrInvalidSample), ShouldBeTrue)
			})
		}

		Convey("Then a non-positive luminosity should fail", func() {
			_, err := weights.New(0, weights.DefaultSamples())
			So(errors.Is(err, weights.ErrInvalidSample), ShouldBeTrue)
		})
	})
}
