package nanoaod_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/okian/tauskim/internal/adapters/nanoaod"
	"github.com/okian/tauskim/internal/config"
	"github.com/okian/tauskim/internal/domain/model"
	"github.com/okian/tauskim/internal/domain/pairing"
	"github.com/okian/tauskim/internal/testevents"
	"github.com/okian/tauskim/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var errStop = errors.New("stop")

func profileLayout(name string) nanoaod.Layout {
	cfg := config.New()
	cfg.Profile = name
	p, err := cfg.ActiveProfile()
	So(err, ShouldBeNil)
	return nanoaod.LayoutFor(p.Selection())
}

func writeSample(t *testing.T, n int) (string, []model.Event) {
	cfg := testevents.DefaultConfig()
	cfg.Events = n
	events := testevents.NewGenerator(cfg, "TTbar").Generate()
	path := filepath.Join(t.TempDir(), "TTbar.root")
	So(testevents.Write(path, "Events", events, profileLayout(config.ProfileMuTau)), ShouldBeNil)
	return path, events
}

func readAll(r *nanoaod.Reader, size int) ([]model.Batch, error) {
	var batches []model.Batch
	err := r.ReadBatches(context.Background(), "TTbar", size, func(b model.Batch) error {
		batches = append(batches, b)
		return nil
	})
	return batches, err
}

func sameColumn[T comparable](got, want []T) {
	So(len(got), ShouldEqual, len(want))
	for i := range want {
		So(got[i], ShouldEqual, want[i])
	}
}

func TestLayout(t *testing.T) {
	Convey("Given the canonical profile", t, func() {
		l := profileLayout(config.ProfileMuTau)

		Convey("Then it should read the trigger, flags and the isolation column", func() {
			b := l.Branches()
			So(b, ShouldContain, "HLT_IsoMu17_eta2p1_LooseIsoPFTau20")
			So(b, ShouldContain, "Tau_idAntiMuTight")
			So(b, ShouldContain, "Jet_puId")
			So(b, ShouldContain, "Tau_relIso_all")
			So(b, ShouldNotContain, "Tau_chargedIso")
		})
	})

	Convey("Given the summed isolation profile", t, func() {
		l := profileLayout(config.ProfileMuTauSumIso)

		Convey("Then it should read both isolation parts instead", func() {
			So(l.TauIsolation, ShouldEqual, pairing.IsolationSum)
			So(l.Branches(), ShouldContain, "Tau_chargedIso")
			So(l.Branches(), ShouldContain, "Tau_neutralIso")
			So(l.Branches(), ShouldNotContain, "Tau_relIso_all")
		})
	})
}

func TestReadBatches(t *testing.T) {
	Convey("Given a file of 25 generated events", t, func() {
		So(logger.Init(), ShouldBeNil)
		path, events := writeSample(t, 25)

		r, err := nanoaod.Open(path, "Events", profileLayout(config.ProfileMuTau))
		So(err, ShouldBeNil)
		defer r.Close()
		So(r.Entries(), ShouldEqual, int64(25))

		Convey("When read in batches of 10", func() {
			batches, err := readAll(r, 10)

			Convey("Then batches should be numbered in order and sized 10, 10, 5", func() {
				So(err, ShouldBeNil)
				So(batches, ShouldHaveLength, 3)
				for i, b := range batches {
					So(b.Seq, ShouldEqual, i)
					So(b.Sample, ShouldEqual, "TTbar")
				}
				So(batches[2].Events, ShouldHaveLength, 5)
			})

			Convey("Then every event should match what was written", func() {
				var got []model.Event
				for _, b := range batches {
					got = append(got, b.Events...)
				}
				So(got, ShouldHaveLength, len(events))
				for i := range events {
					want := &events[i]
					ev := &got[i]
					So(ev.Entry, ShouldEqual, int64(i))
					So(ev.Validate(), ShouldBeNil)
					So(ev.Run, ShouldEqual, want.Run)
					So(ev.NPV, ShouldEqual, want.NPV)
					So(ev.METPt, ShouldEqual, want.METPt)
					So(ev.Triggers, ShouldResemble, want.Triggers)
					sameColumn(ev.Muons.Pt, want.Muons.Pt)
					sameColumn(ev.Muons.Iso, want.Muons.Iso)
					sameColumn(ev.Muons.Flag("tightId"), want.Muons.Flag("tightId"))
					sameColumn(ev.Taus.Phi, want.Taus.Phi)
					sameColumn(ev.Taus.Charge, want.Taus.Charge)
					sameColumn(ev.Taus.DecayMode, want.Taus.DecayMode)
					sameColumn(ev.Taus.Iso, want.Taus.Iso)
					sameColumn(ev.Taus.Flag("idIsoTight"), want.Taus.Flag("idIsoTight"))
					sameColumn(ev.Jets.Eta, want.Jets.Eta)
					sameColumn(ev.Jets.BTag, want.Jets.BTag)
				}
			})
		})

		Convey("When the callback fails", func() {
			calls := 0
			err := r.ReadBatches(context.Background(), "TTbar", 10, func(model.Batch) error {
				calls++
				return errStop
			})

			Convey("Then reading should stop with that error", func() {
				So(errors.Is(err, errStop), ShouldBeTrue)
				So(calls, ShouldEqual, 1)
			})
		})

		Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			err := r.ReadBatches(ctx, "TTbar", 10, func(model.Batch) error { return nil })

			Convey("Then reading should stop", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})

	Convey("Given the summed isolation layout over the same file", t, func() {
		So(logger.Init(), ShouldBeNil)
		path, events := writeSample(t, 5)

		r, err := nanoaod.Open(path, "Events", profileLayout(config.ProfileMuTauSumIso))
		So(err, ShouldBeNil)
		defer r.Close()
		batches, err := readAll(r, 100)

		Convey("Then the isolation parts should be loaded", func() {
			So(err, ShouldBeNil)
			So(batches, ShouldHaveLength, 1)
			for i, ev := range batches[0].Events {
				sameColumn(ev.Taus.ChargedIso, events[i].Taus.ChargedIso)
				sameColumn(ev.Taus.NeutralIso, events[i].Taus.NeutralIso)
				So(ev.Taus.Iso, ShouldBeNil)
			}
		})
	})
}

func TestOpenErrors(t *testing.T) {
	Convey("Given a file written without trigger or flag branches", t, func() {
		So(logger.Init(), ShouldBeNil)
		cfg := testevents.DefaultConfig()
		cfg.Events = 3
		path := filepath.Join(t.TempDir(), "bare.root")
		So(testevents.Write(path, "Events", testevents.NewGenerator(cfg, "bare").Generate(), nanoaod.Layout{}), ShouldBeNil)

		Convey("When opened for the canonical profile", func() {
			_, err := nanoaod.Open(path, "Events", profileLayout(config.ProfileMuTau))

			Convey("Then it should fail before reading with a missing column", func() {
				So(errors.Is(err, nanoaod.ErrMissingColumn), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "HLT_IsoMu17_eta2p1_LooseIsoPFTau20")
			})
		})

		Convey("When the tree name is wrong", func() {
			_, err := nanoaod.Open(path, "Runs", nanoaod.Layout{})

			Convey("Then opening should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given a path that does not exist", t, func() {
		_, err := nanoaod.Open(filepath.Join(t.TempDir(), "missing.root"), "Events", nanoaod.Layout{})

		Convey("Then opening should fail", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
