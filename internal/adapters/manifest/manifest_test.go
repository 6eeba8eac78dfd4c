package manifest_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/tauskim/internal/adapters/manifest"
	"github.com/okian/tauskim/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func openStore(t *testing.T) *manifest.Store {
	So(logger.Init(), ShouldBeNil)
	s, err := manifest.Open(filepath.Join(t.TempDir(), "state", "tauskim.db"))
	So(err, ShouldBeNil)
	return s
}

func TestManifest(t *testing.T) {
	Convey("Given an empty manifest", t, func() {
		ctx := context.Background()
		s := openStore(t)
		defer s.Close()

		Convey("When a run records one success and one failure", func() {
			okID, err := s.Start(ctx, manifest.Entry{RunID: "run-1", Sample: "TTbar", Profile: "mutau", Weight: 0.5, Output: "skims/TTbarSkim.root"})
			So(err, ShouldBeNil)
			badID, err := s.Start(ctx, manifest.Entry{RunID: "run-1", Sample: "Unknown", Profile: "mutau", Output: "skims/UnknownSkim.root"})
			So(err, ShouldBeNil)

			So(s.Finish(ctx, okID, 100, 7, nil), ShouldBeNil)
			So(s.Finish(ctx, badID, 0, 0, errors.New("missing column: Tau_pt")), ShouldBeNil)

			Convey("Then history should list both newest first", func() {
				h, err := s.History(ctx, manifest.Filter{RunID: "run-1"})
				So(err, ShouldBeNil)
				So(h, ShouldHaveLength, 2)

				So(h[0].Sample, ShouldEqual, "Unknown")
				So(h[0].Status, ShouldEqual, manifest.StatusFailed)
				So(h[0].Error, ShouldEqual, "missing column: Tau_pt")

				So(h[1].Sample, ShouldEqual, "TTbar")
				So(h[1].Status, ShouldEqual, manifest.StatusSucceeded)
				So(h[1].Weight, ShouldEqual, 0.5)
				So(h[1].EventsRead, ShouldEqual, int64(100))
				So(h[1].EventsWritten, ShouldEqual, int64(7))
				So(h[1].FinishedAt.IsZero(), ShouldBeFalse)
				So(h[1].FinishedAt.Before(h[1].StartedAt), ShouldBeFalse)
			})

			Convey("Then filters should narrow the result", func() {
				h, err := s.History(ctx, manifest.Filter{Sample: "TTbar"})
				So(err, ShouldBeNil)
				So(h, ShouldHaveLength, 1)

				h, err = s.History(ctx, manifest.Filter{Limit: 1})
				So(err, ShouldBeNil)
				So(h, ShouldHaveLength, 1)

				h, err = s.History(ctx, manifest.Filter{RunID: "run-2"})
				So(err, ShouldBeNil)
				So(h, ShouldBeEmpty)
			})
		})

		Convey("When a started entry is never finished", func() {
			_, err := s.Start(ctx, manifest.Entry{RunID: "run-1", Sample: "ZLL", Profile: "mutau"})
			So(err, ShouldBeNil)

			Convey("Then it should stay running", func() {
				h, err := s.History(ctx, manifest.Filter{})
				So(err, ShouldBeNil)
				So(h[0].Status, ShouldEqual, manifest.StatusRunning)
				So(h[0].FinishedAt.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When finishing an unknown id", func() {
			err := s.Finish(ctx, 42, 0, 0, nil)

			Convey("Then it should report not found", func() {
				So(errors.Is(err, manifest.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the store is closed", func() {
			So(s.Close(), ShouldBeNil)
			_, err := s.History(ctx, manifest.Filter{})

			Convey("Then calls should fail with ErrClosed", func() {
				So(errors.Is(err, manifest.ErrClosed), ShouldBeTrue)
				So(s.Close(), ShouldBeNil)
			})
		})
	})

	Convey("Given a manifest reopened from disk", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "tauskim.db")

		s, err := manifest.Open(path)
		So(err, ShouldBeNil)
		_, err = s.Start(ctx, manifest.Entry{RunID: "run-1", Sample: "TTbar", Profile: "mutau"})
		So(err, ShouldBeNil)
		So(s.Close(), ShouldBeNil)

		s, err = manifest.Open(path)
		So(err, ShouldBeNil)
		defer s.Close()

		Convey("Then earlier entries should still be there", func() {
			h, err := s.History(ctx, manifest.Filter{})
			So(err, ShouldBeNil)
			So(h, ShouldHaveLength, 1)
			So(h[0].RunID, ShouldEqual, "run-1")
		})
	})
}

func TestEntryJSON(t *testing.T) {
	Convey("Given a running entry", t, func() {
		e := manifest.Entry{ID: 1, RunID: "abc", Sample: "TTbar", Status: manifest.StatusRunning, StartedAt: time.Unix(1700000000, 0).UTC()}

		Convey("Then its JSON should leave out the finish time", func() {
			raw, err := json.Marshal(e)
			So(err, ShouldBeNil)
			So(string(raw), ShouldNotContainSubstring, "finished_at")
			So(string(raw), ShouldContainSubstring, `"started_at":"2023-11-14T22:13:20Z"`)
		})

		Convey("When it finishes", func() {
			e.Status = manifest.StatusSucceeded
			e.FinishedAt = e.StartedAt.Add(time.Minute)
			raw, err := json.Marshal(e)
			So(err, ShouldBeNil)

			Convey("Then the finish time should be present", func() {
				So(string(raw), ShouldContainSubstring, `"finished_at":"2023-11-14T22:14:20Z"`)
			})
		})
	})
}
