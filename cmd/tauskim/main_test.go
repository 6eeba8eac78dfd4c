package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/tauskim/internal/adapters/skimfile"
)

const testConfigYAML = `input_dir: {{dir}}/data
output_dir: {{dir}}/skims
manifest_path: {{dir}}/tauskim.db
worker_count: 2
queue_size: 4
batch_size: 16
sample_parallelism: 2
histograms:
  output: {{dir}}/histograms.root
  processes:
    - sample: GluGluToHToTauTau
      label: ggH
      role: signal
    - sample: TTbar
      label: TT
      role: background
    - sample: Run2012B_SingleMu
      label: dataRunB
      role: data
`

var testSamples = []string{"GluGluToHToTauTau", "TTbar", "Run2012B_SingleMu"}

func writeConfig(dir string) string {
	path := filepath.Join(dir, "tauskim.yaml")
	body := strings.ReplaceAll(testConfigYAML, "{{dir}}", dir)
	convey.So(os.WriteFile(path, []byte(body), 0o600), convey.ShouldBeNil)
	return path
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	convey.Convey("Given a config file in a temp directory", t, func() {
		dir := t.TempDir()
		path := writeConfig(dir)

		convey.Convey("When printing the version", func() {
			out, err := execute("version", "--config", path)

			convey.Convey("Then it should name the build", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldStartWith, "tauskim ")
			})
		})

		convey.Convey("When printing the weights", func() {
			out, err := execute("weights", "--config", path)

			convey.Convey("Then every sample should be listed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "luminosity")
				for _, s := range testSamples {
					convey.So(out, convey.ShouldContainSubstring, s)
				}
			})
		})

		convey.Convey("When generating, skimming and booking histograms", func() {
			args := append([]string{"generate", "--config", path, "--events", "100"}, testSamples...)
			out, err := execute(args...)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "generated 3 samples")

			args = append([]string{"run", "--config", path}, testSamples...)
			out, err = execute(args...)

			convey.Convey("Then every sample should be skimmed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldStartWith, "run ")
				for _, s := range testSamples {
					convey.So(out, convey.ShouldContainSubstring, s)
					_, statErr := os.Stat(skimfile.Path(filepath.Join(dir, "skims"), s))
					convey.So(statErr, convey.ShouldBeNil)
				}
				convey.So(out, convey.ShouldNotContainSubstring, "failed")
			})

			convey.Convey("Then the manifest should list the run", func() {
				out, err := execute("history", "--config", path, "--sample", "TTbar", "--limit", "5")
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "TTbar")
				convey.So(out, convey.ShouldContainSubstring, "succeeded")
				convey.So(out, convey.ShouldNotContainSubstring, "Run2012B_SingleMu")
			})

			convey.Convey("Then histograms should be written", func() {
				out, err := execute("histograms", "--config", path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "dataRunB")

				_, statErr := os.Stat(filepath.Join(dir, "histograms.root"))
				convey.So(statErr, convey.ShouldBeNil)
			})
		})

		convey.Convey("When skimming a sample without input", func() {
			_, err := execute("run", "--config", path, "TTbar")

			convey.Convey("Then the command should fail", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the config file is missing", func() {
			_, err := execute("weights", "--config", filepath.Join(dir, "missing.yaml"))

			convey.Convey("Then loading should fail", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
