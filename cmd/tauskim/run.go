package main

import (
	"context"
	"fmt"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/tauskim/internal/adapters/http/api"
	"github.com/okian/tauskim/internal/adapters/manifest"
	app "github.com/okian/tauskim/internal/app"
	"github.com/okian/tauskim/internal/domain/skim"
	"github.com/okian/tauskim/pkg/logger"
	"github.com/okian/tauskim/pkg/metrics"
)

const systemMetricsInterval = 10 * time.Second

var runCmd = &cobra.Command{
	Use:   "run [sample...]",
	Short: "Skim samples (default: every configured sample)",
	Long: `Run reads <input_dir>/<sample>.root for every sample, applies the active
selection profile and writes <output_dir>/<sample>Skim.root. Samples that
fail leave no output behind and are recorded as failed in the manifest.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("profile", "", "selection profile (overrides profile)")
	runCmd.Flags().Int("workers", 0, "batch workers per sample (overrides worker_count)")
	runCmd.Flags().String("metrics-addr", "", "serve /healthz, /stats and /history on this address")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if p, _ := cmd.Flags().GetString("profile"); p != "" {
		cfg.Profile = p
	}
	if n, _ := cmd.Flags().GetInt("workers"); n > 0 {
		cfg.WorkerCount = n
	}
	if a, _ := cmd.Flags().GetString("metrics-addr"); a != "" {
		cfg.MetricsAddr = a
	}

	var (
		opts  []app.Option
		store *manifest.Store
	)
	if cfg.ManifestPath != "" {
		s, err := manifest.Open(cfg.ManifestPath)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
		opts = append(opts, app.WithManifest(store))
	}

	svc, err := app.New(cfg, opts...)
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		srvCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		var history api.HistoryProvider
		if store != nil {
			history = store
		}
		go func() {
			if err := api.ListenAndServe(srvCtx, cfg.MetricsAddr, api.NewServer(svc, history).Handler()); err != nil {
				logger.Get().Error(srvCtx, "metrics server failed", logger.Error(err))
			}
		}()
		go startSystemMetricsUpdater(srvCtx)
	}

	report, runErr := svc.Run(ctx, args)
	printReport(cmd, report)
	return runErr
}

func printReport(cmd *cobra.Command, report app.RunReport) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "run %s\n", report.RunID)
	fmt.Fprintln(w, "SAMPLE\tREAD\tPASSED\tWRITTEN\tWEIGHT\tSTATUS")
	for _, s := range report.Samples {
		status := "ok"
		if s.Err != nil {
			status = "failed: " + s.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.6g\t%s\n",
			s.Sample, s.CutFlow.Read, s.CutFlow.Passed[skim.StagePair], s.Written, s.Weight, status)
	}
	_ = w.Flush()
}

// startSystemMetricsUpdater refreshes process gauges until ctx ends.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		updateSystemMetrics()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
