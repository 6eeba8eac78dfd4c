package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	app "github.com/okian/tauskim/internal/app"
)

var histogramsCmd = &cobra.Command{
	Use:   "histograms",
	Short: "Book signal and control region histograms from the skims",
	Long: `Histograms reads every configured process from <output_dir>, applies the
baseline selection, fills opposite-sign (signal region) and same-sign
(control region) histograms, estimates QCD from the control region and
writes everything to histograms.output. With --plot-dir one PNG per
variable is rendered as well.`,
	Args: cobra.NoArgs,
	RunE: runHistograms,
}

func init() {
	histogramsCmd.Flags().String("plot-dir", "", "render one plot per variable here (overrides histograms.plot_dir)")
	histogramsCmd.Flags().String("output", "", "histogram file (overrides histograms.output)")

	rootCmd.AddCommand(histogramsCmd)
}

func runHistograms(cmd *cobra.Command, _ []string) error {
	if o, _ := cmd.Flags().GetString("output"); o != "" {
		cfg.Histograms.Output = o
	}
	plotDir := cfg.Histograms.PlotDir
	if d, _ := cmd.Flags().GetString("plot-dir"); d != "" {
		plotDir = d
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	rep, err := svc.Histograms(cmd.Context(), plotDir)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROCESS\tROWS")
	for _, p := range cfg.Histograms.Processes {
		fmt.Fprintf(w, "%s\t%d\n", p.Label, rep.Filled[p.Label])
	}
	_ = w.Flush()
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", rep.Output)
	if len(rep.Plots) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d plots to %s\n", len(rep.Plots), plotDir)
	}
	return nil
}
