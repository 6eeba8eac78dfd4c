package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/tauskim/internal/adapters/manifest"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List skimmed samples recorded in the manifest",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().String("run", "", "only this run id")
	historyCmd.Flags().String("sample", "", "only this sample")
	historyCmd.Flags().Int("limit", 20, "maximum entries, newest first (0 for all)")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if cfg.ManifestPath == "" {
		return errors.New("manifest_path is empty; no history is kept")
	}
	store, err := manifest.Open(cfg.ManifestPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var f manifest.Filter
	f.RunID, _ = cmd.Flags().GetString("run")
	f.Sample, _ = cmd.Flags().GetString("sample")
	f.Limit, _ = cmd.Flags().GetInt("limit")

	entries, err := store.History(cmd.Context(), f)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tRUN\tSAMPLE\tPROFILE\tREAD\tWRITTEN\tSTATUS\tERROR")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			e.StartedAt.Local().Format(time.DateTime), e.RunID, e.Sample, e.Profile,
			e.EventsRead, e.EventsWritten, e.Status, e.Error)
	}
	return w.Flush()
}
