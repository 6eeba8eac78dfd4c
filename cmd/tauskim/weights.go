package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Print the resolved sample weight table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		table, err := cfg.WeightTable()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "luminosity %g pb^-1\n", table.Luminosity())
		fmt.Fprintln(w, "SAMPLE\tKIND\tXSEC [pb]\tGENERATED\tWEIGHT")
		for _, name := range table.Names() {
			s, _ := table.Sample(name)
			weight, _ := table.Weight(name)
			fmt.Fprintf(w, "%s\t%s\t%g\t%d\t%.6g\n", s.Name, s.Kind, s.CrossSection, s.GeneratedEvents, weight)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(weightsCmd)
}
