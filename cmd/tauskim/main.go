// Package main is the entry point for the tauskim CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/tauskim/internal/config"
	"github.com/okian/tauskim/pkg/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg is the configuration loaded before every subcommand.
var cfg *config.Config

// rootCmd is the base command for the tauskim CLI.
var rootCmd = &cobra.Command{
	Use:   "tauskim",
	Short: "Skim mu-tau candidate pairs out of NanoAOD event trees",
	Long: `tauskim selects one muon-tau pair per event from NanoAOD-style ROOT files,
computes the derived kinematic variables and writes one flat skim per sample,
stamped with the sample's normalization weight.

Configuration is layered: built-in defaults, then the YAML file given with
--config (or TAUSKIM_CONFIG), then TAUSKIM_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.InitWithWriter(cmd.ErrOrStderr(), "text"); err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("config")
		c, err := config.Load(path)
		if err != nil {
			return err
		}
		if err := logger.InitWithWriter(cmd.ErrOrStderr(), c.LogFormat); err != nil {
			return err
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			c.LogLevel = lvl
		}
		if err := logger.SetLevelString(c.LogLevel); err != nil {
			logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
				logger.String("log_level", c.LogLevel), logger.Error(err))
			_ = logger.SetLevelString("info")
		}
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML config file (default: $TAUSKIM_CONFIG)")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error (overrides log_level)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
