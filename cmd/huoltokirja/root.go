package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"huoltokirja/internal/common"
)

var (
	cfg      *common.Config
	logger   *slog.Logger
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "huoltokirja",
	Short: "Receipt extraction and reconciliation pipeline",
	Long:  "Recognizes text from service receipts, extracts fields with deterministic patterns and a model fallback, reconciles them with provenance, and validates against verified data.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := common.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		level := slog.LevelInfo
		if err := level.UnmarshalText([]byte(logLevel)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")
}
