package cmd

import (
	"fmt"
	"os"
	"time"

	"schedule-backend/internal/components/telemetry"
	"schedule-backend/internal/retrieval"

	"github.com/spf13/cobra"
)

var (
	verbose     bool
	maxAttempts int
	timeout     time.Duration
	baseDelay   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "schedule-cli",
	Short: "schedule-cli locates, downloads and parses class schedule spreadsheets.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging.")
	rootCmd.PersistentFlags().IntVar(&maxAttempts, "attempts", retrieval.DefaultMaxAttempts, "Maximum attempts per download.")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", retrieval.DefaultTimeout, "Timeout of a single attempt.")
	rootCmd.PersistentFlags().DurationVar(&baseDelay, "delay", retrieval.DefaultBaseDelay, "Delay after the first failed attempt, it grows linearly.")
}

func newEngine() *retrieval.Engine {
	opts := retrieval.DefaultOptions()
	opts.MaxAttempts = maxAttempts
	opts.Timeout = timeout
	opts.BaseDelay = baseDelay
	return retrieval.NewEngine(opts, telemetry.SlogAPI{})
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
