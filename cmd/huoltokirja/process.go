package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"huoltokirja/constants"
	"huoltokirja/internal/pipeline"
)

var processMode string

var processCmd = &cobra.Command{
	Use:   "process [path]",
	Short: "Process a receipt file or directory",
	Long:  "Runs recognition, pattern extraction and the model fallback on one PDF or every PDF in a directory. Without an argument the configured receipts directory is processed.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mode, ok := constants.ParseMode(processMode)
		if !ok {
			return fmt.Errorf("invalid --mode %q (full|ocr|pattern|fallback)", processMode)
		}

		path := cfg.ReceiptsDir
		if len(args) == 1 {
			path = args[0]
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if !info.IsDir() {
			res := e.Processor.ProcessFile(ctx, path, mode)
			printDocResult(res)
			if res.Err != nil {
				return fmt.Errorf("process %s: %w", res.DocID, res.Err)
			}
			return nil
		}

		sum, results, err := e.Processor.ProcessDir(ctx, path, mode)
		for _, res := range results {
			printDocResult(res)
		}
		printSummary(sum)
		return err
	},
}

func printDocResult(res pipeline.DocResult) {
	switch {
	case res.Err != nil:
		fmt.Printf("FAIL  %s: %v\n", res.DocID, res.Err)
	case res.Status == constants.DocStatusOCROK:
		fmt.Printf("OCR   %s\n", res.DocID)
	case !res.Outcome.Passed:
		fmt.Printf("CHECK %s: missing required %v, mismatches %v\n",
			res.DocID, res.Outcome.MissingRequired, res.Outcome.Mismatches)
	case res.Outcome.Warned():
		fmt.Printf("WARN  %s: missing %v\n", res.DocID, res.Outcome.MissingWarning)
	default:
		fmt.Printf("OK    %s\n", res.DocID)
	}
}

func printSummary(sum pipeline.Summary) {
	fmt.Printf("\nProcessed %d documents in %s\n", sum.Processed, sum.Duration.Round(10*time.Millisecond))
	fmt.Printf("- passed:   %d\n", sum.Passed)
	fmt.Printf("- warned:   %d\n", sum.Warned)
	fmt.Printf("- failed:   %d\n", sum.Failed)
	fmt.Printf("- fatal:    %d\n", sum.Fatal)
	fmt.Printf("- degraded: %d\n", sum.Degraded)
}

func init() {
	processCmd.Flags().StringVar(&processMode, "mode", string(constants.ModeFull), "stages to run (full|ocr|pattern|fallback)")
	rootCmd.AddCommand(processCmd)
}
