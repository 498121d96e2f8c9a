package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"huoltokirja/constants"
	"huoltokirja/internal/async"
	"huoltokirja/internal/ingest"
)

var watchInitial bool

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and process new receipts as they appear",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		dir := cfg.ReceiptsDir
		if len(args) == 1 {
			dir = args[0]
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		queue := async.NewQueue(ctx, cfg.Workers, 256, func(ctx context.Context, job async.Job) {
			res := e.Processor.ProcessFile(ctx, job.Path, constants.ModeFull)
			printDocResult(res)
		}, logger)

		events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{dir},
			InitialScan: watchInitial,
			Debounce:    2 * time.Second,
			Logger:      logger,
		})
		if err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}

		fmt.Printf("Watching %s (ctrl-c to stop)\n", dir)
		for {
			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				queue.Shutdown(shutdownCtx)
				cancel()
				return nil
			case path, ok := <-events:
				if !ok {
					return nil
				}
				if err := queue.Enqueue(ctx, path); err != nil {
					logger.Warn("watch.enqueue.failed", "path", path, "err", err)
				}
			case err, ok := <-errs:
				if ok && err != nil {
					logger.Error("watch.error", "err", err)
				}
			}
		}
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchInitial, "initial-scan", false, "process files already present at startup")
	rootCmd.AddCommand(watchCmd)
}
