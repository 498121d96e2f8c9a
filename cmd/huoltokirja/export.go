package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	exportOut  string
	exportFrom string
	exportTo   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export reconciled records to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var from, to *time.Time
		if exportFrom != "" {
			t, err := time.Parse("2006-01-02", exportFrom)
			if err != nil {
				return fmt.Errorf("invalid --from, use YYYY-MM-DD: %w", err)
			}
			from = &t
		}
		if exportTo != "" {
			t, err := time.Parse("2006-01-02", exportTo)
			if err != nil {
				return fmt.Errorf("invalid --to, use YYYY-MM-DD: %w", err)
			}
			to = &t
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		data, err := e.Export.ExportRecordsXLSX(ctx, from, to)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := os.WriteFile(exportOut, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", exportOut, err)
		}
		fmt.Printf("Wrote %s\n", exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "huoltokirja.xlsx", "output XLSX path")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "earliest record date YYYY-MM-DD")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "latest record date YYYY-MM-DD")
	rootCmd.AddCommand(exportCmd)
}
