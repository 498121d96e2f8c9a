package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"huoltokirja/internal/validate"
	"huoltokirja/internal/verify"
)

var validateAll bool

var validateCmd = &cobra.Command{
	Use:   "validate [document]",
	Short: "Validate reconciled records against verified data",
	Long:  "Re-checks stored records against verified ground truth and overrides. With a document argument only that document is checked; --all checks every document with verified data.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		var docIDs []string
		switch {
		case len(args) == 1:
			docIDs = []string{args[0]}
		case validateAll:
			docIDs, err = e.Verify.Documents()
			if err != nil {
				return fmt.Errorf("list verified documents: %w", err)
			}
			if len(docIDs) == 0 {
				return fmt.Errorf("no verified documents under %s", cfg.VerifiedDir)
			}
		default:
			docs, err := e.Store.ListDocuments(ctx)
			if err != nil {
				return err
			}
			for _, d := range docs {
				docIDs = append(docIDs, d.ID)
			}
			if len(docIDs) == 0 {
				return fmt.Errorf("no processed documents in %s", cfg.DBPath)
			}
		}

		failed := 0
		for _, docID := range docIDs {
			outcome, err := validateDocument(ctx, e, docID)
			if err != nil {
				fmt.Printf("FAIL  %s: %v\n", docID, err)
				failed++
				continue
			}
			printOutcome(docID, outcome)
			if !outcome.Passed {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed validation", failed, len(docIDs))
		}
		return nil
	},
}

func validateDocument(ctx context.Context, e *env, docID string) (validate.Outcome, error) {
	rec, err := e.Store.GetRecord(ctx, docID)
	if err != nil {
		return validate.Outcome{}, err
	}
	gt, err := e.Verify.GroundTruth(docID)
	if err != nil {
		return validate.Outcome{}, err
	}
	ov, err := e.Verify.Override(docID)
	if err != nil {
		return validate.Outcome{}, err
	}
	final := verify.Resolve(rec, gt, ov)
	if gt != nil {
		return e.Validator.CheckAgainstTruth(rec.Fields, final.Fields, final.Rules), nil
	}
	return e.Validator.Check(final.Fields, final.Rules), nil
}

func printOutcome(docID string, o validate.Outcome) {
	switch {
	case !o.Passed:
		fmt.Printf("CHECK %s\n", docID)
		for _, f := range o.MissingRequired {
			fmt.Printf("      missing required: %s\n", f)
		}
		for _, m := range o.Mismatches {
			fmt.Printf("      %s\n", m)
		}
	case o.Warned():
		fmt.Printf("WARN  %s: missing %v\n", docID, o.MissingWarning)
	default:
		fmt.Printf("OK    %s\n", docID)
	}
}

func init() {
	validateCmd.Flags().BoolVar(&validateAll, "all", false, "validate every document that has verified data")
	rootCmd.AddCommand(validateCmd)
}
