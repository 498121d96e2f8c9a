// Package validate checks final records against expectation rule sets and
// classifies the outcome by severity.
package validate

import (
	"fmt"
	"log/slog"
	"sort"

	"huoltokirja/internal/entity"
)

// DefaultAmountTolerance is the absolute EUR tolerance used for amount
// comparisons when none is configured. It absorbs rounding differences
// between extractors and verified values.
const DefaultAmountTolerance = 0.01

// Outcome is the result of checking one record. Purely computed; no input
// record is mutated.
type Outcome struct {
	Passed          bool     `json:"passed"`
	MissingRequired []string `json:"missing_required,omitempty"` // cause failure
	MissingWarning  []string `json:"missing_warning,omitempty"`  // logged, non-fatal
	MissingOptional []string `json:"missing_optional,omitempty"` // informational
	Mismatches      []string `json:"mismatches,omitempty"`       // self-test mode
}

// Warned reports whether the outcome carries non-fatal warnings.
func (o Outcome) Warned() bool { return len(o.MissingWarning) > 0 }

// Engine evaluates records. The amount tolerance is configurable because the
// right value depends on the verification workflow's rounding conventions.
type Engine struct {
	tolerance float64
	logger    *slog.Logger
}

func NewEngine(amountTolerance float64, logger *slog.Logger) *Engine {
	if amountTolerance <= 0 {
		amountTolerance = DefaultAmountTolerance
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{tolerance: amountTolerance, logger: logger}
}

// Check evaluates presence of fields against the rule set. A nil rule set
// falls back to the default schema severities. Adding a field to the warning
// list never flips pass/fail; only required fields and value mismatches can
// fail a record.
func (e *Engine) Check(fields map[string]any, rules *entity.ExpectationRules) Outcome {
	return e.check(fields, nil, rules)
}

// CheckAgainstTruth additionally compares extracted values against ground
// truth for every field both sides carry (accuracy self-test mode).
// Comparison is field-type-aware: dates as calendar dates, amounts within
// the configured tolerance, strings case-insensitively after whitespace
// normalization.
func (e *Engine) CheckAgainstTruth(fields, truth map[string]any, rules *entity.ExpectationRules) Outcome {
	return e.check(fields, truth, rules)
}

func (e *Engine) check(fields, truth map[string]any, rules *entity.ExpectationRules) Outcome {
	if rules == nil {
		def := entity.DefaultExpectationRules()
		rules = &def
	}

	var out Outcome
	examine := func(list []string, missing *[]string) {
		for _, field := range list {
			got, ok := fields[field]
			if !ok {
				*missing = append(*missing, field)
				continue
			}
			if truth == nil {
				continue
			}
			want, inTruth := truth[field]
			if !inTruth {
				continue
			}
			if !e.equalValues(field, got, want) {
				out.Mismatches = append(out.Mismatches,
					fmt.Sprintf("field %q: got %v, expected %v", field, got, want))
			}
		}
	}

	examine(rules.Required, &out.MissingRequired)
	examine(rules.Warning, &out.MissingWarning)
	examine(rules.Optional, &out.MissingOptional)

	sort.Strings(out.MissingRequired)
	sort.Strings(out.MissingWarning)
	sort.Strings(out.MissingOptional)

	out.Passed = len(out.MissingRequired) == 0 && len(out.Mismatches) == 0

	e.logger.Debug("validate.check.done",
		"passed", out.Passed,
		"missing_required", len(out.MissingRequired),
		"missing_warning", len(out.MissingWarning),
		"missing_optional", len(out.MissingOptional),
		"mismatches", len(out.Mismatches),
	)
	return out
}
