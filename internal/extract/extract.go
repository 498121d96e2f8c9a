// Package extract implements the deterministic pattern stage: regex-driven
// field extraction over recognized text for known Finnish receipt layouts.
package extract

import (
	"log/slog"
	"sort"

	"huoltokirja/constants"
)

// Result is the pattern stage output: one typed value per extracted field
// plus the set of schema fields no rule could populate. Absence of a field is
// not an error, it is deferred to the fallback stage.
type Result struct {
	Fields  map[string]any
	Missing []string // sorted
}

// MissingRequired returns the required fields left unpopulated.
func (r Result) MissingRequired() []string {
	var out []string
	for _, f := range constants.RequiredFields() {
		if _, ok := r.Fields[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}

// Extractor applies the per-field rule table. Pure function of the input
// text: no external calls, no side effects, identical output for identical
// input.
type Extractor struct {
	rules  map[string][]rule
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{rules: fieldRules(), logger: logger}
}

// Extract runs every field rule in order; the first rule that yields a typed
// value wins for its field. No partial or ambiguous values are emitted.
func (e *Extractor) Extract(text string) Result {
	res := Result{Fields: map[string]any{}}

	for _, field := range constants.Schema() {
		if field == constants.FieldWorkDescription {
			continue // harvested separately below
		}
		for _, r := range e.rules[field] {
			m := r.re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			if v, ok := r.parse(m); ok {
				res.Fields[field] = v
				break
			}
		}
	}

	if terms := workDescriptions(text); len(terms) > 0 {
		res.Fields[constants.FieldWorkDescription] = terms
	}

	for _, field := range constants.Schema() {
		if _, ok := res.Fields[field]; !ok {
			res.Missing = append(res.Missing, field)
		}
	}
	sort.Strings(res.Missing)

	e.logger.Debug("extract.pattern.done",
		"fields", len(res.Fields),
		"missing", len(res.Missing),
	)
	return res
}
