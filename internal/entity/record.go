package entity

import (
	"sort"

	"huoltokirja/constants"
)

// ReconciledRecord is the single merged field set after the deterministic +
// fallback merge, before verification. Every schema field appears either in
// Fields or in Absent, never silently dropped.
type ReconciledRecord struct {
	Fields map[string]any `json:"final_data"`
	// Absent lists schema fields no stage could populate, sorted.
	Absent []string `json:"absent_fields"`
	// Provenance maps each populated field to the step that supplied it.
	Provenance map[string]constants.StepName `json:"field_sources"`
}

// NewReconciledRecord returns an empty record with every schema field marked
// absent.
func NewReconciledRecord() ReconciledRecord {
	r := ReconciledRecord{
		Fields:     map[string]any{},
		Provenance: map[string]constants.StepName{},
	}
	r.Absent = append(r.Absent, constants.Schema()...)
	sort.Strings(r.Absent)
	return r
}

// Set records value for field with its provenance and clears the absent
// marker.
func (r *ReconciledRecord) Set(field string, value any, source constants.StepName) {
	r.Fields[field] = value
	r.Provenance[field] = source
	for i, a := range r.Absent {
		if a == field {
			r.Absent = append(r.Absent[:i], r.Absent[i+1:]...)
			break
		}
	}
}

// Has reports whether field carries a value.
func (r ReconciledRecord) Has(field string) bool {
	_, ok := r.Fields[field]
	return ok
}

// ExpectationRules classify fields by how validation treats their absence.
// Layout mirrors the verified.json "expected_extraction" blocks.
type ExpectationRules struct {
	Required []string `json:"required_fields"`
	Warning  []string `json:"warning_if_missing"`
	Optional []string `json:"optional_fields"`
}

// DefaultExpectationRules builds the rule set from the fixed schema
// severities.
func DefaultExpectationRules() ExpectationRules {
	var rules ExpectationRules
	sev := constants.DefaultSeverities()
	for _, f := range constants.Schema() {
		switch sev[f] {
		case constants.SeverityRequired:
			rules.Required = append(rules.Required, f)
		case constants.SeverityWarning:
			rules.Warning = append(rules.Warning, f)
		default:
			rules.Optional = append(rules.Optional, f)
		}
	}
	return rules
}

// GroundTruthRecord holds human-verified field values for a document,
// optionally carrying the expectation rules validation should apply. Created
// by the external verification workflow; the core only reads it. Wire layout
// (verified.json) is handled by the verify store.
type GroundTruthRecord struct {
	Fields map[string]any
	Rules  *ExpectationRules
}

// OverrideRecord is a targeted correction applied after ground truth exists.
// It always wins, field by field, over the ground truth values.
type OverrideRecord struct {
	Fields map[string]any
	Reason string
}

// FinalRecord is what validation checks and the rest of the system consumes:
// ground truth with override fields merged on top, or the reconciled record
// when no ground truth exists yet.
type FinalRecord struct {
	Fields map[string]any `json:"fields"`
	// Source tells where the values came from: "reconciled" | "verified" |
	// "verified+override".
	Source string `json:"source"`
	// Overridden lists the fields replaced by an override, sorted.
	Overridden []string `json:"overridden,omitempty"`
	Rules      *ExpectationRules
}
