package entity

import (
	"time"

	"github.com/google/uuid"

	"huoltokirja/constants"
)

// Failure markers for stages that ran but produced nothing. Distinct
// from "field absent": the stage was attempted and did not deliver.
const (
	FailureServiceUnavailable = "service_unavailable"
	FailureReplyUnparsable    = "reply_unparsable"
)

// Document represents one physical input file for data transfer between
// layers. Identifier is derived from the source filename; the recognized text
// is immutable once captured, re-processing starts a new recognition pass.
type Document struct {
	ID          string    `json:"id"` // basename of the source file
	RunID       uuid.UUID `json:"run_id"`
	SourcePath  string    `json:"source_path"`
	Text        string    `json:"-"` // raw recognized text, persisted separately
	Pages       int       `json:"pages,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// ExtractionStep is one stage's attempt to produce fields. Steps are
// append-only: a document accumulates an ordered sequence and none are ever
// edited after creation.
type ExtractionStep struct {
	Name       constants.StepName `json:"step_name"`
	Number     int                `json:"step_number"`
	Timestamp  time.Time          `json:"timestamp"`
	Method     string             `json:"method"`
	Fields     map[string]any     `json:"extracted_fields"`
	Missing    []string           `json:"missing_fields"`
	DurationMS int64              `json:"duration_ms"`

	// Failure marks a stage that ran but produced nothing, distinct from
	// "field absent": "service_unavailable" | "reply_unparsable" | "".
	Failure string `json:"failure,omitempty"`
}

// FieldCount returns the number of populated fields.
func (s ExtractionStep) FieldCount() int { return len(s.Fields) }

// Failed reports whether the step carries an explicit failure marker.
func (s ExtractionStep) Failed() bool { return s.Failure != "" }
