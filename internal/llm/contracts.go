package llm

import (
	"context"
	"errors"
)

// ExtractRequest carries the recognized text to the model service together
// with the fields the pattern stage could not populate.
type ExtractRequest struct {
	DocumentID string
	Text       string
	// MissingFields narrows the instruction to the fields still needed; empty
	// means ask for the full schema.
	MissingFields []string
}

// FieldExtractor is the interface the pipeline depends on for the fallback
// stage. Fields uses the same field name -> typed value shape as the pattern
// stage. raw is the reply body kept for the step artifact.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (fields map[string]any, raw []byte, err error)
}

// Failure kinds the pipeline must be able to tell apart: the service being
// unreachable is not the same as the service answering without usable data.
// Both degrade to a zero-field step, never to a document-level fatal error.
var (
	ErrServiceUnavailable = errors.New("model service unavailable")
	ErrReplyUnparsable    = errors.New("model reply unparsable")
)
