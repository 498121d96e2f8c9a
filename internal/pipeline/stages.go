package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"huoltokirja/constants"
	"huoltokirja/internal/entity"
	"huoltokirja/internal/extract"
	"huoltokirja/internal/llm"
	"huoltokirja/internal/ocr"
)

// TextRecognizer produces text from a source document.
type TextRecognizer interface {
	Extract(ctx context.Context, path string) (ocr.Result, error)
}

// PatternParser extracts fields from recognized text deterministically.
type PatternParser interface {
	Extract(text string) extract.Result
}

// RecognitionStage runs OCR and records it as the first extraction step.
// A recognition failure is terminal for the document.
type RecognitionStage struct {
	Recognizer TextRecognizer
	Logger     *slog.Logger
}

func (s *RecognitionStage) Run(ctx context.Context, path string) (ocr.Result, entity.ExtractionStep, error) {
	start := time.Now()
	res, err := s.Recognizer.Extract(ctx, path)
	step := entity.ExtractionStep{
		Name:       constants.StepOCR,
		Timestamp:  start.UTC(),
		Method:     res.Method,
		Fields:     map[string]any{},
		Missing:    constants.Schema(),
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		return res, step, err
	}
	s.Logger.Info("pipeline.ocr.ok",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"confidence", res.Confidence,
		"chars", len(res.Text),
	)
	return res, step, nil
}

// PatternStage applies the deterministic field patterns to the text.
// It cannot fail; an unreadable layout just yields an empty field set.
type PatternStage struct {
	Parser PatternParser
	Logger *slog.Logger
}

func (s *PatternStage) Run(text string) (extract.Result, entity.ExtractionStep) {
	start := time.Now()
	res := s.Parser.Extract(text)
	step := entity.ExtractionStep{
		Name:       constants.StepParsing,
		Timestamp:  start.UTC(),
		Method:     "pattern",
		Fields:     res.Fields,
		Missing:    res.Missing,
		DurationMS: time.Since(start).Milliseconds(),
	}
	s.Logger.Info("pipeline.pattern.done",
		"fields", step.FieldCount(),
		"missing", len(res.Missing),
	)
	return res, step
}

// FallbackStage asks the language model for the fields the patterns
// could not find. Model failures degrade to an empty step so the
// document still completes with whatever the patterns produced.
type FallbackStage struct {
	Extractor llm.FieldExtractor
	Logger    *slog.Logger
}

func (s *FallbackStage) Run(ctx context.Context, docID, text string, missing []string) entity.ExtractionStep {
	start := time.Now()
	step := entity.ExtractionStep{
		Name:       constants.StepLLMExtraction,
		Timestamp:  start.UTC(),
		Method:     "llm",
		Fields:     map[string]any{},
		Missing:    constants.Schema(),
		DurationMS: 0,
	}

	fields, _, err := s.Extractor.ExtractFields(ctx, llm.ExtractRequest{
		DocumentID:    docID,
		Text:          text,
		MissingFields: missing,
	})
	step.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		switch {
		case errors.Is(err, llm.ErrServiceUnavailable):
			step.Failure = entity.FailureServiceUnavailable
		case errors.Is(err, llm.ErrReplyUnparsable):
			step.Failure = entity.FailureReplyUnparsable
		default:
			step.Failure = entity.FailureReplyUnparsable
		}
		s.Logger.Warn("pipeline.llm.degraded", "doc_id", docID, "failure", step.Failure, "err", err)
		return step
	}

	step.Fields = fields
	step.Missing = missingFrom(fields)
	s.Logger.Info("pipeline.llm.ok", "doc_id", docID, "fields", step.FieldCount())
	return step
}

func missingFrom(fields map[string]any) []string {
	var missing []string
	for _, name := range constants.Schema() {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
