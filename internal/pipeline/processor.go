package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"huoltokirja/constants"
	"huoltokirja/internal/common"
	"huoltokirja/internal/entity"
	"huoltokirja/internal/reconcile"
	"huoltokirja/internal/repository"
	"huoltokirja/internal/validate"
	"huoltokirja/internal/verify"
)

// Processor coordinates recognition, pattern extraction and the model
// fallback for one document, then persists the reconciled result.
type Processor struct {
	Recognition *RecognitionStage
	Pattern     *PatternStage
	Fallback    *FallbackStage

	Store     *repository.Store
	Artifacts *repository.Artifacts
	Verify    *verify.Store
	Validator *validate.Engine

	Workers int
	Logger  *slog.Logger
}

// DocResult is the outcome of processing a single document.
type DocResult struct {
	DocID   string
	Status  constants.DocStatus
	Steps   []entity.ExtractionStep
	Record  entity.ReconciledRecord
	Outcome validate.Outcome
	Err     error
}

// Summary aggregates a batch run.
type Summary struct {
	Processed int // documents attempted
	Fatal     int // recognition failed, no record produced
	Degraded  int // a stage failed but the document still completed
	Warned    int // validation surfaced missing warn-level fields
	Failed    int // validation missing required fields or mismatches
	Passed    int // validation passed cleanly
	Duration  time.Duration
}

// ProcessFile runs a document through the stages selected by mode.
// Recognition failure is terminal; fallback failures degrade.
func (p *Processor) ProcessFile(ctx context.Context, path string, mode constants.Mode) DocResult {
	docID := filepath.Base(path)
	runID := uuid.New()
	start := time.Now()
	logger := p.Logger.With("doc_id", docID, "run_id", runID)

	logger.Info("pipeline.doc.start", "mode", mode)

	doc := entity.Document{
		ID:          docID,
		RunID:       runID,
		SourcePath:  path,
		ProcessedAt: start.UTC(),
	}
	_ = p.Store.UpsertDocument(ctx, doc, constants.DocStatusRunning, "")

	text, steps, err := p.recognize(ctx, path, mode, docID)
	if err != nil {
		logger.Error("pipeline.doc.recognition_failed", "err", err)
		_ = p.Store.UpsertDocument(ctx, doc, constants.DocStatusFailed, err.Error())
		p.writeArtifact(docID, path, steps, entity.ReconciledRecord{}, start, err.Error(), "")
		return DocResult{DocID: docID, Status: constants.DocStatusFailed, Steps: steps, Err: err}
	}
	doc.Text = text

	if mode == constants.ModeOCR {
		_ = p.Store.UpsertDocument(ctx, doc, constants.DocStatusOCROK, "")
		_ = p.Store.AppendSteps(ctx, docID, runID, steps)
		p.writeArtifact(docID, path, steps, entity.ReconciledRecord{}, start, "", text)
		logger.Info("pipeline.doc.done", "status", constants.DocStatusOCROK)
		return DocResult{DocID: docID, Status: constants.DocStatusOCROK, Steps: steps}
	}

	patRes, patStep := p.Pattern.Run(text)
	patStep.Number = len(steps) + 1
	steps = append(steps, patStep)

	if p.wantFallback(mode, patRes.MissingRequired()) {
		fbStep := p.Fallback.Run(ctx, docID, text, patRes.Missing)
		fbStep.Number = len(steps) + 1
		steps = append(steps, fbStep)
	}

	rec := reconcile.Merge(steps)

	_ = p.Store.UpsertDocument(ctx, doc, constants.DocStatusParsed, "")
	if err := p.Store.AppendSteps(ctx, docID, runID, steps); err != nil {
		logger.Error("pipeline.doc.persist_steps_failed", "err", err)
	}
	if err := p.Store.SaveRecord(ctx, docID, runID, rec); err != nil {
		logger.Error("pipeline.doc.persist_record_failed", "err", err)
	}
	p.writeArtifact(docID, path, steps, rec, start, "", text)

	outcome := p.validateDoc(docID, rec)
	logger.Info("pipeline.doc.done",
		"status", constants.DocStatusParsed,
		"fields", len(rec.Fields),
		"absent", len(rec.Absent),
		"passed", outcome.Passed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return DocResult{DocID: docID, Status: constants.DocStatusParsed, Steps: steps, Record: rec, Outcome: outcome}
}

// recognize returns document text, reusing the stored OCR output when a
// re-parse mode does not need a fresh recognition pass.
func (p *Processor) recognize(ctx context.Context, path string, mode constants.Mode, docID string) (string, []entity.ExtractionStep, error) {
	if mode == constants.ModePattern || mode == constants.ModeFallback {
		if cached, err := p.Artifacts.OCRText(docID); err == nil && strings.TrimSpace(cached) != "" {
			p.Logger.Debug("pipeline.ocr.cached", "doc_id", docID, "chars", len(cached))
			return cached, nil, nil
		}
	}
	res, step, err := p.Recognition.Run(ctx, path)
	step.Number = 1
	if err != nil {
		return "", []entity.ExtractionStep{step}, fmt.Errorf("%w: %s", common.ErrRecognition, err)
	}
	return res.Text, []entity.ExtractionStep{step}, nil
}

func (p *Processor) wantFallback(mode constants.Mode, missingRequired []string) bool {
	if p.Fallback == nil || p.Fallback.Extractor == nil {
		return false
	}
	switch mode {
	case constants.ModeFallback:
		return true
	case constants.ModeFull:
		return len(missingRequired) > 0
	}
	return false
}

func (p *Processor) validateDoc(docID string, rec entity.ReconciledRecord) validate.Outcome {
	gt, err := p.Verify.GroundTruth(docID)
	if err != nil {
		p.Logger.Warn("pipeline.verify.read_failed", "doc_id", docID, "err", err)
	}
	ov, err := p.Verify.Override(docID)
	if err != nil {
		p.Logger.Warn("pipeline.verify.read_failed", "doc_id", docID, "err", err)
	}
	final := verify.Resolve(rec, gt, ov)
	if gt != nil {
		return p.Validator.CheckAgainstTruth(rec.Fields, final.Fields, final.Rules)
	}
	return p.Validator.Check(final.Fields, final.Rules)
}

func (p *Processor) writeArtifact(docID, path string, steps []entity.ExtractionStep, rec entity.ReconciledRecord, start time.Time, errMsg, ocrText string) {
	hash, err := repository.FileHash(path)
	if err != nil {
		hash = ""
	}
	art := repository.Artifact{
		FinalData:       rec.Fields,
		ProcessingSteps: steps,
		Metadata: repository.ArtifactMetadata{
			SourceFile:      path,
			FileHash:        hash,
			ProcessedAt:     start.UTC(),
			PipelineVersion: repository.PipelineVersion,
			FieldSources:    rec.Provenance,
			AbsentFields:    rec.Absent,
			TotalDurationMS: time.Since(start).Milliseconds(),
			Error:           errMsg,
		},
	}
	if art.FinalData == nil {
		art.FinalData = map[string]any{}
	}
	if err := p.Artifacts.Write(docID, art, ocrText); err != nil {
		p.Logger.Error("pipeline.artifact.write_failed", "doc_id", docID, "err", err)
	}
}

// ProcessDir processes every PDF under dir with a bounded worker pool.
func (p *Processor) ProcessDir(ctx context.Context, dir string, mode constants.Mode) (Summary, []DocResult, error) {
	paths, err := listPDFs(dir)
	if err != nil {
		return Summary{}, nil, err
	}
	if len(paths) == 0 {
		return Summary{}, nil, fmt.Errorf("no documents found under %s", dir)
	}

	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	start := time.Now()

	jobs := make(chan string)
	results := make([]DocResult, 0, len(paths))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				res := p.ProcessFile(ctx, path, mode)
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
		}()
	}

	for _, path := range paths {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return summarize(results, time.Since(start)), results, ctx.Err()
		case jobs <- path:
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].DocID < results[j].DocID })
	sum := summarize(results, time.Since(start))
	p.Logger.Info("pipeline.batch.done",
		"processed", sum.Processed,
		"fatal", sum.Fatal,
		"degraded", sum.Degraded,
		"failed", sum.Failed,
		"warned", sum.Warned,
		"passed", sum.Passed,
		"elapsed_ms", sum.Duration.Milliseconds(),
	)
	return sum, results, nil
}

func summarize(results []DocResult, elapsed time.Duration) Summary {
	sum := Summary{Processed: len(results), Duration: elapsed}
	for _, r := range results {
		if r.Err != nil {
			sum.Fatal++
			continue
		}
		for _, step := range r.Steps {
			if step.Failed() {
				sum.Degraded++
				break
			}
		}
		if r.Status != constants.DocStatusParsed {
			continue
		}
		switch {
		case !r.Outcome.Passed:
			sum.Failed++
		case r.Outcome.Warned():
			sum.Warned++
		default:
			sum.Passed++
		}
	}
	return sum
}

func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

