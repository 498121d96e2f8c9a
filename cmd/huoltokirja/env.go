package main

import (
	"context"
	"fmt"

	"huoltokirja/internal/export"
	"huoltokirja/internal/extract"
	"huoltokirja/internal/llm/openai"
	"huoltokirja/internal/ocr"
	"huoltokirja/internal/pipeline"
	"huoltokirja/internal/repository"
	"huoltokirja/internal/validate"
	"huoltokirja/internal/verify"
)

// env holds the wired services behind a command.
type env struct {
	Store     *repository.Store
	Artifacts *repository.Artifacts
	Verify    *verify.Store
	Validator *validate.Engine
	Processor *pipeline.Processor
	Export    *export.Service
}

func (e *env) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initEnv(ctx context.Context) (*env, error) {
	store, err := repository.Open(cfg.DBPath, logger)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	artifacts := repository.NewArtifacts(cfg.OutputDir)
	verifyStore := verify.NewStore(cfg.VerifiedDir, logger)
	validator := validate.NewEngine(cfg.Validation.AmountTolerance, logger)

	recognizer := ocr.NewExtractor(ocr.Config{
		Pdftotext:    cfg.OCR.Pdftotext,
		Pdftoppm:     cfg.OCR.Pdftoppm,
		Tesseract:    cfg.OCR.Tesseract,
		Languages:    cfg.OCR.Languages,
		DPI:          cfg.OCR.DPI,
		MaxPages:     cfg.OCR.MaxPages,
		TextLayerMin: cfg.OCR.TextLayerMin,
	}, logger)

	llmClient := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	processor := &pipeline.Processor{
		Recognition: &pipeline.RecognitionStage{Recognizer: recognizer, Logger: logger},
		Pattern:     &pipeline.PatternStage{Parser: extract.NewExtractor(logger), Logger: logger},
		Fallback:    &pipeline.FallbackStage{Extractor: llmClient, Logger: logger},
		Store:       store,
		Artifacts:   artifacts,
		Verify:      verifyStore,
		Validator:   validator,
		Workers:     cfg.Workers,
		Logger:      logger,
	}

	return &env{
		Store:     store,
		Artifacts: artifacts,
		Verify:    verifyStore,
		Validator: validator,
		Processor: processor,
		Export:    export.NewService(store, verifyStore, logger),
	}, nil
}
