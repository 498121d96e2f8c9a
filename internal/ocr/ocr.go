package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"huoltokirja/internal/common"
)

// Config for the text-recognition adapter. Binary names may be absolute
// paths; empty values fall back to the bare command names.
type Config struct {
	Pdftotext string
	Pdftoppm  string
	Tesseract string

	Languages string // tesseract -l value, default "fin+eng"
	DPI       int    // rasterization DPI for scanned PDFs, default 300
	MaxPages  int    // 0 = no limit

	// TextLayerMin: a PDF text layer shorter than this is treated as absent
	// and the document is OCRed instead.
	TextLayerMin int
}

// Result is the recognition output for one document.
type Result struct {
	Text       string
	Pages      int
	Method     string // "pdf-text" | "pdf-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

// Extractor wraps the external recognition engine (poppler + tesseract).
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Languages == "" {
		cfg.Languages = "fin+eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.TextLayerMin <= 0 {
		cfg.TextLayerMin = 100
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// Extract returns the recognized text for a PDF. The text layer is preferred
// when present; scanned documents go through rasterize + OCR. Empty output is
// a recognition error, terminal for the document.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	e.logger.Debug("ocr.extract.start", "path", path)

	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return Result{}, fmt.Errorf("%w: unsupported extension %q", common.ErrRecognition, filepath.Ext(path))
	}

	res, err := e.pdfToText(ctx, path)
	if err == nil && len(strings.TrimSpace(res.Text)) >= e.cfg.TextLayerMin {
		res.Duration = time.Since(start)
		res.Confidence = heuristicConfidence(res.Text)
		e.logger.Info("ocr.extract.ok", "path", path, "method", res.Method, "pages", res.Pages, "confidence", res.Confidence)
		return res, nil
	}
	if err != nil {
		e.logger.Debug("ocr.extract.text_layer_failed", "path", path, "error", err)
	}

	res, err = e.pdfToOCR(ctx, path)
	res.Duration = time.Since(start)
	if err != nil {
		return res, fmt.Errorf("%w: %v", common.ErrRecognition, err)
	}
	if strings.TrimSpace(res.Text) == "" {
		return res, fmt.Errorf("%w: no text recognized in %s", common.ErrRecognition, filepath.Base(path))
	}
	res.Confidence = heuristicConfidence(res.Text)
	e.logger.Info("ocr.extract.ok", "path", path, "method", res.Method, "pages", res.Pages, "confidence", res.Confidence)
	return res, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (Result, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return Result{Warnings: []string{string(errb)}}, err
	}
	text := string(out)
	// form feed separates pages by default
	return Result{
		Text:   text,
		Pages:  1 + strings.Count(text, "\f"),
		Method: "pdf-text",
	}, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (Result, error) {
	tmpDir, err := os.MkdirTemp("", "hk-ocr-*")
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("ocr.tmpdir.remove_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return Result{Warnings: []string{string(errb)}}, err
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return Result{}, fmt.Errorf("pdftoppm produced no images")
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		// tesseract <img> stdout -l fin+eng
		out, terrb, terr := e.runner.Run(ctx, e.cfg.Tesseract, img, "stdout", "-l", e.cfg.Languages)
		if terr != nil {
			warns = append(warns, string(terrb))
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.Write(out)
	}

	return Result{
		Text:     b.String(),
		Pages:    len(matches),
		Method:   "pdf-ocr",
		Language: e.cfg.Languages,
		Warnings: warns,
	}, nil
}
