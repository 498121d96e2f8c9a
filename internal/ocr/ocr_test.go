package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huoltokirja/internal/common"
)

// stubRunner answers per-binary, creating page images when pdftoppm runs.
type stubRunner struct {
	pdftotextOut string
	pdftotextErr error
	pages        []string // tesseract output per rendered page
	tesseractErr error
}

func (s stubRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	switch name {
	case "pdftotext":
		if s.pdftotextErr != nil {
			return nil, []byte("pdftotext failed"), s.pdftotextErr
		}
		return []byte(s.pdftotextOut), nil, nil
	case "pdftoppm":
		prefix := args[len(args)-1]
		for i := range s.pages {
			if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i+1), []byte("png"), 0o644); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		if s.tesseractErr != nil {
			return nil, []byte("tesseract failed"), s.tesseractErr
		}
		img := args[0]
		for i := range s.pages {
			if strings.Contains(img, fmt.Sprintf("-%d.png", i+1)) {
				return []byte(s.pages[i]), nil, nil
			}
		}
		return nil, nil, fmt.Errorf("unexpected image %s", img)
	}
	return nil, nil, fmt.Errorf("unexpected binary %s", name)
}

func newStubExtractor(cfg Config, r Runner) *Extractor {
	e := NewExtractor(cfg, nil)
	e.runner = r
	return e
}

func TestExtractRejectsNonPDF(t *testing.T) {
	t.Parallel()
	e := newStubExtractor(Config{}, stubRunner{})

	_, err := e.Extract(context.Background(), "/tmp/receipt.jpg")

	assert.ErrorIs(t, err, common.ErrRecognition)
}

func TestExtractUsesTextLayer(t *testing.T) {
	t.Parallel()
	text := strings.Repeat("Veho Autotalot Oy Yhteensä: 240,00 EUR\n", 10) + "\fsecond page"
	e := newStubExtractor(Config{TextLayerMin: 50}, stubRunner{pdftotextOut: text})

	res, err := e.Extract(context.Background(), "/tmp/receipt.pdf")

	require.NoError(t, err)
	assert.Equal(t, "pdf-text", res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, text, res.Text)
	assert.Greater(t, res.Confidence, float32(0))
}

func TestExtractFallsBackToOCRWhenTextLayerThin(t *testing.T) {
	t.Parallel()
	e := newStubExtractor(Config{TextLayerMin: 100}, stubRunner{
		pdftotextOut: "x", // text layer present but too short to trust
		pages:        []string{"page one text", "page two text"},
	})

	res, err := e.Extract(context.Background(), "/tmp/scan.pdf")

	require.NoError(t, err)
	assert.Equal(t, "pdf-ocr", res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "fin+eng", res.Language)
	assert.Contains(t, res.Text, "page one text")
	assert.Contains(t, res.Text, "page two text")
	assert.Contains(t, res.Text, "\f", "page break marker expected between pages")
}

func TestExtractMaxPagesCapsOCR(t *testing.T) {
	t.Parallel()
	e := newStubExtractor(Config{MaxPages: 1}, stubRunner{
		pdftotextErr: fmt.Errorf("no text layer"),
		pages:        []string{"first", "second"},
	})

	res, err := e.Extract(context.Background(), "/tmp/scan.pdf")

	require.NoError(t, err)
	assert.Equal(t, 1, res.Pages)
	assert.NotContains(t, res.Text, "second")
}

func TestExtractEmptyRecognitionIsTerminal(t *testing.T) {
	t.Parallel()
	e := newStubExtractor(Config{}, stubRunner{
		pdftotextErr: fmt.Errorf("no text layer"),
		pages:        []string{"   ", ""},
	})

	_, err := e.Extract(context.Background(), "/tmp/blank.pdf")

	assert.ErrorIs(t, err, common.ErrRecognition)
}

func TestExtractAllPagesFailing(t *testing.T) {
	t.Parallel()
	e := newStubExtractor(Config{}, stubRunner{
		pdftotextErr: fmt.Errorf("no text layer"),
		pages:        []string{"unused"},
		tesseractErr: fmt.Errorf("bad image"),
	})

	_, err := e.Extract(context.Background(), "/tmp/corrupt.pdf")

	assert.ErrorIs(t, err, common.ErrRecognition)
}

func TestHeuristicConfidence(t *testing.T) {
	t.Parallel()

	rich := "Veho Autotalot Oy\n04.05.2023\nYhteensä: 240,00 EUR\nALV 24,00 % 46,45\n"
	poor := "@@## ~~ !!"

	assert.Greater(t, heuristicConfidence(rich), heuristicConfidence(poor))
	assert.LessOrEqual(t, heuristicConfidence(rich), float32(1.0))
}
