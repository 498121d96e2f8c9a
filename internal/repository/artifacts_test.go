package repository

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huoltokirja/constants"
	"huoltokirja/internal/entity"
)

func TestArtifactRoundTrip(t *testing.T) {
	t.Parallel()
	a := NewArtifacts(t.TempDir())

	art := Artifact{
		FinalData: map[string]any{
			constants.FieldDate:   "2023-05-04",
			constants.FieldAmount: 240.00,
		},
		ProcessingSteps: []entity.ExtractionStep{
			{Name: constants.StepParsing, Number: 2, Method: "pattern", Fields: map[string]any{constants.FieldDate: "2023-05-04"}},
		},
		Metadata: ArtifactMetadata{
			SourceFile:      "/receipts/receipt1.pdf",
			ProcessedAt:     time.Now().UTC().Truncate(time.Second),
			PipelineVersion: PipelineVersion,
			FieldSources: map[string]constants.StepName{
				constants.FieldDate:   constants.StepParsing,
				constants.FieldAmount: constants.StepLLMExtraction,
			},
			AbsentFields:    []string{constants.FieldVATAmount},
			TotalDurationMS: 1234,
		},
	}

	require.NoError(t, a.Write("receipt1.pdf", art, "recognized text"))

	got, err := a.Read("receipt1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "2023-05-04", got.FinalData[constants.FieldDate])
	assert.Equal(t, constants.StepLLMExtraction, got.Metadata.FieldSources[constants.FieldAmount])
	assert.Equal(t, []string{constants.FieldVATAmount}, got.Metadata.AbsentFields)
	assert.Equal(t, PipelineVersion, got.Metadata.PipelineVersion)

	text, err := a.OCRText("receipt1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "recognized text", text)
}

func TestArtifactWriteSkipsEmptyOCRText(t *testing.T) {
	t.Parallel()
	a := NewArtifacts(t.TempDir())

	require.NoError(t, a.Write("doc.pdf", Artifact{FinalData: map[string]any{}}, ""))

	_, err := a.OCRText("doc.pdf")
	assert.True(t, os.IsNotExist(err))
}

func TestFileHash(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "f.pdf")
	require.NoError(t, os.WriteFile(path, []byte("same content"), 0o644))
	other := filepath.Join(dir, "g.pdf")
	require.NoError(t, os.WriteFile(other, []byte("same content"), 0o644))

	h1, err := FileHash(path)
	require.NoError(t, err)
	h2, err := FileHash(other)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Contains(t, h1, "sha256:")

	_, err = FileHash(filepath.Join(dir, "missing.pdf"))
	assert.Error(t, err)
}
