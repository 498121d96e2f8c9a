package repository

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"huoltokirja/constants"
	"huoltokirja/internal/entity"
)

const (
	dataFilename = "data.json"
	ocrFilename  = "ocr.txt"

	// PipelineVersion is stamped into every artifact so stale outputs
	// can be detected after a format change.
	PipelineVersion = "2.0.0"
)

// Artifact is the per-document output written next to the OCR text.
// Consumers read final_data; processing_steps and metadata exist for
// auditing how each value was obtained.
type Artifact struct {
	FinalData       map[string]any          `json:"final_data"`
	ProcessingSteps []entity.ExtractionStep `json:"processing_steps"`
	Metadata        ArtifactMetadata        `json:"metadata"`
}

// ArtifactMetadata describes the run that produced an artifact.
type ArtifactMetadata struct {
	SourceFile      string                        `json:"source_file"`
	FileHash        string                        `json:"file_hash,omitempty"`
	ProcessedAt     time.Time                     `json:"processed_at"`
	PipelineVersion string                        `json:"pipeline_version"`
	FieldSources    map[string]constants.StepName `json:"field_sources"`
	AbsentFields    []string                      `json:"absent_fields"`
	TotalDurationMS int64                         `json:"total_duration_ms"`
	Error           string                        `json:"error,omitempty"`
}

// Artifacts reads and writes per-document output directories under root.
type Artifacts struct {
	root string
}

func NewArtifacts(root string) *Artifacts {
	return &Artifacts{root: root}
}

// Dir returns the output directory for a document.
func (a *Artifacts) Dir(docID string) string {
	return filepath.Join(a.root, docID)
}

// Write stores the artifact and the raw OCR text for a document,
// creating the directory as needed.
func (a *Artifacts) Write(docID string, art Artifact, ocrText string) error {
	dir := a.Dir(docID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact %s: %w", docID, err)
	}
	if err := os.WriteFile(filepath.Join(dir, dataFilename), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dataFilename, err)
	}

	if ocrText != "" {
		if err := os.WriteFile(filepath.Join(dir, ocrFilename), []byte(ocrText), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", ocrFilename, err)
		}
	}
	return nil
}

// Read loads a previously written artifact.
func (a *Artifacts) Read(docID string) (Artifact, error) {
	data, err := os.ReadFile(filepath.Join(a.Dir(docID), dataFilename))
	if err != nil {
		return Artifact{}, fmt.Errorf("read artifact %s: %w", docID, err)
	}
	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return Artifact{}, fmt.Errorf("unmarshal artifact %s: %w", docID, err)
	}
	return art, nil
}

// OCRText loads the stored OCR text of a document, if any.
func (a *Artifacts) OCRText(docID string) (string, error) {
	data, err := os.ReadFile(filepath.Join(a.Dir(docID), ocrFilename))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FileHash returns the sha256 of a file, prefixed with the algorithm.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return fmt.Sprintf("sha256:%x", h.Sum(nil)), nil
}
