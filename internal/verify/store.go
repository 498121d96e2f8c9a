// Package verify resolves the layered precedence over already-produced
// records: reconciled output, human-verified ground truth, and manual
// overrides. It performs no extraction of its own.
package verify

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"huoltokirja/internal/entity"
)

const (
	verifiedFilename = "verified.json"
	overrideFilename = "override.json"

	// finalDataKey selects the expectation rules that apply to the merged
	// record inside a verified.json "expected_extraction" block.
	finalDataKey = "final_data"
)

// Store reads the verification workflow's per-document artifacts from
// <dir>/<docID>/. The store is read-only: the core never mutates ground
// truth or overrides.
type Store struct {
	dir    string
	logger *slog.Logger
}

func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}
}

// verified.json wire layout: expectation rules are keyed by step name, with
// "final_data" covering the merged record.
type verifiedFile struct {
	GroundTruth map[string]any                     `json:"ground_truth"`
	Expected    map[string]entity.ExpectationRules `json:"expected_extraction"`
}

type overrideFile struct {
	GroundTruth map[string]any `json:"ground_truth"`
	Reason      string         `json:"reason"`
}

// GroundTruth returns the verified record for a document, or nil when the
// document has not been verified yet.
func (s *Store) GroundTruth(docID string) (*entity.GroundTruthRecord, error) {
	path := filepath.Join(s.dir, docID, verifiedFilename)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var vf verifiedFile
	if err := json.Unmarshal(raw, &vf); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	rec := &entity.GroundTruthRecord{Fields: vf.GroundTruth}
	if rules, ok := vf.Expected[finalDataKey]; ok {
		rec.Rules = &rules
	}
	s.logger.Debug("verify.ground_truth.loaded", "document_id", docID, "fields", len(rec.Fields), "has_rules", rec.Rules != nil)
	return rec, nil
}

// Override returns the manual correction delta for a document, or nil when
// none exists.
func (s *Store) Override(docID string) (*entity.OverrideRecord, error) {
	path := filepath.Join(s.dir, docID, overrideFilename)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var of overrideFile
	if err := json.Unmarshal(raw, &of); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	s.logger.Debug("verify.override.loaded", "document_id", docID, "fields", len(of.GroundTruth), "reason", of.Reason)
	return &entity.OverrideRecord{Fields: of.GroundTruth, Reason: of.Reason}, nil
}

// Documents lists the document IDs present in the verified store.
func (s *Store) Documents() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read verified dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
