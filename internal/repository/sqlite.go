package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"huoltokirja/constants"
	"huoltokirja/internal/common"
	"huoltokirja/internal/entity"
)

// Store indexes processed documents, their extraction history and the
// reconciled records in a local SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and configures WAL mode.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: exec %s: %w", pragma, err)
		}
	}
	return &Store{db: db, logger: logger}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	run_id       TEXT NOT NULL,
	source_path  TEXT NOT NULL,
	status       TEXT NOT NULL,
	pages        INTEGER NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT '',
	processed_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS extraction_steps (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id TEXT NOT NULL REFERENCES documents(id),
	run_id      TEXT NOT NULL,
	step_number INTEGER NOT NULL,
	step_name   TEXT NOT NULL,
	method      TEXT NOT NULL,
	fields      TEXT NOT NULL,
	missing     TEXT NOT NULL,
	failure     TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL,
	created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
	document_id TEXT PRIMARY KEY REFERENCES documents(id),
	run_id      TEXT NOT NULL,
	fields      TEXT NOT NULL,
	absent      TEXT NOT NULL,
	provenance  TEXT NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_steps_document_id ON extraction_steps(document_id);
CREATE INDEX IF NOT EXISTS idx_steps_run_id ON extraction_steps(run_id);
`

// Migrate applies the schema. Safe to call on every startup.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, migration); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertDocument records a document and its latest processing status.
// Re-processing the same file replaces the previous row.
func (s *Store) UpsertDocument(ctx context.Context, doc entity.Document, status constants.DocStatus, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, run_id, source_path, status, pages, error, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id,
			source_path = excluded.source_path,
			status = excluded.status,
			pages = excluded.pages,
			error = excluded.error,
			processed_at = excluded.processed_at`,
		doc.ID, doc.RunID.String(), doc.SourcePath, string(status), doc.Pages, errMsg, doc.ProcessedAt.UTC(),
	)
	if err != nil {
		return common.WrapError(common.ErrDatabase, fmt.Sprintf("upsert document %s", doc.ID), err)
	}
	return nil
}

// AppendSteps stores the extraction steps of one run. History is
// append-only: earlier runs of the same document keep their rows.
func (s *Store) AppendSteps(ctx context.Context, docID string, runID uuid.UUID, steps []entity.ExtractionStep) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(common.ErrDatabase, "begin tx", err)
	}
	defer tx.Rollback()

	for _, step := range steps {
		fieldsJSON, err := json.Marshal(step.Fields)
		if err != nil {
			return fmt.Errorf("marshal step fields: %w", err)
		}
		missingJSON, err := json.Marshal(step.Missing)
		if err != nil {
			return fmt.Errorf("marshal step missing: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO extraction_steps
				(document_id, run_id, step_number, step_name, method, fields, missing, failure, duration_ms, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			docID, runID.String(), step.Number, string(step.Name), step.Method,
			string(fieldsJSON), string(missingJSON), step.Failure, step.DurationMS, step.Timestamp.UTC(),
		)
		if err != nil {
			return common.WrapError(common.ErrDatabase, fmt.Sprintf("insert step %s/%s", docID, step.Name), err)
		}
	}
	return tx.Commit()
}

// SaveRecord stores the reconciled record for a document, replacing any
// record from an earlier run.
func (s *Store) SaveRecord(ctx context.Context, docID string, runID uuid.UUID, rec entity.ReconciledRecord) error {
	fieldsJSON, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("marshal record fields: %w", err)
	}
	absentJSON, err := json.Marshal(rec.Absent)
	if err != nil {
		return fmt.Errorf("marshal record absent: %w", err)
	}
	provJSON, err := json.Marshal(rec.Provenance)
	if err != nil {
		return fmt.Errorf("marshal record provenance: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (document_id, run_id, fields, absent, provenance, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(document_id) DO UPDATE SET
			run_id = excluded.run_id,
			fields = excluded.fields,
			absent = excluded.absent,
			provenance = excluded.provenance,
			updated_at = excluded.updated_at`,
		docID, runID.String(), string(fieldsJSON), string(absentJSON), string(provJSON), time.Now().UTC(),
	)
	if err != nil {
		return common.WrapError(common.ErrDatabase, fmt.Sprintf("save record %s", docID), err)
	}
	return nil
}

// GetRecord loads the reconciled record of a document.
func (s *Store) GetRecord(ctx context.Context, docID string) (entity.ReconciledRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT fields, absent, provenance FROM records WHERE document_id = ?`, docID,
	)
	var fieldsJSON, absentJSON, provJSON string
	if err := row.Scan(&fieldsJSON, &absentJSON, &provJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.ReconciledRecord{}, common.WrapError(common.ErrNotFound, fmt.Sprintf("record %s", docID), err)
		}
		return entity.ReconciledRecord{}, common.WrapError(common.ErrDatabase, fmt.Sprintf("get record %s", docID), err)
	}
	rec := entity.ReconciledRecord{}
	if err := json.Unmarshal([]byte(fieldsJSON), &rec.Fields); err != nil {
		return entity.ReconciledRecord{}, fmt.Errorf("unmarshal record fields %s: %w", docID, err)
	}
	if err := json.Unmarshal([]byte(absentJSON), &rec.Absent); err != nil {
		return entity.ReconciledRecord{}, fmt.Errorf("unmarshal record absent %s: %w", docID, err)
	}
	if err := json.Unmarshal([]byte(provJSON), &rec.Provenance); err != nil {
		return entity.ReconciledRecord{}, fmt.Errorf("unmarshal record provenance %s: %w", docID, err)
	}
	return rec, nil
}

// DocumentRow is a summary row for listings and exports.
type DocumentRow struct {
	ID          string
	SourcePath  string
	Status      constants.DocStatus
	Pages       int
	Error       string
	ProcessedAt time.Time
}

// ListDocuments returns every indexed document ordered by id.
func (s *Store) ListDocuments(ctx context.Context) ([]DocumentRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_path, status, pages, error, processed_at FROM documents ORDER BY id`,
	)
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, "list documents", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		var r DocumentRow
		var status string
		if err := rows.Scan(&r.ID, &r.SourcePath, &status, &r.Pages, &r.Error, &r.ProcessedAt); err != nil {
			return nil, common.WrapError(common.ErrDatabase, "scan document row", err)
		}
		r.Status = constants.DocStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Steps returns the extraction history of a document across all runs,
// oldest first.
func (s *Store) Steps(ctx context.Context, docID string) ([]entity.ExtractionStep, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT step_number, step_name, method, fields, missing, failure, duration_ms, created_at
		 FROM extraction_steps WHERE document_id = ? ORDER BY id`, docID,
	)
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, fmt.Sprintf("list steps %s", docID), err)
	}
	defer rows.Close()

	var out []entity.ExtractionStep
	for rows.Next() {
		var step entity.ExtractionStep
		var name, fieldsJSON, missingJSON string
		if err := rows.Scan(&step.Number, &name, &step.Method, &fieldsJSON, &missingJSON,
			&step.Failure, &step.DurationMS, &step.Timestamp); err != nil {
			return nil, common.WrapError(common.ErrDatabase, "scan step row", err)
		}
		step.Name = constants.StepName(name)
		if err := json.Unmarshal([]byte(fieldsJSON), &step.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal step fields %s: %w", docID, err)
		}
		if err := json.Unmarshal([]byte(missingJSON), &step.Missing); err != nil {
			return nil, fmt.Errorf("unmarshal step missing %s: %w", docID, err)
		}
		out = append(out, step)
	}
	return out, rows.Err()
}
