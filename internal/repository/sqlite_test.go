package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huoltokirja/constants"
	"huoltokirja/internal/common"
	"huoltokirja/internal/entity"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testDoc(id string) entity.Document {
	return entity.Document{
		ID:          id,
		RunID:       uuid.New(),
		SourcePath:  "/receipts/" + id,
		Pages:       1,
		ProcessedAt: time.Now().UTC(),
	}
}

func TestUpsertDocumentReplacesStatus(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	doc := testDoc("receipt1.pdf")

	require.NoError(t, s.UpsertDocument(ctx, doc, constants.DocStatusRunning, ""))
	require.NoError(t, s.UpsertDocument(ctx, doc, constants.DocStatusParsed, ""))

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, constants.DocStatusParsed, docs[0].Status)
	assert.Equal(t, "/receipts/receipt1.pdf", docs[0].SourcePath)
}

func TestAppendStepsKeepsHistory(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	doc := testDoc("receipt2.pdf")
	require.NoError(t, s.UpsertDocument(ctx, doc, constants.DocStatusParsed, ""))

	first := []entity.ExtractionStep{
		{Name: constants.StepOCR, Number: 1, Timestamp: time.Now().UTC(), Method: "pdf-text", Fields: map[string]any{}, Missing: constants.Schema()},
		{Name: constants.StepParsing, Number: 2, Timestamp: time.Now().UTC(), Method: "pattern", Fields: map[string]any{constants.FieldAmount: 240.00}, Missing: []string{constants.FieldDate}},
	}
	require.NoError(t, s.AppendSteps(ctx, doc.ID, doc.RunID, first))

	second := []entity.ExtractionStep{
		{Name: constants.StepOCR, Number: 1, Timestamp: time.Now().UTC(), Method: "pdf-ocr", Fields: map[string]any{}, Missing: constants.Schema(), Failure: entity.FailureServiceUnavailable},
	}
	require.NoError(t, s.AppendSteps(ctx, doc.ID, uuid.New(), second))

	steps, err := s.Steps(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, constants.StepOCR, steps[0].Name)
	assert.Equal(t, 240.00, steps[1].Fields[constants.FieldAmount])
	assert.Equal(t, []string{constants.FieldDate}, steps[1].Missing)
	assert.Equal(t, entity.FailureServiceUnavailable, steps[2].Failure)
}

func TestSaveAndGetRecord(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	doc := testDoc("receipt3.pdf")
	require.NoError(t, s.UpsertDocument(ctx, doc, constants.DocStatusParsed, ""))

	rec := entity.NewReconciledRecord()
	rec.Set(constants.FieldDate, "2023-05-04", constants.StepParsing)
	rec.Set(constants.FieldAmount, 240.00, constants.StepLLMExtraction)
	require.NoError(t, s.SaveRecord(ctx, doc.ID, doc.RunID, rec))

	got, err := s.GetRecord(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "2023-05-04", got.Fields[constants.FieldDate])
	assert.Equal(t, 240.00, got.Fields[constants.FieldAmount])
	assert.Equal(t, constants.StepLLMExtraction, got.Provenance[constants.FieldAmount])
	assert.Contains(t, got.Absent, constants.FieldVATAmount)
	assert.NotContains(t, got.Absent, constants.FieldDate)
}

func TestGetRecordNotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.GetRecord(context.Background(), "nope.pdf")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSaveRecordReplacesEarlierRun(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	doc := testDoc("receipt4.pdf")
	require.NoError(t, s.UpsertDocument(ctx, doc, constants.DocStatusParsed, ""))

	first := entity.NewReconciledRecord()
	first.Set(constants.FieldAmount, 1.00, constants.StepParsing)
	require.NoError(t, s.SaveRecord(ctx, doc.ID, doc.RunID, first))

	second := entity.NewReconciledRecord()
	second.Set(constants.FieldAmount, 240.00, constants.StepParsing)
	require.NoError(t, s.SaveRecord(ctx, doc.ID, uuid.New(), second))

	got, err := s.GetRecord(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 240.00, got.Fields[constants.FieldAmount])
}
