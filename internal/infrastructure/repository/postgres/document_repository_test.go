package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/karimbenali/docpipe/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, filename, mime_type, storage_path").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDDecodesPageResultsAndSummary(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{
		"id", "filename", "mime_type", "storage_path", "status", "error_message",
		"page_count", "page_results", "summary", "created_at", "updated_at",
	}).AddRow(
		"doc-1", "contract.pdf", "application/pdf", "blobs/doc-1.pdf", "ready", "",
		1,
		[]byte(`[{"page_number":1,"success":true,"fields":{"document_number":"A-1"}}]`),
		[]byte(`{"total_pages":1,"successful_pages":1,"entities":{"document_numbers":["A-1"]}}`),
		time.Now().UTC(), time.Now().UTC(),
	)
	mock.ExpectQuery("SELECT id, filename, mime_type, storage_path").
		WithArgs("doc-1").
		WillReturnRows(rows)

	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.Status != domain.StatusReady {
		t.Fatalf("unexpected status: %s", doc.Status)
	}
	if len(doc.Pages) != 1 || doc.Pages[0].PageNumber != 1 {
		t.Fatalf("unexpected pages: %+v", doc.Pages)
	}
	value, ok := doc.Pages[0].Fields["document_number"]
	if !ok || value.Wire() != "A-1" {
		t.Fatalf("unexpected document_number: %+v", doc.Pages[0].Fields)
	}
	if doc.Summary == nil || doc.Summary.Entities["document_numbers"][0] != "A-1" {
		t.Fatalf("unexpected summary: %+v", doc.Summary)
	}
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", string(domain.StatusProcessing), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusProcessing, "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveResultsWritesJSONBColumns(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1", 2, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	pages := []domain.PipelineResult{
		{PageNumber: 1, Success: true},
		{PageNumber: 2, Success: false, Error: "OCR failed: blank page"},
	}
	summary := domain.DocumentSummary{TotalPages: 2, SuccessfulPages: 1, FailedPages: 1}
	if err := repo.SaveResults(context.Background(), "doc-1", pages, summary); err != nil {
		t.Fatalf("SaveResults() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveResultsReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", 0, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SaveResults(context.Background(), "missing", nil, domain.DocumentSummary{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}
