package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/karimbenali/docpipe/internal/core/domain"
)

type fakeIngestor struct {
	doc *domain.Document
	err error
}

func (f *fakeIngestor) Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error) {
	return f.doc, f.err
}

type fakeReader struct {
	doc *domain.Document
	err error
}

func (f *fakeReader) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	return f.doc, f.err
}

type fakeProcessor struct {
	lastText     string
	lastFilename string
	result       domain.PipelineResult
}

func (f *fakeProcessor) ProcessText(ctx context.Context, text string, pageNumber int, filename string) domain.PipelineResult {
	f.lastText = text
	f.lastFilename = filename
	return f.result
}

type fakeAnalyzer struct {
	lastFields domain.FieldSet
	report     domain.ConsistencyReport
}

func (f *fakeAnalyzer) AnalyzeFields(fields domain.FieldSet) domain.ConsistencyReport {
	f.lastFields = fields
	return f.report
}

type fakeHealth struct {
	components map[string]domain.ComponentHealth
}

func (f *fakeHealth) CheckComponents(ctx context.Context) map[string]domain.ComponentHealth {
	return f.components
}

type fakeExporter struct {
	data []byte
	err  error
}

func (f *fakeExporter) ExportDocumentXLSX(ctx context.Context, documentID string) ([]byte, error) {
	return f.data, f.err
}

func newTestRouter(
	ingestor *fakeIngestor,
	reader *fakeReader,
	processor *fakeProcessor,
	analyzer *fakeAnalyzer,
	health *fakeHealth,
	exporter *fakeExporter,
) http.Handler {
	if ingestor == nil {
		ingestor = &fakeIngestor{}
	}
	if reader == nil {
		reader = &fakeReader{}
	}
	if processor == nil {
		processor = &fakeProcessor{}
	}
	if analyzer == nil {
		analyzer = &fakeAnalyzer{}
	}
	if health == nil {
		health = &fakeHealth{components: map[string]domain.ComponentHealth{}}
	}
	if exporter == nil {
		exporter = &fakeExporter{}
	}
	return NewRouter(ingestor, reader, processor, analyzer, health, exporter, nil).Handler()
}

func multipartUpload(t *testing.T, filename string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("file content"))
	_ = writer.Close()
	return body, writer.FormDataContentType()
}

func TestUploadDocumentReturnsAccepted(t *testing.T) {
	ingestor := &fakeIngestor{doc: &domain.Document{ID: "doc-1", Status: domain.StatusUploaded}}
	handler := newTestRouter(ingestor, nil, nil, nil, nil, nil)

	body, contentType := multipartUpload(t, "scan.pdf")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var doc domain.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if doc.ID != "doc-1" || doc.Status != domain.StatusUploaded {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestUploadDocumentMapsInvalidInputTo400(t *testing.T) {
	ingestor := &fakeIngestor{err: domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("unsupported extension"))}
	handler := newTestRouter(ingestor, nil, nil, nil, nil, nil)

	body, contentType := multipartUpload(t, "notes.txt")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetDocumentMapsNotFoundTo404(t *testing.T) {
	reader := &fakeReader{err: domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New("id missing"))}
	handler := newTestRouter(nil, reader, nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestExportDocumentSetsWorkbookHeaders(t *testing.T) {
	exporter := &fakeExporter{data: []byte("workbook-bytes")}
	handler := newTestRouter(nil, nil, nil, nil, nil, exporter)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1/export.xlsx", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "spreadsheetml") {
		t.Fatalf("unexpected content type: %q", got)
	}
	if rec.Body.String() != "workbook-bytes" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestProcessTextRequiresText(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/process-text", strings.NewReader(`{"text":"  "}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestProcessTextRunsPipeline(t *testing.T) {
	processor := &fakeProcessor{result: domain.PipelineResult{PageNumber: 1, Success: true, CleanedText: "نص"}}
	handler := newTestRouter(nil, nil, processor, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/process-text", strings.NewReader(`{"text":"نص خام"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if processor.lastText != "نص خام" {
		t.Fatalf("pipeline got %q", processor.lastText)
	}
	if processor.lastFilename != "text-input" {
		t.Fatalf("unexpected default filename: %q", processor.lastFilename)
	}
}

func TestReanalyzeUsesReanalysisFilename(t *testing.T) {
	processor := &fakeProcessor{result: domain.PipelineResult{Success: true}}
	handler := newTestRouter(nil, nil, processor, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/reanalyze", strings.NewReader(`{"text":"نص معدل","page_number":2}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if processor.lastFilename != "reanalysis" {
		t.Fatalf("unexpected filename: %q", processor.lastFilename)
	}
}

func TestAnalyzeFieldsDecodesWireValues(t *testing.T) {
	analyzer := &fakeAnalyzer{report: domain.ConsistencyReport{OverallStatus: "consistent"}}
	handler := newTestRouter(nil, nil, nil, analyzer, nil, nil)

	payload := `{"fields":{"document_number":"A-1","date":"unavailable"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if analyzer.lastFields["document_number"].Kind != domain.FieldPresent {
		t.Fatalf("document_number should be present: %+v", analyzer.lastFields)
	}
	if analyzer.lastFields["date"].Kind != domain.FieldMissing {
		t.Fatalf("sentinel should decode as missing: %+v", analyzer.lastFields["date"])
	}
}

func TestComponentHealthDegradesTo503(t *testing.T) {
	health := &fakeHealth{components: map[string]domain.ComponentHealth{
		"ocr": {Status: domain.HealthHealthy},
		"llm": {Status: domain.HealthUnhealthy, Error: "connection refused"},
	}}
	handler := newTestRouter(nil, nil, nil, nil, health, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestRouter(nil, nil, nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/process-text", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
