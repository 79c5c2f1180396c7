package ports

import (
	"context"
	"io"

	"github.com/karimbenali/docpipe/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// TextProcessor runs the LLM pipeline on text that already exists, without OCR.
type TextProcessor interface {
	ProcessText(ctx context.Context, text string, pageNumber int, filename string) domain.PipelineResult
}

// FieldAnalyzer computes a consistency report for an extracted field set.
type FieldAnalyzer interface {
	AnalyzeFields(fields domain.FieldSet) domain.ConsistencyReport
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// HealthChecker probes the external collaborators.
type HealthChecker interface {
	CheckComponents(ctx context.Context) map[string]domain.ComponentHealth
}
