package ports

import (
	"context"
	"io"

	"github.com/karimbenali/docpipe/internal/core/domain"
)

// OCRClient is the vendor-agnostic OCR collaborator contract. Adapters exist
// for the hosted QARI model and for Google Cloud Vision.
type OCRClient interface {
	ExtractText(ctx context.Context, image []byte) (domain.OCRResult, error)
	HealthCheck(ctx context.Context) domain.ComponentHealth
}

// LLMClient is the completion transport. The role tag is advisory only: it
// shows up in logs and metrics, never alters behavior.
type LLMClient interface {
	Complete(ctx context.Context, prompt, role string) (string, error)
	HealthCheck(ctx context.Context) domain.ComponentHealth
}

// PageRasterizer turns a PDF into one image per page. Rasterization is an
// external collaborator; only the contract lives here.
type PageRasterizer interface {
	Rasterize(ctx context.Context, pdf []byte) ([][]byte, error)
}

// PageSplitter inspects an uploaded document and yields per-page inputs,
// using the native text layer when one is usable.
type PageSplitter interface {
	Split(ctx context.Context, filename string, data []byte) ([]domain.PageInput, error)
}

// DocumentRepository persists document state, per-page results and summaries.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveResults(ctx context.Context, id string, pages []domain.PipelineResult, summary domain.DocumentSummary) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}
