package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

type Document struct {
	ID          string           `json:"id"`
	Filename    string           `json:"filename"`
	MimeType    string           `json:"mime_type"`
	StoragePath string           `json:"storage_path"`
	Status      DocumentStatus   `json:"status"`
	Error       string           `json:"error,omitempty"`
	PageCount   int              `json:"page_count"`
	Pages       []PipelineResult `json:"pages,omitempty"`
	Summary     *DocumentSummary `json:"summary,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// PageInput is one page ready for the pipeline: either an image destined for
// OCR or, when the source PDF carries a usable text layer, the native text.
type PageInput struct {
	PageNumber int
	Image      []byte
	NativeText string
}

// OCRResult is the contract every OCR vendor adapter fulfils.
type OCRResult struct {
	Success    bool    `json:"success"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

type ComponentHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

const (
	HealthHealthy   = "healthy"
	HealthUnhealthy = "unhealthy"
)

// Document type categories. Closed set; anything else maps to CategoryOther.
const (
	CategoryOwnershipCertificate = "ownership_certificate"
	CategoryTransferLetter       = "transfer_letter"
	CategoryKYCForm              = "kyc_form"
	CategoryAuditReport          = "audit_report"
	CategoryDeliveryReceipt      = "delivery_receipt"
	CategoryLegalDocument        = "legal_document"
	CategoryFinancialTransaction = "financial_transaction"
	CategoryGovernmentService    = "government_service"
	CategoryOther                = "other"
)

var Categories = []string{
	CategoryOwnershipCertificate,
	CategoryTransferLetter,
	CategoryKYCForm,
	CategoryAuditReport,
	CategoryDeliveryReceipt,
	CategoryLegalDocument,
	CategoryFinancialTransaction,
	CategoryGovernmentService,
	CategoryOther,
}

// NormalizeCategory collapses anything outside the closed set to "other".
func NormalizeCategory(category string) string {
	for _, c := range Categories {
		if c == category {
			return category
		}
	}
	return CategoryOther
}

const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

type Classification struct {
	Category   string   `json:"category"`
	Confidence string   `json:"confidence"`
	Reason     string   `json:"reason"`
	Features   []string `json:"features,omitempty"`
}

// FallbackClassification is the classify-stage fallback.
func FallbackClassification() Classification {
	return Classification{
		Category:   CategoryOther,
		Confidence: ConfidenceLow,
		Reason:     "classification failed",
	}
}

// PipelineResult is the per-page outcome. One instance per page, immutable
// once returned.
type PipelineResult struct {
	PageNumber     int            `json:"page_number"`
	Filename       string         `json:"filename"`
	Success        bool           `json:"success"`
	ElapsedSeconds float64        `json:"elapsed_seconds"`
	OCR            OCRResult      `json:"ocr_result"`
	CleanedText    string         `json:"cleaned_text,omitempty"`
	Fields         FieldSet       `json:"extracted_fields,omitempty"`
	Classification Classification `json:"classification"`
	Error          string         `json:"error,omitempty"`
}

// DocumentSummary aggregates all pages of one document. Entity collections
// are deduplicated preserving first-seen order.
type DocumentSummary struct {
	TotalPages      int                 `json:"total_pages"`
	SuccessfulPages int                 `json:"successful_pages"`
	FailedPages     int                 `json:"failed_pages"`
	TotalElapsed    float64             `json:"total_elapsed_seconds"`
	Entities        map[string][]string `json:"extracted_entities"`
	DocumentTypes   []string            `json:"document_types"`
}

// Entity collection names within DocumentSummary.Entities.
const (
	EntityDocumentNumbers = "document_numbers"
	EntityDates           = "dates"
	EntityNames           = "names"
	EntityOrganizations   = "organizations"
)
