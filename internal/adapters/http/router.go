// Package httpadapter exposes the document pipeline over HTTP.
package httpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/karimbenali/docpipe/internal/core/domain"
	"github.com/karimbenali/docpipe/internal/core/ports"
)

// Exporter is what the router needs from the export service.
type Exporter interface {
	ExportDocumentXLSX(ctx context.Context, documentID string) ([]byte, error)
}

type Router struct {
	ingestor  ports.DocumentIngestor
	reader    ports.DocumentReader
	processor ports.TextProcessor
	analyzer  ports.FieldAnalyzer
	health    ports.HealthChecker
	exporter  Exporter

	metricsHandler http.Handler
}

func NewRouter(
	ingestor ports.DocumentIngestor,
	reader ports.DocumentReader,
	processor ports.TextProcessor,
	analyzer ports.FieldAnalyzer,
	health ports.HealthChecker,
	exporter Exporter,
	metricsHandler http.Handler,
) *Router {
	return &Router{
		ingestor:       ingestor,
		reader:         reader,
		processor:      processor,
		analyzer:       analyzer,
		health:         health,
		exporter:       exporter,
		metricsHandler: metricsHandler,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/health", rt.componentHealth)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.documentSubtree)
	mux.HandleFunc("/v1/process-text", rt.processText)
	mux.HandleFunc("/v1/reanalyze", rt.reanalyze)
	mux.HandleFunc("/v1/analyze", rt.analyzeFields)
	if rt.metricsHandler != nil {
		mux.Handle("/metrics", rt.metricsHandler)
	}
	return requestIDMiddleware(accessLogMiddleware(mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) componentHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	components := rt.health.CheckComponents(r.Context())
	status := http.StatusOK
	overall := domain.HealthHealthy
	for _, component := range components {
		if component.Status != domain.HealthHealthy {
			status = http.StatusServiceUnavailable
			overall = domain.HealthUnhealthy
			break
		}
	}
	writeJSON(w, status, map[string]any{
		"status":     overall,
		"components": components,
	})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingestor.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) documentSubtree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if rest == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	if id, ok := strings.CutSuffix(rest, "/export.xlsx"); ok {
		rt.exportDocument(w, r, id)
		return
	}
	if strings.Contains(rest, "/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	doc, err := rt.reader.GetByID(r.Context(), rest)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) exportDocument(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	data, err := rt.exporter.ExportDocumentXLSX(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (rt *Router) processText(w http.ResponseWriter, r *http.Request) {
	rt.runTextPipeline(w, r, "text-input")
}

// reanalyze reruns the pipeline on operator-edited OCR text.
func (rt *Router) reanalyze(w http.ResponseWriter, r *http.Request) {
	rt.runTextPipeline(w, r, "reanalysis")
}

func (rt *Router) runTextPipeline(w http.ResponseWriter, r *http.Request, defaultFilename string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Text       string `json:"text"`
		PageNumber int    `json:"page_number"`
		Filename   string `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}
	if req.PageNumber <= 0 {
		req.PageNumber = 1
	}
	if req.Filename == "" {
		req.Filename = defaultFilename
	}

	result := rt.processor.ProcessText(r.Context(), req.Text, req.PageNumber, req.Filename)
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) analyzeFields(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if len(req.Fields) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "fields are required"})
		return
	}

	fields := make(domain.FieldSet, len(req.Fields))
	for key, value := range req.Fields {
		fields[key] = domain.FieldValueFromWire(value)
	}

	report := rt.analyzer.AnalyzeFields(fields)
	writeJSON(w, http.StatusOK, report)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
