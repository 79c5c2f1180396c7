package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/karimbenali/docpipe/internal/core/domain"
	"github.com/karimbenali/docpipe/internal/core/ports"
)

// PageObserver receives one observation per finished page and per OCR call.
// Implemented by the Prometheus metrics of each binary; nil disables
// recording, like the pipeline's StageObserver.
type PageObserver interface {
	ObservePage(success bool)
	ObserveOCR(duration time.Duration)
}

// ProcessDocumentUseCase orchestrates per-page processing: OCR via the
// external collaborator, then the LLM pipeline, then aggregation.
type ProcessDocumentUseCase struct {
	repo     ports.DocumentRepository
	storage  ports.ObjectStorage
	splitter ports.PageSplitter
	ocr      ports.OCRClient
	pipeline *Pipeline
	logger   *slog.Logger
	observer PageObserver

	pageWorkers int
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	splitter ports.PageSplitter,
	ocr ports.OCRClient,
	pipeline *Pipeline,
	logger *slog.Logger,
	observer PageObserver,
	pageWorkers int,
) *ProcessDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	if pageWorkers <= 0 {
		pageWorkers = 3
	}
	return &ProcessDocumentUseCase{
		repo:        repo,
		storage:     storage,
		splitter:    splitter,
		ocr:         ocr,
		pipeline:    pipeline,
		logger:      logger,
		observer:    observer,
		pageWorkers: pageWorkers,
	}
}

// ProcessByID drives the whole document lifecycle for the worker: load,
// split into pages, process pages concurrently, aggregate, persist.
func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	pages, summary, err := uc.processDocument(ctx, documentID)
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SaveResults(ctx, documentID, pages, summary); err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return fmt.Errorf("save results: %w", err)
	}

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) processDocument(ctx context.Context, documentID string) ([]domain.PipelineResult, domain.DocumentSummary, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, domain.DocumentSummary{}, fmt.Errorf("fetch document by id: %w", err)
	}

	reader, err := uc.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, domain.DocumentSummary{}, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, domain.DocumentSummary{}, fmt.Errorf("read source document: %w", err)
	}

	inputs, err := uc.splitter.Split(ctx, doc.Filename, data)
	if err != nil {
		return nil, domain.DocumentSummary{}, fmt.Errorf("split document pages: %w", err)
	}
	if len(inputs) == 0 {
		return nil, domain.DocumentSummary{}, domain.WrapError(domain.ErrInvalidInput, "split document pages", fmt.Errorf("no pages in %s", doc.Filename))
	}

	results := uc.processPages(ctx, doc.Filename, inputs)
	return results, Summarize(results), nil
}

// processPages runs up to pageWorkers pages at a time. A cancelled context
// stops scheduling; pages that never ran simply do not appear in the output.
func (uc *ProcessDocumentUseCase) processPages(ctx context.Context, filename string, inputs []domain.PageInput) []domain.PipelineResult {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make([]domain.PipelineResult, 0, len(inputs))
	)
	sem := make(chan struct{}, uc.pageWorkers)

	for _, input := range inputs {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(in domain.PageInput) {
			defer wg.Done()
			defer func() { <-sem }()

			var result domain.PipelineResult
			if in.NativeText != "" {
				result = uc.ProcessText(ctx, in.NativeText, in.PageNumber, filename)
			} else {
				result = uc.ProcessPage(ctx, in.Image, in.PageNumber, filename)
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}(input)
	}
	wg.Wait()

	// Restore page order lost to concurrency.
	sortResultsByPage(results)
	return results
}

// ProcessPage processes a single page image: OCR first, LLM stages after.
// OCR failure short-circuits with success=false and no model calls.
func (uc *ProcessDocumentUseCase) ProcessPage(ctx context.Context, image []byte, pageNumber int, filename string) (result domain.PipelineResult) {
	start := time.Now()
	result = domain.PipelineResult{PageNumber: pageNumber, Filename: filename}
	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Sprintf("page processing panic: %v", r)
			uc.logger.Error("page_processing_panic", "page", pageNumber, "panic", r)
		}
		result.ElapsedSeconds = time.Since(start).Seconds()
		uc.observePage(result.Success)
	}()

	ocrStart := time.Now()
	ocrResult, err := uc.ocr.ExtractText(ctx, image)
	uc.observeOCR(time.Since(ocrStart))
	if err != nil {
		ocrResult = domain.OCRResult{Success: false, Error: err.Error()}
	}
	result.OCR = ocrResult
	if !ocrResult.Success {
		result.Error = "OCR failed: " + ocrResult.Error
		return result
	}

	uc.runStages(ctx, ocrResult.Text, &result)
	return result
}

// ProcessText runs the LLM stages on text that already exists (direct text
// input, re-analysis of edited OCR output, or a native PDF text layer).
func (uc *ProcessDocumentUseCase) ProcessText(ctx context.Context, text string, pageNumber int, filename string) (result domain.PipelineResult) {
	start := time.Now()
	result = domain.PipelineResult{
		PageNumber: pageNumber,
		Filename:   filename,
		OCR:        domain.OCRResult{Success: true, Text: text, Confidence: 1},
	}
	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Sprintf("page processing panic: %v", r)
			uc.logger.Error("page_processing_panic", "page", pageNumber, "panic", r)
		}
		result.ElapsedSeconds = time.Since(start).Seconds()
		uc.observePage(result.Success)
	}()

	uc.runStages(ctx, text, &result)
	return result
}

func (uc *ProcessDocumentUseCase) observePage(success bool) {
	if uc.observer != nil {
		uc.observer.ObservePage(success)
	}
}

func (uc *ProcessDocumentUseCase) observeOCR(duration time.Duration) {
	if uc.observer != nil {
		uc.observer.ObserveOCR(duration)
	}
}

func (uc *ProcessDocumentUseCase) runStages(ctx context.Context, text string, result *domain.PipelineResult) {
	out := uc.pipeline.Run(ctx, text)
	result.CleanedText = out.CleanedText
	result.Fields = out.Fields
	result.Classification = out.Classification
	result.Success = true
}

func sortResultsByPage(results []domain.PipelineResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].PageNumber < results[j].PageNumber
	})
}
