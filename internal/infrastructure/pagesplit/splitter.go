// Package pagesplit turns an uploaded document into per-page pipeline inputs.
// PDFs with a usable embedded text layer skip rasterization and OCR entirely;
// scanned PDFs are rasterized one image per page; single images pass through.
package pagesplit

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/karimbenali/docpipe/internal/core/domain"
	"github.com/karimbenali/docpipe/internal/core/ports"
)

// minNativeTextChars is the per-page threshold below which an embedded text
// layer is considered decorative (page numbers, stamps) rather than content.
const minNativeTextChars = 40

type Splitter struct {
	rasterizer ports.PageRasterizer
	logger     *slog.Logger
}

func New(rasterizer ports.PageRasterizer, logger *slog.Logger) *Splitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Splitter{rasterizer: rasterizer, logger: logger}
}

func (s *Splitter) Split(ctx context.Context, filename string, data []byte) ([]domain.PageInput, error) {
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return []domain.PageInput{{PageNumber: 1, Image: data}}, nil
	}

	texts, err := nativePageTexts(data)
	if err != nil {
		s.logger.Warn("pdf_text_probe_failed", "filename", filename, "error", err)
	} else if usableTextLayer(texts) {
		s.logger.Info("pdf_native_text_layer", "filename", filename, "pages", len(texts))
		pages := make([]domain.PageInput, 0, len(texts))
		for i, text := range texts {
			pages = append(pages, domain.PageInput{PageNumber: i + 1, NativeText: text})
		}
		return pages, nil
	}

	images, err := s.rasterizer.Rasterize(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("rasterize pdf: %w", err)
	}
	pages := make([]domain.PageInput, 0, len(images))
	for i, image := range images {
		pages = append(pages, domain.PageInput{PageNumber: i + 1, Image: image})
	}
	return pages, nil
}

// nativePageTexts extracts the embedded text layer of every page. A parse
// failure on any page fails the probe; the caller falls back to rasterizing.
func nativePageTexts(data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	total := reader.NumPage()
	if total == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	texts := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			return nil, fmt.Errorf("page %d is unreadable", i)
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract text from page %d: %w", i, err)
		}
		texts = append(texts, strings.TrimSpace(text))
	}
	return texts, nil
}

// usableTextLayer requires every page to carry substantive text. A single
// scanned page means the whole document goes through OCR so page numbering
// stays aligned with one processing mode.
func usableTextLayer(texts []string) bool {
	if len(texts) == 0 {
		return false
	}
	for _, text := range texts {
		if len([]rune(text)) < minNativeTextChars {
			return false
		}
	}
	return true
}
