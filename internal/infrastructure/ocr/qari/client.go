// Package qari is the client for the self-hosted Qari OCR service, the
// primary text-recognition engine for Arabic document scans.
package qari

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/karimbenali/docpipe/internal/core/domain"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ExtractText uploads a page image and returns the recognized text. A
// failed recognition is reported inside the result, not as an error, so
// the caller can record the page outcome.
func (c *Client) ExtractText(ctx context.Context, image []byte) (domain.OCRResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "page.png")
	if err != nil {
		return domain.OCRResult{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return domain.OCRResult{}, fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return domain.OCRResult{}, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract-text", body)
	if err != nil {
		return domain.OCRResult{}, fmt.Errorf("create extract request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.OCRResult{}, fmt.Errorf("qari extract request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return domain.OCRResult{}, fmt.Errorf("qari extract status: %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var payload struct {
		Success    bool    `json:"success"`
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
		Error      string  `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.OCRResult{}, fmt.Errorf("decode extract response: %w", err)
	}

	c.logger.Debug("qari_extract",
		"success", payload.Success,
		"text_chars", len(payload.Text),
		"confidence", payload.Confidence,
		"elapsed_ms", float64(time.Since(start).Microseconds())/1000.0,
	)

	return domain.OCRResult{
		Success:    payload.Success,
		Text:       payload.Text,
		Confidence: payload.Confidence,
		Error:      payload.Error,
	}, nil
}

func (c *Client) HealthCheck(ctx context.Context) domain.ComponentHealth {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return domain.ComponentHealth{Status: domain.HealthUnhealthy, Error: err.Error()}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ComponentHealth{Status: domain.HealthUnhealthy, Error: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.ComponentHealth{Status: domain.HealthUnhealthy, Error: "qari health status: " + resp.Status}
	}
	return domain.ComponentHealth{Status: domain.HealthHealthy}
}
