// Package googlevision is the fallback text-recognition engine, used when
// the primary OCR service is unavailable.
package googlevision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/karimbenali/docpipe/internal/core/domain"
)

const defaultEndpoint = "https://vision.googleapis.com/v1/images:annotate"

type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint:   defaultEndpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// NewWithEndpoint exists for tests against a local server.
func NewWithEndpoint(endpoint, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	client := New(apiKey, timeout, logger)
	client.endpoint = strings.TrimRight(endpoint, "/")
	return client
}

func (c *Client) ExtractText(ctx context.Context, image []byte) (domain.OCRResult, error) {
	request := map[string]any{
		"requests": []map[string]any{
			{
				"image": map[string]string{
					"content": base64.StdEncoding.EncodeToString(image),
				},
				"features": []map[string]any{
					{"type": "TEXT_DETECTION"},
				},
				"imageContext": map[string]any{
					"languageHints": []string{"ar"},
				},
			},
		},
	}
	body, err := json.Marshal(request)
	if err != nil {
		return domain.OCRResult{}, fmt.Errorf("marshal annotate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+c.apiKey, bytes.NewReader(body))
	if err != nil {
		return domain.OCRResult{}, fmt.Errorf("create annotate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.OCRResult{}, fmt.Errorf("vision annotate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return domain.OCRResult{}, fmt.Errorf("vision annotate status: %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var payload struct {
		Responses []struct {
			FullTextAnnotation struct {
				Text string `json:"text"`
			} `json:"fullTextAnnotation"`
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		} `json:"responses"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.OCRResult{}, fmt.Errorf("decode annotate response: %w", err)
	}
	if len(payload.Responses) == 0 {
		return domain.OCRResult{}, fmt.Errorf("vision annotate: empty responses")
	}

	first := payload.Responses[0]
	c.logger.Debug("vision_annotate",
		"text_chars", len(first.FullTextAnnotation.Text),
		"elapsed_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	if first.Error.Message != "" {
		return domain.OCRResult{Success: false, Error: first.Error.Message}, nil
	}

	text := strings.TrimSpace(first.FullTextAnnotation.Text)
	if text == "" {
		return domain.OCRResult{Success: false, Error: "no text detected"}, nil
	}
	// The annotate response carries no document-level confidence; treat a
	// non-empty detection as trustworthy.
	return domain.OCRResult{Success: true, Text: text, Confidence: 0.9}, nil
}

// HealthCheck only validates configuration. Probing the billed API on every
// health poll would be wasteful.
func (c *Client) HealthCheck(ctx context.Context) domain.ComponentHealth {
	if strings.TrimSpace(c.apiKey) == "" {
		return domain.ComponentHealth{Status: domain.HealthUnhealthy, Error: "api key not configured"}
	}
	return domain.ComponentHealth{Status: domain.HealthHealthy}
}
