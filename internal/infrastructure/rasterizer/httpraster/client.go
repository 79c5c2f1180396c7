// Package httpraster calls the external PDF-to-image converter service.
package httpraster

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
)

type Client struct {
	baseURL    string
	dpi        int
	httpClient *http.Client
	logger     *slog.Logger
}

func New(baseURL string, dpi int, timeout time.Duration, logger *slog.Logger) *Client {
	if dpi <= 0 {
		dpi = 200
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		dpi:        dpi,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Rasterize posts the PDF and returns one PNG per page, in page order.
func (c *Client) Rasterize(ctx context.Context, pdf []byte) ([][]byte, error) {
	url := fmt.Sprintf("%s/rasterize?dpi=%d", c.baseURL, c.dpi)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(pdf))
	if err != nil {
		return nil, fmt.Errorf("create rasterize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rasterize request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("rasterize status: %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var payload struct {
		Pages []string `json:"pages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode rasterize response: %w", err)
	}
	if len(payload.Pages) == 0 {
		return nil, fmt.Errorf("rasterize: converter returned no pages")
	}

	images := make([][]byte, 0, len(payload.Pages))
	for i, encoded := range payload.Pages {
		image, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode page %d image: %w", i+1, err)
		}
		images = append(images, image)
	}

	c.logger.Debug("pdf_rasterized",
		"pages", len(images),
		"dpi", c.dpi,
		"elapsed_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	return images, nil
}
