// Package groq talks to the Groq OpenAI-compatible chat-completions API,
// the completion transport behind every pipeline stage.
package groq

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/karimbenali/docpipe/internal/core/domain"
	"github.com/karimbenali/docpipe/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
	logger     *slog.Logger

	temperature float64
	maxTokens   int
}

type Options struct {
	Timeout            time.Duration
	Temperature        float64
	MaxTokens          int
	RequestsPerSecond  float64
	ResilienceExecutor *resilience.Executor
	Logger             *slog.Logger
}

func New(baseURL, apiKey, model string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxTokens := options.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	rps := options.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		executor:    options.ResilienceExecutor,
		logger:      logger,
		temperature: options.Temperature,
		maxTokens:   maxTokens,
	}
}

// Complete sends a single-turn completion. The role tag only feeds logs and
// the resilience operation label.
func (c *Client) Complete(ctx context.Context, prompt, role string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm rate limiter: %w", err)
	}

	var content string
	call := func(callCtx context.Context) error {
		out, err := c.complete(callCtx, prompt)
		if err != nil {
			return err
		}
		content = out
		return nil
	}

	start := time.Now()
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "llm."+role, call, classifyGroqError)
	} else {
		err = call(ctx)
	}

	c.logger.Debug("llm_complete",
		"role", role,
		"prompt_chars", len(prompt),
		"elapsed_ms", float64(time.Since(start).Microseconds())/1000.0,
		"error", err,
	)
	if err != nil {
		return "", wrapTemporaryIfNeeded("llm."+role, err)
	}
	return content, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	request := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  c.maxTokens,
		"temperature": c.temperature,
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.postJSON(ctx, "/openai/v1/chat/completions", request, &response, "complete"); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("groq complete: empty choices")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// HealthCheck exercises the completion path with a trivial prompt.
func (c *Client) HealthCheck(ctx context.Context) domain.ComponentHealth {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := c.complete(probeCtx, "اختبار الاتصال - قل مرحبا"); err != nil {
		return domain.ComponentHealth{Status: domain.HealthUnhealthy, Error: err.Error()}
	}
	return domain.ComponentHealth{Status: domain.HealthHealthy}
}
