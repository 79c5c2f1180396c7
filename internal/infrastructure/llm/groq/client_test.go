package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/karimbenali/docpipe/internal/core/domain"
)

func TestCompleteSendsPromptAndBearerToken(t *testing.T) {
	var capturedAuth string
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		capturedAuth = r.Header.Get("Authorization")
		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(payload.Messages) == 1 {
			capturedPrompt = payload.Messages[0].Content
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  نص منظف  "}}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "test-key", "llama-3.3-70b-versatile", Options{})
	out, err := client.Complete(context.Background(), "نظف هذا النص", "ocr_cleaner")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != "نص منظف" {
		t.Fatalf("expected trimmed content, got %q", out)
	}
	if capturedAuth != "Bearer test-key" {
		t.Fatalf("unexpected authorization header: %q", capturedAuth)
	}
	if !strings.Contains(capturedPrompt, "نظف هذا النص") {
		t.Fatalf("unexpected prompt: %s", capturedPrompt)
	}
}

func TestCompleteIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model decommissioned", http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(server.URL, "key", "model", Options{})
	_, err := client.Complete(context.Background(), "prompt", "entity_extractor")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model decommissioned") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestCompleteWrapsRetryableStatusAsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, "key", "model", Options{})
	_, err := client.Complete(context.Background(), "prompt", "data_reviewer")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
}

func TestHealthCheckReportsUnhealthyOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New(server.URL, "bad-key", "model", Options{})
	health := client.HealthCheck(context.Background())
	if health.Status != domain.HealthUnhealthy {
		t.Fatalf("expected unhealthy, got %q", health.Status)
	}
	if health.Error == "" {
		t.Fatalf("expected error detail")
	}
}
