// Package llmjson extracts JSON payloads from free-form model output.
//
// Model responses are not contractually well-formed: the object may sit in a
// ```json fence, in a generic fence, amid explanatory prose, or arrive bare.
// The parser tries a fixed strategy order and surfaces decode failures as a
// typed result so callers can apply their stage fallback instead of crashing.
package llmjson

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

const snippetLimit = 160

// ParseError reports that no strategy produced a decodable JSON object.
type ParseError struct {
	Strategy string
	Snippet  string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("llmjson: decode via %s: %v (input %q)", e.Strategy, e.Err, e.Snippet)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExtractObject locates and decodes a JSON object in raw model output.
// Strategy order, first match wins:
//  1. content between a ```json fence and the next fence
//  2. content between generic ``` fences
//  3. substring between the first '{' and the last '}'
//  4. the trimmed text verbatim when it starts with '{' and ends with '}'
//  5. the raw text itself (expected to fail, producing a ParseError)
func ExtractObject(raw string) (map[string]any, error) {
	candidate, strategy := locate(raw)

	var obj map[string]any
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil, &ParseError{Strategy: strategy, Snippet: snippet(raw), Err: err}
	}
	return obj, nil
}

func locate(raw string) (candidate, strategy string) {
	content := strings.TrimSpace(raw)

	if inner, ok := fenced(content, "```json"); ok {
		return inner, "json_fence"
	}
	if inner, ok := fenced(content, "```"); ok {
		return inner, "generic_fence"
	}
	if start, end := strings.Index(content, "{"), strings.LastIndex(content, "}"); start >= 0 && end > start {
		return strings.TrimSpace(content[start : end+1]), "brace_span"
	}
	if strings.HasPrefix(content, "{") && strings.HasSuffix(content, "}") {
		return content, "verbatim"
	}
	return content, "raw"
}

func fenced(content, marker string) (string, bool) {
	start := strings.Index(content, marker)
	if start < 0 {
		return "", false
	}
	start += len(marker)
	end := strings.Index(content[start:], "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(content[start : start+end]), true
}

func snippet(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) <= snippetLimit {
		return s
	}
	// Back up to a rune boundary so multi-byte text does not get cut
	// mid-sequence.
	cut := snippetLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
