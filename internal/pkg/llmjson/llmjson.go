// Package llmjson pulls JSON documents out of model completions.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedJSON wraps every decode failure so callers can fall back.
var ErrMalformedJSON = errors.New("malformed model JSON")

// StripFences removes a surrounding markdown code fence (``` or ```json).
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		lang := strings.TrimSpace(s[:nl])
		if lang == "" || !strings.ContainsAny(lang, "{[\"") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Decode strips fences and unmarshals into v. When the cleaned text is not
// valid JSON it retries on the outermost object or array span.
func Decode(text string, v any) error {
	cleaned := StripFences(text)
	if cleaned == "" {
		return fmt.Errorf("%w: empty response", ErrMalformedJSON)
	}
	err := json.Unmarshal([]byte(cleaned), v)
	if err == nil {
		return nil
	}
	if span, ok := ExtractSpan(cleaned); ok && span != cleaned {
		if err2 := json.Unmarshal([]byte(span), v); err2 == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %v", ErrMalformedJSON, err)
}

// ExtractSpan returns the substring from the first '{' or '[' to the matching
// last '}' or ']'.
func ExtractSpan(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}
	closer := byte('}')
	if text[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(text, closer)
	if end <= start {
		return "", false
	}
	return text[start : end+1], true
}
