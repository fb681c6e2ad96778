package plan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError reports a raw plan payload that could not be understood.
// It aborts the current generation request but nothing beyond it.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plan parse: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("plan parse: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExtractJSON pulls the first JSON object out of model-generated text.
// Responses are untrusted: they commonly arrive wrapped in markdown code
// fences or preceded by prose, so this scans for the first balanced
// top-level object instead of trusting the whole string.
func ExtractJSON(text string) (string, error) {
	s := strings.TrimSpace(text)

	// Strip a markdown code fence if the whole payload is fenced.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", &ParseError{Reason: "no JSON object found in response"}
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", &ParseError{Reason: "unbalanced JSON object in response"}
}

// decodeRaw extracts and unmarshals the raw payload into a generic map.
func decodeRaw(text string) (map[string]any, error) {
	blob, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, &ParseError{Reason: "invalid JSON", Err: err}
	}
	return raw, nil
}
