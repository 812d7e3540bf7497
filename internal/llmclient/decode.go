// internal/llmclient/decode.go
package llmclient

import (
	"fmt"
	"strings"
)

// ExtractJSON returns the JSON document inside an oracle reply. Replies wrapped
// in a markdown code fence are unwrapped; surrounding prose is cut at the
// outermost braces.
func ExtractJSON(text string) string {
	s := strings.TrimSpace(text)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// Drop the info string, e.g. "json".
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = ""
		}
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		return s
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// DecodeJSON unwraps and decodes an oracle reply into v.
func DecodeJSON(text string, v interface{}) error {
	payload := ExtractJSON(text)
	if payload == "" {
		return fmt.Errorf("empty oracle reply")
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("malformed oracle reply: %w", err)
	}
	return nil
}
