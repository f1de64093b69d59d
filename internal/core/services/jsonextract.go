package services

import (
	"encoding/json"
	"strings"
)

// ExtractJSON parses the formatter stage's semi-structured output. The model
// usually wraps its JSON in a fenced code block; sometimes it embeds the
// object in surrounding prose. Extraction never fails hard: when no parseable
// object is found the raw text is preserved under an error marker so the run
// can still complete.
func ExtractJSON(raw string) map[string]any {
	cleaned := stripFence(raw)

	var out map[string]any
	if err := json.Unmarshal([]byte(cleaned), &out); err == nil {
		return out
	}

	if inner := firstJSONObject(cleaned); inner != "" {
		if err := json.Unmarshal([]byte(inner), &out); err == nil {
			return out
		}
	}

	return map[string]any{
		"error":      "Invalid JSON format",
		"raw_output": raw,
	}
}

// stripFence removes a leading ```json (or bare ```) marker and a trailing
// ``` marker, if present.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// firstJSONObject scans for the first balanced brace-delimited substring,
// tracking string literals and escapes so braces inside values don't
// terminate the scan early.
func firstJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inStr := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inStr {
			escaped = true
			continue
		}
		if ch == '"' {
			inStr = !inStr
			continue
		}
		if inStr {
			continue
		}
		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
