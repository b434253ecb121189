// Helpers for extracting JSON from model replies
package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencePatterns = []*regexp.Regexp{
	regexp.MustCompile("(?i)```json\\s*([\\s\\S]*?)```"),
	regexp.MustCompile("```\\w*\\s*([\\s\\S]*?)```"),
	regexp.MustCompile("`([^`]+)`"),
}

// ExtractJSONFromResponse pulls a JSON object or array out of a model reply
// that may wrap it in markdown fences or surrounding prose. The original text
// is returned unchanged when no JSON can be found.
func ExtractJSONFromResponse(text string) string {
	text = strings.TrimSpace(text)

	for _, pattern := range fencePatterns {
		if matches := pattern.FindStringSubmatch(text); len(matches) > 1 {
			candidate := strings.TrimSpace(matches[1])
			if isValidJSON(candidate) {
				return candidate
			}
		}
	}

	// No usable fence; scan for a balanced top-level object or array.
	for _, open := range []byte{'{', '['} {
		if candidate := findBalancedJSON(text, open); candidate != "" && isValidJSON(candidate) {
			return candidate
		}
	}

	return text
}

// ExtractJSONToStruct extracts JSON from a model reply and unmarshals it into
// out, which must be a pointer.
func ExtractJSONToStruct(response string, out interface{}) error {
	jsonStr := ExtractJSONFromResponse(response)
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return fmt.Errorf("response is not valid JSON for %T: %w", out, err)
	}
	return nil
}

// RemoveBlocks strips all <tag>...</tag> blocks from the text. Useful for
// models that emit <think> sections before their answer.
func RemoveBlocks(text, tag string) string {
	pattern := fmt.Sprintf(`(?s)<%s>.*?</%s>`, regexp.QuoteMeta(tag), regexp.QuoteMeta(tag))
	return regexp.MustCompile(pattern).ReplaceAllString(text, "")
}

func isValidJSON(text string) bool {
	if !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "[") {
		return false
	}
	var v interface{}
	return json.Unmarshal([]byte(text), &v) == nil
}

// findBalancedJSON returns the first balanced {...} or [...] block in text,
// honoring strings and escapes, or "" when none closes.
func findBalancedJSON(text string, open byte) string {
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	start := strings.IndexByte(text, open)
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
