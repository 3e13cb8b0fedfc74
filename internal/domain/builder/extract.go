package builder

import (
	"encoding/json"
	"regexp"
)

var (
	thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)
	fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*?\\})\\s*\\n?```")
)

// extractJSON recovers a JSON object from a generator's free-form reply.
// It strips <think> reasoning blocks, prefers a fenced code block, and
// falls back to scanning every balanced top-level {...} span, trying
// the last one first — generators often draft a rejected attempt before
// the real answer.
func extractJSON(text string, out any) bool {
	cleaned := thinkBlockRe.ReplaceAllString(text, "")

	if m := fencedJSONRe.FindStringSubmatch(cleaned); m != nil {
		if json.Unmarshal([]byte(m[1]), out) == nil {
			return true
		}
	}

	spans := balancedBraceSpans(cleaned)
	for i := len(spans) - 1; i >= 0; i-- {
		if json.Unmarshal([]byte(spans[i]), out) == nil {
			return true
		}
	}
	return false
}

// balancedBraceSpans returns every top-level {...} substring of s, in
// the order they appear.
func balancedBraceSpans(s string) []string {
	var spans []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					spans = append(spans, s[start:i+1])
					start = -1
				}
			}
		}
	}
	return spans
}

// extractJSONArray is extractJSON's counterpart for stage 2's top-level
// array response.
func extractJSONArray(text string, out any) bool {
	cleaned := thinkBlockRe.ReplaceAllString(text, "")

	if m := fencedArrayRe.FindStringSubmatch(cleaned); m != nil {
		if json.Unmarshal([]byte(m[1]), out) == nil {
			return true
		}
	}

	spans := balancedBracketSpans(cleaned)
	for i := len(spans) - 1; i >= 0; i-- {
		if json.Unmarshal([]byte(spans[i]), out) == nil {
			return true
		}
	}
	return false
}

var fencedArrayRe = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(\[.*?\])\s*\n?` + "```")

func balancedBracketSpans(s string) []string {
	var spans []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '[':
			if depth == 0 {
				start = i
			}
			depth++
		case ']':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					spans = append(spans, s[start:i+1])
					start = -1
				}
			}
		}
	}
	return spans
}
