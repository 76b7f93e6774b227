package cluster

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSONObject indicates that a summarization response contained no
// brace-delimited JSON object anywhere in its text.
var ErrNoJSONObject = errors.New("no JSON object found in response")

// ExtractJSONObject returns the first top-level brace-delimited JSON object
// found anywhere in text. The service is instructed to return bare JSON but
// in practice wraps it in prose or markdown fencing, so extraction is
// best-effort brace matching: it scans from the first '{' to its balanced
// closing brace, skipping braces inside string literals.
func ExtractJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", ErrNoJSONObject
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("%w: unbalanced braces", ErrNoJSONObject)
}
