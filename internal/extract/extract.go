// Package extract parses a clean answer out of free-form model output.
package extract

import (
	"regexp"
	"strings"
)

// FallbackAnswer is returned when the model output is entirely empty.
const FallbackAnswer = "I'm here for you, can you tell me more?"

var answerPattern = regexp.MustCompile(`(?im)^\s*answer:\s*(.+)$`)

// Answer extracts the reply from raw model output. The first line matching
// the "Answer:" convention wins; otherwise the first non-empty line is used.
// Never returns an empty string.
func Answer(raw string) string {
	if m := answerPattern.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return FallbackAnswer
}
