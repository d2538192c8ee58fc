package policy

import (
	"regexp"
	"strings"
)

// SafetyNote is prepended to replies when a message screens as a crisis.
// Fixed text; never generated.
const SafetyNote = "If you are thinking about harming yourself, please reach out right now — " +
	"call or text 988 (Suicide & Crisis Lifeline) or your local emergency number. " +
	"You deserve immediate, human support."

// CrisisAssessment is the result of screening an inbound message.
type CrisisAssessment struct {
	Crisis bool
	Reason string
}

var crisisPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(kill|hurt|harm)\s+myself\b`),
	regexp.MustCompile(`(?i)\bsuicid(e|al)\b`),
	regexp.MustCompile(`(?i)\bend\s+(it\s+all|my\s+life)\b`),
	regexp.MustCompile(`(?i)\bdon'?t\s+want\s+to\s+(live|be\s+alive)\b`),
	regexp.MustCompile(`(?i)\bself[\s-]?harm\b`),
	regexp.MustCompile(`(?i)\bno\s+reason\s+to\s+(live|go\s+on)\b`),
}

// ScreenMessage checks an inbound message for crisis language. The screen
// never blocks the message; it only flags it so the reply can carry the
// safety note.
func ScreenMessage(text string) CrisisAssessment {
	in := strings.TrimSpace(text)
	if in == "" {
		return CrisisAssessment{}
	}

	for _, re := range crisisPatterns {
		if re.MatchString(in) {
			return CrisisAssessment{
				Crisis: true,
				Reason: "message contains crisis language",
			}
		}
	}
	return CrisisAssessment{}
}
