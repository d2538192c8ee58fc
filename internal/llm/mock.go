package llm

import (
	"context"
	"fmt"
	"strings"
)

// MockClient produces deterministic local replies when no model endpoint is
// configured. Replies follow the Answer: convention expected downstream.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	msg := currentMessage(prompt)
	if msg == "" {
		return "Answer: I'm listening. Tell me what's on your mind.", nil
	}
	return fmt.Sprintf("Answer: I hear you saying %q. That sounds like a lot to carry.", msg), nil
}

// currentMessage pulls the user's message out of the rendered prompt so mock
// replies stay recognizably tied to the input.
func currentMessage(prompt string) string {
	marker := "Current message:"
	i := strings.Index(prompt, marker)
	if i < 0 {
		return ""
	}
	rest := prompt[i+len(marker):]
	rest = strings.ReplaceAll(rest, `"""`, "\n")
	for _, line := range strings.Split(rest, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "Use ONLY") {
			return line
		}
	}
	return ""
}
