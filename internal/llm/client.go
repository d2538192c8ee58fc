// Package llm wraps the generative model behind a narrow client interface.
// The orchestrator treats any error from Generate as a generation failure
// and substitutes its own user-facing fallback; nothing here formats text
// for end users.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Client produces a free-text completion for a prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config controls client construction.
type Config struct {
	Mode    string
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	Retries int
}

// NewClient builds the configured generation client.
func NewClient(cfg Config) (Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.BaseURL) != "" || strings.TrimSpace(cfg.APIKey) != "" {
			return NewOpenAIClient(cfg), nil
		}
		return NewMockClient(), nil
	case "openai":
		return NewOpenAIClient(cfg), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported llm mode %q", cfg.Mode)
	}
}
