// Package llm provides chat completion clients used for translation.
package llm

import (
	"context"
	"net/http"
	"time"

	"go.aimuz.me/robovoice/internal/types"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options configures LLM completion behavior.
type Options struct {
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration // per request, defaults to 30s
}

// Completer performs chat completions.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, types.Usage, error)
}

// completerConfig holds all parameters needed by completers.
type completerConfig struct {
	http        *http.Client
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
}

// NewCompleter creates a Completer for the given provider type.
// Known types are "openai", "openai-compatible" and "claude".
func NewCompleter(apiType, apiKey, baseURL, model string, opts Options) Completer {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	cfg := completerConfig{
		http:        &http.Client{Timeout: timeout},
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
	}

	switch apiType {
	case "claude":
		return &claudeCompleter{cfg: cfg}
	default:
		// OpenAI format, including compatible gateways via baseURL.
		return newOpenAICompleter(cfg)
	}
}
