package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.aimuz.me/robovoice/internal/types"
)

const defaultOpenAIModel = "gpt-4o-mini"

// openaiCompleter implements Completer for OpenAI and compatible APIs.
type openaiCompleter struct {
	client openai.Client
	cfg    completerConfig
}

func newOpenAICompleter(cfg completerConfig) *openaiCompleter {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.apiKey),
		option.WithHTTPClient(cfg.http),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.model == "" {
		cfg.model = defaultOpenAIModel
	}
	return &openaiCompleter{client: openai.NewClient(opts...), cfg: cfg}
}

func (c *openaiCompleter) Complete(ctx context.Context, messages []Message) (string, types.Usage, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.cfg.model),
		Messages: toOpenAIMessages(messages),
	}
	if c.cfg.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.cfg.maxTokens))
	}
	if c.cfg.temperature > 0 {
		params.Temperature = openai.Float(c.cfg.temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", types.Usage{}, fmt.Errorf("create completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", types.Usage{}, fmt.Errorf("no choices")
	}

	usage := types.Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	return resp.Choices[0].Message.Content, usage, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			if m.Content == "" {
				continue
			}
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
