package translate

import (
	"context"
	"fmt"
	"strings"

	"go.aimuz.me/robovoice/internal/types"
	"go.aimuz.me/robovoice/llm"
)

// DefaultSystemPrompt keeps model output to the bare command.
const DefaultSystemPrompt = "You translate short spoken commands for a robot. " +
	"Reply with the translated command only, without quotes or explanations."

// LLM translates through a chat completion model.
type LLM struct {
	name         string
	completer    llm.Completer
	systemPrompt string
}

// NewLLM creates an LLM provider. name distinguishes cache entries between models.
func NewLLM(name string, c llm.Completer, systemPrompt string) *LLM {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &LLM{name: name, completer: c, systemPrompt: systemPrompt}
}

func (l *LLM) Name() string { return "llm:" + l.name }

func (l *LLM) Translate(ctx context.Context, text, src, dst string) (string, types.Usage, error) {
	out, usage, err := l.completer.Complete(ctx, buildTranslateMessages(l.systemPrompt, text, src, dst))
	if err != nil {
		return "", types.Usage{}, fmt.Errorf("complete: %w", err)
	}
	return cleanCompletion(out), usage, nil
}

func buildTranslateMessages(systemPrompt, text, src, dst string) []llm.Message {
	content := fmt.Sprintf(
		"please translate the following text from %s to %s:\n\n%s",
		src, dst, text,
	)

	return []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: content},
	}
}

// cleanCompletion strips wrapping quotes some models add.
func cleanCompletion(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"`, "'", "\u201c", "\u201d"} {
		s = strings.TrimPrefix(s, q)
		s = strings.TrimSuffix(s, q)
	}
	return strings.TrimSpace(s)
}
