// Package translate turns recognized German commands into English.
package translate

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.aimuz.me/robovoice/cache"
	"go.aimuz.me/robovoice/internal/types"
)

const (
	DefaultSource = "de"
	DefaultTarget = "en"
)

// Provider translates text between two ISO-639-1 languages.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text, src, dst string) (string, types.Usage, error)
}

// Status classifies a translation attempt.
type Status int

const (
	StatusTranslated Status = iota
	StatusFailed
)

func (s Status) String() string {
	if s == StatusTranslated {
		return "translated"
	}
	return "failed"
}

// Outcome is the result of Client.Translate.
// On failure Text carries the original input so the caller can still use it.
type Outcome struct {
	Status Status
	Text   string
	Detail string
	Usage  types.Usage
}

// Client wraps a Provider with an optional cache.
// Zero value is not useful; create via NewClient.
type Client struct {
	provider Provider
	cache    *cache.Cache
}

// NewClient creates a Client. c may be nil to disable caching.
func NewClient(p Provider, c *cache.Cache) *Client {
	return &Client{provider: p, cache: c}
}

// Translate translates text from src to dst. Empty languages default to de and en.
func (c *Client) Translate(ctx context.Context, text, src, dst string) Outcome {
	if src == "" {
		src = DefaultSource
	}
	if dst == "" {
		dst = DefaultTarget
	}

	key := cache.GenerateKey(c.provider.Name(), src, dst, text)
	if out, ok := c.getCached(key); ok {
		slog.Debug("translation cache hit", "provider", c.provider.Name())
		return out
	}

	translated, usage, err := c.provider.Translate(ctx, text, src, dst)
	if err != nil {
		slog.Error("translate", "provider", c.provider.Name(), "error", err)
		return Outcome{Status: StatusFailed, Text: text, Detail: err.Error()}
	}

	translated = strings.TrimSpace(translated)
	if translated == "" {
		return Outcome{Status: StatusFailed, Text: text, Detail: "empty translation"}
	}

	c.setCache(key, translated, usage)
	return Outcome{Status: StatusTranslated, Text: translated, Usage: usage}
}

func (c *Client) getCached(key string) (Outcome, bool) {
	if c.cache == nil {
		return Outcome{}, false
	}

	entry, found := c.cache.Get(key)
	if !found {
		return Outcome{}, false
	}

	return Outcome{
		Status: StatusTranslated,
		Text:   entry.Text,
		Usage: types.Usage{
			PromptTokens:     entry.Usage.PromptTokens,
			CompletionTokens: entry.Usage.CompletionTokens,
			TotalTokens:      entry.Usage.TotalTokens,
			CacheHit:         true,
		},
	}, true
}

func (c *Client) setCache(key, text string, usage types.Usage) {
	if c.cache == nil {
		return
	}

	entry := &cache.Entry{
		Text: text,
		Usage: cache.Usage{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		},
		CreatedAt: time.Now(),
	}

	if err := c.cache.Set(key, entry, cache.DefaultTTL); err != nil {
		slog.Warn("cache translation", "error", err)
	}
}
