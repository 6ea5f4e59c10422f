// Package stt provides speech-to-text provider interface and implementations.
package stt

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// DefaultLanguage is the BCP-47 tag commands are spoken in.
const DefaultLanguage = "de-DE"

// ErrUnintelligible is returned by providers when the service could not
// make sense of the audio.
var ErrUnintelligible = errors.New("speech could not be understood")

// Provider defines the interface for speech-to-text providers.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// DisplayName returns the human-readable provider name.
	DisplayName() string

	// IsReady returns true if the provider has the credentials it needs.
	IsReady() bool

	// Transcribe converts a WAV payload to text.
	// language is a BCP-47 tag such as "de-DE".
	Transcribe(ctx context.Context, wav []byte, language string) (string, error)

	// Close releases resources held by the provider.
	Close() error
}

// Registry holds registered STT providers.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Get returns a provider by name.
func (r *Registry) Get(name string) Provider {
	return r.providers[name]
}

// List returns all registered providers ordered by name.
func (r *Registry) List() []Provider {
	result := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// Close releases all providers.
func (r *Registry) Close() error {
	for _, p := range r.providers {
		if err := p.Close(); err != nil {
			return err
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Client
// ─────────────────────────────────────────────────────────────────────────────

// Status classifies a transcription attempt.
type Status int

const (
	StatusRecognized Status = iota
	StatusEmpty
	StatusUnintelligible
	StatusServiceError
)

func (s Status) String() string {
	switch s {
	case StatusRecognized:
		return "recognized"
	case StatusEmpty:
		return "empty"
	case StatusUnintelligible:
		return "unintelligible"
	case StatusServiceError:
		return "service_error"
	default:
		return "unknown"
	}
}

// Outcome is the result of Client.Transcribe.
type Outcome struct {
	Status Status
	Text   string // set when Status is StatusRecognized
	Detail string // set when Status is StatusServiceError
}

// Client maps provider results onto Outcomes.
type Client struct {
	provider Provider
}

// NewClient creates a Client backed by p.
func NewClient(p Provider) *Client {
	return &Client{provider: p}
}

// Provider returns the underlying provider.
func (c *Client) Provider() Provider {
	return c.provider
}

// Transcribe sends wav to the provider. An empty language selects DefaultLanguage.
func (c *Client) Transcribe(ctx context.Context, wav []byte, lang string) Outcome {
	if lang == "" {
		lang = DefaultLanguage
	}

	text, err := c.provider.Transcribe(ctx, wav, lang)
	if err != nil {
		if errors.Is(err, ErrUnintelligible) {
			slog.Info("speech not understood", "provider", c.provider.Name())
			return Outcome{Status: StatusUnintelligible}
		}
		slog.Error("transcribe", "provider", c.provider.Name(), "error", err)
		return Outcome{Status: StatusServiceError, Detail: err.Error()}
	}

	text = normalize(text)
	if text == "" {
		return Outcome{Status: StatusEmpty}
	}
	return Outcome{Status: StatusRecognized, Text: text}
}

func normalize(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// baseLanguage returns the primary subtag of a BCP-47 tag ("de-DE" -> "de").
func baseLanguage(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return strings.ToLower(strings.SplitN(tag, "-", 2)[0])
	}
	base, _ := t.Base()
	return base.String()
}
