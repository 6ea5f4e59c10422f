package stt

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
)

var deepgramInit sync.Once

// Deepgram implements the Provider interface using Deepgram pre-recorded transcription.
type Deepgram struct {
	apiKey string
	model  string
	host   string
}

// DeepgramConfig holds configuration for Deepgram.
type DeepgramConfig struct {
	APIKey string
	Model  string // Optional, defaults to "nova-2"
	Host   string // Optional, overrides api.deepgram.com
}

// NewDeepgram creates a new Deepgram provider.
func NewDeepgram(cfg DeepgramConfig) *Deepgram {
	model := cfg.Model
	if model == "" {
		model = "nova-2"
	}
	return &Deepgram{apiKey: cfg.APIKey, model: model, host: cfg.Host}
}

func (d *Deepgram) Name() string        { return "deepgram" }
func (d *Deepgram) DisplayName() string { return "Deepgram" }
func (d *Deepgram) IsReady() bool       { return d.apiKey != "" }
func (d *Deepgram) Close() error        { return nil }

// Transcribe streams the WAV payload to Deepgram's REST endpoint.
func (d *Deepgram) Transcribe(ctx context.Context, wav []byte, lang string) (string, error) {
	if !d.IsReady() {
		return "", fmt.Errorf("deepgram: api key required")
	}

	deepgramInit.Do(client.InitWithDefault)

	rest := client.NewREST(d.apiKey, &interfaces.ClientOptions{Host: d.host})
	if rest == nil {
		return "", fmt.Errorf("deepgram: invalid client options")
	}
	dg := api.New(rest)

	res, err := dg.FromStream(ctx, bytes.NewReader(wav), &interfaces.PreRecordedTranscriptionOptions{
		Model:       d.model,
		Language:    baseLanguage(lang),
		Punctuate:   true,
		SmartFormat: true,
	})
	if err != nil {
		return "", fmt.Errorf("transcribe stream: %w", err)
	}

	if res == nil || res.Results == nil || len(res.Results.Channels) == 0 ||
		len(res.Results.Channels[0].Alternatives) == 0 {
		return "", ErrUnintelligible
	}
	return res.Results.Channels[0].Alternatives[0].Transcript, nil
}
