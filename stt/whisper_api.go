package stt

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// WhisperAPI implements the Provider interface using OpenAI's Whisper API.
type WhisperAPI struct {
	client openai.Client
	apiKey string
	model  openai.AudioModel
}

// WhisperAPIConfig holds configuration for WhisperAPI.
type WhisperAPIConfig struct {
	APIKey  string
	BaseURL string // Optional, defaults to OpenAI's API
	Model   string // Optional, defaults to "whisper-1"

	// Extra request options, appended after the defaults.
	Options []option.RequestOption
}

// NewWhisperAPI creates a new WhisperAPI provider.
func NewWhisperAPI(cfg WhisperAPIConfig) *WhisperAPI {
	model := openai.AudioModel(cfg.Model)
	if model == "" {
		model = openai.AudioModelWhisper1
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, cfg.Options...)

	return &WhisperAPI{
		client: openai.NewClient(opts...),
		apiKey: cfg.APIKey,
		model:  model,
	}
}

func (w *WhisperAPI) Name() string        { return "whisper-api" }
func (w *WhisperAPI) DisplayName() string { return "OpenAI Whisper API" }
func (w *WhisperAPI) IsReady() bool       { return w.apiKey != "" }
func (w *WhisperAPI) Close() error        { return nil }

// Transcribe uploads the WAV payload for transcription.
// Whisper returns an empty transcript for silence, which the Client reports as empty.
func (w *WhisperAPI) Transcribe(ctx context.Context, wav []byte, lang string) (string, error) {
	if !w.IsReady() {
		return "", fmt.Errorf("whisper api: api key required")
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(wav), "audio.wav", "audio/wav"),
		Model: w.model,
	}
	if lang != "" && lang != "auto" {
		params.Language = openai.String(baseLanguage(lang))
	}

	resp, err := w.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create transcription: %w", err)
	}
	return resp.Text, nil
}
