package stt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.aimuz.me/robovoice/wav"
)

const defaultGoogleSpeechURL = "https://speech.googleapis.com/v1/speech:recognize"

// GoogleSpeech implements the Provider interface using the Cloud Speech v1 REST API.
type GoogleSpeech struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

// GoogleSpeechConfig holds configuration for GoogleSpeech.
type GoogleSpeechConfig struct {
	APIKey  string
	BaseURL string // Optional, defaults to the public endpoint
	Model   string // Optional, defaults to "command_and_search"
}

// NewGoogleSpeech creates a new GoogleSpeech provider.
func NewGoogleSpeech(cfg GoogleSpeechConfig) *GoogleSpeech {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGoogleSpeechURL
	}
	model := cfg.Model
	if model == "" {
		model = "command_and_search"
	}

	return &GoogleSpeech{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   model,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (g *GoogleSpeech) Name() string        { return "google" }
func (g *GoogleSpeech) DisplayName() string { return "Google Cloud Speech" }
func (g *GoogleSpeech) IsReady() bool       { return g.apiKey != "" }
func (g *GoogleSpeech) Close() error        { return nil }

type googleRecognizeRequest struct {
	Config googleRecognitionConfig `json:"config"`
	Audio  googleRecognitionAudio  `json:"audio"`
}

type googleRecognitionConfig struct {
	Encoding        string `json:"encoding"`
	SampleRateHertz int    `json:"sampleRateHertz"`
	LanguageCode    string `json:"languageCode"`
	Model           string `json:"model,omitempty"`
}

type googleRecognitionAudio struct {
	Content string `json:"content"`
}

type googleRecognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"results"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Transcribe sends the WAV payload to speech:recognize.
// A response without results means the speech was not understood.
func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte, lang string) (string, error) {
	if !g.IsReady() {
		return "", fmt.Errorf("google speech: api key required")
	}

	info, err := wav.Inspect(audio)
	if err != nil {
		return "", fmt.Errorf("inspect audio: %w", err)
	}

	reqBody := googleRecognizeRequest{
		Config: googleRecognitionConfig{
			Encoding:        "LINEAR16",
			SampleRateHertz: info.SampleRate,
			LanguageCode:    lang,
			Model:           g.model,
		},
		Audio: googleRecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(audio),
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := g.baseURL + "?key=" + url.QueryEscape(g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var recResp googleRecognizeResponse
	if err := json.Unmarshal(body, &recResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("api error: %d - %s", resp.StatusCode, string(body))
		}
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if recResp.Error != nil {
		return "", fmt.Errorf("api error: %d - %s", recResp.Error.Code, recResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api error: %d - %s", resp.StatusCode, string(body))
	}

	if len(recResp.Results) == 0 || len(recResp.Results[0].Alternatives) == 0 {
		return "", ErrUnintelligible
	}

	var text string
	for _, r := range recResp.Results {
		if len(r.Alternatives) > 0 {
			text += r.Alternatives[0].Transcript
		}
	}
	return text, nil
}
