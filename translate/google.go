package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.aimuz.me/robovoice/internal/types"
)

const defaultGoogleTranslateURL = "https://translation.googleapis.com/language/translate/v2"

// Google translates with the Cloud Translation v2 REST API.
type Google struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewGoogle creates a Google provider. baseURL may be empty.
func NewGoogle(apiKey, baseURL string) *Google {
	if baseURL == "" {
		baseURL = defaultGoogleTranslateURL
	}
	return &Google{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *Google) Name() string { return "google" }

type googleTranslateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (g *Google) Translate(ctx context.Context, text, src, dst string) (string, types.Usage, error) {
	if g.apiKey == "" {
		return "", types.Usage{}, fmt.Errorf("google translate: api key required")
	}

	form := url.Values{
		"q":      {text},
		"source": {src},
		"target": {dst},
		"format": {"text"},
		"key":    {g.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", types.Usage{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", types.Usage{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", types.Usage{}, fmt.Errorf("read response: %w", err)
	}

	var trResp googleTranslateResponse
	if err := json.Unmarshal(body, &trResp); err != nil {
		return "", types.Usage{}, fmt.Errorf("api error: %d - %s", resp.StatusCode, string(body))
	}
	if trResp.Error != nil {
		return "", types.Usage{}, fmt.Errorf("api error: %d - %s", trResp.Error.Code, trResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", types.Usage{}, fmt.Errorf("api error: %d - %s", resp.StatusCode, string(body))
	}
	if len(trResp.Data.Translations) == 0 {
		return "", types.Usage{}, fmt.Errorf("no translations returned")
	}

	return html.UnescapeString(trResp.Data.Translations[0].TranslatedText), types.Usage{}, nil
}
