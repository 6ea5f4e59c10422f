package stt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/v3/option"
	"go.aimuz.me/robovoice/wav"
)

// mockProvider implements Provider for testing.
type mockProvider struct {
	text    string
	err     error
	calls   int
	gotLang string
}

func (m *mockProvider) Name() string        { return "mock" }
func (m *mockProvider) DisplayName() string { return "Mock" }
func (m *mockProvider) IsReady() bool       { return true }
func (m *mockProvider) Close() error        { return nil }

func (m *mockProvider) Transcribe(_ context.Context, _ []byte, lang string) (string, error) {
	m.calls++
	m.gotLang = lang
	return m.text, m.err
}

func testWAV(t *testing.T) []byte {
	t.Helper()
	out, err := wav.Frame(make([]byte, 320), 16000, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestClient_Transcribe(t *testing.T) {
	tests := []struct {
		name       string
		provider   *mockProvider
		wantStatus Status
		wantText   string
	}{
		{
			name:       "recognized",
			provider:   &mockProvider{text: "Licht an"},
			wantStatus: StatusRecognized,
			wantText:   "Licht an",
		},
		{
			name:       "trims whitespace",
			provider:   &mockProvider{text: "  licht an \n"},
			wantStatus: StatusRecognized,
			wantText:   "licht an",
		},
		{
			name:       "normalizes to NFC",
			provider:   &mockProvider{text: "tu\u0308r auf"},
			wantStatus: StatusRecognized,
			wantText:   "t\u00fcr auf",
		},
		{
			name:       "empty transcript",
			provider:   &mockProvider{text: ""},
			wantStatus: StatusEmpty,
		},
		{
			name:       "whitespace transcript",
			provider:   &mockProvider{text: " \t "},
			wantStatus: StatusEmpty,
		},
		{
			name:       "unintelligible",
			provider:   &mockProvider{err: ErrUnintelligible},
			wantStatus: StatusUnintelligible,
		},
		{
			name:       "service error",
			provider:   &mockProvider{err: errors.New("quota exceeded")},
			wantStatus: StatusServiceError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewClient(tt.provider).Transcribe(context.Background(), []byte("wav"), "")

			if out.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v", out.Status, tt.wantStatus)
			}
			if out.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", out.Text, tt.wantText)
			}
			if tt.wantStatus == StatusServiceError && out.Detail == "" {
				t.Error("expected Detail for service error")
			}
			if tt.provider.gotLang != DefaultLanguage {
				t.Errorf("language = %q, want %q", tt.provider.gotLang, DefaultLanguage)
			}
		})
	}
}

func TestBaseLanguage(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"de-DE", "de"},
		{"de", "de"},
		{"en-US", "en"},
	}
	for _, tt := range tests {
		if got := baseLanguage(tt.in); got != tt.want {
			t.Errorf("baseLanguage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(NewGoogleSpeech(GoogleSpeechConfig{}))
	r.Register(NewDeepgram(DeepgramConfig{}))
	r.Register(NewWhisperAPI(WhisperAPIConfig{}))

	if p := r.Get("google"); p == nil || p.Name() != "google" {
		t.Errorf("Get(google) = %v", p)
	}
	if p := r.Get("missing"); p != nil {
		t.Errorf("Get(missing) = %v, want nil", p)
	}

	list := r.List()
	want := []string{"deepgram", "google", "whisper-api"}
	if len(list) != len(want) {
		t.Fatalf("List() returned %d providers, want %d", len(list), len(want))
	}
	for i, p := range list {
		if p.Name() != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, p.Name(), want[i])
		}
		if p.IsReady() {
			t.Errorf("%s IsReady() = true without api key", p.Name())
		}
	}

	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestGoogleSpeech_Transcribe(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantText string
		wantErr  error
		anyErr   bool
	}{
		{
			name:     "recognized",
			status:   http.StatusOK,
			body:     `{"results":[{"alternatives":[{"transcript":"licht an","confidence":0.93}]}]}`,
			wantText: "licht an",
		},
		{
			name:    "no results",
			status:  http.StatusOK,
			body:    `{}`,
			wantErr: ErrUnintelligible,
		},
		{
			name:   "api error",
			status: http.StatusForbidden,
			body:   `{"error":{"code":403,"message":"API key not valid"}}`,
			anyErr: true,
		},
		{
			name:   "non json error",
			status: http.StatusBadGateway,
			body:   `bad gateway`,
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got googleRecognizeRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("key") != "secret" {
					t.Errorf("key = %q", r.URL.Query().Get("key"))
				}
				if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
					t.Errorf("decode request: %v", err)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			audio := testWAV(t)
			g := NewGoogleSpeech(GoogleSpeechConfig{APIKey: "secret", BaseURL: srv.URL})
			text, err := g.Transcribe(context.Background(), audio, "de-DE")

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
			case tt.anyErr:
				if err == nil || errors.Is(err, ErrUnintelligible) {
					t.Fatalf("error = %v, want service error", err)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}
			if text != tt.wantText {
				t.Errorf("text = %q, want %q", text, tt.wantText)
			}

			if got.Config.LanguageCode != "de-DE" {
				t.Errorf("languageCode = %q", got.Config.LanguageCode)
			}
			if got.Config.SampleRateHertz != 16000 || got.Config.Encoding != "LINEAR16" {
				t.Errorf("config = %+v", got.Config)
			}
			if got.Config.Model != "command_and_search" {
				t.Errorf("model = %q", got.Config.Model)
			}
			if got.Audio.Content != base64.StdEncoding.EncodeToString(audio) {
				t.Error("audio content not base64 of payload")
			}
		})
	}
}

func TestGoogleSpeech_RequiresKey(t *testing.T) {
	if _, err := NewGoogleSpeech(GoogleSpeechConfig{}).Transcribe(context.Background(), testWAV(t), "de-DE"); err == nil {
		t.Error("expected error without api key")
	}
}

func TestWhisperAPI_Transcribe(t *testing.T) {
	var gotLang, gotModel, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLang = r.FormValue("language")
		gotModel = r.FormValue("model")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"Licht an."}`))
	}))
	defer srv.Close()

	w := NewWhisperAPI(WhisperAPIConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/",
		Options: []option.RequestOption{option.WithMaxRetries(0)},
	})

	text, err := w.Transcribe(context.Background(), testWAV(t), "de-DE")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "Licht an." {
		t.Errorf("text = %q", text)
	}
	if gotPath != "/audio/transcriptions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotLang != "de" {
		t.Errorf("language = %q, want de", gotLang)
	}
	if gotModel != "whisper-1" {
		t.Errorf("model = %q, want whisper-1", gotModel)
	}
}

func TestWhisperAPI_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	w := NewWhisperAPI(WhisperAPIConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/",
		Options: []option.RequestOption{option.WithMaxRetries(0)},
	})

	out := NewClient(w).Transcribe(context.Background(), testWAV(t), "de-DE")
	if out.Status != StatusServiceError {
		t.Errorf("Status = %v, want service_error", out.Status)
	}
}

func TestDeepgram_Transcribe(t *testing.T) {
	t.Setenv("DEEPGRAM_HOST", "")
	t.Setenv("DEEPGRAM_ACCESS_TOKEN", "")

	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus Status
		wantText   string
	}{
		{
			name:       "transcript",
			status:     http.StatusOK,
			body:       `{"results":{"channels":[{"alternatives":[{"transcript":"licht an","confidence":0.9}]}]}}`,
			wantStatus: StatusRecognized,
			wantText:   "licht an",
		},
		{
			name:       "no alternatives",
			status:     http.StatusOK,
			body:       `{"results":{"channels":[{"alternatives":[]}]}}`,
			wantStatus: StatusUnintelligible,
		},
		{
			name:       "unauthorized",
			status:     http.StatusUnauthorized,
			body:       `{"err_code":"INVALID_AUTH","err_msg":"Invalid credentials."}`,
			wantStatus: StatusServiceError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotModel, gotLang, gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotModel = r.URL.Query().Get("model")
				gotLang = r.URL.Query().Get("language")
				gotAuth = r.Header.Get("Authorization")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewDeepgram(DeepgramConfig{APIKey: "dg-key", Host: srv.URL})
			out := NewClient(p).Transcribe(context.Background(), testWAV(t), "de-DE")

			if out.Status != tt.wantStatus {
				t.Fatalf("Status = %v, want %v (detail %q)", out.Status, tt.wantStatus, out.Detail)
			}
			if out.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", out.Text, tt.wantText)
			}
			if gotPath != "/v1/listen" {
				t.Errorf("path = %q", gotPath)
			}
			if gotModel != "nova-2" || gotLang != "de" {
				t.Errorf("model=%q language=%q, want nova-2/de", gotModel, gotLang)
			}
			if gotAuth != "token dg-key" {
				t.Errorf("Authorization = %q", gotAuth)
			}
		})
	}
}

func TestDeepgram_RequiresKey(t *testing.T) {
	p := NewDeepgram(DeepgramConfig{})
	if p.IsReady() {
		t.Error("IsReady() = true without key")
	}
	_, err := p.Transcribe(context.Background(), nil, "de-DE")
	if err == nil || errors.Is(err, ErrUnintelligible) {
		t.Errorf("Transcribe() error = %v, want missing key error", err)
	}
}
