package translate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.aimuz.me/robovoice/cache"
	"go.aimuz.me/robovoice/internal/types"
	"go.aimuz.me/robovoice/llm"
)

// mockCompleter implements llm.Completer for testing.
type mockCompleter struct {
	response string
	usage    types.Usage
	err      error
	calls    int
	got      []llm.Message
}

func (m *mockCompleter) Complete(_ context.Context, msgs []llm.Message) (string, types.Usage, error) {
	m.calls++
	m.got = msgs
	return m.response, m.usage, m.err
}

func TestBuildTranslateMessages(t *testing.T) {
	tests := []struct {
		name         string
		systemPrompt string
		text         string
		wantSystem   string
		wantContains string
	}{
		{
			name:         "basic command",
			systemPrompt: "You are a translator.",
			text:         "licht an",
			wantSystem:   "You are a translator.",
			wantContains: "translate the following text from de to en:\n\nlicht an",
		},
		{
			name:         "empty system prompt",
			systemPrompt: "",
			text:         "stopp",
			wantSystem:   "",
			wantContains: "from de to en",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := buildTranslateMessages(tt.systemPrompt, tt.text, "de", "en")

			if len(msgs) != 2 {
				t.Fatalf("got %d messages, want 2", len(msgs))
			}
			if msgs[0].Role != "system" || msgs[0].Content != tt.wantSystem {
				t.Errorf("system message = %+v, want content %q", msgs[0], tt.wantSystem)
			}
			if msgs[1].Role != "user" {
				t.Errorf("second message role = %q, want %q", msgs[1].Role, "user")
			}
			if !strings.Contains(msgs[1].Content, tt.wantContains) {
				t.Errorf("user message does not contain %q, got %q", tt.wantContains, msgs[1].Content)
			}
		})
	}
}

func TestClient_Translate(t *testing.T) {
	tests := []struct {
		name       string
		completer  *mockCompleter
		wantStatus Status
		wantText   string
	}{
		{
			name:       "successful translation",
			completer:  &mockCompleter{response: "turn on the light", usage: types.Usage{TotalTokens: 15}},
			wantStatus: StatusTranslated,
			wantText:   "turn on the light",
		},
		{
			name:       "quoted output is cleaned",
			completer:  &mockCompleter{response: " \"turn on the light\"\n"},
			wantStatus: StatusTranslated,
			wantText:   "turn on the light",
		},
		{
			name:       "completer error passes text through",
			completer:  &mockCompleter{err: errors.New("rate limited")},
			wantStatus: StatusFailed,
			wantText:   "licht an",
		},
		{
			name:       "empty result passes text through",
			completer:  &mockCompleter{response: "  "},
			wantStatus: StatusFailed,
			wantText:   "licht an",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(NewLLM("test", tt.completer, ""), nil)
			out := c.Translate(context.Background(), "licht an", "", "")

			if out.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v", out.Status, tt.wantStatus)
			}
			if out.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", out.Text, tt.wantText)
			}
			if tt.wantStatus == StatusFailed && out.Detail == "" {
				t.Error("expected Detail on failure")
			}
			if tt.completer.got[0].Content != DefaultSystemPrompt {
				t.Errorf("system prompt = %q", tt.completer.got[0].Content)
			}
		})
	}
}

func TestClient_TranslateCaches(t *testing.T) {
	c, err := cache.NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory() error = %v", err)
	}
	defer c.Close()

	m := &mockCompleter{response: "stop", usage: types.Usage{PromptTokens: 3, CompletionTokens: 1, TotalTokens: 4}}
	client := NewClient(NewLLM("test", m, ""), c)

	first := client.Translate(context.Background(), "stopp", "de", "en")
	second := client.Translate(context.Background(), "stopp", "de", "en")

	if m.calls != 1 {
		t.Errorf("completer called %d times, want 1", m.calls)
	}
	if first.Usage.CacheHit {
		t.Error("first call reported a cache hit")
	}
	if !second.Usage.CacheHit || second.Text != "stop" || second.Usage.TotalTokens != 4 {
		t.Errorf("second = %+v, want cached stop", second)
	}
}

func TestClient_FailuresNotCached(t *testing.T) {
	c, err := cache.NewInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	m := &mockCompleter{err: errors.New("down")}
	client := NewClient(NewLLM("test", m, ""), c)

	client.Translate(context.Background(), "stopp", "de", "en")
	client.Translate(context.Background(), "stopp", "de", "en")

	if m.calls != 2 {
		t.Errorf("completer called %d times, want 2", m.calls)
	}
}

func TestGoogle_Translate(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{
			name:   "ok",
			status: http.StatusOK,
			body:   `{"data":{"translations":[{"translatedText":"turn on the light"}]}}`,
			want:   "turn on the light",
		},
		{
			name:   "html entities unescaped",
			status: http.StatusOK,
			body:   `{"data":{"translations":[{"translatedText":"it&#39;s dark"}]}}`,
			want:   "it's dark",
		},
		{
			name:    "api error",
			status:  http.StatusBadRequest,
			body:    `{"error":{"code":400,"message":"API key not valid"}}`,
			wantErr: true,
		},
		{
			name:    "no translations",
			status:  http.StatusOK,
			body:    `{"data":{"translations":[]}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					t.Errorf("parse form: %v", err)
				}
				if r.PostForm.Get("q") != "licht an" || r.PostForm.Get("source") != "de" ||
					r.PostForm.Get("target") != "en" || r.PostForm.Get("key") != "k" {
					t.Errorf("form = %v", r.PostForm)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, _, err := NewGoogle("k", srv.URL).Translate(context.Background(), "licht an", "de", "en")
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// logRecorder keeps every record logged through the default logger.
type logRecorder struct {
	mu      sync.Mutex
	records []slog.Record
}

func (r *logRecorder) Enabled(context.Context, slog.Level) bool { return true }
func (r *logRecorder) WithAttrs([]slog.Attr) slog.Handler        { return r }
func (r *logRecorder) WithGroup(string) slog.Handler             { return r }

func (r *logRecorder) Handle(_ context.Context, rec slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *logRecorder) level(msg string) (slog.Level, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Message == msg {
			return rec.Level, true
		}
	}
	return 0, false
}

func TestClient_FailureLoggedAsError(t *testing.T) {
	rec := &logRecorder{}
	prev := slog.Default()
	slog.SetDefault(slog.New(rec))
	t.Cleanup(func() { slog.SetDefault(prev) })

	client := NewClient(NewLLM("test", &mockCompleter{err: errors.New("quota")}, ""), nil)
	if out := client.Translate(context.Background(), "licht an", "de", "en"); out.Status != StatusFailed {
		t.Fatalf("Status = %v, want failed", out.Status)
	}

	lvl, ok := rec.level("translate")
	if !ok {
		t.Fatal("translation failure not logged")
	}
	if lvl != slog.LevelError {
		t.Errorf("level = %v, want ERROR", lvl)
	}
}
