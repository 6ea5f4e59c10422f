package config

import (
	"os"
	"path/filepath"
	"testing"

	"go.aimuz.me/robovoice/internal/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		content  *string // nil means no file
		wantURL  string
		wantSend bool
		wantErr  bool
	}{
		{
			name:     "missing file",
			content:  nil,
			wantURL:  DefaultNgrokURL,
			wantSend: true,
		},
		{
			name:     "full file",
			content:  strPtr(`{"ngrok_url":"https://robot.example/command","send_commands":false}`),
			wantURL:  "https://robot.example/command",
			wantSend: false,
		},
		{
			name:     "missing send_commands",
			content:  strPtr(`{"ngrok_url":"https://robot.example/command"}`),
			wantURL:  "https://robot.example/command",
			wantSend: true,
		},
		{
			name:     "missing ngrok_url",
			content:  strPtr(`{"send_commands":false}`),
			wantURL:  DefaultNgrokURL,
			wantSend: false,
		},
		{
			name:     "empty object",
			content:  strPtr(`{}`),
			wantURL:  DefaultNgrokURL,
			wantSend: true,
		},
		{
			name:    "malformed",
			content: strPtr(`{"ngrok_url":`),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			if tt.content != nil {
				if err := os.WriteFile(path, []byte(*tt.content), 0644); err != nil {
					t.Fatal(err)
				}
			}

			cfg, err := Load(path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.NgrokURL != tt.wantURL {
				t.Errorf("NgrokURL = %q, want %q", cfg.NgrokURL, tt.wantURL)
			}
			if cfg.SendCommands != tt.wantSend {
				t.Errorf("SendCommands = %v, want %v", cfg.SendCommands, tt.wantSend)
			}
			if cfg.Path() != path {
				t.Errorf("Path() = %q, want %q", cfg.Path(), path)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default(path)
	cfg.Apply(types.PipelineConfig{EndpointURL: "https://abc.ngrok-free.app/command", SendingEnabled: false})
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := types.PipelineConfig{EndpointURL: "https://abc.ngrok-free.app/command", SendingEnabled: false}
	if got := loaded.Snapshot(); got != want {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}
}

func TestMigrateLegacyConfig(t *testing.T) {
	dir := t.TempDir()
	old := legacyPath
	legacyPath = filepath.Join(dir, "legacy.json")
	defer func() { legacyPath = old }()

	if err := os.WriteFile(legacyPath, []byte(`{"ngrok_url":"https://legacy/command","send_commands":true}`), 0644); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "robovoice", "config.json")
	if err := migrateLegacyConfig(path); err != nil {
		t.Fatalf("migrateLegacyConfig() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.NgrokURL != "https://legacy/command" {
		t.Errorf("NgrokURL = %q", cfg.NgrokURL)
	}

	// An existing target is left alone.
	if err := os.WriteFile(legacyPath, []byte(`{"ngrok_url":"https://other/command"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := migrateLegacyConfig(path); err != nil {
		t.Fatal(err)
	}
	cfg, _ = Load(path)
	if cfg.NgrokURL != "https://legacy/command" {
		t.Errorf("existing config overwritten: %q", cfg.NgrokURL)
	}
}

func TestMigrateLegacyConfig_IgnoresForeignFile(t *testing.T) {
	dir := t.TempDir()
	old := legacyPath
	legacyPath = filepath.Join(dir, "legacy.json")
	defer func() { legacyPath = old }()

	if err := os.WriteFile(legacyPath, []byte(`{"name":"some other tool"}`), 0644); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "robovoice", "config.json")
	if err := migrateLegacyConfig(path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("foreign config was migrated, stat err = %v", err)
	}
}

func strPtr(s string) *string { return &s }
