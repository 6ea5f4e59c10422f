package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.aimuz.me/robovoice/cache"
	"go.aimuz.me/robovoice/config"
	"go.aimuz.me/robovoice/dispatch"
	"go.aimuz.me/robovoice/llm"
	"go.aimuz.me/robovoice/stt"
	"go.aimuz.me/robovoice/translate"
)

const appName = "robovoice"

// settings are the provider options read from flags and environment.
// The endpoint and the sending toggle live in config.Config instead.
type settings struct {
	ConfigPath      string        `mapstructure:"config"`
	STT             string        `mapstructure:"stt"`
	Translator      string        `mapstructure:"translator"`
	Device          string        `mapstructure:"device"`
	Language        string        `mapstructure:"language"`
	LogLevel        string        `mapstructure:"log_level"`
	DispatchTimeout time.Duration `mapstructure:"dispatch_timeout"`
	NoCache         bool          `mapstructure:"no_cache"`
	CacheDir        string        `mapstructure:"cache_dir"`

	OpenAIKey     string `mapstructure:"openai_api_key"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`
	AnthropicKey  string `mapstructure:"anthropic_api_key"`
	GoogleKey     string `mapstructure:"google_api_key"`
	DeepgramKey   string `mapstructure:"deepgram_api_key"`

	STTModel       string `mapstructure:"stt_model"`
	TranslateModel string `mapstructure:"translate_model"`
}

// loadSettings reads ROBOVOICE_* variables, falling back to the
// conventional provider variables for API keys.
func loadSettings(v *viper.Viper) (settings, error) {
	v.SetEnvPrefix("ROBOVOICE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("config", "")
	v.SetDefault("stt", "whisper-api")
	v.SetDefault("translator", "openai")
	v.SetDefault("device", "")
	v.SetDefault("language", stt.DefaultLanguage)
	v.SetDefault("log_level", "info")
	v.SetDefault("dispatch_timeout", dispatch.DefaultTimeout)
	v.SetDefault("no_cache", false)
	v.SetDefault("cache_dir", "")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("stt_model", "")
	v.SetDefault("translate_model", "")

	for key, fallback := range map[string]string{
		"openai_api_key":    "OPENAI_API_KEY",
		"anthropic_api_key": "ANTHROPIC_API_KEY",
		"google_api_key":    "GOOGLE_API_KEY",
		"deepgram_api_key":  "DEEPGRAM_API_KEY",
	} {
		if err := v.BindEnv(key, "ROBOVOICE_"+strings.ToUpper(key), fallback); err != nil {
			return settings{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	return s, nil
}

// App holds the components shared by the subcommands.
type App struct {
	settings settings

	cfg         *config.Config
	cache       *cache.Cache
	sttRegistry *stt.Registry
	transcriber *stt.Client
	translator  *translate.Client
	dispatcher  *dispatch.Dispatcher
}

func NewApp(s settings) *App {
	return &App{settings: s}
}

// ─────────────────────────────────────────────────────────────────────────────
// Initialization
// ─────────────────────────────────────────────────────────────────────────────

// Init prepares everything the pipeline needs.
func (a *App) Init() error {
	a.setupConfig()
	a.setupCache()

	if err := a.setupSTT(); err != nil {
		return err
	}
	if err := a.setupTranslator(); err != nil {
		return err
	}

	a.dispatcher = dispatch.New(a.settings.DispatchTimeout)
	return nil
}

// Shutdown releases resources.
func (a *App) Shutdown() {
	if a.sttRegistry != nil {
		a.sttRegistry.Close()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			slog.Error("close cache", "error", err)
		}
	}
}

func (a *App) setupConfig() {
	cfg, err := config.Load(a.settings.ConfigPath)
	if err != nil {
		slog.Error("load config", "error", err)
		path := a.settings.ConfigPath
		if path == "" {
			path, _ = config.DefaultPath()
		}
		cfg = config.Default(path)
	}
	a.cfg = cfg
	slog.Info("config loaded", "path", cfg.Path(), "url", cfg.NgrokURL, "send", cfg.SendCommands)
}

func (a *App) setupCache() {
	if a.settings.NoCache {
		return
	}

	cachePath := a.settings.CacheDir
	if cachePath == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			slog.Error("get config dir for cache", "error", err)
			return
		}
		cachePath = filepath.Join(configDir, appName, "cache")
	}

	c, err := cache.New(cachePath)
	if err != nil {
		slog.Error("init cache", "error", err)
		return
	}
	a.cache = c
	slog.Info("cache initialized", "path", cachePath)
}

func (a *App) setupSTT() error {
	s := a.settings
	a.sttRegistry = stt.NewRegistry()

	a.sttRegistry.Register(stt.NewWhisperAPI(stt.WhisperAPIConfig{
		APIKey:  s.OpenAIKey,
		BaseURL: s.OpenAIBaseURL,
		Model:   modelFor(s.STT, "whisper-api", s.STTModel),
	}))
	a.sttRegistry.Register(stt.NewGoogleSpeech(stt.GoogleSpeechConfig{
		APIKey: s.GoogleKey,
		Model:  modelFor(s.STT, "google", s.STTModel),
	}))
	a.sttRegistry.Register(stt.NewDeepgram(stt.DeepgramConfig{
		APIKey: s.DeepgramKey,
		Model:  modelFor(s.STT, "deepgram", s.STTModel),
	}))

	provider := a.sttRegistry.Get(s.STT)
	if provider == nil {
		return fmt.Errorf("stt provider not found: %s", s.STT)
	}
	if !provider.IsReady() {
		return fmt.Errorf("stt provider %s: missing API key", provider.Name())
	}

	a.transcriber = stt.NewClient(provider)
	slog.Info("stt provider selected", "provider", provider.DisplayName(), "registered", len(a.sttRegistry.List()))
	return nil
}

func (a *App) setupTranslator() error {
	p, err := newTranslateProvider(a.settings)
	if err != nil {
		return err
	}
	a.translator = translate.NewClient(p, a.cache)
	slog.Info("translator selected", "provider", p.Name(), "cache", a.cache != nil)
	return nil
}

func newTranslateProvider(s settings) (translate.Provider, error) {
	switch s.Translator {
	case "openai":
		if s.OpenAIKey == "" {
			return nil, fmt.Errorf("translator openai: missing API key")
		}
		c := llm.NewCompleter("openai", s.OpenAIKey, s.OpenAIBaseURL, s.TranslateModel, llm.Options{})
		return translate.NewLLM(nameWithModel("openai", s.TranslateModel), c, ""), nil
	case "claude":
		if s.AnthropicKey == "" {
			return nil, fmt.Errorf("translator claude: missing API key")
		}
		c := llm.NewCompleter("claude", s.AnthropicKey, "", s.TranslateModel, llm.Options{})
		return translate.NewLLM(nameWithModel("claude", s.TranslateModel), c, ""), nil
	case "google":
		if s.GoogleKey == "" {
			return nil, fmt.Errorf("translator google: missing API key")
		}
		return translate.NewGoogle(s.GoogleKey, ""), nil
	default:
		return nil, fmt.Errorf("unknown translator: %s", s.Translator)
	}
}

// modelFor applies the model override only to the selected provider.
func modelFor(selected, provider, model string) string {
	if selected != provider {
		return ""
	}
	return model
}

func nameWithModel(name, model string) string {
	if model == "" {
		return name
	}
	return name + "/" + model
}
