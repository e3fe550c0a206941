package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/amishk599/atsexpert/internal/model"
)

// Config is the root configuration for atsexpert.
type Config struct {
	AI      AIConfig
	Render  RenderConfig
	Web     WebConfig
	History HistoryConfig
}

// AIConfig selects the hosted model and carries its credential.
type AIConfig struct {
	Provider string        // "gemini", "openai" or "anthropic"
	Model    string        // provider model identifier
	APIKey   string        // from config or the provider's env var
	BaseURL  string        // optional endpoint override
	Timeout  time.Duration // per-request timeout
}

// RenderConfig controls PDF rasterization.
type RenderConfig struct {
	DPI      int
	Format   string // "jpeg" or "png"
	MaxPages int    // 0 renders every page
	Pdftoppm string // path or name of the poppler binary
}

// WebConfig controls the `serve` form server.
type WebConfig struct {
	Addr      string
	MaxUpload int64 // bytes
}

// HistoryConfig controls the optional sqlite history of analyses.
type HistoryConfig struct {
	Enabled   bool
	Path      string
	Retention time.Duration // 0 keeps analyses forever
}

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

var defaultModels = map[string]string{
	ProviderGemini:    "gemini-2.5-pro",
	ProviderOpenAI:    "gpt-4o",
	ProviderAnthropic: "claude-sonnet-4-5",
}

// apiKeyEnv lists, per provider, the env vars consulted when ai.api_key is empty.
var apiKeyEnv = map[string][]string{
	ProviderGemini:    {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
	ProviderOpenAI:    {"OPENAI_API_KEY"},
	ProviderAnthropic: {"ANTHROPIC_API_KEY"},
}

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	AI      rawAIConfig      `yaml:"ai"`
	Render  rawRenderConfig  `yaml:"render"`
	Web     rawWebConfig     `yaml:"web"`
	History rawHistoryConfig `yaml:"history"`
}

type rawAIConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

type rawRenderConfig struct {
	DPI      int    `yaml:"dpi"`
	Format   string `yaml:"format"`
	MaxPages int    `yaml:"max_pages"`
	Pdftoppm string `yaml:"pdftoppm"`
}

type rawWebConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

type rawHistoryConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	Retention string `yaml:"retention"`
}

// LoadDotEnv loads KEY=VALUE pairs from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes. Empty input yields the defaults.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	provider := strings.ToLower(strings.TrimSpace(raw.AI.Provider))
	if provider == "" {
		provider = ProviderGemini
	}

	aiTimeout := 120 * time.Second // default
	if raw.AI.Timeout != "" {
		d, err := time.ParseDuration(raw.AI.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse ai.timeout %q: %w", raw.AI.Timeout, err)
		}
		aiTimeout = d
	}

	aiModel := raw.AI.Model
	if aiModel == "" {
		aiModel = defaultModels[provider]
	}

	apiKey := raw.AI.APIKey
	if apiKey == "" {
		apiKey = envAPIKey(provider)
	}

	dpi := raw.Render.DPI
	if dpi == 0 {
		dpi = 150
	}
	format := strings.ToLower(raw.Render.Format)
	if format == "" || format == "jpg" {
		format = "jpeg"
	}
	pdftoppm := raw.Render.Pdftoppm
	if pdftoppm == "" {
		pdftoppm = "pdftoppm"
	}

	addr := raw.Web.Addr
	if addr == "" {
		addr = "127.0.0.1:8501"
	}
	maxUploadMB := raw.Web.MaxUploadMB
	if maxUploadMB == 0 {
		maxUploadMB = 10
	}

	historyPath := raw.History.Path
	if historyPath == "" {
		historyPath = "history.db"
	}
	var retention time.Duration
	if raw.History.Retention != "" {
		d, err := time.ParseDuration(raw.History.Retention)
		if err != nil {
			return nil, fmt.Errorf("parse history.retention %q: %w", raw.History.Retention, err)
		}
		retention = d
	}

	cfg := &Config{
		AI: AIConfig{
			Provider: provider,
			Model:    aiModel,
			APIKey:   apiKey,
			BaseURL:  raw.AI.BaseURL,
			Timeout:  aiTimeout,
		},
		Render: RenderConfig{
			DPI:      dpi,
			Format:   format,
			MaxPages: raw.Render.MaxPages,
			Pdftoppm: pdftoppm,
		},
		Web: WebConfig{
			Addr:      addr,
			MaxUpload: int64(maxUploadMB) << 20,
		},
		History: HistoryConfig{
			Enabled:   raw.History.Enabled,
			Path:      historyPath,
			Retention: retention,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() (*Config, error) {
	return Parse(nil)
}

func envAPIKey(provider string) string {
	for _, name := range apiKeyEnv[provider] {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// APIKeyEnvNames returns the env vars consulted for provider's credential.
func APIKeyEnvNames(provider string) []string {
	return apiKeyEnv[provider]
}

func validate(cfg *Config) error {
	if _, ok := defaultModels[cfg.AI.Provider]; !ok {
		return &model.ConfigurationError{
			Field:  "ai.provider",
			Reason: fmt.Sprintf("unsupported provider %q (want gemini, openai or anthropic)", cfg.AI.Provider),
		}
	}
	if cfg.AI.Timeout <= 0 {
		return fmt.Errorf("ai.timeout must be positive, got %v", cfg.AI.Timeout)
	}

	if cfg.Render.DPI < 36 || cfg.Render.DPI > 600 {
		return fmt.Errorf("render.dpi must be between 36 and 600, got %d", cfg.Render.DPI)
	}
	if cfg.Render.Format != "jpeg" && cfg.Render.Format != "png" {
		return fmt.Errorf("render.format must be \"jpeg\" or \"png\", got %q", cfg.Render.Format)
	}
	if cfg.Render.MaxPages < 0 {
		return fmt.Errorf("render.max_pages must not be negative, got %d", cfg.Render.MaxPages)
	}

	if cfg.Web.MaxUpload <= 0 {
		return fmt.Errorf("web.max_upload_mb must be positive")
	}
	if cfg.History.Retention < 0 {
		return fmt.Errorf("history.retention must not be negative, got %v", cfg.History.Retention)
	}

	// The API key is checked where the model client is built, so commands
	// that never call the model (modes, inspect, history) work without one.
	return nil
}
