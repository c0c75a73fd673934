package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendGemini    = "gemini"
	BackendOllama    = "ollama"
	BackendAnthropic = "anthropic"
	BackendGrok      = "grok"
	BackendOpenAI    = "openai"
)

// EnvPrefix prefixes every environment variable read into Config
const EnvPrefix = "STREAMCHAT"

// ErrUnknownBackend is returned when Backend names no supported service
var ErrUnknownBackend = errors.New("unknown backend")

// Config holds application configuration
type Config struct {
	Backend      string `mapstructure:"backend"`
	Model        string `mapstructure:"model"` // Empty selects the backend default
	SystemPrompt string `mapstructure:"system"`
	Debug        bool   `mapstructure:"debug"`
	Plain        bool   `mapstructure:"plain"` // Line-mode REPL instead of the TUI
	LogDir       string `mapstructure:"log-dir"`

	OllamaURL    string `mapstructure:"ollama-url"`
	GrokURL      string `mapstructure:"grok-url"`
	GeminiURL    string `mapstructure:"gemini-url"`    // Empty keeps the SDK default
	AnthropicURL string `mapstructure:"anthropic-url"` // Empty keeps the SDK default
	MaxTokens    int64  `mapstructure:"max-tokens"`

	MetricsInterval time.Duration `mapstructure:"metrics-interval"`

	// API keys come from the environment only
	GeminiAPIKey    string `mapstructure:"-"`
	OpenAIAPIKey    string `mapstructure:"-"`
	GrokAPIKey      string `mapstructure:"-"`
	AnthropicAPIKey string `mapstructure:"-"`
}

// Backends lists every supported backend name
func Backends() []string {
	return []string{BackendGemini, BackendOllama, BackendAnthropic, BackendGrok, BackendOpenAI}
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend", BackendGemini)
	v.SetDefault("model", "")
	v.SetDefault("system", "")
	v.SetDefault("debug", false)
	v.SetDefault("plain", false)
	v.SetDefault("log-dir", "logs")
	v.SetDefault("ollama-url", "http://localhost:11434")
	v.SetDefault("grok-url", "https://api.x.ai/v1")
	v.SetDefault("gemini-url", "")
	v.SetDefault("anthropic-url", "")
	v.SetDefault("max-tokens", 1024)
	v.SetDefault("metrics-interval", 10*time.Second)
}

// Load builds a Config from v. A .env file in the working directory is
// merged into the environment first; an explicit configFile must exist.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.GeminiAPIKey = firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY"))
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.GrokAPIKey = os.Getenv("GROK_API_KEY")
	cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the backend name
func (c Config) Validate() error {
	for _, b := range Backends() {
		if c.Backend == b {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownBackend, c.Backend, strings.Join(Backends(), "|"))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
