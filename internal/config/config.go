package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the engine's environment configuration.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	RedisURL    string `env:"REDIS_URL" envDefault:"localhost:6379"`
	ScenarioDir string `env:"SCENARIO_DIR" envDefault:"./data/scenarios"`

	LLMProvider     string `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIBaseURL   string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`

	// StoryModel drives world decisions; VoiceModel speaks for characters.
	// VoiceModel falls back to StoryModel when unset.
	StoryModel string `env:"STORY_MODEL" envDefault:"gpt-4o-mini"`
	VoiceModel string `env:"VOICE_MODEL"`

	HistoryLimit int           `env:"HISTORY_LIMIT" envDefault:"5"`
	TurnTimeout  time.Duration `env:"TURN_TIMEOUT" envDefault:"60s"`
	VoiceTimeout time.Duration `env:"VOICE_TIMEOUT" envDefault:"30s"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}

// SlogLevel maps the configured log level string to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction reports whether the engine runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowDraftScenarios reports whether draft scenarios are playable. Drafts
// are only playable outside production.
func (c *Config) AllowDraftScenarios() bool {
	return !c.IsProduction()
}
