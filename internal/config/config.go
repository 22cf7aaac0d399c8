package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	Evaluator EvaluatorConfig `yaml:"evaluator" mapstructure:"evaluator"`
	Intake    IntakeConfig    `yaml:"intake" mapstructure:"intake"`
	Judge     JudgeConfig     `yaml:"judge" mapstructure:"judge"`
	Telegram  TelegramConfig  `yaml:"telegram" mapstructure:"telegram"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the progress database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// EvaluatorConfig selects the LLM provider and call behavior.
type EvaluatorConfig struct {
	Provider         string `yaml:"provider" mapstructure:"provider"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	BatchSize        int    `yaml:"batch_size" mapstructure:"batch_size"`
	PersonaDelaySecs int    `yaml:"persona_delay_secs" mapstructure:"persona_delay_secs"`
}

// IntakeConfig configures candidate feeds and filtering.
type IntakeConfig struct {
	Feeds       []string `yaml:"feeds" mapstructure:"feeds"`
	RecencyDays int      `yaml:"recency_days" mapstructure:"recency_days"`
	Exclusions  []string `yaml:"exclusions" mapstructure:"exclusions"`
}

// JudgeConfig configures the persona panel.
type JudgeConfig struct {
	PersonasFile string `yaml:"personas_file" mapstructure:"personas_file"`
}

// TelegramConfig holds Telegram bot delivery settings.
type TelegramConfig struct {
	BotToken      string `yaml:"bot_token" mapstructure:"bot_token"`
	ChatID        string `yaml:"chat_id" mapstructure:"chat_id"`
	MaxMessageLen int    `yaml:"max_message_len" mapstructure:"max_message_len"`
}

// ServerConfig configures the status HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CASAWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "triage.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("evaluator.provider", "anthropic")
	v.SetDefault("evaluator.timeout_secs", 120)
	v.SetDefault("evaluator.batch_size", 5)
	v.SetDefault("evaluator.persona_delay_secs", 2)
	v.SetDefault("intake.recency_days", 14)
	v.SetDefault("intake.exclusions", []string{})
	v.SetDefault("telegram.max_message_len", 4096)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
