package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/timmy/memeforge/internal/domain"
)

type Config struct {
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Replicate ReplicateConfig `mapstructure:"replicate"`
	Output    OutputConfig    `mapstructure:"output"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Log       LogConfig       `mapstructure:"log"`
}

type GeminiConfig struct {
	APIKey      string `mapstructure:"api_key"`
	PlanModel   string `mapstructure:"plan_model"`
	VisionModel string `mapstructure:"vision_model"`
	ImageModel  string `mapstructure:"image_model"`
}

type ReplicateConfig struct {
	APIToken        string `mapstructure:"api_token"`
	BaseURL         string `mapstructure:"base_url"`
	Model           string `mapstructure:"model"`
	FallbackVersion string `mapstructure:"fallback_version"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec"`
	MaxWaitSec      int    `mapstructure:"max_wait_sec"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

type PipelineConfig struct {
	MaxAttempts     int `mapstructure:"max_attempts"`
	RetryBackoffSec int `mapstructure:"retry_backoff_sec"`
	TimeoutSec      int `mapstructure:"timeout_sec"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// PollInterval returns the Replicate polling interval as a duration.
func (c ReplicateConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// MaxWait returns the Replicate prediction wait deadline as a duration.
func (c ReplicateConfig) MaxWait() time.Duration {
	return time.Duration(c.MaxWaitSec) * time.Second
}

// RetryBackoff returns the delay between stage retries as a duration.
func (c PipelineConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffSec) * time.Second
}

// Timeout returns the per-request HTTP timeout as a duration.
func (c PipelineConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("gemini.plan_model", "gemini-2.5-flash")
	v.SetDefault("gemini.vision_model", "gemini-2.5-flash")
	v.SetDefault("gemini.image_model", "gemini-2.0-flash-preview-image-generation")
	v.SetDefault("replicate.base_url", "https://api.replicate.com/v1")
	v.SetDefault("replicate.model", "black-forest-labs/flux-1.1-pro")
	v.SetDefault("replicate.fallback_version", "ac732df83cea7fff18b8472768c88ad041fa750ff7682a21affe81863cbe77e4")
	v.SetDefault("replicate.poll_interval_sec", 5)
	v.SetDefault("replicate.max_wait_sec", 300)
	v.SetDefault("output.dir", "output")
	v.SetDefault("pipeline.max_attempts", 2)
	v.SetDefault("pipeline.retry_backoff_sec", 2)
	v.SetDefault("pipeline.timeout_sec", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "memeforge.log")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("gemini.plan_model", "GEMINI_PLAN_MODEL")
	v.BindEnv("gemini.image_model", "GEMINI_IMAGE_MODEL")
	v.BindEnv("replicate.api_token", "REPLICATE_API_TOKEN")
	v.BindEnv("replicate.base_url", "REPLICATE_BASE_URL")
	v.BindEnv("replicate.model", "REPLICATE_MODEL")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.file", "LOG_FILE")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that every required credential is present. It returns a
// *domain.ConfigError naming all missing variables so the run can abort
// before any client is constructed.
func (c *Config) Validate() error {
	var missing []string
	if c.Gemini.APIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if c.Replicate.APIToken == "" {
		missing = append(missing, "REPLICATE_API_TOKEN")
	}
	if len(missing) > 0 {
		return &domain.ConfigError{Missing: missing}
	}
	return nil
}
