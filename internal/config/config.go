package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Tender/internal/catalog"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Redis    RedisConfig    `yaml:"redis"`
	LLM      LLMConfig      `yaml:"llm"`
	Batch    BatchConfig    `yaml:"batch"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	MetricsPort int `yaml:"metrics_port"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig enables the distributed supplier lock. Empty URL means in-process locking.
type RedisConfig struct {
	URL       string `yaml:"url"`
	LockTTLMs int    `yaml:"lock_ttl_ms"`
}

type LLMConfig struct {
	Provider      string `yaml:"provider"` // "http" or "gemini"
	URL           string `yaml:"url"`
	APIKey        string `yaml:"api_key"`
	PrimaryModel  string `yaml:"primary_model"`
	FallbackModel string `yaml:"fallback_model"`
	TimeoutMs     int    `yaml:"timeout_ms"`
	MaxLogLength  int    `yaml:"max_log_length"`
}

type BatchConfig struct {
	Workers int `yaml:"workers"`
}

type ScoringConfig struct {
	RequirementWorkers   int     `yaml:"requirement_workers"`
	AIEnabled            bool    `yaml:"ai_enabled"`
	RuleWeighting        float64 `yaml:"rule_weighting"`
	AIWeighting          float64 `yaml:"ai_weighting"`
	MustHaveFailBehavior string  `yaml:"must_have_fail_behavior"`
	ScoringScale         float64 `yaml:"scoring_scale"`
}

type CatalogConfig struct {
	StripMarkup bool `yaml:"strip_markup"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutMs) * time.Millisecond
}

func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.Redis.LockTTLMs) * time.Millisecond
}

// Models returns the ordered AI attempt list, primary first. Blank or duplicate
// fallback entries are dropped.
func (c *Config) Models() []string {
	models := []string{c.LLM.PrimaryModel}
	if c.LLM.FallbackModel != "" && c.LLM.FallbackModel != c.LLM.PrimaryModel {
		models = append(models, c.LLM.FallbackModel)
	}
	return models
}

// DefaultSettings returns the scoring settings applied to RFPs with no stored configuration.
func (c *Config) DefaultSettings() (catalog.Settings, error) {
	behavior, err := catalog.ParseFailBehavior(c.Scoring.MustHaveFailBehavior)
	if err != nil {
		return catalog.Settings{}, err
	}
	s := catalog.Settings{
		AIEnabled:            c.Scoring.AIEnabled,
		RuleWeighting:        c.Scoring.RuleWeighting,
		AIWeighting:          c.Scoring.AIWeighting,
		MustHaveFailBehavior: behavior,
		ScoringScale:         c.Scoring.ScoringScale,
	}
	if err := s.Validate(); err != nil {
		return catalog.Settings{}, err
	}
	return s, nil
}

func Load(path string) (*Config, error) {
	defaults := catalog.DefaultSettings()
	cfg := &Config{
		Server: ServerConfig{
			MetricsPort: 8701,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Redis: RedisConfig{
			LockTTLMs: 120000,
		},
		LLM: LLMConfig{
			Provider:      "http",
			URL:           "http://localhost:8090/v1/chat/completions",
			PrimaryModel:  "claude-haiku-4-5-20251001",
			FallbackModel: "claude-sonnet-4-5-20250929",
			TimeoutMs:     30000,
			MaxLogLength:  200,
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Scoring: ScoringConfig{
			RequirementWorkers:   4,
			AIEnabled:            defaults.AIEnabled,
			RuleWeighting:        defaults.RuleWeighting,
			AIWeighting:          defaults.AIWeighting,
			MustHaveFailBehavior: string(defaults.MustHaveFailBehavior),
			ScoringScale:         defaults.ScoringScale,
		},
		Catalog: CatalogConfig{
			StripMarkup: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TENDER_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("TENDER_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("TENDER_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("TENDER_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("TENDER_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("TENDER_LLM_URL"); v != "" {
		cfg.LLM.URL = v
	}
	if v := os.Getenv("TENDER_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("TENDER_LLM_PRIMARY_MODEL"); v != "" {
		cfg.LLM.PrimaryModel = v
	}
	if v := os.Getenv("TENDER_LLM_FALLBACK_MODEL"); v != "" {
		cfg.LLM.FallbackModel = v
	}
	if v := os.Getenv("TENDER_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LLM.TimeoutMs = n
		}
	}
	if v := os.Getenv("TENDER_BATCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Batch.Workers = n
		}
	}
	if v := os.Getenv("TENDER_AI_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Scoring.AIEnabled = b
		}
	}
	if v := os.Getenv("TENDER_STRIP_MARKUP"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Catalog.StripMarkup = b
		}
	}
	if v := os.Getenv("TENDER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TENDER_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
