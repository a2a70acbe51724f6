// Package config loads application configuration from a YAML file with
// environment variable fallbacks.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// Server
	ListenAddr  string   `yaml:"listen_addr"`
	CORSOrigins []string `yaml:"cors_origins"`

	// API keys
	OpenAIKey  string `yaml:"openai_key"`
	GeminiKey  string `yaml:"gemini_key"`
	YouTubeKey string `yaml:"youtube_key"`
	TavilyKey  string `yaml:"tavily_key"`

	// LLM provider and per-role models
	Provider string       `yaml:"provider"` // openai, gemini
	Models   ModelsConfig `yaml:"models"`

	// Analysis parameters
	MaxComments int           `yaml:"max_comments"`
	MaxSteps    int           `yaml:"max_steps"`
	LLMTimeout  time.Duration `yaml:"llm_timeout"`

	// Sessions
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// Redis checkpoint backend; empty addr keeps checkpoints in memory.
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// ModelsConfig assigns a model to each role.
type ModelsConfig struct {
	Supervisor string `yaml:"supervisor"`
	Research   string `yaml:"research"`
	Analysis   string `yaml:"analysis"`
	Generator  string `yaml:"generator"`
	Summarizer string `yaml:"summarizer"`
}

// Load reads the YAML file at path and fills gaps from the
// environment. An empty path loads from environment only.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setIfEmpty(&c.ListenAddr, "VIDSENSE_ADDR")
	setIfEmpty(&c.OpenAIKey, "OPENAI_API_KEY")
	setIfEmpty(&c.GeminiKey, "GEMINI_API_KEY")
	setIfEmpty(&c.YouTubeKey, "YOUTUBE_API_KEY")
	setIfEmpty(&c.TavilyKey, "TAVILY_API_KEY")
	setIfEmpty(&c.Provider, "VIDSENSE_PROVIDER")
	setIfEmpty(&c.RedisAddr, "REDIS_ADDR")
	setIfEmpty(&c.RedisPassword, "REDIS_PASSWORD")

	if c.SessionTTL == 0 {
		if hours, err := strconv.Atoi(os.Getenv("SESSION_TTL_HOURS")); err == nil && hours > 0 {
			c.SessionTTL = time.Duration(hours) * time.Hour
		}
	}
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8000"
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
	if c.Provider == "" {
		c.Provider = "openai"
	}
	if c.Models.Supervisor == "" {
		c.Models.Supervisor = "gpt-4o-mini"
	}
	if c.Models.Research == "" {
		c.Models.Research = "gpt-4o-mini"
	}
	if c.Models.Analysis == "" {
		c.Models.Analysis = "gpt-4o-mini"
	}
	if c.Models.Generator == "" {
		c.Models.Generator = "gpt-4.1-nano"
	}
	if c.Models.Summarizer == "" {
		c.Models.Summarizer = "gpt-4o-mini"
	}
	if c.MaxComments <= 0 {
		c.MaxComments = 50
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = 25
	}
	if c.LLMTimeout <= 0 {
		c.LLMTimeout = 2 * time.Minute
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 24 * time.Hour
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Hour
	}
}

// APIKey returns the key for the configured LLM provider.
func (c *Config) APIKey() string {
	if c.Provider == "gemini" {
		return c.GeminiKey
	}
	return c.OpenAIKey
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.APIKey() == "" {
		return fmt.Errorf("no API key configured for provider %q", c.Provider)
	}
	if c.YouTubeKey == "" {
		return fmt.Errorf("youtube_key is required")
	}
	if c.TavilyKey == "" {
		return fmt.Errorf("tavily_key is required")
	}
	return nil
}

func setIfEmpty(target *string, envVar string) {
	if *target == "" {
		*target = os.Getenv(envVar)
	}
}
