// Package config loads process configuration once at startup.
//
// Sources, lowest priority first: defaults, an optional YAML file, then
// environment variables. Environment files are loaded before the environment
// is read: ENV_FILE if set, otherwise .env.local and .env. Missing files are ignored.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"auto_wordpress_article_publisher/generator"
	"auto_wordpress_article_publisher/publisher"
)

// Config is read once per process and never mutated afterwards.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Image     ImageConfig     `yaml:"image"`
	WordPress WordPressConfig `yaml:"wordpress"`
	Prompts   PromptConfig    `yaml:"prompts"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// AccessKey gates /workflow. Empty means the gate rejects every call.
	AccessKey string `yaml:"access_key"`
}

type LLMConfig struct {
	// Provider is "openai" (any OpenAI-compatible endpoint) or "mock".
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	// Temperature is nil until set; 0 is a valid, deterministic value.
	Temperature *float64 `yaml:"temperature"`
}

type ImageConfig struct {
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Size    string `yaml:"size"`
}

type WordPressConfig struct {
	BaseURL      string `yaml:"base_url"`
	Username     string `yaml:"username"`
	AppPassword  string `yaml:"app_password"`
	CategoryID   int    `yaml:"category_id"`
	Status       string `yaml:"status"`
	DraftStatus  string `yaml:"draft_status"`
	DefaultTitle string `yaml:"default_title"`
}

type PromptConfig struct {
	System          string `yaml:"system"`
	Article         string `yaml:"article"`
	Image           string `yaml:"image"`
	FallbackArticle string `yaml:"fallback_article"`
}

type TimeoutConfig struct {
	Text  time.Duration `yaml:"text"`
	Image time.Duration `yaml:"image"`
	CMS   time.Duration `yaml:"cms"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Load reads path (optional; empty or missing skips the file) and applies
// environment overrides on top.
func Load(path string) (Config, error) {
	if err := loadEnvFiles(); err != nil {
		return Config{}, err
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.SetDefaults()
	return cfg, nil
}

func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	// godotenv never overrides variables that are already set, so .env.local wins over .env.
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.Server.AccessKey, "PUBLIC_EXPERIMENT_KEY")

	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.APIKey, "OPENAI_API_KEY")
	setString(&c.LLM.BaseURL, "OPENAI_API_BASE")
	setString(&c.LLM.Model, "OPENAI_MODEL")
	if v := strings.TrimSpace(os.Getenv("OPENAI_TEMPERATURE")); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("OPENAI_TEMPERATURE: %w", err)
		}
		c.LLM.Temperature = &t
	}

	setString(&c.Image.APIKey, "OPENAI_IMAGE_API_KEY")
	setString(&c.Image.Model, "OPENAI_IMAGE_MODEL")

	setString(&c.WordPress.BaseURL, "WORDPRESS_BASE_URL")
	setString(&c.WordPress.Username, "WORDPRESS_USERNAME")
	setString(&c.WordPress.AppPassword, "WORDPRESS_APP_PASSWORD")
	if v := strings.TrimSpace(os.Getenv("WORDPRESS_CATEGORY_ID")); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WORDPRESS_CATEGORY_ID: %w", err)
		}
		c.WordPress.CategoryID = id
	}

	setString(&c.Log.Level, "LOG_LEVEL")
	return nil
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = generator.DefaultChatModel
	}
	if c.LLM.Temperature == nil {
		t := generator.DefaultTemperature
		c.LLM.Temperature = &t
	}
	c.LLM.BaseURL = normalizeOpenAIBase(c.LLM.BaseURL)
	// Only an OpenAI text key is valid for the OpenAI images endpoint.
	if c.Image.APIKey == "" && c.LLM.Provider == "openai" {
		c.Image.APIKey = c.LLM.APIKey
	}
	if c.Image.Model == "" {
		c.Image.Model = generator.DefaultImageModel
	}
	if c.Image.Size == "" {
		c.Image.Size = generator.DefaultImageSize
	}
	c.Image.BaseURL = normalizeOpenAIBase(c.Image.BaseURL)
	c.WordPress.BaseURL = strings.TrimRight(c.WordPress.BaseURL, "/")
	if c.WordPress.Status == "" {
		c.WordPress.Status = publisher.DefaultPostStatus
	}
	if c.WordPress.DraftStatus == "" {
		c.WordPress.DraftStatus = publisher.DefaultDraftStatus
	}
	if c.WordPress.DefaultTitle == "" {
		c.WordPress.DefaultTitle = publisher.DefaultPostTitle
	}
	if c.Timeouts.Text <= 0 {
		c.Timeouts.Text = generator.DefaultDraftTimeout
	}
	if c.Timeouts.Image <= 0 {
		c.Timeouts.Image = generator.DefaultImageTimeout
	}
	if c.Timeouts.CMS <= 0 {
		c.Timeouts.CMS = publisher.DefaultTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// normalizeOpenAIBase accepts both "https://host" and "https://host/v1" and
// returns the form the SDK expects ("https://host/v1/").
func normalizeOpenAIBase(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return ""
	}
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	return base + "/"
}

// LLMSettings maps the text-generation section for the generator package.
func (c Config) LLMSettings() *generator.LLMSettings {
	return &generator.LLMSettings{
		Provider:    c.LLM.Provider,
		Model:       c.LLM.Model,
		APIKey:      c.LLM.APIKey,
		BaseURL:     c.LLM.BaseURL,
		Temperature: c.LLM.Temperature,
	}
}

// ImageSettings maps the image-generation section for the generator package.
func (c Config) ImageSettings() *generator.ImageSettings {
	return &generator.ImageSettings{
		Model:   c.Image.Model,
		APIKey:  c.Image.APIKey,
		BaseURL: c.Image.BaseURL,
		Size:    c.Image.Size,
	}
}

// GeneratorOptions maps prompts and generation timeouts.
func (c Config) GeneratorOptions() generator.Options {
	return generator.Options{
		Prompts: generator.Prompts{
			System:          c.Prompts.System,
			Article:         c.Prompts.Article,
			Image:           c.Prompts.Image,
			FallbackArticle: c.Prompts.FallbackArticle,
		},
		DraftTimeout: c.Timeouts.Text,
		ImageTimeout: c.Timeouts.Image,
	}
}

// PublisherConfig maps the WordPress section.
func (c Config) PublisherConfig() publisher.Config {
	return publisher.Config{
		BaseURL:      c.WordPress.BaseURL,
		Username:     c.WordPress.Username,
		AppPassword:  c.WordPress.AppPassword,
		CategoryID:   c.WordPress.CategoryID,
		Status:       c.WordPress.Status,
		DraftStatus:  c.WordPress.DraftStatus,
		DefaultTitle: c.WordPress.DefaultTitle,
		Timeout:      c.Timeouts.CMS,
	}
}
