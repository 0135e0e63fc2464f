package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config.json"

// Config is the on-disk configuration shared by the server and the CLIs.
// Files ending in .yaml or .yml are decoded as YAML, anything else as JSON.
type Config struct {
	Listen      string        `json:"listen" yaml:"listen"`
	LogLevel    string        `json:"log_level" yaml:"log_level"`
	LogFormat   string        `json:"log_format" yaml:"log_format"`
	JournalPath string        `json:"journal_path" yaml:"journal_path"`
	Storage     StorageConfig `json:"storage" yaml:"storage"`
	LLM         LLMConfig     `json:"llm" yaml:"llm"`
	Edit        EditConfig    `json:"edit" yaml:"edit"`
}

type StorageConfig struct {
	Backend      string   `json:"backend" yaml:"backend"` // "fs" or "s3"
	Root         string   `json:"root" yaml:"root"`
	CacheEntries int      `json:"cache_entries" yaml:"cache_entries"`
	S3           S3Config `json:"s3" yaml:"s3"`
}

type S3Config struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	Bucket    string `json:"bucket" yaml:"bucket"`
	Prefix    string `json:"prefix" yaml:"prefix"`
	Region    string `json:"region" yaml:"region"`
	AccessKey string `json:"access_key" yaml:"access_key"`
	SecretKey string `json:"secret_key" yaml:"secret_key"`
	UseSSL    bool   `json:"use_ssl" yaml:"use_ssl"`
}

type LLMConfig struct {
	Provider   string `json:"provider" yaml:"provider"` // "openai" or "gemini"
	Model      string `json:"model" yaml:"model"`
	BaseURL    string `json:"base_url" yaml:"base_url"`
	APIKey     string `json:"api_key" yaml:"api_key"`
	MaxRetries int    `json:"max_retries" yaml:"max_retries"`
}

type EditConfig struct {
	TimeoutSeconds     int   `json:"timeout_seconds" yaml:"timeout_seconds"`
	SanitizeSnippets   *bool `json:"sanitize_snippets" yaml:"sanitize_snippets"`
	SnippetConcurrency int   `json:"snippet_concurrency" yaml:"snippet_concurrency"`
	LockDocuments      *bool `json:"lock_documents" yaml:"lock_documents"`
}

func DefaultPath() string {
	if path := os.Getenv("SITEEDITOR_CONFIG_FILE"); path != "" {
		return path
	}
	return defaultConfigPath
}

// Load reads the config file at path, applies environment overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.defaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes raw config bytes. ext selects the decoder (".yaml"/".yml"
// for YAML, JSON otherwise).
func Parse(raw []byte, ext string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	default:
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		if strings.HasPrefix(port, ":") {
			c.Listen = port
		} else {
			c.Listen = ":" + port
		}
	}
	if level := os.Getenv("SITEEDITOR_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if c.LLM.APIKey == "" {
		switch strings.ToLower(c.LLM.Provider) {
		case "gemini":
			c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		default:
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if c.Storage.S3.AccessKey == "" {
		c.Storage.S3.AccessKey = os.Getenv("SITEEDITOR_S3_ACCESS_KEY")
	}
	if c.Storage.S3.SecretKey == "" {
		c.Storage.S3.SecretKey = os.Getenv("SITEEDITOR_S3_SECRET_KEY")
	}
}

func (c *Config) defaults() {
	if c.Listen == "" {
		c.Listen = ":3000"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "fs"
	}
	if c.Storage.Backend == "s3" && c.Storage.S3.Region == "" {
		c.Storage.S3.Region = "us-east-1"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case "gemini":
			c.LLM.Model = "gemini-2.5-flash"
		default:
			c.LLM.Model = "gpt-4o-mini"
		}
	}
	if c.LLM.Provider == "openai" && c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.MaxRetries <= 0 {
		c.LLM.MaxRetries = 1
	}
	if c.Edit.TimeoutSeconds <= 0 {
		c.Edit.TimeoutSeconds = 12
	}
	if c.Edit.SnippetConcurrency <= 0 {
		c.Edit.SnippetConcurrency = 4
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "fs":
		if c.Storage.Root == "" {
			return errors.New("config storage.root is required for the fs backend")
		}
	case "s3":
		if c.Storage.S3.Endpoint == "" {
			return errors.New("config storage.s3.endpoint is required for the s3 backend")
		}
		if c.Storage.S3.Bucket == "" {
			return errors.New("config storage.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("config storage.backend %q is not supported", c.Storage.Backend)
	}
	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("config llm.provider %q is not supported", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return errors.New("config llm.model is required")
	}
	if c.Storage.CacheEntries < 0 {
		return errors.New("config storage.cache_entries must not be negative")
	}
	return nil
}

// EditTimeout is the bound applied to every generation call.
func (c *Config) EditTimeout() time.Duration {
	return time.Duration(c.Edit.TimeoutSeconds) * time.Second
}

func (c *Config) SanitizeSnippets() bool {
	return c.Edit.SanitizeSnippets == nil || *c.Edit.SanitizeSnippets
}

func (c *Config) LockDocuments() bool {
	return c.Edit.LockDocuments == nil || *c.Edit.LockDocuments
}
