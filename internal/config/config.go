// Package config loads muqbot settings from defaults, an optional YAML file,
// a .env file and MUQBOT_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is returned when a provider needs a key that is not set.
var ErrMissingAPIKey = errors.New("missing API key")

// EnvPrefix prefixes environment overrides, e.g. MUQBOT_LLM_MODEL.
const EnvPrefix = "MUQBOT"

type ChunkerConfig struct {
	Size    int `mapstructure:"size" yaml:"size"`
	Overlap int `mapstructure:"overlap" yaml:"overlap"`
}

type RetrievalConfig struct {
	TopK int `mapstructure:"top_k" yaml:"top_k"`
}

type IndexConfig struct {
	Metric string `mapstructure:"metric" yaml:"metric"`
}

// ModelConfig selects a provider and model for embeddings or generation.
type ModelConfig struct {
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	Model       string  `mapstructure:"model" yaml:"model"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url"`
	APIKeyEnv   string  `mapstructure:"api_key_env" yaml:"api_key_env"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature,omitempty"`
}

type CacheConfig struct {
	Backend     string `mapstructure:"backend" yaml:"backend"`
	Dir         string `mapstructure:"dir" yaml:"dir"`
	SQLitePath  string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	RedisAddr   string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisDB     int    `mapstructure:"redis_db" yaml:"redis_db"`
	RedisPrefix string `mapstructure:"redis_prefix" yaml:"redis_prefix"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

// Config is the effective application configuration.
type Config struct {
	Chunker   ChunkerConfig   `mapstructure:"chunker" yaml:"chunker"`
	Retrieval RetrievalConfig `mapstructure:"retrieval" yaml:"retrieval"`
	Index     IndexConfig     `mapstructure:"index" yaml:"index"`
	Embedder  ModelConfig     `mapstructure:"embedder" yaml:"embedder"`
	LLM       ModelConfig     `mapstructure:"llm" yaml:"llm"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chunker.size", 500)
	v.SetDefault("chunker.overlap", 70)

	v.SetDefault("retrieval.top_k", 4)
	v.SetDefault("index.metric", "l2")

	v.SetDefault("embedder.provider", "ollama")
	v.SetDefault("embedder.model", "all-minilm")
	v.SetDefault("embedder.base_url", "http://localhost:11434")
	v.SetDefault("embedder.api_key_env", "OPENAI_API_KEY")
	v.SetDefault("embedder.temperature", 0)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.base_url", "https://generativelanguage.googleapis.com/v1beta/openai")
	v.SetDefault("llm.api_key_env", "GOOGLE_API_KEY")
	v.SetDefault("llm.temperature", 0)

	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.dir", "cache")
	v.SetDefault("cache.sqlite_path", "cache/knowledge_bases.db")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.redis_prefix", "muqbot:kb:")

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads .env from the working directory, then the config file (or
// ./muqbot.yaml when file is empty and it exists), then the environment.
func Load(file string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("muqbot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv exports the variables in path without overriding ones already
// set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if err := oneOf("index.metric", c.Index.Metric, "l2", "cosine"); err != nil {
		return err
	}
	if err := oneOf("embedder.provider", c.Embedder.Provider, "ollama", "openai"); err != nil {
		return err
	}
	if err := oneOf("llm.provider", c.LLM.Provider, "ollama", "openai"); err != nil {
		return err
	}
	if err := oneOf("cache.backend", c.Cache.Backend, "file", "sqlite", "redis", "none"); err != nil {
		return err
	}
	if c.Chunker.Size <= 0 || c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.Size {
		return fmt.Errorf("chunker.overlap (%d) must be in [0, chunker.size (%d))", c.Chunker.Overlap, c.Chunker.Size)
	}
	return nil
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s: unknown value %q (want one of %s)", key, value, strings.Join(allowed, ", "))
}

// LLMAPIKey returns the generation API key. Ollama needs none.
func (c *Config) LLMAPIKey() (string, error) {
	return apiKey(c.LLM)
}

// EmbedderAPIKey returns the embedding API key. Ollama needs none.
func (c *Config) EmbedderAPIKey() (string, error) {
	return apiKey(c.Embedder)
}

func apiKey(m ModelConfig) (string, error) {
	if m.Provider == "ollama" {
		return "", nil
	}
	key := os.Getenv(m.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%w: set %s", ErrMissingAPIKey, m.APIKeyEnv)
	}
	return key, nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
