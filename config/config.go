// Package config loads orchestrator configuration from a YAML file and
// the environment. Environment variables override file values; a .env
// file is honored when present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/droverhq/drover/retry"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Provider ProviderConfig `yaml:"provider"`
	Agent    AgentConfig    `yaml:"agent"`
	Retry    RetryConfig    `yaml:"retry"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"` // default "127.0.0.1"
	Port int    `yaml:"port"` // default 7230
}

type StoreConfig struct {
	// Type selects the run store backend: "memory", "bolt", or "redis".
	Type    string `yaml:"type"`
	DataDir string `yaml:"dataDir"`
	// Redis settings, used when Type is "redis".
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
}

type ProviderConfig struct {
	// Name selects the model client: "anthropic", "openai", or "google".
	Name  string `yaml:"name"`
	Model string `yaml:"model"`
	// API keys are usually supplied via environment, not the file.
	AnthropicKey string `yaml:"-"`
	OpenAIKey    string `yaml:"-"`
	GoogleKey    string `yaml:"-"`
}

type AgentConfig struct {
	MaxIterations  int           `yaml:"maxIterations"`
	Timeout        time.Duration `yaml:"timeout"`
	ModelTimeout   time.Duration `yaml:"modelTimeout"`
	HandlerTimeout time.Duration `yaml:"handlerTimeout"`
	TerminateTool  string        `yaml:"terminateTool"`
	ParallelTools  *bool         `yaml:"parallelTools"`
}

type RetryConfig struct {
	MaxAttempts  int           `yaml:"maxAttempts"`
	InitialDelay time.Duration `yaml:"initialDelay"`
	MaxDelay     time.Duration `yaml:"maxDelay"`
	Multiplier   float64       `yaml:"multiplier"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // default "info"
	Format string `yaml:"format"` // "console" or "json"
}

// Default returns a Config populated with all default values.
func Default() *Config {
	parallel := true
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 7230,
		},
		Store: StoreConfig{
			Type:      "memory",
			DataDir:   defaultDataDir(),
			RedisAddr: "localhost:6379",
		},
		Provider: ProviderConfig{
			Name: "anthropic",
		},
		Agent: AgentConfig{
			MaxIterations:  10,
			Timeout:        5 * time.Minute,
			HandlerTimeout: 30 * time.Second,
			TerminateTool:  "task_complete",
			ParallelTools:  &parallel,
		},
		Retry: RetryConfig{
			MaxAttempts:  5,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration: defaults, then the YAML file at path (if
// path is empty or the file is missing, defaults stand), then
// environment overrides.
func Load(path string) (*Config, error) {
	godotenv.Load()

	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Provider.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	c.Provider.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.Provider.GoogleKey = os.Getenv("GOOGLE_API_KEY")

	if v := os.Getenv("DROVER_PROVIDER"); v != "" {
		c.Provider.Name = v
	}
	if v := os.Getenv("DROVER_MODEL"); v != "" {
		c.Provider.Model = v
	}
	if v := os.Getenv("DROVER_STORE"); v != "" {
		c.Store.Type = v
	}
	if v := os.Getenv("DROVER_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Agent.MaxIterations = n
		}
	}
	if v := os.Getenv("DROVER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Agent.Timeout = d
		}
	}
	if v := os.Getenv("DROVER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case "anthropic", "openai", "google":
	default:
		return fmt.Errorf("config: unknown provider %q (want anthropic, openai, or google)", c.Provider.Name)
	}

	switch c.Store.Type {
	case "memory", "bolt", "redis":
	default:
		return fmt.Errorf("config: unknown store type %q (want memory, bolt, or redis)", c.Store.Type)
	}

	if c.Agent.MaxIterations < 0 {
		return fmt.Errorf("config: maxIterations must not be negative")
	}
	return nil
}

// APIKey returns the key for the configured provider.
func (c *Config) APIKey() string {
	switch c.Provider.Name {
	case "anthropic":
		return c.Provider.AnthropicKey
	case "openai":
		return c.Provider.OpenAIKey
	case "google":
		return c.Provider.GoogleKey
	}
	return ""
}

// RetryPolicy converts the retry section to the runtime config.
func (c *Config) RetryPolicy() retry.Config {
	cfg := retry.DefaultConfig()
	if c.Retry.MaxAttempts > 0 {
		cfg.MaxAttempts = c.Retry.MaxAttempts
	}
	if c.Retry.InitialDelay > 0 {
		cfg.InitialDelay = c.Retry.InitialDelay
	}
	if c.Retry.MaxDelay > 0 {
		cfg.MaxDelay = c.Retry.MaxDelay
	}
	if c.Retry.Multiplier > 0 {
		cfg.Multiplier = c.Retry.Multiplier
	}
	return cfg
}

// ServerAddress returns the listen address in "host:port" format.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DBPath returns the BoltDB file path inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.Store.DataDir, "drover.db")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", "drover", "data")
	}
	return filepath.Join(home, ".drover", "data")
}
