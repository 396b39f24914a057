package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"LaborPulse/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Provider struct {
		BaseURL     string            `yaml:"base_url"`
		APIKey      string            `yaml:"api_key"`
		Series      map[string]string `yaml:"series"`       // sector id -> provider series id
		TotalSeries string            `yaml:"total_series"` // overall layoffs series id
		Timeout     time.Duration     `yaml:"timeout"`
		RefreshSpec string            `yaml:"refresh_spec"` // cron spec, e.g. "@every 1h"
		TrailingN   int               `yaml:"trailing_n"`
	} `yaml:"provider"`
	Nowcast struct {
		ModelFile    string        `yaml:"model_file"`
		TickInterval time.Duration `yaml:"tick_interval"`
		JitterSpread float64       `yaml:"jitter_spread"` // 0 disables tick jitter
	} `yaml:"nowcast"`
	Hub struct {
		MaxViewers   int           `yaml:"max_viewers"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"hub"`
	State struct {
		Store           string        `yaml:"store"` // redis or memory
		PersistInterval time.Duration `yaml:"persist_interval"`
	} `yaml:"state"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Archive struct {
		Backend string `yaml:"backend"` // clickhouse, kafka, or none
	} `yaml:"archive"`
	Kafka struct {
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("PROVIDER_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("PROVIDER_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("ARCHIVE_BACKEND"); v != "" {
		c.Archive.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	c.Redis.Port = util.ParseIntDefault(os.Getenv("REDIS_PORT"), c.Redis.Port)
	c.Server.Port = util.ParseIntDefault(os.Getenv("SERVER_PORT"), c.Server.Port)

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	if len(c.Provider.Series) == 0 {
		return fmt.Errorf("provider.series cannot be empty")
	}
	if c.Provider.RefreshSpec == "" {
		return fmt.Errorf("provider.refresh_spec is required")
	}
	if c.Nowcast.ModelFile == "" {
		return fmt.Errorf("nowcast.model_file is required")
	}
	switch c.Archive.Backend {
	case "", "none", "kafka", "clickhouse":
	default:
		return fmt.Errorf("archive.backend must be 'kafka', 'clickhouse' or 'none', got '%s'", c.Archive.Backend)
	}
	switch c.State.Store {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("state.store must be 'redis' or 'memory', got '%s'", c.State.Store)
	}
	return nil
}
