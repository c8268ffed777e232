package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"HealthTwin/pkg/util"
)

// Backend types for sample forwarding.
const (
	BackendNone       = "none"
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
	BackendSQLite     = "sqlite"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
		Digest struct {
			Enabled   bool          `yaml:"enabled"`
			Topic     string        `yaml:"topic"`
			Interval  time.Duration `yaml:"interval"`
			Threshold int           `yaml:"threshold"`
		} `yaml:"digest"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
	Signals struct {
		Interval           time.Duration `yaml:"interval"`
		WindowSize         int           `yaml:"window_size"`
		Seed               int64         `yaml:"seed"`
		AnomalyProbability float64       `yaml:"anomaly_probability"`
	} `yaml:"signals"`
	Backend struct {
		Type        string        `yaml:"type"`
		MaxRPS      int           `yaml:"max_rps"`
		BufferSize  int           `yaml:"buffer_size"`
		BatchSize   int           `yaml:"batch_size"`
		BatchLinger time.Duration `yaml:"batch_linger"`
		Backoff     time.Duration `yaml:"backoff"`
		SQLitePath  string        `yaml:"sqlite_path"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		Table            string        `yaml:"table"`
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
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Gemini struct {
		APIKey  string        `yaml:"api_key"`
		Model   string        `yaml:"model"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"gemini"`
	Insights struct {
		CacheTTL   time.Duration `yaml:"cache_ttl"`
		RateBurst  float64       `yaml:"rate_burst"`
		RateRefill float64       `yaml:"rate_refill"`
	} `yaml:"insights"`
}

// Default returns a config that runs standalone: no backend, in-memory cache,
// fallback insights.
func Default() *Config {
	var c Config
	c.Environment = "development"
	c.Server.Host = "0.0.0.0"
	c.Server.Port = 8080
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 10 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Log.Level = "info"
	c.Log.Format = "console"
	c.Log.Output = "stdout"
	c.Log.Digest.Topic = "healthtwin.errors"
	c.Log.Digest.Interval = 30 * time.Second
	c.Log.Digest.Threshold = 100
	c.Metrics.Enabled = true
	c.Signals.Interval = time.Second
	c.Signals.WindowSize = 100
	c.Signals.AnomalyProbability = 0.05
	c.Backend.Type = BackendNone
	c.Backend.BufferSize = 1000
	c.Backend.BatchSize = 50
	c.Backend.BatchLinger = time.Second
	c.Backend.Backoff = 500 * time.Millisecond
	c.Backend.SQLitePath = "healthtwin.db"
	c.Kafka.Topic = "healthtwin.samples"
	c.Kafka.RequiredAcks = 1
	c.Kafka.Consumer.GroupID = "healthtwin"
	c.Kafka.Consumer.Workers = 2
	c.ClickHouse.Port = 9000
	c.ClickHouse.Database = "healthtwin"
	c.ClickHouse.Table = "samples"
	c.Gemini.Model = "gemini-2.0-flash"
	c.Gemini.Timeout = 15 * time.Second
	c.Insights.CacheTTL = 30 * time.Second
	c.Insights.RateBurst = 5
	c.Insights.RateRefill = 0.2
	return &c
}

// Parse decodes YAML on top of Default.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c, err := Parse(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env (if present) and the YAML file, then applies
// environment overrides. A missing YAML file falls back to Default.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if c, err = Parse(b); err != nil {
				return nil, err
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := c.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := getenv("GEMINI_MODEL"); v != "" {
		c.Gemini.Model = v
	}
	if v := getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := getenv("SQLITE_PATH"); v != "" {
		c.Backend.SQLitePath = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	c.Redis.DB = util.ParseIntDefault(getenv("REDIS_DB"), c.Redis.DB)
	if v := getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = p
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Signals.WindowSize <= 0 {
		return fmt.Errorf("signals.window_size must be positive")
	}
	if c.Signals.Interval < time.Millisecond {
		return fmt.Errorf("signals.interval must be at least 1ms, got %s", c.Signals.Interval)
	}
	if p := c.Signals.AnomalyProbability; p < 0 || p > 1 {
		return fmt.Errorf("signals.anomaly_probability must be within [0,1], got %v", p)
	}

	if c.Backend.BatchSize < 0 {
		return fmt.Errorf("backend.batch_size must not be negative")
	}

	switch c.Backend.Type {
	case BackendNone:
	case BackendKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty for backend 'kafka'")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required for backend 'kafka'")
		}
	case BackendClickHouse:
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required for backend 'clickhouse'")
		}
	case BackendSQLite:
		if c.Backend.SQLitePath == "" {
			return fmt.Errorf("backend.sqlite_path is required for backend 'sqlite'")
		}
	default:
		return fmt.Errorf("backend.type must be one of none, kafka, clickhouse, sqlite, got '%s'", c.Backend.Type)
	}

	if c.Kafka.Consumer.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("kafka.consumer requires clickhouse.host")
	}
	if c.Log.Digest.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("log.digest requires kafka.brokers")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	return nil
}
