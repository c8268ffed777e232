package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, BackendNone, c.Backend.Type)
	assert.Equal(t, 100, c.Signals.WindowSize)
	assert.Equal(t, time.Second, c.Signals.Interval)
}

func TestParseKeepsDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: prod\nsignals:\n  window_size: 50\n"))
	require.NoError(t, err)
	assert.Equal(t, "prod", c.Environment)
	assert.Equal(t, 50, c.Signals.WindowSize)
	assert.Equal(t, time.Second, c.Signals.Interval)
	assert.Equal(t, 8080, c.Server.Port)

	_, err = Parse([]byte("server: [oops"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\nbackend:\n  type: sqlite\n  sqlite_path: x.db\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, c.Backend.Type)

	require.NoError(t, os.WriteFile(path, []byte("environment: test\nbackend:\n  type: mongo\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "backend.type")

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	c := Default()
	require.NoError(t, c.ApplyEnv(env(map[string]string{
		"GEMINI_API_KEY": "k",
		"BACKEND":        "kafka",
		"KAFKA_BROKERS":  "a:9092, b:9092,",
		"KAFKA_TOPIC":    "t",
		"REDIS_ADDR":     "r:6379",
		"REDIS_DB":       "2",
		"PORT":           "9090",
	})))
	assert.Equal(t, "k", c.Gemini.APIKey)
	assert.Equal(t, BackendKafka, c.Backend.Type)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "t", c.Kafka.Topic)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, 2, c.Redis.DB)
	assert.Equal(t, 9090, c.Server.Port)
	require.NoError(t, c.Validate())

	assert.Error(t, Default().ApplyEnv(env(map[string]string{"PORT": "http"})))
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"environment":  func(c *Config) { c.Environment = "" },
		"port":         func(c *Config) { c.Server.Port = 0 },
		"window":       func(c *Config) { c.Signals.WindowSize = 0 },
		"interval":     func(c *Config) { c.Signals.Interval = 0 },
		"sub_ms":       func(c *Config) { c.Signals.Interval = 500 * time.Microsecond },
		"batch_size":   func(c *Config) { c.Backend.BatchSize = -1 },
		"probability":  func(c *Config) { c.Signals.AnomalyProbability = 1.5 },
		"kafka":        func(c *Config) { c.Backend.Type = BackendKafka },
		"clickhouse":   func(c *Config) { c.Backend.Type = BackendClickHouse },
		"sqlite":       func(c *Config) { c.Backend.Type = BackendSQLite; c.Backend.SQLitePath = "" },
		"consumer":     func(c *Config) { c.Kafka.Consumer.Enabled = true },
		"digest":       func(c *Config) { c.Log.Digest.Enabled = true },
		"redis":        func(c *Config) { c.Redis.Enabled = true },
		"backend_type": func(c *Config) { c.Backend.Type = "s3" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestValidateMillisecondInterval(t *testing.T) {
	c := Default()
	c.Signals.Interval = time.Millisecond
	assert.NoError(t, c.Validate())
	assert.Equal(t, 50, c.Backend.BatchSize)
	assert.Equal(t, time.Second, c.Backend.BatchLinger)
}

func TestLoadWithEnvMissingFile(t *testing.T) {
	t.Setenv("BACKEND", "none")
	c, err := LoadWithEnv(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "development", c.Environment)
}
