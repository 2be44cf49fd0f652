package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	commoncfg "github.com/SaloniGupta6/Steel-Guardian/common/config"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is the steelguardian API configuration.
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Store         string                   `yaml:"store"`
	IDMaxAttempts int                      `yaml:"id_max_attempts"`
	Database      commoncfg.DatabaseConfig `yaml:"database"`
	Redis         RedisConfig              `yaml:"redis"`
	MQTT          MQTTConfig               `yaml:"mqtt"`
	Classifier    ClassifierConfig         `yaml:"classifier"`
	Log           struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// RedisConfig enables lifecycle event publishing to a stream.
type RedisConfig struct {
	commoncfg.RedisConfig `yaml:",inline"`
	Enabled               bool   `yaml:"enabled"`
	Stream                string `yaml:"stream"`
	StreamMaxLen          int64  `yaml:"stream_max_len"`
}

// MQTTConfig enables sensor telemetry ingestion.
type MQTTConfig struct {
	commoncfg.MQTTConfig `yaml:",inline"`
	Enabled              bool `yaml:"enabled"`
}

// ClassifierConfig points at the external text classifier. An empty URL disables it.
type ClassifierConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// Load reads .env, then the optional CONFIG_FILE YAML, then environment variables.
// Later sources win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = ":8080"
	cfg.Store = StorePostgres
	cfg.IDMaxAttempts = 5

	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "steelguardian"
	cfg.Database.SSLMode = "disable"
	cfg.Database.MaxConns = 20
	cfg.Database.MaxIdle = 5

	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.Stream = "steelguardian:events"
	cfg.Redis.StreamMaxLen = 10000

	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "steelguardian-api"
	cfg.MQTT.QoS = 1

	cfg.Classifier.Timeout = 10 * time.Second

	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	return cfg
}

func (c *Config) applyEnv() {
	c.HTTP.Addr = getEnv("HTTP_ADDR", c.HTTP.Addr)
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Store = getEnv("STORE", c.Store)
	c.IDMaxAttempts = parseInt(getEnv("ID_MAX_ATTEMPTS", ""), c.IDMaxAttempts)

	c.Database.LoadFromEnv("DB")

	c.Redis.RedisConfig.LoadFromEnv("REDIS")
	c.Redis.Enabled = parseBool(getEnv("REDIS_ENABLED", ""), c.Redis.Enabled)
	c.Redis.Stream = getEnv("REDIS_STREAM", c.Redis.Stream)
	if n, err := strconv.ParseInt(getEnv("REDIS_STREAM_MAX_LEN", ""), 10, 64); err == nil {
		c.Redis.StreamMaxLen = n
	}

	c.MQTT.MQTTConfig.LoadFromEnv("MQTT")
	c.MQTT.Enabled = parseBool(getEnv("MQTT_ENABLED", ""), c.MQTT.Enabled)

	c.Classifier.URL = getEnv("CLASSIFIER_URL", c.Classifier.URL)
	c.Classifier.APIKey = getEnv("CLASSIFIER_API_KEY", c.Classifier.APIKey)
	if d, err := time.ParseDuration(getEnv("CLASSIFIER_TIMEOUT", "")); err == nil {
		c.Classifier.Timeout = d
	}

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Store != StorePostgres && c.Store != StoreMemory {
		return fmt.Errorf("STORE must be %s or %s, got %q", StorePostgres, StoreMemory, c.Store)
	}
	if c.IDMaxAttempts <= 0 {
		return fmt.Errorf("ID_MAX_ATTEMPTS must be positive, got %d", c.IDMaxAttempts)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseBool(s string, def bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}
