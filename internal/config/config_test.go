package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, 5, cfg.IDMaxAttempts)
	assert.Equal(t, "steelguardian", cfg.Database.Database)
	assert.Equal(t, "steelguardian:events", cfg.Redis.Stream)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Classifier.Timeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("STORE", StoreMemory)
	t.Setenv("ID_MAX_ATTEMPTS", "8")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("MQTT_ENABLED", "true")
	t.Setenv("MQTT_QOS", "2")
	t.Setenv("CLASSIFIER_URL", "http://classifier:8000")
	t.Setenv("CLASSIFIER_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 8, cfg.IDMaxAttempts)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, byte(2), cfg.MQTT.QoS)
	assert.Equal(t, "http://classifier:8000", cfg.Classifier.URL)
	assert.Equal(t, 3*time.Second, cfg.Classifier.Timeout)
}

func TestLoad_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steelguardian.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":7070"
auth:
  jwt_secret: from-file
store: memory
redis:
  enabled: true
  addr: "redis:6379"
  stream: plant:events
classifier:
  url: http://ai:9000
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_ADDR", ":6060")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":6060", cfg.HTTP.Addr)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "plant:events", cfg.Redis.Stream)
	assert.Equal(t, "http://ai:9000", cfg.Classifier.URL)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE", "mongo")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("STORE", "")
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}
