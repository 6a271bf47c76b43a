package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9000"
mongo:
  uri: mongodb://localhost:27017
jwt:
  secret: test
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "whisper", cfg.Mongo.Database)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 256, cfg.WS.SendBuffer)
	assert.Equal(t, int64(64*1024), cfg.WS.MaxMessageBytes)
	assert.Equal(t, 60*time.Second, cfg.PresenceTTL)
	assert.Equal(t, "chat.message.persisted", cfg.Kafka.Topic)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "8081"
  read_timeout_seconds: 30
jwt:
  secret: test
  access_ttl_minutes: 5
ws:
  rate_limit_per_sec: 5
  presence_ttl_seconds: 120
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 5, cfg.WS.RateLimitPerSec)
	assert.Equal(t, 2*time.Minute, cfg.PresenceTTL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
