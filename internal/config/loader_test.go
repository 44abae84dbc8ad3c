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

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
redis:
  addr: redis.internal:6379
mqtt:
  broker: tcp://broker.internal:1883
  offline_after: 15m
api:
  port: "9090"
alerts:
  policy: dedup_open
stations:
  reject_stale: true
auth:
  users:
    - email: tech@waterguard.sn
      password: password123
      name: Technicien Terrain
      role: technician
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, "tcp://broker.internal:1883", cfg.MQTT.Broker)
	assert.Equal(t, 15*time.Minute, cfg.MQTT.OfflineAfter)
	assert.Equal(t, "9090", cfg.API.Port)
	assert.Equal(t, PolicyDedupOpen, cfg.Alerts.Policy)
	assert.True(t, cfg.Stations.RejectStale)
	require.Len(t, cfg.Auth.Users, 1)
	assert.Equal(t, "technician", cfg.Auth.Users[0].Role)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "{}"))
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "waterguardd", cfg.MQTT.ClientID)
	assert.Equal(t, "waterguard/+/measurement", cfg.MQTT.MeasurementTopic)
	assert.Equal(t, 30*time.Minute, cfg.MQTT.OfflineAfter)
	assert.Equal(t, "8088", cfg.API.Port)
	assert.Equal(t, PolicyLogEverySample, cfg.Alerts.Policy)
	assert.False(t, cfg.Stations.RejectStale)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "alerts: [not a map"))
	assert.Error(t, err)
}

func TestValidateConfigRejectsUnknownPolicy(t *testing.T) {
	cfg := Default()
	cfg.Alerts.Policy = "sometimes"
	assert.Error(t, ValidateConfig(cfg))
}

func TestValidateConfigRejectsUserWithoutPassword(t *testing.T) {
	cfg := Default()
	cfg.Auth.Users = []UserEntry{{Email: "tech@waterguard.sn"}}
	assert.Error(t, ValidateConfig(cfg))
}

func TestValidateConfigRejectsNegativeRetention(t *testing.T) {
	cfg := Default()
	cfg.History.Retention = -time.Hour
	assert.Error(t, ValidateConfig(cfg))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REDIS_PASSWORD", "s3cret")
	t.Setenv("BACKEND_TOKEN", "tok")

	cfg, err := LoadConfig(writeConfig(t, "{}"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Redis.Password)
	assert.Equal(t, "tok", cfg.Backend.Token)
}
