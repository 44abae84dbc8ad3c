package config

import "time"

// Config represents the complete WaterGuard configuration
type Config struct {
	Redis    RedisConfig   `yaml:"redis"`
	MQTT     MQTTConfig    `yaml:"mqtt"`
	API      APIConfig     `yaml:"api"`
	Alerts   AlertConfig   `yaml:"alerts"`
	Stations StationConfig `yaml:"stations"`
	Backend  BackendConfig `yaml:"backend"`
	Seed     SeedConfig    `yaml:"seed"`
	Auth     AuthConfig    `yaml:"auth"`
	History  HistoryConfig `yaml:"history"`
}

// RedisConfig points at the persistence key-value store
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"` // overridden by REDIS_PASSWORD
	DB       int    `yaml:"db"`
}

// MQTTConfig configures the measurement intake
type MQTTConfig struct {
	Broker           string        `yaml:"broker"` // empty disables intake
	ClientID         string        `yaml:"client_id"`
	Username         string        `yaml:"username,omitempty"`
	Password         string        `yaml:"password,omitempty"` // overridden by MQTT_PASSWORD
	MeasurementTopic string        `yaml:"measurement_topic"`  // e.g. "waterguard/+/measurement"
	OfflineAfter     time.Duration `yaml:"offline_after"`      // liveness window before a station goes offline
	LivenessInterval time.Duration `yaml:"liveness_interval"`
}

// APIConfig configures the HTTP API server
type APIConfig struct {
	Port string `yaml:"port"`
}

// Alert creation policies. log_every_sample records a new alert on every
// breach; dedup_open skips a breach when an unacknowledged alert of the
// same station+type already exists.
const (
	PolicyLogEverySample = "log_every_sample"
	PolicyDedupOpen      = "dedup_open"
)

// AlertConfig defines alert creation behavior
type AlertConfig struct {
	Policy string `yaml:"policy"`
}

// StationConfig defines station update behavior
type StationConfig struct {
	// RejectStale rejects measurements timestamped before the station's
	// current LastUpdate instead of last-write-wins.
	RejectStale bool `yaml:"reject_stale"`
}

// BackendConfig points at the remote REST backend. An empty BaseURL keeps
// all evaluated data local-only.
type BackendConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Token         string        `yaml:"token,omitempty"` // overridden by BACKEND_TOKEN
	Timeout       time.Duration `yaml:"timeout"`
	FlushInterval time.Duration `yaml:"flush_interval"` // sync queue flush cadence
}

// SeedConfig controls sample-data seeding for empty persisted collections
type SeedConfig struct {
	Enabled bool `yaml:"enabled"`
}

// AuthConfig lists operator accounts for the session service
type AuthConfig struct {
	Users []UserEntry `yaml:"users,omitempty"`
}

// UserEntry is one configured operator account
type UserEntry struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
}

// HistoryConfig bounds the per-station history collection
type HistoryConfig struct {
	// Retention prunes points older than this on append. Zero keeps everything.
	Retention time.Duration `yaml:"retention"`
}
