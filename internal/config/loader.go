package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults,
// resolves secret overrides from the environment, and validates.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Default returns a config with all defaults applied, suitable for tests
// and for running without a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "waterguardd"
	}
	if cfg.MQTT.MeasurementTopic == "" {
		cfg.MQTT.MeasurementTopic = "waterguard/+/measurement"
	}
	if cfg.MQTT.OfflineAfter == 0 {
		cfg.MQTT.OfflineAfter = 30 * time.Minute
	}
	if cfg.MQTT.LivenessInterval == 0 {
		cfg.MQTT.LivenessInterval = time.Minute
	}
	if cfg.API.Port == "" {
		cfg.API.Port = "8088"
	}
	if cfg.Alerts.Policy == "" {
		cfg.Alerts.Policy = PolicyLogEverySample
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 10 * time.Second
	}
	if cfg.Backend.FlushInterval == 0 {
		cfg.Backend.FlushInterval = time.Minute
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}
	if v := os.Getenv("BACKEND_TOKEN"); v != "" {
		cfg.Backend.Token = v
	}
}

// ValidateConfig validates the configuration
func ValidateConfig(cfg *Config) error {
	if cfg.Alerts.Policy != PolicyLogEverySample && cfg.Alerts.Policy != PolicyDedupOpen {
		return fmt.Errorf("alerts.policy must be %q or %q", PolicyLogEverySample, PolicyDedupOpen)
	}

	if cfg.MQTT.Broker != "" {
		if cfg.MQTT.MeasurementTopic == "" {
			return fmt.Errorf("mqtt.measurement_topic is required when a broker is configured")
		}
		if cfg.MQTT.OfflineAfter <= 0 {
			return fmt.Errorf("mqtt.offline_after must be positive")
		}
	}

	for i, user := range cfg.Auth.Users {
		if user.Email == "" {
			return fmt.Errorf("auth.users[%d]: email is required", i)
		}
		if user.Password == "" {
			return fmt.Errorf("auth.users[%d]: password is required", i)
		}
	}

	if cfg.History.Retention < 0 {
		return fmt.Errorf("history.retention cannot be negative")
	}

	return nil
}
