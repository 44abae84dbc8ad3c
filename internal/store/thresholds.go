package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/waterguard/waterguard/internal/storage"
	"github.com/waterguard/waterguard/internal/types"
)

// ThresholdStore holds the single active threshold configuration,
// persisted under the alert_thresholds key. First access without a
// persisted value yields the compiled-in defaults.
type ThresholdStore struct {
	kv  storage.KV
	log zerolog.Logger
	mu  sync.RWMutex
	cfg types.ThresholdConfig
}

// NewThresholdStore loads the last-saved configuration or the defaults
func NewThresholdStore(ctx context.Context, kv storage.KV, log zerolog.Logger) *ThresholdStore {
	s := &ThresholdStore{
		kv:  kv,
		log: log.With().Str("component", "threshold-store").Logger(),
		cfg: types.DefaultThresholds(),
	}
	loadJSON(ctx, kv, s.log, storage.KeyThresholds, &s.cfg)
	return s
}

// Get returns the active configuration
func (s *ThresholdStore) Get() types.ThresholdConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update shallow-merges the given channel bounds into the current
// configuration, persists, and returns the new configuration. Submitted
// bounds are not validated; an inverted pair is accepted as-is and only
// logged, preserving the historical store contract.
func (s *ThresholdStore) Update(ctx context.Context, partial types.ThresholdUpdate) types.ThresholdConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	if partial.PH != nil {
		s.cfg.PH = *partial.PH
	}
	if partial.Temperature != nil {
		s.cfg.Temperature = *partial.Temperature
	}
	if partial.Turbidity != nil {
		s.cfg.Turbidity = *partial.Turbidity
	}
	if partial.Conductivity != nil {
		s.cfg.Conductivity = *partial.Conductivity
	}
	if partial.DissolvedOxygen != nil {
		s.cfg.DissolvedOxygen = *partial.DissolvedOxygen
	}

	if s.cfg.PH.Min > s.cfg.PH.Max {
		s.log.Warn().Float64("min", s.cfg.PH.Min).Float64("max", s.cfg.PH.Max).Msg("ph bounds inverted")
	}
	if s.cfg.Temperature.Min > s.cfg.Temperature.Max {
		s.log.Warn().Float64("min", s.cfg.Temperature.Min).Float64("max", s.cfg.Temperature.Max).Msg("temperature bounds inverted")
	}

	saveJSON(ctx, s.kv, s.log, storage.KeyThresholds, s.cfg)
	return s.cfg
}

// ResetToDefault overwrites the configuration with the compiled-in
// defaults and persists.
func (s *ThresholdStore) ResetToDefault(ctx context.Context) types.ThresholdConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg = types.DefaultThresholds()
	saveJSON(ctx, s.kv, s.log, storage.KeyThresholds, s.cfg)
	return s.cfg
}
