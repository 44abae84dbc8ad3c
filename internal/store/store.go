package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/waterguard/waterguard/internal/storage"
)

// ErrNotFound is returned for operations on an unknown record id
var ErrNotFound = errors.New("record not found")

// ErrStaleMeasurement is returned when reject_stale is enabled and a
// measurement predates the station's last update
var ErrStaleMeasurement = errors.New("measurement older than last update")

// loadJSON reads a persisted collection into out. Returns false when the
// key is absent. Read failures other than absence are logged and treated
// as absent so the store can fall back to defaults.
func loadJSON(ctx context.Context, kv storage.KV, log zerolog.Logger, key string, out interface{}) bool {
	data, err := kv.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false
	}
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to load collection, using defaults")
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to decode collection, using defaults")
		return false
	}
	return true
}

// saveJSON persists a collection best-effort. Failures are logged, never
// propagated: the in-memory copy stays authoritative.
func saveJSON(ctx context.Context, kv storage.KV, log zerolog.Logger, key string, in interface{}) {
	data, err := json.Marshal(in)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to encode collection")
		return
	}
	if err := kv.Set(ctx, key, data); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to persist collection, in-memory state may diverge")
	}
}
