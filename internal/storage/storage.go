package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no persisted value
var ErrNotFound = errors.New("key not found")

// Persisted collection keys
const (
	KeyThresholds   = "alert_thresholds"
	KeyStations     = "stations"
	KeyAlerts       = "alerts"
	KeyCalibrations = "calibrations"
	KeyFieldReports = "fieldReports"
	KeySyncQueue    = "sync_queue"
	KeyAuthSession  = "auth_session"
)

// HistoryKey returns the per-station history collection key
func HistoryKey(stationID string) string {
	return "history_" + stationID
}

// KV is the persistence contract the stores write JSON-serialized
// collections to, keyed by logical name. Writes are best-effort: callers
// log failures and continue with in-memory state.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}
