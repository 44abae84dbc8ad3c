package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/waterguard/waterguard/internal/storage"
	"github.com/waterguard/waterguard/internal/types"
)

// AlertStore holds alert records, persisted under the alerts key.
type AlertStore struct {
	kv     storage.KV
	log    zerolog.Logger
	mu     sync.RWMutex
	alerts []types.Alert
}

// NewAlertStore loads persisted alerts, or starts empty
func NewAlertStore(ctx context.Context, kv storage.KV, log zerolog.Logger) *AlertStore {
	s := &AlertStore{
		kv:  kv,
		log: log.With().Str("component", "alert-store").Logger(),
	}
	loadJSON(ctx, kv, s.log, storage.KeyAlerts, &s.alerts)
	return s
}

// List returns all alerts ordered newest first
func (s *AlertStore) List() []types.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Alert, len(s.alerts))
	copy(out, s.alerts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// ListForStation returns a station's alerts, newest first
func (s *AlertStore) ListForStation(stationID string) []types.Alert {
	all := s.List()
	out := make([]types.Alert, 0)
	for _, a := range all {
		if a.StationID == stationID {
			out = append(out, a)
		}
	}
	return out
}

// Raise turns a candidate into a persisted alert record with a fresh id
func (s *AlertStore) Raise(ctx context.Context, stationID string, c types.AlertCandidate, at time.Time) types.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert := types.Alert{
		ID:        uuid.NewString(),
		StationID: stationID,
		Type:      c.Type,
		Message:   c.Message,
		Value:     c.Value,
		Threshold: c.Threshold,
		Timestamp: at,
	}
	s.alerts = append(s.alerts, alert)
	saveJSON(ctx, s.kv, s.log, storage.KeyAlerts, s.alerts)

	s.log.Info().
		Str("alert_id", alert.ID).
		Str("station", stationID).
		Str("type", string(alert.Type)).
		Float64("value", alert.Value).
		Float64("threshold", alert.Threshold).
		Msg("alert raised")

	return alert
}

// Acknowledge marks an alert acknowledged. A second call is a no-op that
// returns the already-acknowledged record with its original timestamp.
func (s *AlertStore) Acknowledge(ctx context.Context, id string) (types.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.alerts {
		if s.alerts[i].ID != id {
			continue
		}
		if s.alerts[i].Acknowledged {
			return s.alerts[i], nil
		}
		now := time.Now()
		s.alerts[i].Acknowledged = true
		s.alerts[i].AcknowledgedAt = &now
		saveJSON(ctx, s.kv, s.log, storage.KeyAlerts, s.alerts)
		return s.alerts[i], nil
	}
	return types.Alert{}, ErrNotFound
}

// Delete removes an alert regardless of acknowledged state. The UI only
// offers deletion for acknowledged alerts; the store does not enforce that.
func (s *AlertStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
			saveJSON(ctx, s.kv, s.log, storage.KeyAlerts, s.alerts)
			return nil
		}
	}
	return ErrNotFound
}

// UnacknowledgedCount returns the number of open alerts
func (s *AlertStore) UnacknowledgedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, a := range s.alerts {
		if !a.Acknowledged {
			count++
		}
	}
	return count
}

// UnacknowledgedCountForStation returns the number of open alerts
// attributed to one station
func (s *AlertStore) UnacknowledgedCountForStation(stationID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, a := range s.alerts {
		if a.StationID == stationID && !a.Acknowledged {
			count++
		}
	}
	return count
}

// HasOpenAlert reports whether an unacknowledged alert of the given type
// exists for the station. Used by the dedup_open alert policy.
func (s *AlertStore) HasOpenAlert(stationID string, alertType types.AlertType) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.alerts {
		if a.StationID == stationID && a.Type == alertType && !a.Acknowledged {
			return true
		}
	}
	return false
}

// seed replaces the collection when nothing was persisted
func (s *AlertStore) seed(ctx context.Context, alerts []types.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.alerts) > 0 {
		return
	}
	s.alerts = alerts
	saveJSON(ctx, s.kv, s.log, storage.KeyAlerts, s.alerts)
}
