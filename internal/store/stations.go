package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/waterguard/waterguard/internal/storage"
	"github.com/waterguard/waterguard/internal/types"
)

// StationStore holds the known stations and their last-reported snapshot,
// persisted under the stations key. Stations are created at provisioning
// and never deleted here.
type StationStore struct {
	kv          storage.KV
	log         zerolog.Logger
	rejectStale bool
	mu          sync.RWMutex
	stations    []types.Station
}

// NewStationStore loads persisted stations, or starts empty
func NewStationStore(ctx context.Context, kv storage.KV, log zerolog.Logger, rejectStale bool) *StationStore {
	s := &StationStore{
		kv:          kv,
		log:         log.With().Str("component", "station-store").Logger(),
		rejectStale: rejectStale,
	}
	loadJSON(ctx, kv, s.log, storage.KeyStations, &s.stations)
	return s
}

// List returns all stations ordered by id
func (s *StationStore) List() []types.Station {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Station, len(s.stations))
	copy(out, s.stations)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns one station by id
func (s *StationStore) Get(id string) (types.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, st := range s.stations {
		if st.ID == id {
			return st, nil
		}
	}
	return types.Station{}, ErrNotFound
}

// ApplyMeasurement records a new measurement snapshot with its
// pre-evaluated status. Concurrent calls for the same station are
// last-write-wins unless reject_stale is enabled, in which case a
// measurement older than the station's LastUpdate is rejected.
func (s *StationStore) ApplyMeasurement(ctx context.Context, id string, m types.Measurement, battery float64, status types.StationStatus, at time.Time) (types.Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.stations {
		if s.stations[i].ID != id {
			continue
		}
		if s.rejectStale && at.Before(s.stations[i].LastUpdate) {
			return types.Station{}, ErrStaleMeasurement
		}
		s.stations[i].LastMeasurement = m
		s.stations[i].LastUpdate = at
		s.stations[i].Status = status
		if battery >= 0 {
			s.stations[i].Battery = battery
		}
		saveJSON(ctx, s.kv, s.log, storage.KeyStations, s.stations)
		return s.stations[i], nil
	}
	return types.Station{}, ErrNotFound
}

// SetStatus overrides a station's status. Used by the liveness monitor to
// mark stations offline.
func (s *StationStore) SetStatus(ctx context.Context, id string, status types.StationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.stations {
		if s.stations[i].ID != id {
			continue
		}
		if s.stations[i].Status == status {
			return nil
		}
		s.stations[i].Status = status
		saveJSON(ctx, s.kv, s.log, storage.KeyStations, s.stations)
		s.log.Info().Str("station", id).Str("status", string(status)).Msg("station status changed")
		return nil
	}
	return ErrNotFound
}

// SetAlertCount updates the unacknowledged-alert counter shown per station
func (s *StationStore) SetAlertCount(ctx context.Context, id string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.stations {
		if s.stations[i].ID != id {
			continue
		}
		if s.stations[i].AlertCount == count {
			return nil
		}
		s.stations[i].AlertCount = count
		saveJSON(ctx, s.kv, s.log, storage.KeyStations, s.stations)
		return nil
	}
	return ErrNotFound
}

// seed replaces the collection when nothing was persisted
func (s *StationStore) seed(ctx context.Context, stations []types.Station) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.stations) > 0 {
		return
	}
	s.stations = stations
	saveJSON(ctx, s.kv, s.log, storage.KeyStations, s.stations)
}
