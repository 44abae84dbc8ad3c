package store

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/waterguard/waterguard/internal/storage"
	"github.com/waterguard/waterguard/internal/types"
)

// HistoryStore holds append-only time-series measurement points per
// station, persisted under history_<stationId> keys.
type HistoryStore struct {
	kv        storage.KV
	log       zerolog.Logger
	retention time.Duration
	mu        sync.RWMutex
	points    map[string][]types.HistoryPoint
}

// NewHistoryStore creates a history store. Per-station collections are
// loaded lazily on first access.
func NewHistoryStore(kv storage.KV, log zerolog.Logger, retention time.Duration) *HistoryStore {
	return &HistoryStore{
		kv:        kv,
		log:       log.With().Str("component", "history-store").Logger(),
		retention: retention,
		points:    make(map[string][]types.HistoryPoint),
	}
}

// load must be called with the write lock held
func (s *HistoryStore) load(ctx context.Context, stationID string) []types.HistoryPoint {
	if pts, ok := s.points[stationID]; ok {
		return pts
	}
	var pts []types.HistoryPoint
	loadJSON(ctx, s.kv, s.log, storage.HistoryKey(stationID), &pts)
	s.points[stationID] = pts
	return pts
}

// Append adds one point to a station's history, pruning points older than
// the retention window when one is configured.
func (s *HistoryStore) Append(ctx context.Context, stationID string, point types.HistoryPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pts := append(s.load(ctx, stationID), point)
	if s.retention > 0 {
		cutoff := point.Timestamp.Add(-s.retention)
		kept := pts[:0]
		for _, p := range pts {
			if !p.Timestamp.Before(cutoff) {
				kept = append(kept, p)
			}
		}
		pts = kept
	}
	s.points[stationID] = pts
	saveJSON(ctx, s.kv, s.log, storage.HistoryKey(stationID), pts)
}

// Range returns the station's points with timestamp >= now - windowHours,
// in chronological order. A zero window yields an empty slice.
func (s *HistoryStore) Range(ctx context.Context, stationID string, windowHours int) []types.HistoryPoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.HistoryPoint, 0)
	if windowHours <= 0 {
		return out
	}

	cutoff := time.Now().Add(-time.Duration(windowHours) * time.Hour)
	for _, p := range s.load(ctx, stationID) {
		if !p.Timestamp.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out
}

// Summarize computes per-channel min/avg/max over the given points,
// rounded to 2 decimals. An empty window yields nil.
func Summarize(points []types.HistoryPoint) types.Summary {
	if len(points) == 0 {
		return nil
	}

	channels := map[string]func(types.Measurement) float64{
		"ph":               func(m types.Measurement) float64 { return m.PH },
		"temperature":      func(m types.Measurement) float64 { return m.Temperature },
		"turbidity":        func(m types.Measurement) float64 { return m.Turbidity },
		"conductivity":     func(m types.Measurement) float64 { return m.Conductivity },
		"dissolved_oxygen": func(m types.Measurement) float64 { return m.DissolvedOxygen },
	}

	summary := make(types.Summary, len(channels))
	for name, pick := range channels {
		first := pick(points[0].Measurements)
		min, max, sum := first, first, 0.0
		for _, p := range points {
			v := pick(p.Measurements)
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
			sum += v
		}
		summary[name] = types.ChannelStats{
			Avg: round2(sum / float64(len(points))),
			Min: round2(min),
			Max: round2(max),
		}
	}
	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
