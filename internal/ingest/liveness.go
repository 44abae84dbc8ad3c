package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/waterguard/waterguard/internal/metrics"
	"github.com/waterguard/waterguard/internal/store"
	"github.com/waterguard/waterguard/internal/types"
)

// LivenessMonitor marks stations offline when no measurement has arrived
// within the configured window. It is the heartbeat collaborator the
// evaluator relies on: the evaluator itself only ever yields online/alert.
type LivenessMonitor struct {
	stations *store.StationStore
	window   time.Duration
	interval time.Duration
	log      zerolog.Logger
}

// NewLivenessMonitor creates a liveness monitor
func NewLivenessMonitor(stations *store.StationStore, window, interval time.Duration, log zerolog.Logger) *LivenessMonitor {
	return &LivenessMonitor{
		stations: stations,
		window:   window,
		interval: interval,
		log:      log.With().Str("component", "liveness").Logger(),
	}
}

// Run sweeps periodically until the context is cancelled
func (m *LivenessMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Sweep marks every station silent for longer than the window as offline
func (m *LivenessMonitor) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-m.window)
	offline := 0

	for _, st := range m.stations.List() {
		if st.LastUpdate.Before(cutoff) {
			offline++
			if st.Status != types.StatusOffline {
				if err := m.stations.SetStatus(ctx, st.ID, types.StatusOffline); err != nil {
					m.log.Warn().Err(err).Str("station", st.ID).Msg("failed to mark station offline")
				}
			}
		}
	}

	metrics.StationsOffline.Set(float64(offline))
}
