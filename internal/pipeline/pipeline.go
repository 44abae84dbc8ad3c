package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/waterguard/waterguard/internal/config"
	"github.com/waterguard/waterguard/internal/evaluator"
	"github.com/waterguard/waterguard/internal/metrics"
	"github.com/waterguard/waterguard/internal/store"
	"github.com/waterguard/waterguard/internal/types"
)

// AlertSink receives every alert the pipeline raises. Used to forward
// alerts to the backend; failures there never affect the pipeline.
type AlertSink func(alert types.Alert)

// Engine runs the synchronous measurement flow: evaluate against the
// active thresholds, raise alerts, update the station snapshot, append a
// history point. All steps run on the caller's goroutine.
type Engine struct {
	thresholds *store.ThresholdStore
	stations   *store.StationStore
	alerts     *store.AlertStore
	history    *store.HistoryStore
	policy     string
	log        zerolog.Logger
	sink       AlertSink
}

// NewEngine creates a pipeline engine
func NewEngine(
	thresholds *store.ThresholdStore,
	stations *store.StationStore,
	alerts *store.AlertStore,
	history *store.HistoryStore,
	policy string,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		thresholds: thresholds,
		stations:   stations,
		alerts:     alerts,
		history:    history,
		policy:     policy,
		log:        log.With().Str("component", "pipeline").Logger(),
	}
}

// SetAlertSink registers a sink invoked for each raised alert
func (e *Engine) SetAlertSink(sink AlertSink) {
	e.sink = sink
}

// Result summarizes one processed measurement
type Result struct {
	Station types.Station `json:"station"`
	Raised  []types.Alert `json:"raised"`
}

// Process evaluates one measurement for a station and applies all side
// effects. Battery < 0 means "not reported"; the station's stored battery
// level is used for the battery check.
func (e *Engine) Process(ctx context.Context, stationID string, m types.Measurement, battery float64, at time.Time) (Result, error) {
	station, err := e.stations.Get(stationID)
	if err != nil {
		return Result{}, fmt.Errorf("station %s: %w", stationID, err)
	}

	if battery < 0 {
		battery = station.Battery
	}

	candidates, status := evaluator.Evaluate(m, e.thresholds.Get(), battery)

	var raised []types.Alert
	for _, c := range candidates {
		if e.policy == config.PolicyDedupOpen && e.alerts.HasOpenAlert(stationID, c.Type) {
			e.log.Debug().
				Str("station", stationID).
				Str("type", string(c.Type)).
				Msg("open alert exists, skipping duplicate")
			metrics.AlertsSuppressed.WithLabelValues(string(c.Type)).Inc()
			continue
		}
		raised = append(raised, e.alerts.Raise(ctx, stationID, c, at))
		metrics.AlertsRaised.WithLabelValues(string(c.Type)).Inc()
	}

	updated, err := e.stations.ApplyMeasurement(ctx, stationID, m, battery, status, at)
	if err != nil {
		return Result{}, fmt.Errorf("station %s: %w", stationID, err)
	}

	e.history.Append(ctx, stationID, types.HistoryPoint{Timestamp: at, Measurements: m})

	// Keep the station's open-alert counter in step with the alert store
	if err := e.stations.SetAlertCount(ctx, stationID, e.alerts.UnacknowledgedCountForStation(stationID)); err == nil {
		updated.AlertCount = e.alerts.UnacknowledgedCountForStation(stationID)
	}

	metrics.MeasurementsProcessed.WithLabelValues(stationID).Inc()

	e.log.Info().
		Str("station", stationID).
		Str("status", string(updated.Status)).
		Int("alerts_raised", len(raised)).
		Msg("measurement processed")

	if e.sink != nil {
		for _, alert := range raised {
			e.sink(alert)
		}
	}

	return Result{Station: updated, Raised: raised}, nil
}

// Acknowledge acknowledges an alert and refreshes the owning station's
// open-alert counter
func (e *Engine) Acknowledge(ctx context.Context, alertID string) (types.Alert, error) {
	alert, err := e.alerts.Acknowledge(ctx, alertID)
	if err != nil {
		return types.Alert{}, err
	}
	if err := e.stations.SetAlertCount(ctx, alert.StationID, e.alerts.UnacknowledgedCountForStation(alert.StationID)); err != nil && err != store.ErrNotFound {
		e.log.Warn().Err(err).Str("station", alert.StationID).Msg("failed to refresh alert count")
	}
	return alert, nil
}

// DeleteAlert removes an alert and refreshes the owning station's counter
func (e *Engine) DeleteAlert(ctx context.Context, alertID string) error {
	var stationID string
	for _, a := range e.alerts.List() {
		if a.ID == alertID {
			stationID = a.StationID
			break
		}
	}
	if err := e.alerts.Delete(ctx, alertID); err != nil {
		return err
	}
	if stationID != "" {
		if err := e.stations.SetAlertCount(ctx, stationID, e.alerts.UnacknowledgedCountForStation(stationID)); err != nil && err != store.ErrNotFound {
			e.log.Warn().Err(err).Str("station", stationID).Msg("failed to refresh alert count")
		}
	}
	return nil
}
