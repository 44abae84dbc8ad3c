package store

import (
	"context"
	"time"

	"github.com/waterguard/waterguard/internal/types"
)

// SeedAll applies the sample dataset to every store whose persisted
// collection is empty. Seeding is a deployment concern, separate from the
// stores' read/write contracts: production deployments simply never call it.
func SeedAll(ctx context.Context, stations *StationStore, alerts *AlertStore, history *HistoryStore, calibrations *CalibrationStore) {
	now := time.Now()

	stations.seed(ctx, sampleStations(now))
	alerts.seed(ctx, sampleAlerts(now))
	calibrations.seed(ctx, sampleCalibrations(now), sampleReports(now))

	for _, st := range stations.List() {
		seedHistory(ctx, history, st.ID, st.LastMeasurement, now)
	}
}

func sampleStations(now time.Time) []types.Station {
	return []types.Station{
		{
			ID:       "WELL_001",
			Name:     "Puits Municipal #1",
			Location: "Centre-ville",
			Status:   types.StatusOnline,
			LastMeasurement: types.Measurement{
				PH: 7.2, Temperature: 24.5, Turbidity: 2.1, Conductivity: 850, DissolvedOxygen: 6.8,
			},
			LastUpdate: now.Add(-5 * time.Minute),
			Latitude:   3.8667,
			Longitude:  11.5167,
			Battery:    92,
		},
		{
			ID:       "WELL_002",
			Name:     "Puits Nord",
			Location: "Zone Nord",
			Status:   types.StatusAlert,
			LastMeasurement: types.Measurement{
				PH: 6.1, Temperature: 22.0, Turbidity: 5.3, Conductivity: 920, DissolvedOxygen: 4.2,
			},
			LastUpdate: now.Add(-15 * time.Minute),
			Latitude:   3.9,
			Longitude:  11.52,
			AlertCount: 2,
			Battery:    45,
		},
		{
			ID:       "WELL_003",
			Name:     "Puits Est",
			Location: "Zone Est",
			Status:   types.StatusOnline,
			LastMeasurement: types.Measurement{
				PH: 7.5, Temperature: 25.2, Turbidity: 1.8, Conductivity: 780, DissolvedOxygen: 7.1,
			},
			LastUpdate: now.Add(-2 * time.Minute),
			Latitude:   3.85,
			Longitude:  11.6,
			Battery:    87,
		},
		{
			ID:       "WELL_004",
			Name:     "Puits Ouest",
			Location: "Zone Ouest",
			Status:   types.StatusOffline,
			LastMeasurement: types.Measurement{
				PH: 7.0, Temperature: 23.0, Turbidity: 2.5, Conductivity: 810, DissolvedOxygen: 6.5,
			},
			LastUpdate: now.Add(-2 * time.Hour),
			Latitude:   3.83,
			Longitude:  11.48,
			AlertCount: 1,
			Battery:    15,
		},
	}
}

func sampleAlerts(now time.Time) []types.Alert {
	ackAt := now.Add(-30 * time.Minute)
	return []types.Alert{
		{
			ID:        "alert_1",
			StationID: "WELL_002",
			Type:      types.AlertPHLow,
			Message:   "pH too low",
			Value:     6.1,
			Threshold: 6.5,
			Timestamp: now.Add(-10 * time.Minute),
		},
		{
			ID:        "alert_2",
			StationID: "WELL_002",
			Type:      types.AlertOxygen,
			Message:   "dissolved oxygen too low",
			Value:     4.2,
			Threshold: 5.0,
			Timestamp: now.Add(-25 * time.Minute),
		},
		{
			ID:             "alert_3",
			StationID:      "WELL_004",
			Type:           types.AlertBattery,
			Message:        "battery low",
			Value:          15,
			Threshold:      20,
			Timestamp:      now.Add(-2 * time.Hour),
			Acknowledged:   true,
			AcknowledgedAt: &ackAt,
		},
	}
}

func sampleCalibrations(now time.Time) []types.CalibrationRecord {
	return []types.CalibrationRecord{
		{
			ID:               "cal_1",
			StationID:        "WELL_001",
			SensorType:       "ph",
			CalibratedAt:     now.Add(-7 * 24 * time.Hour),
			CalibrationValue: 7.0,
			StandardValue:    7.0,
			Technician:       "Jean Dupont",
			Notes:            "Calibration with 7.0 and 10.0 standards",
			NextCalibration:  now.Add(23 * 24 * time.Hour),
		},
	}
}

func sampleReports(now time.Time) []types.FieldReport {
	return []types.FieldReport{
		{
			ID:          "report_1",
			StationID:   "WELL_001",
			ReportedAt:  now.Add(-2 * 24 * time.Hour),
			ReportType:  "maintenance",
			Title:       "Preventive maintenance",
			Description: "Sensors cleaned, all probes in good condition.",
			Photos:      []string{},
			Technician:  "Jean Dupont",
			Status:      "completed",
		},
	}
}

// seedHistory generates 72 hourly points drifting around the station's
// last measurement, only when the station has no persisted history.
func seedHistory(ctx context.Context, history *HistoryStore, stationID string, base types.Measurement, now time.Time) {
	history.mu.Lock()
	existing := history.load(ctx, stationID)
	history.mu.Unlock()
	if len(existing) > 0 {
		return
	}

	// Deterministic spread, alternating around the base values
	for i := 72; i >= 0; i-- {
		f := float64(i%7)/7.0 - 0.5
		history.Append(ctx, stationID, types.HistoryPoint{
			Timestamp: now.Add(-time.Duration(i) * time.Hour),
			Measurements: types.Measurement{
				PH:              base.PH + f*0.6,
				Temperature:     base.Temperature + f*3,
				Turbidity:       base.Turbidity + f*2,
				Conductivity:    base.Conductivity + f*100,
				DissolvedOxygen: base.DissolvedOxygen + f,
			},
		})
	}
}
