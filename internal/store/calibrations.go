package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/waterguard/waterguard/internal/storage"
	"github.com/waterguard/waterguard/internal/types"
)

// ErrMissingFields is returned when a submitted record lacks required fields
var ErrMissingFields = errors.New("required fields are empty")

// CalibrationStore holds calibration records and field reports, persisted
// under the calibrations and fieldReports keys.
type CalibrationStore struct {
	kv           storage.KV
	log          zerolog.Logger
	mu           sync.RWMutex
	calibrations []types.CalibrationRecord
	reports      []types.FieldReport
}

// NewCalibrationStore loads persisted records, or starts empty
func NewCalibrationStore(ctx context.Context, kv storage.KV, log zerolog.Logger) *CalibrationStore {
	s := &CalibrationStore{
		kv:  kv,
		log: log.With().Str("component", "calibration-store").Logger(),
	}
	loadJSON(ctx, kv, s.log, storage.KeyCalibrations, &s.calibrations)
	loadJSON(ctx, kv, s.log, storage.KeyFieldReports, &s.reports)
	return s
}

// Calibrations returns all calibration records, most recent first
func (s *CalibrationStore) Calibrations() []types.CalibrationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.CalibrationRecord, len(s.calibrations))
	copy(out, s.calibrations)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CalibratedAt.After(out[j].CalibratedAt)
	})
	return out
}

// AddCalibration validates and appends a calibration record. Technician
// and sensor type are required on submit.
func (s *CalibrationStore) AddCalibration(ctx context.Context, rec types.CalibrationRecord) (types.CalibrationRecord, error) {
	if rec.StationID == "" || rec.SensorType == "" || rec.Technician == "" {
		return types.CalibrationRecord{}, ErrMissingFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = uuid.NewString()
	if rec.CalibratedAt.IsZero() {
		rec.CalibratedAt = time.Now()
	}
	s.calibrations = append(s.calibrations, rec)
	saveJSON(ctx, s.kv, s.log, storage.KeyCalibrations, s.calibrations)
	return rec, nil
}

// Reports returns field reports for a station (all stations when id is
// empty), most recent first
func (s *CalibrationStore) Reports(stationID string) []types.FieldReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.FieldReport, 0)
	for _, r := range s.reports {
		if stationID == "" || r.StationID == stationID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReportedAt.After(out[j].ReportedAt)
	})
	return out
}

// AddReport validates and appends a field report. Title and description
// are required on submit.
func (s *CalibrationStore) AddReport(ctx context.Context, rep types.FieldReport) (types.FieldReport, error) {
	if rep.StationID == "" || rep.Title == "" || rep.Description == "" {
		return types.FieldReport{}, ErrMissingFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rep.ID = uuid.NewString()
	if rep.ReportedAt.IsZero() {
		rep.ReportedAt = time.Now()
	}
	if rep.Status == "" {
		rep.Status = "pending"
	}
	if rep.Photos == nil {
		rep.Photos = []string{}
	}
	s.reports = append(s.reports, rep)
	saveJSON(ctx, s.kv, s.log, storage.KeyFieldReports, s.reports)
	return rep, nil
}

// seed replaces both collections when nothing was persisted
func (s *CalibrationStore) seed(ctx context.Context, calibrations []types.CalibrationRecord, reports []types.FieldReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.calibrations) == 0 && len(calibrations) > 0 {
		s.calibrations = calibrations
		saveJSON(ctx, s.kv, s.log, storage.KeyCalibrations, s.calibrations)
	}
	if len(s.reports) == 0 && len(reports) > 0 {
		s.reports = reports
		saveJSON(ctx, s.kv, s.log, storage.KeyFieldReports, s.reports)
	}
}
