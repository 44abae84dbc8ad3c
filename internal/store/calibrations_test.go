package store

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waterguard/waterguard/internal/types"
)

func TestCalibrationStore_AddCalibration(t *testing.T) {
	_, kv := testKV(t)
	ctx := context.Background()
	s := NewCalibrationStore(ctx, kv, zerolog.Nop())

	rec, err := s.AddCalibration(ctx, types.CalibrationRecord{
		StationID:  "WELL_001",
		SensorType: "ph",
		Technician: "A. Diallo",
		Notes:      "two-point calibration",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CalibratedAt.IsZero())

	require.Len(t, s.Calibrations(), 1)
}

func TestCalibrationStore_AddCalibrationRequiredFields(t *testing.T) {
	_, kv := testKV(t)
	ctx := context.Background()
	s := NewCalibrationStore(ctx, kv, zerolog.Nop())

	cases := []types.CalibrationRecord{
		{SensorType: "ph", Technician: "A. Diallo"},
		{StationID: "WELL_001", Technician: "A. Diallo"},
		{StationID: "WELL_001", SensorType: "ph"},
	}
	for _, rec := range cases {
		_, err := s.AddCalibration(ctx, rec)
		assert.ErrorIs(t, err, ErrMissingFields)
	}
	assert.Empty(t, s.Calibrations())
}

func TestCalibrationStore_CalibrationsMostRecentFirst(t *testing.T) {
	_, kv := testKV(t)
	ctx := context.Background()
	s := NewCalibrationStore(ctx, kv, zerolog.Nop())

	now := time.Now()
	_, err := s.AddCalibration(ctx, types.CalibrationRecord{
		StationID: "WELL_001", SensorType: "ph", Technician: "A. Diallo",
		CalibratedAt: now.Add(-time.Hour),
	})
	require.NoError(t, err)
	_, err = s.AddCalibration(ctx, types.CalibrationRecord{
		StationID: "WELL_002", SensorType: "turbidity", Technician: "B. Traore",
		CalibratedAt: now,
	})
	require.NoError(t, err)

	recs := s.Calibrations()
	require.Len(t, recs, 2)
	assert.Equal(t, "WELL_002", recs[0].StationID)
}

func TestCalibrationStore_AddReport(t *testing.T) {
	_, kv := testKV(t)
	ctx := context.Background()
	s := NewCalibrationStore(ctx, kv, zerolog.Nop())

	rep, err := s.AddReport(ctx, types.FieldReport{
		StationID:   "WELL_001",
		Title:       "Pump noise",
		Description: "Intermittent grinding noise from the pump housing",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rep.ID)
	assert.Equal(t, "pending", rep.Status)
	assert.NotNil(t, rep.Photos)
}

func TestCalibrationStore_AddReportRequiredFields(t *testing.T) {
	_, kv := testKV(t)
	ctx := context.Background()
	s := NewCalibrationStore(ctx, kv, zerolog.Nop())

	_, err := s.AddReport(ctx, types.FieldReport{StationID: "WELL_001", Title: "Pump noise"})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestCalibrationStore_ReportsFilterByStation(t *testing.T) {
	_, kv := testKV(t)
	ctx := context.Background()
	s := NewCalibrationStore(ctx, kv, zerolog.Nop())

	_, err := s.AddReport(ctx, types.FieldReport{StationID: "WELL_001", Title: "a", Description: "d"})
	require.NoError(t, err)
	_, err = s.AddReport(ctx, types.FieldReport{StationID: "WELL_002", Title: "b", Description: "d"})
	require.NoError(t, err)

	assert.Len(t, s.Reports(""), 2)
	reports := s.Reports("WELL_002")
	require.Len(t, reports, 1)
	assert.Equal(t, "b", reports[0].Title)
}

func TestCalibrationStore_ReloadFromPersistence(t *testing.T) {
	_, kv := testKV(t)
	ctx := context.Background()

	s := NewCalibrationStore(ctx, kv, zerolog.Nop())
	_, err := s.AddCalibration(ctx, types.CalibrationRecord{
		StationID: "WELL_001", SensorType: "ph", Technician: "A. Diallo",
	})
	require.NoError(t, err)

	reloaded := NewCalibrationStore(ctx, kv, zerolog.Nop())
	assert.Len(t, reloaded.Calibrations(), 1)
}
