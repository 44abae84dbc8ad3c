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

func testStations(now time.Time) []types.Station {
	return []types.Station{
		{ID: "WELL_002", Name: "Forage Nord", Status: types.StatusOnline, Battery: 90, LastUpdate: now},
		{ID: "WELL_001", Name: "Puits Municipal #1", Status: types.StatusOnline, Battery: 85, LastUpdate: now},
	}
}

func TestStationStore_ListOrderedByID(t *testing.T) {
	_, kv := testKV(t)
	ctx := context.Background()

	s := NewStationStore(ctx, kv, zerolog.Nop(), false)
	s.seed(ctx, testStations(time.Now()))

	stations := s.List()
	require.Len(t, stations, 2)
	assert.Equal(t, "WELL_001", stations[0].ID)
	assert.Equal(t, "WELL_002", stations[1].ID)
}

func TestStationStore_GetUnknown(t *testing.T) {
	_, kv := testKV(t)
	s := NewStationStore(context.Background(), kv, zerolog.Nop(), false)

	_, err := s.Get("WELL_404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStationStore_ApplyMeasurement(t *testing.T) {
	_, kv := testKV(t)
	ctx := context.Background()
	now := time.Now()

	s := NewStationStore(ctx, kv, zerolog.Nop(), false)
	s.seed(ctx, testStations(now.Add(-time.Hour)))

	m := types.Measurement{PH: 7.1, Temperature: 18.4, Turbidity: 1.2, Conductivity: 520, DissolvedOxygen: 8.2}
	st, err := s.ApplyMeasurement(ctx, "WELL_001", m, 77, types.StatusOnline, now)
	require.NoError(t, err)
	assert.Equal(t, m, st.LastMeasurement)
	assert.Equal(t, 77.0, st.Battery)
	assert.Equal(t, now, st.LastUpdate)
	assert.Equal(t, types.StatusOnline, st.Status)
}

func TestStationStore_ApplyMeasurementNegativeBatteryKeepsStored(t *testing.T) {
	_, kv := testKV(t)
	ctx := context.Background()

	s := NewStationStore(ctx, kv, zerolog.Nop(), false)
	s.seed(ctx, testStations(time.Now().Add(-time.Hour)))

	st, err := s.ApplyMeasurement(ctx, "WELL_001", types.Measurement{PH: 7}, -1, types.StatusOnline, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 85.0, st.Battery)
}

func TestStationStore_LastWriteWinsByDefault(t *testing.T) {
	_, kv := testKV(t)
	ctx := context.Background()
	now := time.Now()

	s := NewStationStore(ctx, kv, zerolog.Nop(), false)
	s.seed(ctx, testStations(now))

	// An older measurement still overwrites when reject_stale is off
	st, err := s.ApplyMeasurement(ctx, "WELL_001", types.Measurement{PH: 6.9}, 80, types.StatusOnline, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 6.9, st.LastMeasurement.PH)
}

func TestStationStore_RejectStale(t *testing.T) {
	_, kv := testKV(t)
	ctx := context.Background()
	now := time.Now()

	s := NewStationStore(ctx, kv, zerolog.Nop(), true)
	s.seed(ctx, testStations(now))

	_, err := s.ApplyMeasurement(ctx, "WELL_001", types.Measurement{PH: 6.9}, 80, types.StatusOnline, now.Add(-time.Minute))
	assert.ErrorIs(t, err, ErrStaleMeasurement)

	st, err := s.Get("WELL_001")
	require.NoError(t, err)
	assert.Equal(t, 85.0, st.Battery)
}

func TestStationStore_ApplyMeasurementUnknownStation(t *testing.T) {
	_, kv := testKV(t)
	ctx := context.Background()

	s := NewStationStore(ctx, kv, zerolog.Nop(), false)
	s.seed(ctx, testStations(time.Now()))

	_, err := s.ApplyMeasurement(ctx, "WELL_404", types.Measurement{}, 50, types.StatusOnline, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStationStore_SetStatus(t *testing.T) {
	_, kv := testKV(t)
	ctx := context.Background()

	s := NewStationStore(ctx, kv, zerolog.Nop(), false)
	s.seed(ctx, testStations(time.Now()))

	require.NoError(t, s.SetStatus(ctx, "WELL_001", types.StatusOffline))
	st, err := s.Get("WELL_001")
	require.NoError(t, err)
	assert.Equal(t, types.StatusOffline, st.Status)

	assert.ErrorIs(t, s.SetStatus(ctx, "WELL_404", types.StatusOffline), ErrNotFound)
}

func TestStationStore_SeedOnlyWhenEmpty(t *testing.T) {
	_, kv := testKV(t)
	ctx := context.Background()
	now := time.Now()

	s := NewStationStore(ctx, kv, zerolog.Nop(), false)
	s.seed(ctx, testStations(now))
	s.seed(ctx, []types.Station{{ID: "WELL_099", Name: "Other"}})

	stations := s.List()
	require.Len(t, stations, 2)
	assert.Equal(t, "WELL_001", stations[0].ID)
}

func TestStationStore_ReloadFromPersistence(t *testing.T) {
	_, kv := testKV(t)
	ctx := context.Background()

	s := NewStationStore(ctx, kv, zerolog.Nop(), false)
	s.seed(ctx, testStations(time.Now()))
	require.NoError(t, s.SetStatus(ctx, "WELL_002", types.StatusAlert))

	reloaded := NewStationStore(ctx, kv, zerolog.Nop(), false)
	st, err := reloaded.Get("WELL_002")
	require.NoError(t, err)
	assert.Equal(t, types.StatusAlert, st.Status)
}
