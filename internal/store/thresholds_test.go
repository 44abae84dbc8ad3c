package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waterguard/waterguard/internal/storage"
	"github.com/waterguard/waterguard/internal/types"
)

func testKV(t *testing.T) (*miniredis.Miniredis, storage.KV) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, storage.NewRedisKVFromClient(client)
}

func TestThresholdStore_DefaultsOnFirstAccess(t *testing.T) {
	_, kv := testKV(t)

	s := NewThresholdStore(context.Background(), kv, zerolog.Nop())

	assert.Equal(t, types.DefaultThresholds(), s.Get())
}

func TestThresholdStore_UpdateMergesAndPersists(t *testing.T) {
	_, kv := testKV(t)
	ctx := context.Background()

	s := NewThresholdStore(ctx, kv, zerolog.Nop())
	updated := s.Update(ctx, types.ThresholdUpdate{
		PH: &types.Bounds{Min: 6.0, Max: 9.0},
	})

	assert.Equal(t, types.Bounds{Min: 6.0, Max: 9.0}, updated.PH)
	// Untouched channels keep their current bounds
	assert.Equal(t, types.DefaultThresholds().Temperature, updated.Temperature)
	assert.Equal(t, types.DefaultThresholds().Turbidity, updated.Turbidity)

	// A fresh store sees the persisted config
	reloaded := NewThresholdStore(ctx, kv, zerolog.Nop())
	assert.Equal(t, updated, reloaded.Get())
}

func TestThresholdStore_InvertedBoundsAccepted(t *testing.T) {
	_, kv := testKV(t)
	ctx := context.Background()

	s := NewThresholdStore(ctx, kv, zerolog.Nop())
	updated := s.Update(ctx, types.ThresholdUpdate{
		PH: &types.Bounds{Min: 9.0, Max: 6.0},
	})

	// No validation: the inverted pair is stored as-is
	assert.Equal(t, types.Bounds{Min: 9.0, Max: 6.0}, updated.PH)
}

func TestThresholdStore_ResetToDefault(t *testing.T) {
	mr, kv := testKV(t)
	ctx := context.Background()

	s := NewThresholdStore(ctx, kv, zerolog.Nop())
	s.Update(ctx, types.ThresholdUpdate{Turbidity: &types.MaxBound{Max: 99}})

	reset := s.ResetToDefault(ctx)
	assert.Equal(t, types.DefaultThresholds(), reset)

	raw, err := mr.Get(storage.KeyThresholds)
	require.NoError(t, err)
	var persisted types.ThresholdConfig
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.Equal(t, types.DefaultThresholds(), persisted)
}

func TestThresholdStore_PersistenceFailureKeepsInMemoryState(t *testing.T) {
	mr, kv := testKV(t)
	ctx := context.Background()

	s := NewThresholdStore(ctx, kv, zerolog.Nop())
	mr.Close()

	updated := s.Update(ctx, types.ThresholdUpdate{Conductivity: &types.MaxBound{Max: 2000}})

	// The write failed but the in-memory config still advanced
	assert.Equal(t, 2000.0, updated.Conductivity.Max)
	assert.Equal(t, 2000.0, s.Get().Conductivity.Max)
}
