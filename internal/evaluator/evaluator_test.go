package evaluator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waterguard/waterguard/internal/types"
)

func nominalMeasurement() types.Measurement {
	return types.Measurement{
		PH:              7.2,
		Temperature:     24.5,
		Turbidity:       2.1,
		Conductivity:    850,
		DissolvedOxygen: 6.8,
	}
}

func TestEvaluate_AllNominal(t *testing.T) {
	candidates, status := Evaluate(nominalMeasurement(), types.DefaultThresholds(), 92)

	assert.Empty(t, candidates)
	assert.Equal(t, types.StatusOnline, status)
}

func TestEvaluate_PHLow(t *testing.T) {
	m := types.Measurement{PH: 6.1, Temperature: 22, Turbidity: 1, Conductivity: 800, DissolvedOxygen: 4.2}

	candidates, status := Evaluate(m, types.DefaultThresholds(), 92)

	require.Len(t, candidates, 1)
	assert.Equal(t, types.AlertPHLow, candidates[0].Type)
	assert.Equal(t, 6.1, candidates[0].Value)
	assert.Equal(t, 6.5, candidates[0].Threshold)
	assert.Equal(t, types.StatusAlert, status)
}

func TestEvaluate_PHHigh(t *testing.T) {
	m := nominalMeasurement()
	m.PH = 9.0

	candidates, status := Evaluate(m, types.DefaultThresholds(), 92)

	require.Len(t, candidates, 1)
	assert.Equal(t, types.AlertPHHigh, candidates[0].Type)
	assert.Equal(t, 8.5, candidates[0].Threshold)
	assert.Equal(t, types.StatusAlert, status)
}

func TestEvaluate_NeverBothPHLowAndHigh(t *testing.T) {
	cfg := types.DefaultThresholds()

	for _, ph := range []float64{-5, 0, 6.49, 6.5, 7, 8.5, 8.51, 14, 99} {
		m := nominalMeasurement()
		m.PH = ph

		candidates, _ := Evaluate(m, cfg, 92)

		low, high := false, false
		for _, c := range candidates {
			if c.Type == types.AlertPHLow {
				low = true
			}
			if c.Type == types.AlertPHHigh {
				high = true
			}
		}
		assert.False(t, low && high, "ph=%v emitted both ph_low and ph_high", ph)
		assert.Equal(t, ph < cfg.PH.Min, low, "ph=%v ph_low emission", ph)
	}
}

func TestEvaluate_TemperatureBounds(t *testing.T) {
	cfg := types.DefaultThresholds()

	m := nominalMeasurement()
	m.Temperature = 35
	candidates, _ := Evaluate(m, cfg, 92)
	require.Len(t, candidates, 1)
	assert.Equal(t, types.AlertTemperature, candidates[0].Type)
	assert.Equal(t, cfg.Temperature.Max, candidates[0].Threshold)

	m.Temperature = 10
	candidates, _ = Evaluate(m, cfg, 92)
	require.Len(t, candidates, 1)
	assert.Equal(t, types.AlertTemperature, candidates[0].Type)
	assert.Equal(t, cfg.Temperature.Min, candidates[0].Threshold)
}

func TestEvaluate_BatteryLow(t *testing.T) {
	candidates, status := Evaluate(nominalMeasurement(), types.DefaultThresholds(), 15)

	require.Len(t, candidates, 1)
	assert.Equal(t, types.AlertBattery, candidates[0].Type)
	assert.Equal(t, 15.0, candidates[0].Value)
	assert.Equal(t, 20.0, candidates[0].Threshold)
	assert.Equal(t, types.StatusAlert, status)
}

func TestEvaluate_BatteryAtCutoffIsFine(t *testing.T) {
	candidates, status := Evaluate(nominalMeasurement(), types.DefaultThresholds(), 20)

	assert.Empty(t, candidates)
	assert.Equal(t, types.StatusOnline, status)
}

func TestEvaluate_MultipleBreaches(t *testing.T) {
	m := types.Measurement{
		PH:              6.1,
		Temperature:     35,
		Turbidity:       8,
		Conductivity:    2000,
		DissolvedOxygen: 2,
	}

	candidates, status := Evaluate(m, types.DefaultThresholds(), 10)

	require.Len(t, candidates, 6)
	// Emission order follows channel order
	assert.Equal(t, types.AlertPHLow, candidates[0].Type)
	assert.Equal(t, types.AlertTemperature, candidates[1].Type)
	assert.Equal(t, types.AlertTurbidity, candidates[2].Type)
	assert.Equal(t, types.AlertConductivity, candidates[3].Type)
	assert.Equal(t, types.AlertOxygen, candidates[4].Type)
	assert.Equal(t, types.AlertBattery, candidates[5].Type)
	assert.Equal(t, types.StatusAlert, status)
}

func TestEvaluate_NaNComparedAsGiven(t *testing.T) {
	m := nominalMeasurement()
	m.PH = math.NaN()

	// NaN comparisons are always false, so no pH candidate either way
	candidates, status := Evaluate(m, types.DefaultThresholds(), 92)

	assert.Empty(t, candidates)
	assert.Equal(t, types.StatusOnline, status)
}
