package evaluator

import (
	"github.com/waterguard/waterguard/internal/types"
)

// Evaluate compares a measurement snapshot and battery level against the
// active thresholds and returns the alert candidates plus the station's new
// status. It is a pure function: no state, no I/O, and it never fails —
// malformed values (NaN, out-of-physical-range) are compared as given.
//
// Candidates are emitted in channel order (pH low, pH high, temperature,
// turbidity, conductivity, oxygen, battery); order carries no semantics
// beyond emission order. Candidates are independent of any existing open
// alert for the same channel: deduplication, if any, is the caller's policy.
func Evaluate(m types.Measurement, cfg types.ThresholdConfig, battery float64) ([]types.AlertCandidate, types.StationStatus) {
	var candidates []types.AlertCandidate

	if m.PH < cfg.PH.Min {
		candidates = append(candidates, types.AlertCandidate{
			Type:      types.AlertPHLow,
			Message:   "pH too low",
			Value:     m.PH,
			Threshold: cfg.PH.Min,
		})
	}
	if m.PH > cfg.PH.Max {
		candidates = append(candidates, types.AlertCandidate{
			Type:      types.AlertPHHigh,
			Message:   "pH too high",
			Value:     m.PH,
			Threshold: cfg.PH.Max,
		})
	}

	// Temperature has two bounds but a single alert type; the threshold
	// recorded is whichever bound was breached.
	if m.Temperature > cfg.Temperature.Max {
		candidates = append(candidates, types.AlertCandidate{
			Type:      types.AlertTemperature,
			Message:   "temperature out of range",
			Value:     m.Temperature,
			Threshold: cfg.Temperature.Max,
		})
	} else if m.Temperature < cfg.Temperature.Min {
		candidates = append(candidates, types.AlertCandidate{
			Type:      types.AlertTemperature,
			Message:   "temperature out of range",
			Value:     m.Temperature,
			Threshold: cfg.Temperature.Min,
		})
	}

	if m.Turbidity > cfg.Turbidity.Max {
		candidates = append(candidates, types.AlertCandidate{
			Type:      types.AlertTurbidity,
			Message:   "turbidity too high",
			Value:     m.Turbidity,
			Threshold: cfg.Turbidity.Max,
		})
	}

	if m.Conductivity > cfg.Conductivity.Max {
		candidates = append(candidates, types.AlertCandidate{
			Type:      types.AlertConductivity,
			Message:   "conductivity too high",
			Value:     m.Conductivity,
			Threshold: cfg.Conductivity.Max,
		})
	}

	if m.DissolvedOxygen < cfg.DissolvedOxygen.Min {
		candidates = append(candidates, types.AlertCandidate{
			Type:      types.AlertOxygen,
			Message:   "dissolved oxygen too low",
			Value:     m.DissolvedOxygen,
			Threshold: cfg.DissolvedOxygen.Min,
		})
	}

	if battery < types.BatteryAlertCutoff {
		candidates = append(candidates, types.AlertCandidate{
			Type:      types.AlertBattery,
			Message:   "battery low",
			Value:     battery,
			Threshold: types.BatteryAlertCutoff,
		})
	}

	// Offline is set externally by the liveness monitor; a measurement
	// arriving always means the station is reachable.
	status := types.StatusOnline
	if len(candidates) > 0 {
		status = types.StatusAlert
	}

	return candidates, status
}
