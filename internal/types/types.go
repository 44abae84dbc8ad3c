package types

import "time"

// StationStatus is the lifecycle status of a monitoring station
type StationStatus string

const (
	StatusOnline  StationStatus = "online"
	StatusOffline StationStatus = "offline"
	StatusAlert   StationStatus = "alert"
)

// AlertType identifies the channel (or derived signal) that breached
type AlertType string

const (
	AlertPHLow        AlertType = "ph_low"
	AlertPHHigh       AlertType = "ph_high"
	AlertTemperature  AlertType = "temperature"
	AlertTurbidity    AlertType = "turbidity"
	AlertConductivity AlertType = "conductivity"
	AlertOxygen       AlertType = "oxygen"
	AlertBattery      AlertType = "battery"
)

// BatteryAlertCutoff is the battery percentage below which a battery alert fires
const BatteryAlertCutoff = 20.0

// Measurement is a complete snapshot of the five sensor channels.
// All fields are always present; values are taken as reported.
type Measurement struct {
	PH              float64 `json:"ph"`
	Temperature     float64 `json:"temperature"`      // °C
	Turbidity       float64 `json:"turbidity"`        // NTU
	Conductivity    float64 `json:"conductivity"`     // µS/cm
	DissolvedOxygen float64 `json:"dissolved_oxygen"` // mg/L
}

// Bounds holds a min/max pair for a channel. Channels with a single bound
// leave the unused side at zero and it is never consulted.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// MaxBound holds an upper bound only
type MaxBound struct {
	Max float64 `json:"max"`
}

// MinBound holds a lower bound only
type MinBound struct {
	Min float64 `json:"min"`
}

// ThresholdConfig is the active per-channel alert threshold configuration.
// Exactly one configuration is active process-wide at a time.
type ThresholdConfig struct {
	PH              Bounds   `json:"ph"`
	Temperature     Bounds   `json:"temperature"`
	Turbidity       MaxBound `json:"turbidity"`
	Conductivity    MaxBound `json:"conductivity"`
	DissolvedOxygen MinBound `json:"dissolved_oxygen"`
}

// DefaultThresholds returns the compiled-in threshold defaults
func DefaultThresholds() ThresholdConfig {
	return ThresholdConfig{
		PH:              Bounds{Min: 6.5, Max: 8.5},
		Temperature:     Bounds{Min: 15, Max: 30},
		Turbidity:       MaxBound{Max: 5},
		Conductivity:    MaxBound{Max: 1500},
		DissolvedOxygen: MinBound{Min: 4},
	}
}

// ThresholdUpdate carries a partial threshold change; nil channels are left untouched
type ThresholdUpdate struct {
	PH              *Bounds   `json:"ph,omitempty"`
	Temperature     *Bounds   `json:"temperature,omitempty"`
	Turbidity       *MaxBound `json:"turbidity,omitempty"`
	Conductivity    *MaxBound `json:"conductivity,omitempty"`
	DissolvedOxygen *MinBound `json:"dissolved_oxygen,omitempty"`
}

// Station is a monitored water well
type Station struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Location        string        `json:"location"`
	Status          StationStatus `json:"status"`
	LastMeasurement Measurement   `json:"lastMeasurement"`
	LastUpdate      time.Time     `json:"lastUpdate"`
	Latitude        float64       `json:"latitude"`
	Longitude       float64       `json:"longitude"`
	AlertCount      int           `json:"alertCount"`
	Battery         float64       `json:"battery"` // percent, 0-100
}

// AlertCandidate is a potential alert produced by the evaluator, before it
// is persisted and assigned an identity.
type AlertCandidate struct {
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
}

// Alert is a persisted alert record. Mutated only by acknowledge (one-way)
// or delete; repeated breaches create independent records.
type Alert struct {
	ID             string     `json:"id"`
	StationID      string     `json:"stationId"`
	Type           AlertType  `json:"type"`
	Message        string     `json:"message"`
	Value          float64    `json:"value"`
	Threshold      float64    `json:"threshold"`
	Timestamp      time.Time  `json:"timestamp"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
}

// HistoryPoint is one time-series sample for a station
type HistoryPoint struct {
	Timestamp    time.Time   `json:"timestamp"`
	Measurements Measurement `json:"measurements"`
}

// ChannelStats holds summary statistics for one channel over a window
type ChannelStats struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Summary maps channel name to its statistics
type Summary map[string]ChannelStats

// CalibrationRecord documents a sensor calibration performed at a station
type CalibrationRecord struct {
	ID               string    `json:"id"`
	StationID        string    `json:"stationId"`
	SensorType       string    `json:"sensorType"` // ph, temperature, turbidity, conductivity, oxygen
	CalibratedAt     time.Time `json:"calibratedAt"`
	CalibrationValue float64   `json:"calibrationValue"`
	StandardValue    float64   `json:"standardValue"`
	Technician       string    `json:"technician"`
	Notes            string    `json:"notes"`
	NextCalibration  time.Time `json:"nextCalibrationDate"`
}

// FieldReport is a maintenance/repair/inspection report filed by a technician
type FieldReport struct {
	ID          string    `json:"id"`
	StationID   string    `json:"stationId"`
	ReportedAt  time.Time `json:"reportedAt"`
	ReportType  string    `json:"reportType"` // maintenance, repair, inspection, other
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Photos      []string  `json:"photos"`
	Technician  string    `json:"technician"`
	Status      string    `json:"status"` // pending, completed
}

// User is an authenticated operator
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// QueuedOperation is a pending offline-sync entry destined for the backend
type QueuedOperation struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // measurement, calibration, field_report
	Data      []byte    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
	Synced    bool      `json:"synced"`
}
