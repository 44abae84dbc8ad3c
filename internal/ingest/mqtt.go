package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/waterguard/waterguard/internal/config"
	"github.com/waterguard/waterguard/internal/metrics"
	"github.com/waterguard/waterguard/internal/pipeline"
	"github.com/waterguard/waterguard/internal/types"
)

// Reading is the JSON payload field stations publish on
// waterguard/<stationId>/measurement
type Reading struct {
	Measurement types.Measurement `json:"measurement"`
	Battery     *float64          `json:"battery,omitempty"`
	Timestamp   *time.Time        `json:"timestamp,omitempty"`
}

// LinkHealth tracks intake activity for one station
type LinkHealth struct {
	LastUpdate  time.Time `json:"last_update"`
	UpdateCount int64     `json:"update_count"`
	LastError   string    `json:"last_error,omitempty"`
}

// Intake subscribes to the measurement topic and feeds readings into the
// pipeline. The paho client reconnects automatically; subscription is
// re-established from the on-connect handler.
type Intake struct {
	cfg    config.MQTTConfig
	engine *pipeline.Engine
	log    zerolog.Logger
	client mqtt.Client

	mu     sync.RWMutex
	health map[string]*LinkHealth
}

// NewIntake creates an MQTT intake. Start must be called to connect.
func NewIntake(cfg config.MQTTConfig, engine *pipeline.Engine, log zerolog.Logger) *Intake {
	return &Intake{
		cfg:    cfg,
		engine: engine,
		log:    log.With().Str("component", "intake").Logger(),
		health: make(map[string]*LinkHealth),
	}
}

// Start connects to the broker and subscribes to the measurement topic
func (in *Intake) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(in.cfg.Broker)
	opts.SetClientID(in.cfg.ClientID)
	opts.SetUsername(in.cfg.Username)
	opts.SetPassword(in.cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		in.log.Warn().Err(err).Msg("broker connection lost")
	})
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		in.log.Info().Str("broker", in.cfg.Broker).Msg("connected to broker")
		token := c.Subscribe(in.cfg.MeasurementTopic, 1, func(_ mqtt.Client, msg mqtt.Message) {
			in.handleMessage(ctx, msg)
		})
		if token.Wait() && token.Error() != nil {
			in.log.Error().Err(token.Error()).Str("topic", in.cfg.MeasurementTopic).Msg("subscribe failed")
		}
	})

	in.client = mqtt.NewClient(opts)
	if token := in.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connecting to broker %s: %w", in.cfg.Broker, token.Error())
	}
	return nil
}

// Close disconnects from the broker
func (in *Intake) Close() {
	if in.client != nil && in.client.IsConnected() {
		in.client.Disconnect(250)
	}
}

// Health returns a copy of the per-station link health map
func (in *Intake) Health() map[string]LinkHealth {
	in.mu.RLock()
	defer in.mu.RUnlock()

	out := make(map[string]LinkHealth, len(in.health))
	for id, h := range in.health {
		out[id] = *h
	}
	return out
}

func (in *Intake) handleMessage(ctx context.Context, msg mqtt.Message) {
	stationID, err := stationFromTopic(msg.Topic())
	if err != nil {
		in.log.Debug().Err(err).Str("topic", msg.Topic()).Msg("skipping message")
		metrics.IngestMessages.WithLabelValues("rejected").Inc()
		return
	}

	var reading Reading
	if err := json.Unmarshal(msg.Payload(), &reading); err != nil {
		in.recordError(stationID, err)
		in.log.Warn().Err(err).Str("station", stationID).Msg("malformed reading payload")
		metrics.IngestMessages.WithLabelValues("rejected").Inc()
		return
	}

	at := time.Now()
	if reading.Timestamp != nil {
		at = *reading.Timestamp
	}
	battery := -1.0
	if reading.Battery != nil {
		battery = *reading.Battery
	}

	if _, err := in.engine.Process(ctx, stationID, reading.Measurement, battery, at); err != nil {
		in.recordError(stationID, err)
		in.log.Warn().Err(err).Str("station", stationID).Msg("reading not applied")
		metrics.IngestMessages.WithLabelValues("rejected").Inc()
		return
	}

	in.recordUpdate(stationID, at)
	metrics.IngestMessages.WithLabelValues("accepted").Inc()
}

func (in *Intake) recordUpdate(stationID string, at time.Time) {
	in.mu.Lock()
	defer in.mu.Unlock()

	h, ok := in.health[stationID]
	if !ok {
		h = &LinkHealth{}
		in.health[stationID] = h
	}
	h.LastUpdate = at
	h.UpdateCount++
	h.LastError = ""
}

func (in *Intake) recordError(stationID string, err error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	h, ok := in.health[stationID]
	if !ok {
		h = &LinkHealth{}
		in.health[stationID] = h
	}
	h.LastError = err.Error()
}

// stationFromTopic extracts the station id from waterguard/<id>/measurement
func stationFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[1] == "" {
		return "", fmt.Errorf("unexpected topic shape: %s", topic)
	}
	return parts[1], nil
}
