package backend

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/waterguard/waterguard/internal/metrics"
	"github.com/waterguard/waterguard/internal/storage"
	"github.com/waterguard/waterguard/internal/types"
)

// Queued operation types
const (
	OpMeasurement = "measurement"
	OpCalibration = "calibration"
	OpFieldReport = "field_report"
	OpAlert       = "alert"
)

// measurementPayload is the persisted form of a queued measurement
type measurementPayload struct {
	StationID string             `json:"stationId"`
	Point     types.HistoryPoint `json:"point"`
}

// SyncQueue buffers operations for the backend while it is unreachable,
// persisted under the sync_queue key. Flush pushes unsynced operations and
// prunes everything already synced.
type SyncQueue struct {
	kv     storage.KV
	client *Client
	log    zerolog.Logger

	mu      sync.Mutex
	ops     []types.QueuedOperation
	syncing bool
}

// NewSyncQueue loads the persisted queue
func NewSyncQueue(ctx context.Context, kv storage.KV, client *Client, log zerolog.Logger) *SyncQueue {
	q := &SyncQueue{
		kv:     kv,
		client: client,
		log:    log.With().Str("component", "sync-queue").Logger(),
	}
	q.load(ctx)
	metrics.SyncQueueDepth.Set(float64(len(q.ops)))
	return q
}

func (q *SyncQueue) load(ctx context.Context) {
	data, err := q.kv.Get(ctx, storage.KeySyncQueue)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		q.log.Error().Err(err).Msg("failed to load sync queue")
		return
	}
	if err := json.Unmarshal(data, &q.ops); err != nil {
		q.log.Error().Err(err).Msg("failed to decode sync queue")
	}
}

func (q *SyncQueue) save(ctx context.Context) {
	data, err := json.Marshal(q.ops)
	if err != nil {
		q.log.Error().Err(err).Msg("failed to encode sync queue")
		return
	}
	if err := q.kv.Set(ctx, storage.KeySyncQueue, data); err != nil {
		q.log.Error().Err(err).Msg("failed to persist sync queue")
	}
	metrics.SyncQueueDepth.Set(float64(len(q.ops)))
}

// EnqueueMeasurement queues a measurement push
func (q *SyncQueue) EnqueueMeasurement(ctx context.Context, stationID string, point types.HistoryPoint) {
	data, _ := json.Marshal(measurementPayload{StationID: stationID, Point: point})
	q.enqueue(ctx, OpMeasurement, data)
}

// EnqueueAlert queues an alert push
func (q *SyncQueue) EnqueueAlert(ctx context.Context, alert types.Alert) {
	data, _ := json.Marshal(alert)
	q.enqueue(ctx, OpAlert, data)
}

// EnqueueCalibration queues a calibration push
func (q *SyncQueue) EnqueueCalibration(ctx context.Context, rec types.CalibrationRecord) {
	data, _ := json.Marshal(rec)
	q.enqueue(ctx, OpCalibration, data)
}

// EnqueueFieldReport queues a field report push
func (q *SyncQueue) EnqueueFieldReport(ctx context.Context, rep types.FieldReport) {
	data, _ := json.Marshal(rep)
	q.enqueue(ctx, OpFieldReport, data)
}

func (q *SyncQueue) enqueue(ctx context.Context, opType string, data []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.ops = append(q.ops, types.QueuedOperation{
		ID:        uuid.NewString(),
		Type:      opType,
		Data:      data,
		Timestamp: time.Now(),
	})
	q.save(ctx)
}

// Pending returns the number of unsynced operations
func (q *SyncQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	count := 0
	for _, op := range q.ops {
		if !op.Synced {
			count++
		}
	}
	return count
}

// Flush pushes every unsynced operation in order and prunes operations
// that synced. A failed push leaves its operation queued for the next
// flush; later operations are still attempted.
func (q *SyncQueue) Flush(ctx context.Context) {
	q.mu.Lock()
	if q.syncing {
		q.mu.Unlock()
		return
	}
	q.syncing = true
	ops := make([]types.QueuedOperation, len(q.ops))
	copy(ops, q.ops)
	q.mu.Unlock()

	synced := make(map[string]bool)
	for _, op := range ops {
		if op.Synced {
			synced[op.ID] = true
			continue
		}
		if err := q.push(ctx, op); err != nil {
			q.log.Warn().Err(err).Str("op", op.ID).Str("type", op.Type).Msg("push failed, keeping queued")
			metrics.SyncPushes.WithLabelValues("failed").Inc()
			continue
		}
		synced[op.ID] = true
		metrics.SyncPushes.WithLabelValues("ok").Inc()
	}

	q.mu.Lock()
	kept := q.ops[:0]
	for _, op := range q.ops {
		if !synced[op.ID] {
			kept = append(kept, op)
		}
	}
	q.ops = kept
	q.save(ctx)
	q.syncing = false
	q.mu.Unlock()
}

// Run flushes on a timer until the context is cancelled
func (q *SyncQueue) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.Flush(ctx)
		}
	}
}

func (q *SyncQueue) push(ctx context.Context, op types.QueuedOperation) error {
	switch op.Type {
	case OpMeasurement:
		var p measurementPayload
		if err := json.Unmarshal(op.Data, &p); err != nil {
			return err
		}
		return q.client.PushMeasurement(ctx, p.StationID, p.Point)
	case OpAlert:
		var a types.Alert
		if err := json.Unmarshal(op.Data, &a); err != nil {
			return err
		}
		return q.client.PushAlert(ctx, a)
	case OpCalibration:
		var rec types.CalibrationRecord
		if err := json.Unmarshal(op.Data, &rec); err != nil {
			return err
		}
		return q.client.PushCalibration(ctx, rec)
	case OpFieldReport:
		var rep types.FieldReport
		if err := json.Unmarshal(op.Data, &rep); err != nil {
			return err
		}
		return q.client.PushFieldReport(ctx, rep)
	default:
		q.log.Warn().Str("type", op.Type).Msg("unknown queued operation type, dropping")
		return nil
	}
}
