// Package events publishes reconcile outcomes for downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/pkg/kafka"
	"github.com/Ramsey-B/laurel/pkg/models"
)

// Publisher is the transport the emitter writes events through
type Publisher interface {
	Publish(ctx context.Context, event *kafka.ReconcileEvent) error
}

// Emitter publishes reconcile events. Publishing is best effort: a failed
// publish is logged, never returned, so eventing can never fail a committed
// reconciliation.
type Emitter struct {
	log       ectologger.Logger
	publisher Publisher
}

// NewEmitter creates a new event emitter
func NewEmitter(log ectologger.Logger, publisher Publisher) *Emitter {
	return &Emitter{
		log:       log,
		publisher: publisher,
	}
}

// MasterCreated announces a freshly allocated master record
func (e *Emitter) MasterCreated(ctx context.Context, tenantID string, master models.MasterRecord) {
	e.emit(ctx, &kafka.ReconcileEvent{
		Type:      kafka.EventMasterCreated,
		TenantID:  tenantID,
		Taxonomy:  master.Taxonomy,
		MasterID:  master.ID,
		Timestamp: time.Now().UTC(),
	})
}

// RecordsMatched announces supplier records mapped to a master record
func (e *Emitter) RecordsMatched(ctx context.Context, tenantID, masterID string, recordIDs []string) {
	if len(recordIDs) == 0 {
		return
	}
	e.emit(ctx, &kafka.ReconcileEvent{
		Type:      kafka.EventRecordsMatched,
		TenantID:  tenantID,
		MasterID:  masterID,
		RecordIDs: recordIDs,
		Timestamp: time.Now().UTC(),
	})
}

// RecordsUnmatched announces supplier records reverted to pending
func (e *Emitter) RecordsUnmatched(ctx context.Context, tenantID string, recordIDs []string) {
	e.emit(ctx, &kafka.ReconcileEvent{
		Type:      kafka.EventRecordsUnmatched,
		TenantID:  tenantID,
		RecordIDs: recordIDs,
		Timestamp: time.Now().UTC(),
	})
}

// RecordMoved announces a supplier record reassigned to another master
func (e *Emitter) RecordMoved(ctx context.Context, tenantID, recordID, masterID string) {
	e.emit(ctx, &kafka.ReconcileEvent{
		Type:      kafka.EventRecordMoved,
		TenantID:  tenantID,
		MasterID:  masterID,
		RecordIDs: []string{recordID},
		Timestamp: time.Now().UTC(),
	})
}

func (e *Emitter) emit(ctx context.Context, event *kafka.ReconcileEvent) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.log.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type": event.Type,
			"tenant_id":  event.TenantID,
		}).Warn("Failed to publish reconcile event")
	}
}
