// Package ingest turns raw supplier feed deliveries into supplier records.
package ingest

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"

	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// RecordStore is the persistence surface the processor writes through
type RecordStore interface {
	UpsertFeedRecord(ctx context.Context, tenantID string, taxonomy models.Taxonomy, supplierID, supplierName string, feed models.FeedRecord) (bool, error)
}

// Processor validates, dedupes and persists supplier feed rows
type Processor struct {
	log      ectologger.Logger
	store    RecordStore
	validate *validator.Validate
}

// NewProcessor creates a new feed processor
func NewProcessor(log ectologger.Logger, store RecordStore) *Processor {
	return &Processor{
		log:      log,
		store:    store,
		validate: validator.New(),
	}
}

// Resync processes a full feed delivery for one supplier and taxonomy.
// Rows are deduped on local id within the delivery (first occurrence wins)
// and malformed rows are dropped, never fatal. Persisting is idempotent:
// resending the same feed yields the same records.
func (p *Processor) Resync(ctx context.Context, tenantID string, req models.ResyncRequest) (*models.ResyncResult, error) {
	ctx, span := tracing.StartSpan(ctx, "ingest.Processor.Resync")
	defer span.End()

	log := p.log.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":   tenantID,
		"taxonomy":    req.Taxonomy,
		"supplier_id": req.SupplierID,
		"received":    len(req.Records),
	})

	result := &models.ResyncResult{Received: len(req.Records)}
	seen := make(map[string]struct{}, len(req.Records))

	for _, feed := range req.Records {
		if err := p.validate.Struct(feed); err != nil {
			log.WithError(err).WithFields(map[string]any{"local_id": feed.LocalID}).Warn("Dropping malformed feed row")
			result.Dropped++
			continue
		}

		if _, ok := seen[feed.LocalID]; ok {
			result.Dropped++
			continue
		}
		seen[feed.LocalID] = struct{}{}

		created, err := p.store.UpsertFeedRecord(ctx, tenantID, req.Taxonomy, req.SupplierID, req.SupplierName, feed)
		if err != nil {
			return nil, err
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	log.WithFields(map[string]any{
		"created": result.Created,
		"updated": result.Updated,
		"dropped": result.Dropped,
	}).Info("Processed supplier feed resync")

	return result, nil
}
