package supplierrecord

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

const columns = "id, tenant_id, taxonomy, supplier_id, supplier_name, supplier_local_id, label, local_code, country_hint, country_code_hint, master_id, status, confidence, created_at, updated_at"

// Filter narrows supplier record listings
type Filter struct {
	Taxonomy   models.Taxonomy
	SupplierID *string
	Status     *models.RecordStatus
	MasterID   *string
	Search     *string
}

// Repository handles supplier record persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new supplier record repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// run joins any transaction open on the context
func (r *Repository) run(ctx context.Context) database.Runner {
	return database.RunnerFromContext(ctx, r.db)
}

// List retrieves supplier records for a taxonomy with optional filters
func (r *Repository) List(ctx context.Context, tenantID string, filter Filter, page, pageSize int) ([]models.SupplierRecord, int, error) {
	ctx, span := tracing.StartSpan(ctx, "supplierrecord.Repository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From("supplier_records")
	countSb.Where(filterConditions(countSb, tenantID, filter)...)

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := r.run(ctx).GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count supplier records")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count supplier records")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("supplier_records")
	sb.Where(filterConditions(sb, tenantID, filter)...)
	sb.OrderBy("supplier_id", "label")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var records []models.SupplierRecord
	if err := r.run(ctx).SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list supplier records")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list supplier records")
	}

	return records, totalCount, nil
}

// ListByTaxonomy retrieves every supplier record in a taxonomy, unpaged.
// Grouping and auto-match read the whole corpus in one snapshot.
func (r *Repository) ListByTaxonomy(ctx context.Context, tenantID string, taxonomy models.Taxonomy) ([]models.SupplierRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "supplierrecord.Repository.ListByTaxonomy")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("supplier_records")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("taxonomy", string(taxonomy)),
	)
	sb.OrderBy("supplier_id", "supplier_local_id")

	query, args := sb.Build()
	var records []models.SupplierRecord
	if err := r.run(ctx).SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load supplier records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load supplier records")
	}

	return records, nil
}

// Get retrieves a supplier record by ID
func (r *Repository) Get(ctx context.Context, tenantID string, id string) (*models.SupplierRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "supplierrecord.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("supplier_records")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var record models.SupplierRecord
	if err := r.run(ctx).GetContext(ctx, &record, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("supplier record %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get supplier record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get supplier record")
	}

	return &record, nil
}

// GetByIDs retrieves supplier records by their ids. Missing ids are simply
// absent from the result; callers decide whether that is an error.
func (r *Repository) GetByIDs(ctx context.Context, tenantID string, ids []string) ([]models.SupplierRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "supplierrecord.Repository.GetByIDs")
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("supplier_records")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.In("id", sqlbuilder.Flatten(ids)...),
	)

	query, args := sb.Build()
	var records []models.SupplierRecord
	if err := r.run(ctx).SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get supplier records")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get supplier records")
	}

	return records, nil
}

// UpsertFeedRecord inserts or refreshes one feed row, keyed on
// (tenant, taxonomy, supplier_id, supplier_local_id). A re-delivered row
// updates the descriptive fields but never touches the reconciliation state.
// Returns true when a new record was created.
func (r *Repository) UpsertFeedRecord(ctx context.Context, tenantID string, taxonomy models.Taxonomy, supplierID, supplierName string, feed models.FeedRecord) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "supplierrecord.Repository.UpsertFeedRecord")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":      "UpsertFeedRecord",
		"tenant_id":   tenantID,
		"taxonomy":    taxonomy,
		"supplier_id": supplierID,
		"local_id":    feed.LocalID,
	})

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id")
	sb.From("supplier_records")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("taxonomy", string(taxonomy)),
		sb.Equal("supplier_id", supplierID),
		sb.Equal("supplier_local_id", feed.LocalID),
	)

	query, args := sb.Build()
	var existingID string
	err := r.run(ctx).GetContext(ctx, &existingID, query, args...)
	now := time.Now().UTC()

	if err != nil {
		if err.Error() != "sql: no rows in result set" {
			log.WithError(err).Error("Failed to look up supplier record")
			return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to look up supplier record")
		}

		ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
		ib.InsertInto("supplier_records")
		ib.Cols("id", "tenant_id", "taxonomy", "supplier_id", "supplier_name", "supplier_local_id", "label", "local_code", "country_hint", "country_code_hint", "status", "created_at", "updated_at")
		ib.Values(uuid.New().String(), tenantID, string(taxonomy), supplierID, supplierName, feed.LocalID, feed.Label, feed.LocalCode, feed.CountryHint, feed.CountryCodeHint, models.RecordStatusPending, now, now)

		query, args = ib.Build()
		if _, err := r.run(ctx).ExecContext(ctx, query, args...); err != nil {
			log.WithError(err).Error("Failed to insert supplier record")
			return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert supplier record")
		}
		return true, nil
	}

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("supplier_records")
	ub.Set(
		ub.Assign("supplier_name", supplierName),
		ub.Assign("label", feed.Label),
		ub.Assign("local_code", feed.LocalCode),
		ub.Assign("country_hint", feed.CountryHint),
		ub.Assign("country_code_hint", feed.CountryCodeHint),
		ub.Assign("updated_at", now),
	)
	ub.Where(
		ub.Equal("id", existingID),
		ub.Equal("tenant_id", tenantID),
	)

	query, args = ub.Build()
	if _, err := r.run(ctx).ExecContext(ctx, query, args...); err != nil {
		log.WithError(err).Error("Failed to update supplier record")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update supplier record")
	}

	return false, nil
}

// ApplyMutations applies a mutation set produced by the reconcile engine.
// Callers wrap this in a transaction via database.GetTx so a partial apply
// never becomes visible.
func (r *Repository) ApplyMutations(ctx context.Context, tenantID string, mutations []models.RecordMutation) error {
	ctx, span := tracing.StartSpan(ctx, "supplierrecord.Repository.ApplyMutations")
	defer span.End()

	now := time.Now().UTC()
	for _, m := range mutations {
		ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
		ub.Update("supplier_records")
		ub.Set(
			ub.Assign("master_id", m.MasterID),
			ub.Assign("status", string(m.Status)),
			ub.Assign("confidence", m.Confidence),
			ub.Assign("updated_at", now),
		)
		ub.Where(
			ub.Equal("id", m.RecordID),
			ub.Equal("tenant_id", tenantID),
		)

		query, args := ub.Build()
		result, err := r.run(ctx).ExecContext(ctx, query, args...)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"record_id": m.RecordID}).Error("Failed to apply record mutation")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to apply record mutation")
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("supplier record %s not found", m.RecordID))
		}
	}

	return nil
}

// SetStatus updates only the status of a record
func (r *Repository) SetStatus(ctx context.Context, tenantID, id string, status models.RecordStatus) error {
	ctx, span := tracing.StartSpan(ctx, "supplierrecord.Repository.SetStatus")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("supplier_records")
	ub.Set(
		ub.Assign("status", string(status)),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(
		ub.Equal("id", id),
		ub.Equal("tenant_id", tenantID),
	)

	query, args := ub.Build()
	result, err := r.run(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to set supplier record status")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to set supplier record status")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("supplier record %s not found", id))
	}

	return nil
}

// Delete removes a supplier record
func (r *Repository) Delete(ctx context.Context, tenantID, id string) error {
	ctx, span := tracing.StartSpan(ctx, "supplierrecord.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("supplier_records")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	result, err := r.run(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete supplier record")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete supplier record")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("supplier record %s not found", id))
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Info("Deleted supplier record")
	return nil
}

// CountByMaster counts mapped records and distinct suppliers per master id
func (r *Repository) CountByMaster(ctx context.Context, tenantID, masterID string) (int, []string, error) {
	ctx, span := tracing.StartSpan(ctx, "supplierrecord.Repository.CountByMaster")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("supplier_id")
	sb.From("supplier_records")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("master_id", masterID),
		sb.Equal("status", string(models.RecordStatusMapped)),
	)

	query, args := sb.Build()
	var supplierIDs []string
	if err := r.run(ctx).SelectContext(ctx, &supplierIDs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count mapped records")
		return 0, nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count mapped records")
	}

	seen := make(map[string]struct{})
	distinct := make([]string, 0, len(supplierIDs))
	for _, id := range supplierIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}

	return len(supplierIDs), distinct, nil
}

func filterConditions(sb *sqlbuilder.SelectBuilder, tenantID string, filter Filter) []string {
	conditions := []string{
		sb.Equal("tenant_id", tenantID),
		sb.Equal("taxonomy", string(filter.Taxonomy)),
	}
	if filter.SupplierID != nil {
		conditions = append(conditions, sb.Equal("supplier_id", *filter.SupplierID))
	}
	if filter.Status != nil {
		conditions = append(conditions, sb.Equal("status", string(*filter.Status)))
	}
	if filter.MasterID != nil {
		conditions = append(conditions, sb.Equal("master_id", *filter.MasterID))
	}
	if filter.Search != nil && *filter.Search != "" {
		conditions = append(conditions, sb.ILike("label", "%"+*filter.Search+"%"))
	}
	return conditions
}
