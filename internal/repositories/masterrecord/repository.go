package masterrecord

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

const columns = "id, tenant_id, taxonomy, canonical_name, primary_code, standard_code, alternate_names, is_active, created_at, updated_at"

// Repository handles master record persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new master record repository
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

// Create inserts a new master record
func (r *Repository) Create(ctx context.Context, record *models.MasterRecord) error {
	ctx, span := tracing.StartSpan(ctx, "masterrecord.Repository.Create")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":    "Create",
		"tenant_id": record.TenantID,
		"master_id": record.ID,
		"taxonomy":  record.Taxonomy,
	})

	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("master_records")
	ib.Cols("id", "tenant_id", "taxonomy", "canonical_name", "primary_code", "standard_code", "alternate_names", "is_active", "created_at", "updated_at")
	ib.Values(record.ID, record.TenantID, string(record.Taxonomy), record.CanonicalName, record.PrimaryCode, record.StandardCode, record.AlternateNames, record.IsActive, record.CreatedAt, record.UpdatedAt)

	query, args := ib.Build()
	if _, err := r.run(ctx).ExecContext(ctx, query, args...); err != nil {
		log.WithError(err).Error("Failed to create master record")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create master record")
	}

	log.Info("Created master record")
	return nil
}

// Get retrieves a master record by id. Returns (nil, nil) when the id does
// not exist; callers translate that into their own not-found semantics.
func (r *Repository) Get(ctx context.Context, tenantID, id string) (*models.MasterRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "masterrecord.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("master_records")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var record models.MasterRecord
	if err := r.run(ctx).GetContext(ctx, &record, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get master record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get master record")
	}

	return &record, nil
}

// GetByPrimaryCode retrieves a master record by its primary code within a
// taxonomy. Returns (nil, nil) when no record carries the code.
func (r *Repository) GetByPrimaryCode(ctx context.Context, tenantID string, taxonomy models.Taxonomy, code string) (*models.MasterRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "masterrecord.Repository.GetByPrimaryCode")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("master_records")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("taxonomy", string(taxonomy)),
		sb.Equal("primary_code", code),
	)

	query, args := sb.Build()
	var record models.MasterRecord
	if err := r.run(ctx).GetContext(ctx, &record, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get master record by code")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get master record by code")
	}

	return &record, nil
}

// List retrieves master records for a taxonomy
func (r *Repository) List(ctx context.Context, tenantID string, taxonomy models.Taxonomy, activeOnly bool, page, pageSize int) ([]models.MasterRecord, int, error) {
	ctx, span := tracing.StartSpan(ctx, "masterrecord.Repository.List")
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
	countSb.From("master_records")
	countWhere := []string{
		countSb.Equal("tenant_id", tenantID),
		countSb.Equal("taxonomy", string(taxonomy)),
	}
	if activeOnly {
		countWhere = append(countWhere, countSb.Equal("is_active", true))
	}
	countSb.Where(countWhere...)

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := r.run(ctx).GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count master records")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count master records")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("master_records")
	where := []string{
		sb.Equal("tenant_id", tenantID),
		sb.Equal("taxonomy", string(taxonomy)),
	}
	if activeOnly {
		where = append(where, sb.Equal("is_active", true))
	}
	sb.Where(where...)
	sb.OrderBy("id")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var records []models.MasterRecord
	if err := r.run(ctx).SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list master records")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list master records")
	}

	return records, totalCount, nil
}

// ListIDs retrieves every master id sharing a prefix. The id generator reads
// these inside the allocating transaction.
func (r *Repository) ListIDs(ctx context.Context, tenantID, prefix string) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "masterrecord.Repository.ListIDs")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id")
	sb.From("master_records")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Like("id", prefix+"%"),
	)

	query, args := sb.Build()
	var ids []string
	if err := r.run(ctx).SelectContext(ctx, &ids, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list master ids")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list master ids")
	}

	return ids, nil
}

// SetActive toggles a master record's active flag
func (r *Repository) SetActive(ctx context.Context, tenantID, id string, active bool) error {
	ctx, span := tracing.StartSpan(ctx, "masterrecord.Repository.SetActive")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("master_records")
	ub.Set(
		ub.Assign("is_active", active),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(
		ub.Equal("id", id),
		ub.Equal("tenant_id", tenantID),
	)

	query, args := ub.Build()
	result, err := r.run(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update master record")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update master record")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("master record %s not found", id))
	}

	return nil
}
