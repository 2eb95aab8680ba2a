package reconcile

import (
	"context"
	"database/sql"
	"sync"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/laurel/internal/repositories/masterrecord"
	"github.com/Ramsey-B/laurel/internal/repositories/supplierrecord"
	"github.com/Ramsey-B/laurel/pkg/catalog"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/grouping"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// Notifier publishes reconciliation outcomes after commit. Delivery is best
// effort; a failed publish never rolls back a committed mutation.
type Notifier interface {
	MasterCreated(ctx context.Context, tenantID string, master models.MasterRecord)
	RecordsMatched(ctx context.Context, tenantID, masterID string, recordIDs []string)
	RecordsUnmatched(ctx context.Context, tenantID string, recordIDs []string)
	RecordMoved(ctx context.Context, tenantID, recordID, masterID string)
}

// Projector mirrors committed mappings into the graph store
type Projector interface {
	ProjectMaster(ctx context.Context, tenantID string, master models.MasterRecord) error
	ProjectMappings(ctx context.Context, tenantID, masterID string, records []models.SupplierRecord) error
	RemoveMappings(ctx context.Context, tenantID string, recordIDs []string) error
}

// Service coordinates grouping, matching and persistence. All mutating
// operations run under a single mutex: the reconciliation corpus has one
// logical writer, which is what makes the sequential master id generator safe.
type Service struct {
	log          ectologger.Logger
	db           database.DB
	supplierRepo *supplierrecord.Repository
	masterRepo   *masterrecord.Repository
	grouper      *grouping.Engine
	engine       *Engine
	catalog      *catalog.Catalog
	notifier     Notifier
	projector    Projector

	mu sync.Mutex
}

// NewService creates a new reconcile service. Notifier and projector are
// optional; pass nil to disable eventing or graph projection.
func NewService(
	log ectologger.Logger,
	db database.DB,
	supplierRepo *supplierrecord.Repository,
	masterRepo *masterrecord.Repository,
	grouper *grouping.Engine,
	engine *Engine,
	cat *catalog.Catalog,
	notifier Notifier,
	projector Projector,
) *Service {
	return &Service{
		log:          log,
		db:           db,
		supplierRepo: supplierRepo,
		masterRepo:   masterRepo,
		grouper:      grouper,
		engine:       engine,
		catalog:      cat,
		notifier:     notifier,
		projector:    projector,
	}
}

// ListGroups groups the taxonomy's corpus and returns the result. This is a
// read-only preview; nothing is persisted.
func (s *Service) ListGroups(ctx context.Context, tenantID string, taxonomy models.Taxonomy) ([]grouping.Group, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Service.ListGroups")
	defer span.End()

	records, err := s.supplierRepo.ListByTaxonomy(ctx, tenantID, taxonomy)
	if err != nil {
		return nil, err
	}

	return s.grouper.Group(records), nil
}

// AutoMatch runs a corpus-wide automatic match pass for one taxonomy. Groups
// with at least two pending members each get a freshly allocated master
// record; everything else is left untouched, so the pass is re-runnable.
func (s *Service) AutoMatch(ctx context.Context, tenantID string, taxonomy models.Taxonomy) (*models.AutoMatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Service.AutoMatch")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": tenantID,
		"taxonomy":  taxonomy,
	})

	ctxTx, tx, err := s.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctxTx)

	records, err := s.supplierRepo.ListByTaxonomy(ctxTx, tenantID, taxonomy)
	if err != nil {
		return nil, err
	}

	existingIDs, err := s.masterRepo.ListIDs(ctxTx, tenantID, taxonomy.MasterIDPrefix())
	if err != nil {
		return nil, err
	}

	groups := s.grouper.Group(records)
	outcome := s.engine.AutoMatchAll(taxonomy, groups, existingIDs)

	masters, err := s.persistOutcome(ctxTx, tenantID, outcome.NewMasters, outcome.Mutations)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctxTx); err != nil {
		return nil, err
	}

	log.WithFields(map[string]any{
		"groups_matched": outcome.GroupsMatched,
		"groups_skipped": outcome.GroupsSkipped,
		"mapped_count":   outcome.MappedCount,
	}).Info("Auto-match pass completed")

	s.publishMatches(ctx, tenantID, masters, outcome.Mutations)

	return &models.AutoMatchResult{
		MappedCount:   outcome.MappedCount,
		GroupsMatched: outcome.GroupsMatched,
		GroupsSkipped: outcome.GroupsSkipped,
		Warnings:      outcome.Warnings,
	}, nil
}

// ProposeManual validates a human selection and returns a proposal with its
// advisory warnings. Nothing is persisted until the proposal is committed.
func (s *Service) ProposeManual(ctx context.Context, tenantID string, req models.ManualMatchRequest) (*models.MatchProposal, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Service.ProposeManual")
	defer span.End()

	selection, err := s.loadSelection(ctx, tenantID, req.RecordIDs)
	if err != nil {
		return nil, err
	}

	return s.engine.ProposeManualMatch(selection)
}

// CommitManual allocates a new master record and maps exactly the selected
// records to it.
func (s *Service) CommitManual(ctx context.Context, tenantID string, req models.ManualMatchRequest) (*models.CommitResult, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Service.CommitManual")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commitSelection(ctx, tenantID, req.RecordIDs)
}

// CommitBatch commits several selections in one call. Each selection is an
// independent transaction: a failure is recorded and the remaining selections
// still commit.
func (s *Service) CommitBatch(ctx context.Context, tenantID string, req models.BatchCommitRequest) (*models.BatchCommitResult, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Service.CommitBatch")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	result := &models.BatchCommitResult{}
	for _, selection := range req.Selections {
		committed, err := s.commitSelection(ctx, tenantID, selection.RecordIDs)
		if err != nil {
			result.Failed = append(result.Failed, models.BatchFailure{
				RecordIDs: selection.RecordIDs,
				Error:     err.Error(),
			})
			continue
		}
		result.Committed = append(result.Committed, *committed)
	}

	return result, nil
}

// Unmatch reverts the selected records to pending. Master links and the last
// confidence score survive so a later re-match can restore them.
func (s *Service) Unmatch(ctx context.Context, tenantID string, req models.UnmatchRequest) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Service.Unmatch")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	selection, err := s.loadSelection(ctx, tenantID, req.RecordIDs)
	if err != nil {
		return 0, err
	}

	mutations, err := s.engine.Unmatch(selection)
	if err != nil {
		return 0, err
	}

	ctxTx, tx, err := s.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctxTx)

	if err := s.supplierRepo.ApplyMutations(ctxTx, tenantID, mutations); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctxTx); err != nil {
		return 0, err
	}

	if s.notifier != nil {
		s.notifier.RecordsUnmatched(ctx, tenantID, req.RecordIDs)
	}
	if s.projector != nil {
		if err := s.projector.RemoveMappings(ctx, tenantID, req.RecordIDs); err != nil {
			s.log.WithContext(ctx).WithError(err).Warn("Failed to remove graph mappings")
		}
	}

	return len(mutations), nil
}

// Move reassigns one record to an explicitly chosen master record. The target
// must exist; moving a record onto its current master is rejected.
func (s *Service) Move(ctx context.Context, tenantID string, req models.MoveRequest) (*models.SupplierRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Service.Move")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.supplierRepo.Get(ctx, tenantID, req.RecordID)
	if err != nil {
		return nil, err
	}

	master, err := s.masterRepo.Get(ctx, tenantID, req.TargetMasterID)
	if err != nil {
		return nil, err
	}
	if master == nil {
		return nil, ErrUnknownMasterID
	}

	mutation, err := s.engine.Move(*record, req.TargetMasterID)
	if err != nil {
		return nil, err
	}

	ctxTx, tx, err := s.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctxTx)

	if err := s.supplierRepo.ApplyMutations(ctxTx, tenantID, []models.RecordMutation{*mutation}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctxTx); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.RecordMoved(ctx, tenantID, req.RecordID, req.TargetMasterID)
	}
	if s.projector != nil {
		moved := *record
		moved.MasterID = &req.TargetMasterID
		moved.Status = models.RecordStatusMapped
		if err := s.projector.ProjectMappings(ctx, tenantID, req.TargetMasterID, []models.SupplierRecord{moved}); err != nil {
			s.log.WithContext(ctx).WithError(err).Warn("Failed to project graph mapping")
		}
	}

	return s.supplierRepo.Get(ctx, tenantID, req.RecordID)
}

// MarkNeedsReview flags one record for human review. Only a later manual
// match or move clears the flag; automatic passes skip flagged records.
func (s *Service) MarkNeedsReview(ctx context.Context, tenantID, recordID string) error {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Service.MarkNeedsReview")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.supplierRepo.SetStatus(ctx, tenantID, recordID, models.RecordStatusNeedsReview)
}

// SeedMasters creates master records for reference catalog entries that do
// not exist yet, keyed by primary code. Safe to run on every startup.
func (s *Service) SeedMasters(ctx context.Context, tenantID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Service.SeedMasters")
	defer span.End()

	if s.catalog == nil {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	taxonomy := s.catalog.Taxonomy()
	log := s.log.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": tenantID,
		"taxonomy":  taxonomy,
	})

	ctxTx, tx, err := s.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctxTx)

	existingIDs, err := s.masterRepo.ListIDs(ctxTx, tenantID, taxonomy.MasterIDPrefix())
	if err != nil {
		return 0, err
	}

	created := 0
	for _, entry := range s.catalog.Entries() {
		existing, err := s.masterRepo.GetByPrimaryCode(ctxTx, tenantID, taxonomy, entry.Code)
		if err != nil {
			return 0, err
		}
		if existing != nil {
			continue
		}

		id := NextMasterID(existingIDs, taxonomy.MasterIDPrefix())
		existingIDs = append(existingIDs, id)

		master := &models.MasterRecord{
			ID:             id,
			TenantID:       tenantID,
			Taxonomy:       taxonomy,
			CanonicalName:  entry.Name,
			PrimaryCode:    entry.Code,
			StandardCode:   entry.StandardCode,
			AlternateNames: entry.Aliases,
			IsActive:       true,
		}
		if err := s.masterRepo.Create(ctxTx, master); err != nil {
			return 0, err
		}
		created++
	}

	if err := tx.Commit(ctxTx); err != nil {
		return 0, err
	}

	if created > 0 {
		log.WithFields(map[string]any{"created": created}).Info("Seeded master records from catalog")
	}

	return created, nil
}

// commitSelection is the shared commit path for manual and batch matches.
// Callers hold the writer mutex.
func (s *Service) commitSelection(ctx context.Context, tenantID string, recordIDs []string) (*models.CommitResult, error) {
	selection, err := s.loadSelection(ctx, tenantID, recordIDs)
	if err != nil {
		return nil, err
	}

	taxonomy := selection[0].Taxonomy

	ctxTx, tx, err := s.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctxTx)

	existingIDs, err := s.masterRepo.ListIDs(ctxTx, tenantID, taxonomy.MasterIDPrefix())
	if err != nil {
		return nil, err
	}

	outcome, err := s.engine.CommitManualMatch(taxonomy, selection, existingIDs)
	if err != nil {
		return nil, err
	}

	masters, err := s.persistOutcome(ctxTx, tenantID, []NewMasterSpec{outcome.NewMaster}, outcome.Mutations)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctxTx); err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": tenantID,
		"master_id": outcome.NewMaster.ID,
		"mapped":    len(outcome.Mutations),
	}).Info("Committed manual match")

	s.publishMatches(ctx, tenantID, masters, outcome.Mutations)

	return &models.CommitResult{
		MasterID:    outcome.NewMaster.ID,
		MappedCount: len(outcome.Mutations),
		Warnings:    outcome.Warnings,
	}, nil
}

// loadSelection resolves record ids to full records, in the order requested.
// Any id that does not resolve fails the whole selection.
func (s *Service) loadSelection(ctx context.Context, tenantID string, recordIDs []string) ([]models.SupplierRecord, error) {
	if len(recordIDs) == 0 {
		return nil, ErrTooFewSelected
	}

	records, err := s.supplierRepo.GetByIDs(ctx, tenantID, recordIDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.SupplierRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	selection := make([]models.SupplierRecord, 0, len(recordIDs))
	for _, id := range recordIDs {
		rec, ok := byID[id]
		if !ok {
			return nil, ErrRecordNotFound
		}
		selection = append(selection, rec)
	}

	return selection, nil
}

// persistOutcome writes new masters and record mutations inside the caller's
// transaction and returns the created master records.
func (s *Service) persistOutcome(ctx context.Context, tenantID string, specs []NewMasterSpec, mutations []models.RecordMutation) ([]models.MasterRecord, error) {
	masters := make([]models.MasterRecord, 0, len(specs))
	for _, spec := range specs {
		master := &models.MasterRecord{
			ID:             spec.ID,
			TenantID:       tenantID,
			Taxonomy:       spec.Taxonomy,
			CanonicalName:  spec.CanonicalName,
			PrimaryCode:    spec.PrimaryCode,
			StandardCode:   spec.StandardCode,
			AlternateNames: spec.AlternateNames,
			IsActive:       true,
		}
		if err := s.masterRepo.Create(ctx, master); err != nil {
			return nil, err
		}
		masters = append(masters, *master)
	}

	if err := s.supplierRepo.ApplyMutations(ctx, tenantID, mutations); err != nil {
		return nil, err
	}

	return masters, nil
}

// publishMatches emits events and graph projections for committed matches.
// Best effort only; failures are logged and swallowed.
func (s *Service) publishMatches(ctx context.Context, tenantID string, masters []models.MasterRecord, mutations []models.RecordMutation) {
	if s.notifier == nil && s.projector == nil {
		return
	}

	recordsByMaster := make(map[string][]string)
	for _, m := range mutations {
		if m.MasterID == nil || m.Status != models.RecordStatusMapped {
			continue
		}
		recordsByMaster[*m.MasterID] = append(recordsByMaster[*m.MasterID], m.RecordID)
	}

	for _, master := range masters {
		if s.notifier != nil {
			s.notifier.MasterCreated(ctx, tenantID, master)
			s.notifier.RecordsMatched(ctx, tenantID, master.ID, recordsByMaster[master.ID])
		}
		if s.projector != nil {
			if err := s.projector.ProjectMaster(ctx, tenantID, master); err != nil {
				s.log.WithContext(ctx).WithError(err).Warn("Failed to project master record")
				continue
			}
			records, err := s.supplierRepo.GetByIDs(ctx, tenantID, recordsByMaster[master.ID])
			if err != nil {
				s.log.WithContext(ctx).WithError(err).Warn("Failed to load mapped records for projection")
				continue
			}
			if err := s.projector.ProjectMappings(ctx, tenantID, master.ID, records); err != nil {
				s.log.WithContext(ctx).WithError(err).Warn("Failed to project graph mappings")
			}
		}
	}
}
