// Package reconcile implements the match, unmatch and move engines that link
// supplier records to canonical master records.
//
// The engine is pure: it operates on snapshots passed in and returns mutation
// sets out. The Service applies those mutations against the store under the
// single-writer discipline.
package reconcile

import (
	"github.com/Ramsey-B/laurel/pkg/catalog"
	"github.com/Ramsey-B/laurel/pkg/grouping"
	"github.com/Ramsey-B/laurel/pkg/models"
)

// NewMasterSpec describes a master record the engine wants allocated as part
// of a mutation set. The service fills in tenant and timestamps on insert.
type NewMasterSpec struct {
	ID             string
	Taxonomy       models.Taxonomy
	CanonicalName  string
	PrimaryCode    string
	StandardCode   string
	AlternateNames []string
}

// AutoMatchOutcome is the mutation set produced by a corpus-wide auto-match pass
type AutoMatchOutcome struct {
	Mutations     []models.RecordMutation
	NewMasters    []NewMasterSpec
	MappedCount   int
	GroupsMatched int
	GroupsSkipped int
	Warnings      []string
}

// CommitOutcome is the mutation set produced by a manual-match commit
type CommitOutcome struct {
	Mutations []models.RecordMutation
	NewMaster NewMasterSpec
	Warnings  []string
}

// Engine implements the matching decisions
type Engine struct {
	catalog *catalog.Catalog
}

// NewEngine creates a new reconcile engine. The catalog may be nil; it is only
// used to pick canonical names and codes for freshly allocated masters.
func NewEngine(cat *catalog.Catalog) *Engine {
	return &Engine{catalog: cat}
}

// AutoMatchAll processes every group: groups with at least two pending members
// get one freshly allocated master id; already-mapped members are never
// touched, so re-running after a prior pass only affects records still
// pending. Records flagged for review are left for a human.
//
// existingMasterIDs must be the full id set for the taxonomy's namespace,
// read inside the same transaction that will apply the outcome.
func (e *Engine) AutoMatchAll(taxonomy models.Taxonomy, groups []grouping.Group, existingMasterIDs []string) AutoMatchOutcome {
	outcome := AutoMatchOutcome{}
	prefix := taxonomy.MasterIDPrefix()
	ids := append([]string(nil), existingMasterIDs...)

	for _, group := range groups {
		pending := group.Pending()
		if len(pending) < 2 {
			outcome.GroupsSkipped++
			continue
		}

		masterID := NextMasterID(ids, prefix)
		ids = append(ids, masterID)
		outcome.NewMasters = append(outcome.NewMasters, e.newMasterSpec(taxonomy, masterID, group.Members))

		for _, rec := range pending {
			confidence := group.Scores[rec.ID]
			outcome.Mutations = append(outcome.Mutations, models.RecordMutation{
				RecordID:   rec.ID,
				MasterID:   &masterID,
				Status:     models.RecordStatusMapped,
				Confidence: &confidence,
			})
		}

		outcome.MappedCount += len(pending)
		outcome.GroupsMatched++
		outcome.Warnings = append(outcome.Warnings, detectGroupWarnings(group)...)
	}

	return outcome
}

// ProposeManualMatch validates a human selection and returns a proposal for
// confirmation. No mutation occurs; the master id is allocated at commit time.
func (e *Engine) ProposeManualMatch(selection []models.SupplierRecord) (*models.MatchProposal, error) {
	if len(selection) < 2 {
		return nil, ErrTooFewSelected
	}
	if err := requireOneTaxonomy(selection); err != nil {
		return nil, err
	}

	memberIDs := make([]string, 0, len(selection))
	for _, rec := range selection {
		memberIDs = append(memberIDs, rec.ID)
	}

	return &models.MatchProposal{
		MemberRecordIDs: memberIDs,
		Warnings:        DetectWarnings(selection),
	}, nil
}

// CommitManualMatch allocates a new master id and maps exactly the selected
// records. Unselected members of the same group stay pending.
func (e *Engine) CommitManualMatch(taxonomy models.Taxonomy, selection []models.SupplierRecord, existingMasterIDs []string) (*CommitOutcome, error) {
	if len(selection) < 2 {
		return nil, ErrTooFewSelected
	}
	if err := requireOneTaxonomy(selection); err != nil {
		return nil, err
	}
	if selection[0].Taxonomy != taxonomy {
		return nil, ErrMixedTaxonomies
	}

	masterID := NextMasterID(existingMasterIDs, taxonomy.MasterIDPrefix())
	outcome := &CommitOutcome{
		NewMaster: e.newMasterSpec(taxonomy, masterID, selection),
		Warnings:  DetectWarnings(selection),
	}

	for _, rec := range selection {
		// Human-confirmed matches carry full confidence
		confidence := 100
		outcome.Mutations = append(outcome.Mutations, models.RecordMutation{
			RecordID:   rec.ID,
			MasterID:   &masterID,
			Status:     models.RecordStatusMapped,
			Confidence: &confidence,
		})
	}

	return outcome, nil
}

// Unmatch reverts records to pending. The master id link is deliberately left
// in place so re-matching can reuse it and no dangling references appear; the
// master record itself is never touched, even when its mapped count drops to
// zero. Records with no master link are ineligible.
func (e *Engine) Unmatch(records []models.SupplierRecord) ([]models.RecordMutation, error) {
	mutations := make([]models.RecordMutation, 0, len(records))
	for _, rec := range records {
		if !rec.HasMaster() {
			return nil, ErrNotLinked
		}
		mutations = append(mutations, models.RecordMutation{
			RecordID:   rec.ID,
			MasterID:   rec.MasterID,
			Status:     models.RecordStatusPending,
			Confidence: rec.Confidence,
		})
	}
	return mutations, nil
}

// Move reassigns one record to an explicitly chosen master record. The
// automatic confidence score is cleared: a move is human-asserted, not scored.
// The caller must have verified that the target master exists.
func (e *Engine) Move(record models.SupplierRecord, targetMasterID string) (*models.RecordMutation, error) {
	if record.MasterID != nil && *record.MasterID == targetMasterID {
		return nil, ErrSameTarget
	}

	return &models.RecordMutation{
		RecordID:   record.ID,
		MasterID:   &targetMasterID,
		Status:     models.RecordStatusMapped,
		Confidence: nil,
	}, nil
}

// requireOneTaxonomy rejects selections spanning taxonomies. Master ids are
// namespaced per taxonomy, so every record in a match must share one.
func requireOneTaxonomy(selection []models.SupplierRecord) error {
	taxonomy := selection[0].Taxonomy
	for _, rec := range selection[1:] {
		if rec.Taxonomy != taxonomy {
			return ErrMixedTaxonomies
		}
	}
	return nil
}

// newMasterSpec picks the canonical identity for a freshly allocated master.
// A catalog resolution wins; otherwise the first member's label and code are
// used, with the remaining distinct labels kept as alternate names.
func (e *Engine) newMasterSpec(taxonomy models.Taxonomy, masterID string, members []models.SupplierRecord) NewMasterSpec {
	spec := NewMasterSpec{
		ID:       masterID,
		Taxonomy: taxonomy,
	}

	if len(members) == 0 {
		return spec
	}

	first := members[0]
	spec.CanonicalName = first.Label
	spec.PrimaryCode = first.Code()

	if e.catalog != nil {
		for _, rec := range members {
			if entry := e.catalog.Resolve(rec.Label, rec.Code()); entry != nil {
				spec.CanonicalName = entry.Name
				spec.PrimaryCode = entry.Code
				spec.StandardCode = entry.StandardCode
				break
			}
		}
	}

	seen := map[string]struct{}{spec.CanonicalName: {}}
	for _, rec := range members {
		if _, ok := seen[rec.Label]; ok {
			continue
		}
		seen[rec.Label] = struct{}{}
		spec.AlternateNames = append(spec.AlternateNames, rec.Label)
	}

	return spec
}
