package grouping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/catalog"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/scoring"
)

func strPtr(s string) *string {
	return &s
}

func pendingRecord(id, label string, code *string) models.SupplierRecord {
	return models.SupplierRecord{
		ID:         id,
		TenantID:   "t1",
		Taxonomy:   models.TaxonomyNationality,
		SupplierID: "sup-" + id,
		Label:      label,
		LocalCode:  code,
		Status:     models.RecordStatusPending,
	}
}

func mappedRecord(id, label, masterID string) models.SupplierRecord {
	rec := pendingRecord(id, label, nil)
	rec.MasterID = &masterID
	rec.Status = models.RecordStatusMapped
	return rec
}

func newTestEngine(t *testing.T, withCatalog bool) *Engine {
	t.Helper()
	var cat *catalog.Catalog
	if withCatalog {
		cat = catalog.New(models.TaxonomyNationality, 1, []catalog.Entry{
			{Name: "Egyptian", Code: "EG", StandardCode: "EGY", Aliases: []string{"Egypt"}},
			{Name: "Saudi", Code: "SA", StandardCode: "SAU", Aliases: []string{"Saudi Arabian", "KSA"}},
		})
	}
	return NewEngine(scoring.NewScorer(), cat, DefaultConfig())
}

func memberIDs(g Group) []string {
	ids := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestGroupByMasterLinkage(t *testing.T) {
	engine := newTestEngine(t, false)

	records := []models.SupplierRecord{
		mappedRecord("r1", "Deutschland", "ORG_NAT_00001"),
		pendingRecord("r2", "completely unrelated", nil),
		mappedRecord("r3", "Germany", "ORG_NAT_00001"),
	}

	groups := engine.Group(records)
	require.Len(t, groups, 2)

	// r3 joins r1's group through the shared master even though the labels
	// share nothing
	assert.Equal(t, []string{"r1", "r3"}, memberIDs(groups[0]))
	assert.Equal(t, []string{"r2"}, memberIDs(groups[1]))
}

func TestGroupByCatalogCrossMatch(t *testing.T) {
	engine := newTestEngine(t, true)

	records := []models.SupplierRecord{
		pendingRecord("r1", "Egyptian", nil),
		pendingRecord("r2", "zzz", strPtr("EG")),
		pendingRecord("r3", "Egypt", nil),
	}

	groups := engine.Group(records)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"r1", "r2", "r3"}, memberIDs(groups[0]))
}

func TestGroupCatalogRuleNeedsCatalog(t *testing.T) {
	engine := newTestEngine(t, false)

	records := []models.SupplierRecord{
		pendingRecord("r1", "Egyptian", nil),
		pendingRecord("r2", "zzz", strPtr("EG")),
	}

	groups := engine.Group(records)
	assert.Len(t, groups, 2)
}

func TestGroupBySimilarity(t *testing.T) {
	engine := newTestEngine(t, false)

	records := []models.SupplierRecord{
		pendingRecord("r1", "Saudi Arabian", nil),
		// containment scores 90; weighted 0.7*90 + 0.3*0 = 63, below threshold
		pendingRecord("r2", "Saudi", nil),
		// exact name match alone scores 0.7*100 = 70, still below threshold
		pendingRecord("r3", "Saudi Arabian", strPtr("SA")),
	}

	groups := engine.Group(records)
	require.Len(t, groups, 3)

	// with matching codes the blend crosses the threshold
	records = []models.SupplierRecord{
		pendingRecord("r1", "Saudi Arabian", strPtr("SA")),
		pendingRecord("r2", "Saudi  Arabian", strPtr("sa")),
	}

	groups = engine.Group(records)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"r1", "r2"}, memberIDs(groups[0]))
}

func TestGroupSimilarityPicksBestGroup(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SimilarityThreshold = 60
	engine := NewEngine(scoring.NewScorer(), nil, cfg)

	records := []models.SupplierRecord{
		pendingRecord("r1", "Qatar", nil),
		pendingRecord("r2", "Bahrain", nil),
		pendingRecord("r3", "Qatari", nil),
	}

	groups := engine.Group(records)
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"r1", "r3"}, memberIDs(groups[0]))
}

func TestGroupFallbackStartsNewGroup(t *testing.T) {
	engine := newTestEngine(t, false)

	records := []models.SupplierRecord{
		pendingRecord("r1", "Qatar", nil),
		pendingRecord("r2", "Bahrain", nil),
	}

	groups := engine.Group(records)
	require.Len(t, groups, 2)
	assert.Equal(t, "Qatar", groups[0].Key)
	assert.Equal(t, "Bahrain", groups[1].Key)

	// founders score 100 against themselves
	assert.Equal(t, 100, groups[0].Scores["r1"])
	assert.Equal(t, 100, groups[1].Scores["r2"])
}

func TestGroupIsStableForFixedInput(t *testing.T) {
	engine := newTestEngine(t, true)

	records := []models.SupplierRecord{
		pendingRecord("r1", "Egyptian", nil),
		pendingRecord("r2", "Egypt", nil),
		pendingRecord("r3", "Saudi", strPtr("SA")),
		mappedRecord("r4", "Saudi Arabian", "ORG_NAT_00007"),
	}

	first := engine.Group(records)
	second := engine.Group(records)
	assert.Equal(t, first, second)
}

func TestGroupPending(t *testing.T) {
	group := Group{Members: []models.SupplierRecord{
		pendingRecord("r1", "Egypt", nil),
		mappedRecord("r2", "Egyptian", "ORG_NAT_00001"),
		{ID: "r3", Label: "Egypt", Status: models.RecordStatusNeedsReview},
	}}

	pending := group.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "r1", pending[0].ID)
}

func TestGroupMappedMasters(t *testing.T) {
	group := Group{Members: []models.SupplierRecord{
		mappedRecord("r1", "Egypt", "ORG_NAT_00001"),
		mappedRecord("r2", "Egyptian", "ORG_NAT_00002"),
		mappedRecord("r3", "Egypt", "ORG_NAT_00001"),
		pendingRecord("r4", "Egypt", nil),
	}}

	assert.Equal(t, []string{"ORG_NAT_00001", "ORG_NAT_00002"}, group.MappedMasters())
}
