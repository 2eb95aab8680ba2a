package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/catalog"
	"github.com/Ramsey-B/laurel/pkg/grouping"
	"github.com/Ramsey-B/laurel/pkg/models"
)

func strPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}

func testRecord(id, supplierID, label string, code *string) models.SupplierRecord {
	return models.SupplierRecord{
		ID:         id,
		TenantID:   "t1",
		Taxonomy:   models.TaxonomyNationality,
		SupplierID: supplierID,
		Label:      label,
		LocalCode:  code,
		Status:     models.RecordStatusPending,
	}
}

func testCatalog() *catalog.Catalog {
	return catalog.New(models.TaxonomyNationality, 1, []catalog.Entry{
		{Name: "Egyptian", Code: "EG", StandardCode: "EGY", Aliases: []string{"Egypt"}},
	})
}

func TestAutoMatchAll(t *testing.T) {
	engine := NewEngine(nil)

	groups := []grouping.Group{
		{
			Key: "Egypt",
			Members: []models.SupplierRecord{
				testRecord("r1", "s1", "Egypt", nil),
				testRecord("r2", "s2", "Egyptian", nil),
			},
			Scores: map[string]int{"r1": 100, "r2": 90},
		},
		{
			Key:     "Qatar",
			Members: []models.SupplierRecord{testRecord("r3", "s3", "Qatar", nil)},
			Scores:  map[string]int{"r3": 100},
		},
	}

	outcome := engine.AutoMatchAll(models.TaxonomyNationality, groups, []string{"ORG_NAT_00004"})

	assert.Equal(t, 1, outcome.GroupsMatched)
	assert.Equal(t, 1, outcome.GroupsSkipped)
	assert.Equal(t, 2, outcome.MappedCount)

	require.Len(t, outcome.NewMasters, 1)
	assert.Equal(t, "ORG_NAT_00005", outcome.NewMasters[0].ID)
	assert.Equal(t, "Egypt", outcome.NewMasters[0].CanonicalName)

	require.Len(t, outcome.Mutations, 2)
	assert.Equal(t, "r1", outcome.Mutations[0].RecordID)
	assert.Equal(t, "ORG_NAT_00005", *outcome.Mutations[0].MasterID)
	assert.Equal(t, models.RecordStatusMapped, outcome.Mutations[0].Status)
	assert.Equal(t, 100, *outcome.Mutations[0].Confidence)
	assert.Equal(t, 90, *outcome.Mutations[1].Confidence)
}

func TestAutoMatchAllAllocatesDistinctMasters(t *testing.T) {
	engine := NewEngine(nil)

	groups := []grouping.Group{
		{
			Key: "Egypt",
			Members: []models.SupplierRecord{
				testRecord("r1", "s1", "Egypt", nil),
				testRecord("r2", "s2", "Egyptian", nil),
			},
			Scores: map[string]int{"r1": 100, "r2": 90},
		},
		{
			Key: "Qatar",
			Members: []models.SupplierRecord{
				testRecord("r3", "s1", "Qatar", nil),
				testRecord("r4", "s2", "Qatari", nil),
			},
			Scores: map[string]int{"r3": 100, "r4": 90},
		},
	}

	outcome := engine.AutoMatchAll(models.TaxonomyNationality, groups, nil)

	require.Len(t, outcome.NewMasters, 2)
	assert.Equal(t, "ORG_NAT_00001", outcome.NewMasters[0].ID)
	assert.Equal(t, "ORG_NAT_00002", outcome.NewMasters[1].ID)
}

func TestAutoMatchAllSkipsMappedAndReviewMembers(t *testing.T) {
	engine := NewEngine(nil)

	mapped := testRecord("r1", "s1", "Egypt", nil)
	mapped.Status = models.RecordStatusMapped
	mapped.MasterID = strPtr("ORG_NAT_00001")

	review := testRecord("r2", "s2", "Egyptian", nil)
	review.Status = models.RecordStatusNeedsReview

	groups := []grouping.Group{
		{
			Key: "Egypt",
			Members: []models.SupplierRecord{
				mapped,
				review,
				testRecord("r3", "s3", "Egypt", nil),
			},
			Scores: map[string]int{"r1": 100, "r2": 95, "r3": 92},
		},
	}

	outcome := engine.AutoMatchAll(models.TaxonomyNationality, groups, []string{"ORG_NAT_00001"})

	// only one member is pending, so the group is skipped entirely
	assert.Equal(t, 0, outcome.GroupsMatched)
	assert.Equal(t, 1, outcome.GroupsSkipped)
	assert.Empty(t, outcome.Mutations)
	assert.Empty(t, outcome.NewMasters)
}

func TestAutoMatchAllReportsGroupConflicts(t *testing.T) {
	engine := NewEngine(nil)

	m1 := testRecord("r1", "s1", "Egypt", nil)
	m1.Status = models.RecordStatusMapped
	m1.MasterID = strPtr("ORG_NAT_00001")

	m2 := testRecord("r2", "s2", "Egyptian", nil)
	m2.Status = models.RecordStatusMapped
	m2.MasterID = strPtr("ORG_NAT_00002")

	groups := []grouping.Group{
		{
			Key: "Egypt",
			Members: []models.SupplierRecord{
				m1,
				m2,
				testRecord("r3", "s3", "Egypt", nil),
				testRecord("r4", "s4", "Egyptien", nil),
			},
			Scores: map[string]int{"r3": 92, "r4": 90},
		},
	}

	outcome := engine.AutoMatchAll(models.TaxonomyNationality, groups, []string{"ORG_NAT_00001", "ORG_NAT_00002"})

	// the pending members still match, the conflict is advisory
	assert.Equal(t, 1, outcome.GroupsMatched)
	assert.Equal(t, 2, outcome.MappedCount)
	require.NotEmpty(t, outcome.Warnings)
	assert.Contains(t, outcome.Warnings[0], "conflicting masters")
}

func TestAutoMatchAllUsesCatalogIdentity(t *testing.T) {
	engine := NewEngine(testCatalog())

	groups := []grouping.Group{
		{
			Key: "Egypt",
			Members: []models.SupplierRecord{
				testRecord("r1", "s1", "Egypt", nil),
				testRecord("r2", "s2", "Egyptische", nil),
			},
			Scores: map[string]int{"r1": 100, "r2": 90},
		},
	}

	outcome := engine.AutoMatchAll(models.TaxonomyNationality, groups, nil)

	require.Len(t, outcome.NewMasters, 1)
	master := outcome.NewMasters[0]
	assert.Equal(t, "Egyptian", master.CanonicalName)
	assert.Equal(t, "EG", master.PrimaryCode)
	assert.Equal(t, "EGY", master.StandardCode)
	assert.ElementsMatch(t, []string{"Egypt", "Egyptische"}, master.AlternateNames)
}

func TestProposeManualMatch(t *testing.T) {
	engine := NewEngine(nil)

	selection := []models.SupplierRecord{
		testRecord("r1", "s1", "Egypt", strPtr("EG")),
		testRecord("r2", "s1", "Egyptian", strPtr("EGY")),
	}

	proposal, err := engine.ProposeManualMatch(selection)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, proposal.MemberRecordIDs)
	assert.Len(t, proposal.Warnings, 2)
}

func TestProposeManualMatchTooFew(t *testing.T) {
	engine := NewEngine(nil)

	_, err := engine.ProposeManualMatch([]models.SupplierRecord{testRecord("r1", "s1", "Egypt", nil)})
	assert.ErrorIs(t, err, ErrTooFewSelected)

	_, err = engine.ProposeManualMatch(nil)
	assert.ErrorIs(t, err, ErrTooFewSelected)
}

func TestCommitManualMatch(t *testing.T) {
	engine := NewEngine(nil)

	selection := []models.SupplierRecord{
		testRecord("r1", "s1", "Egypt", strPtr("EG")),
		testRecord("r2", "s2", "Egyptian", nil),
	}

	outcome, err := engine.CommitManualMatch(models.TaxonomyNationality, selection, []string{"ORG_NAT_00009"})
	require.NoError(t, err)

	assert.Equal(t, "ORG_NAT_00010", outcome.NewMaster.ID)
	assert.Equal(t, "Egypt", outcome.NewMaster.CanonicalName)
	assert.Equal(t, "EG", outcome.NewMaster.PrimaryCode)

	require.Len(t, outcome.Mutations, 2)
	for _, mut := range outcome.Mutations {
		assert.Equal(t, "ORG_NAT_00010", *mut.MasterID)
		assert.Equal(t, models.RecordStatusMapped, mut.Status)
		assert.Equal(t, 100, *mut.Confidence)
	}
}

func TestCommitManualMatchMixedTaxonomies(t *testing.T) {
	engine := NewEngine(nil)

	city := testRecord("r2", "s2", "Cairo", nil)
	city.Taxonomy = models.TaxonomyCity

	selection := []models.SupplierRecord{
		testRecord("r1", "s1", "Egypt", nil),
		city,
	}

	_, err := engine.CommitManualMatch(models.TaxonomyNationality, selection, nil)
	assert.ErrorIs(t, err, ErrMixedTaxonomies)
}

func TestCommitManualMatchTaxonomyMustMatchSelection(t *testing.T) {
	engine := NewEngine(nil)

	selection := []models.SupplierRecord{
		testRecord("r1", "s1", "Egypt", nil),
		testRecord("r2", "s2", "Egyptian", nil),
	}

	_, err := engine.CommitManualMatch(models.TaxonomyCity, selection, nil)
	assert.ErrorIs(t, err, ErrMixedTaxonomies)
}

func TestProposeManualMatchMixedTaxonomies(t *testing.T) {
	engine := NewEngine(nil)

	city := testRecord("r2", "s2", "Cairo", nil)
	city.Taxonomy = models.TaxonomyCity

	_, err := engine.ProposeManualMatch([]models.SupplierRecord{
		testRecord("r1", "s1", "Egypt", nil),
		city,
	})
	assert.ErrorIs(t, err, ErrMixedTaxonomies)
}

func TestCommitManualMatchTooFew(t *testing.T) {
	engine := NewEngine(nil)

	_, err := engine.CommitManualMatch(models.TaxonomyNationality, []models.SupplierRecord{testRecord("r1", "s1", "Egypt", nil)}, nil)
	assert.ErrorIs(t, err, ErrTooFewSelected)
}

func TestUnmatchKeepsLinkAndConfidence(t *testing.T) {
	engine := NewEngine(nil)

	rec := testRecord("r1", "s1", "Egypt", nil)
	rec.Status = models.RecordStatusMapped
	rec.MasterID = strPtr("ORG_NAT_00003")
	rec.Confidence = intPtr(92)

	mutations, err := engine.Unmatch([]models.SupplierRecord{rec})
	require.NoError(t, err)
	require.Len(t, mutations, 1)

	assert.Equal(t, models.RecordStatusPending, mutations[0].Status)
	assert.Equal(t, "ORG_NAT_00003", *mutations[0].MasterID)
	assert.Equal(t, 92, *mutations[0].Confidence)
}

func TestUnmatchRejectsUnlinkedRecords(t *testing.T) {
	engine := NewEngine(nil)

	linked := testRecord("r1", "s1", "Egypt", nil)
	linked.Status = models.RecordStatusMapped
	linked.MasterID = strPtr("ORG_NAT_00003")

	_, err := engine.Unmatch([]models.SupplierRecord{linked, testRecord("r2", "s2", "Qatar", nil)})
	assert.ErrorIs(t, err, ErrNotLinked)
}

func TestMove(t *testing.T) {
	engine := NewEngine(nil)

	rec := testRecord("r1", "s1", "Egypt", nil)
	rec.Status = models.RecordStatusMapped
	rec.MasterID = strPtr("ORG_NAT_00001")
	rec.Confidence = intPtr(95)

	mutation, err := engine.Move(rec, "ORG_NAT_00002")
	require.NoError(t, err)

	assert.Equal(t, "r1", mutation.RecordID)
	assert.Equal(t, "ORG_NAT_00002", *mutation.MasterID)
	assert.Equal(t, models.RecordStatusMapped, mutation.Status)
	assert.Nil(t, mutation.Confidence, "moves are human-asserted, not scored")
}

func TestMoveSameTarget(t *testing.T) {
	engine := NewEngine(nil)

	rec := testRecord("r1", "s1", "Egypt", nil)
	rec.Status = models.RecordStatusMapped
	rec.MasterID = strPtr("ORG_NAT_00001")

	_, err := engine.Move(rec, "ORG_NAT_00001")
	assert.ErrorIs(t, err, ErrSameTarget)
}

func TestMovePendingRecord(t *testing.T) {
	engine := NewEngine(nil)

	mutation, err := engine.Move(testRecord("r1", "s1", "Egypt", nil), "ORG_NAT_00001")
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusMapped, mutation.Status)
}
