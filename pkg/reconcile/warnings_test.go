package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/grouping"
	"github.com/Ramsey-B/laurel/pkg/models"
)

func TestDetectWarnings(t *testing.T) {
	tests := []struct {
		name     string
		records  []models.SupplierRecord
		expected []string
	}{
		{
			name: "clean selection",
			records: []models.SupplierRecord{
				testRecord("r1", "s1", "Egypt", strPtr("EG")),
				testRecord("r2", "s2", "Egyptian", strPtr("EG")),
			},
			expected: nil,
		},
		{
			name: "multiple codes",
			records: []models.SupplierRecord{
				testRecord("r1", "s1", "Egypt", strPtr("EG")),
				testRecord("r2", "s2", "Egyptian", strPtr("EGY")),
			},
			expected: []string{"records carry multiple codes: EG, EGY"},
		},
		{
			name: "duplicate supplier",
			records: []models.SupplierRecord{
				testRecord("r1", "s1", "Egypt", nil),
				testRecord("r2", "s1", "Egyptian", nil),
			},
			expected: []string{"supplier appears more than once: s1"},
		},
		{
			name: "empty codes are not distinct codes",
			records: []models.SupplierRecord{
				testRecord("r1", "s1", "Egypt", strPtr("")),
				testRecord("r2", "s2", "Egyptian", strPtr("EG")),
			},
			expected: nil,
		},
		{
			name: "both warnings together",
			records: []models.SupplierRecord{
				testRecord("r1", "s1", "Egypt", strPtr("EG")),
				testRecord("r2", "s1", "Egyptian", strPtr("EGY")),
			},
			expected: []string{
				"records carry multiple codes: EG, EGY",
				"supplier appears more than once: s1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectWarnings(tt.records))
		})
	}
}

func TestDetectGroupWarningsConflictingMasters(t *testing.T) {
	m1 := "ORG_NAT_00001"
	m2 := "ORG_NAT_00002"

	r1 := testRecord("r1", "s1", "Egypt", nil)
	r1.MasterID = &m1
	r1.Status = models.RecordStatusMapped

	r2 := testRecord("r2", "s2", "Egyptian", nil)
	r2.MasterID = &m2
	r2.Status = models.RecordStatusMapped

	group := grouping.Group{Key: "Egypt", Members: []models.SupplierRecord{r1, r2}}

	warnings := detectGroupWarnings(group)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "conflicting masters")
	assert.Contains(t, warnings[0], m1)
	assert.Contains(t, warnings[0], m2)
}
