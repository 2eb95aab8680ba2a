package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextMasterID(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		prefix   string
		expected string
	}{
		{
			name:     "empty namespace starts at one",
			existing: nil,
			prefix:   "ORG_NAT_",
			expected: "ORG_NAT_00001",
		},
		{
			name:     "increments the max suffix",
			existing: []string{"ORG_NAT_00001", "ORG_NAT_00017", "ORG_NAT_00003"},
			prefix:   "ORG_NAT_",
			expected: "ORG_NAT_00018",
		},
		{
			name:     "ignores other prefixes",
			existing: []string{"ORG_CTY_00042", "ORG_NAT_00002"},
			prefix:   "ORG_NAT_",
			expected: "ORG_NAT_00003",
		},
		{
			name:     "ignores non numeric suffixes",
			existing: []string{"ORG_NAT_LEGACY", "ORG_NAT_00004"},
			prefix:   "ORG_NAT_",
			expected: "ORG_NAT_00005",
		},
		{
			name:     "grows past the padded width",
			existing: []string{"ORG_NAT_99999"},
			prefix:   "ORG_NAT_",
			expected: "ORG_NAT_100000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NextMasterID(tt.existing, tt.prefix))
		})
	}
}

func TestNextMasterIDSequentialAllocations(t *testing.T) {
	ids := []string{}
	seen := make(map[string]struct{})
	prev := ""
	for i := 0; i < 1000; i++ {
		id := NextMasterID(ids, "ORG_HTL_")
		_, dup := seen[id]
		assert.False(t, dup, "allocation %d produced duplicate id %s", i, id)
		assert.Greater(t, id, prev)
		seen[id] = struct{}{}
		ids = append(ids, id)
		prev = id
	}
	assert.Equal(t, "ORG_HTL_00001", ids[0])
	assert.Equal(t, "ORG_HTL_01000", ids[999])
}
