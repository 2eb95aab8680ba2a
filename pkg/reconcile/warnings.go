package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Ramsey-B/laurel/pkg/grouping"
	"github.com/Ramsey-B/laurel/pkg/models"
)

// DetectWarnings inspects a record set about to be matched together and
// returns advisory warnings. Warnings never block a commit; they are shown to
// the human confirming the match.
func DetectWarnings(records []models.SupplierRecord) []string {
	var warnings []string

	codes := make(map[string]struct{})
	supplierCounts := make(map[string]int)
	for _, rec := range records {
		if rec.LocalCode != nil && *rec.LocalCode != "" {
			codes[*rec.LocalCode] = struct{}{}
		}
		supplierCounts[rec.SupplierID]++
	}

	if len(codes) > 1 {
		distinct := make([]string, 0, len(codes))
		for code := range codes {
			distinct = append(distinct, code)
		}
		sort.Strings(distinct)
		warnings = append(warnings, fmt.Sprintf("records carry multiple codes: %s", strings.Join(distinct, ", ")))
	}

	duplicated := make([]string, 0)
	for supplierID, count := range supplierCounts {
		if count > 1 {
			duplicated = append(duplicated, supplierID)
		}
	}
	if len(duplicated) > 0 {
		sort.Strings(duplicated)
		warnings = append(warnings, fmt.Sprintf("supplier appears more than once: %s", strings.Join(duplicated, ", ")))
	}

	return warnings
}

// detectGroupWarnings adds group-level conflicts on top of the selection
// warnings: mapped members referencing more than one master record.
func detectGroupWarnings(group grouping.Group) []string {
	warnings := DetectWarnings(group.Members)
	if masters := group.MappedMasters(); len(masters) > 1 {
		warnings = append(warnings, fmt.Sprintf("group %q has members mapped to conflicting masters: %s", group.Key, strings.Join(masters, ", ")))
	}
	return warnings
}
