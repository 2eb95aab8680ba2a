package reconcile

import (
	"fmt"
	"strconv"
	"strings"
)

// masterIDWidth is the zero-padded width of the numeric suffix in master ids
const masterIDWidth = 5

// NextMasterID allocates the next master id in a namespace. It scans existing
// ids for the prefix, takes max(numeric suffix)+1 (or 1 when none), and
// re-prefixes with a fixed-width suffix. Ids that do not carry the prefix or a
// numeric suffix are ignored.
//
// The scan is only correct under non-interleaved writes: callers must hold the
// store's single-writer discipline while allocating.
func NextMasterID(existing []string, prefix string) string {
	maxSuffix := 0
	for _, id := range existing {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		suffix, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
		if err != nil {
			continue
		}
		if suffix > maxSuffix {
			maxSuffix = suffix
		}
	}

	return fmt.Sprintf("%s%0*d", prefix, masterIDWidth, maxSuffix+1)
}
