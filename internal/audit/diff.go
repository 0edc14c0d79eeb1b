package audit

import (
	"fmt"
	"sort"
)

// Columns excluded from changed-field summaries: they change on every
// update and carry no information for the feed.
var diffExcluded = map[string]bool{
	"updated_at":    true,
	ColumnUpdatedBy: true,
}

// ChangedFields returns the sorted names of fields whose values differ
// between the before and after snapshots of an update. Snapshots may have
// passed through JSON, so values are compared by their string rendering
// rather than by type.
func ChangedFields(before, after map[string]interface{}) []string {
	seen := make(map[string]bool, len(before)+len(after))
	for k := range before {
		seen[k] = true
	}
	for k := range after {
		seen[k] = true
	}

	var changed []string
	for k := range seen {
		if diffExcluded[k] {
			continue
		}
		if fmt.Sprint(before[k]) != fmt.Sprint(after[k]) {
			changed = append(changed, k)
		}
	}

	sort.Strings(changed)
	return changed
}
