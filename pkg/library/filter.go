// Package library answers queries over the clip collection: filtering by
// category and searching clip names.
package library

import (
	"strings"

	"github.com/menta2k/mudrik/pkg/types"
)

// Filter returns the clips in category whose name contains search, keeping
// storage order. An empty category matches every clip and an empty search
// matches every name. Name matching ignores case.
func Filter(clips []types.Clip, category, search string) []types.Clip {
	needle := ""
	if search != "" {
		needle = types.FoldName(search)
	}

	out := make([]types.Clip, 0, len(clips))
	for _, c := range clips {
		if category != "" && c.Category != category {
			continue
		}
		if needle != "" && !strings.Contains(types.FoldName(c.Name), needle) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// CountByCategory returns how many clips each category holds, listing every
// category in categories even when it is empty.
func CountByCategory(clips []types.Clip, categories []string) map[string]int {
	counts := make(map[string]int, len(categories))
	for _, name := range categories {
		counts[name] = 0
	}
	for _, c := range clips {
		counts[c.Category]++
	}
	return counts
}
