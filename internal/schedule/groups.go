package schedule

import (
	"cmp"
	"slices"
	"strings"

	"schedule-backend/internal/normalizer"

	"github.com/antzucaro/matchr"
)

const DefaultSuggestionLimit = 5

func normalizeGroup(group string) string {
	return strings.ToLower(strings.TrimSpace(group))
}

// FilterGroup keeps the records of `group`, compared trimmed and case
// insensitively. An empty group keeps everything.
func FilterGroup(records []normalizer.Record, group string) []normalizer.Record {
	target := normalizeGroup(group)
	if target == "" {
		return records
	}
	out := []normalizer.Record{}
	for _, r := range records {
		if normalizeGroup(r.Group) == target {
			out = append(out, r)
		}
	}
	return out
}

// Groups lists the distinct groups in `records`, sorted.
func Groups(records []normalizer.Record) []string {
	seen := map[string]struct{}{}
	groups := []string{}
	for _, r := range records {
		if _, ok := seen[r.Group]; ok {
			continue
		}
		seen[r.Group] = struct{}{}
		groups = append(groups, r.Group)
	}
	slices.Sort(groups)
	return groups
}

type scoredGroup struct {
	name  string
	score float64
}

// SuggestGroups returns up to `limit` groups most similar to `query` by
// Jaro-Winkler distance, best first.
func SuggestGroups(groups []string, query string, limit int) []string {
	target := normalizeGroup(query)
	if target == "" || limit <= 0 {
		return []string{}
	}

	scored := make([]scoredGroup, 0, len(groups))
	for _, g := range groups {
		score := matchr.JaroWinkler(normalizeGroup(g), target, false)
		if score < 0.5 {
			continue
		}
		scored = append(scored, scoredGroup{name: g, score: score})
	}
	slices.SortStableFunc(scored, func(a, b scoredGroup) int {
		return cmp.Compare(b.score, a.score)
	})

	suggestions := []string{}
	for _, s := range scored {
		if len(suggestions) == limit {
			break
		}
		suggestions = append(suggestions, s.name)
	}
	return suggestions
}
