package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName lowercases a name and strips every whitespace character so
// that "ИПБ-24-1 " and "ипб-24-1" compare equal.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	return whitespaceRegex.ReplaceAllString(name, "")
}

// MatchName reports whether the normalized form of `name` contains any of `matchers`.
func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if m == "" {
			continue
		}
		if strings.Contains(name, NormalizeName(m)) {
			return true
		}
	}
	return false
}
