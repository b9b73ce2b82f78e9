package state

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var nameCaser = cases.Title(language.English, cases.NoLower)

// CanonicalName normalizes a character name for scene membership and state
// lookups. Generated output is inconsistent about casing ("mira", "MIRA"),
// so names are trimmed and title-cased once at the boundary and compared
// exactly everywhere else.
func CanonicalName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	if name == strings.ToLower(name) || name == strings.ToUpper(name) {
		return nameCaser.String(strings.ToLower(name))
	}
	return name
}

// SameName compares two character names case-insensitively.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
