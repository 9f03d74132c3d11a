package post

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleFromSlug turns "event-driven_revocation" into "Event Driven Revocation".
func TitleFromSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	// Casers carry state; one per call keeps this safe for concurrent use.
	return cases.Title(language.English).String(strings.Join(words, " "))
}
