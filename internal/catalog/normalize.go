package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Categories are the canonical category names the storefront links to.
var Categories = []string{"Masculino", "Feminino", "Infantil", "Térmicas"}

// Normalize folds value for accent- and case-insensitive comparison.
func Normalize(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, value)
	if err != nil {
		folded = value
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// ResolveCategory maps a URL slug such as "termicas" to its canonical name.
// Unknown slugs are returned trimmed and unchanged.
func ResolveCategory(slug string) string {
	key := Normalize(strings.ReplaceAll(slug, "-", " "))
	for _, name := range Categories {
		if Normalize(name) == key {
			return name
		}
	}
	return strings.TrimSpace(slug)
}
