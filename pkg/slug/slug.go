package slug

import (
	"regexp"
	"strings"
)

var (
	slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

	replacer = strings.NewReplacer(
		"&", " and ",
		"@", " at ",
		"'", "",
		"’", "",
		"á", "a", "à", "a", "â", "a", "ä", "a", "ã", "a",
		"é", "e", "è", "e", "ê", "e", "ë", "e",
		"í", "i", "ì", "i", "î", "i", "ï", "i",
		"ó", "o", "ò", "o", "ô", "o", "ö", "o", "õ", "o",
		"ú", "u", "ù", "u", "û", "u", "ü", "u",
		"ñ", "n", "ç", "c",
	)
)

// MaxLength bounds generated slugs; longer input is cut at a word boundary.
const MaxLength = 80

// Generate creates a URL-friendly slug from the given name.
//
// Examples:
//   - "Gold & Diamond Rings" → "gold-and-diamond-rings"
//   - "Men's Bracelets" → "mens-bracelets"
//   - "  Kundan   Necklace! " → "kundan-necklace"
func Generate(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = replacer.Replace(slug)
	slug = slugRegexp.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > MaxLength {
		slug = slug[:MaxLength]
		if i := strings.LastIndexByte(slug, '-'); i > 0 {
			slug = slug[:i]
		}
	}
	return slug
}

// OrGenerate returns existing when it is already set, else a slug of name.
func OrGenerate(existing, name string) string {
	if s := strings.TrimSpace(existing); s != "" {
		return s
	}
	return Generate(name)
}
