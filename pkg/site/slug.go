package site

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalid = regexp.MustCompile(`[^\w\s-]`)
	slugSpacing = regexp.MustCompile(`[-\s]+`)
)

// Slugify converts a value to a lowercase ASCII identifier usable in URLs
// and anchors.
func Slugify(value string) string {
	decomposed := norm.NFKD.String(value)
	ascii := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, decomposed)
	slug := slugInvalid.ReplaceAllString(strings.ToLower(ascii), "")
	slug = slugSpacing.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-_")
}
