package hospital

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// subdomainPattern matches the slugs Slugify may produce. The tenant
// middleware accepts the same shape, so anything that fails here would be an
// unreachable subdomain.
var subdomainPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// asciiFold decomposes accented characters and strips the combining marks,
// so "Hôpital" folds to "Hopital". Runes with no ASCII base form are left
// for the slug filter below to collapse into hyphens.
var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// Slugify derives a subdomain slug from a hospital name: accented letters
// fold to their ASCII base, the rest is lowercased, and every run of
// characters outside [a-z0-9] collapses to a single hyphen with leading and
// trailing hyphens trimmed. "St. Mary's Hospital" becomes
// "st-mary-s-hospital"; "Hôpital Saint-Luc" becomes "hopital-saint-luc".
func Slugify(name string) string {
	folded, _, err := transform.String(asciiFold, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
