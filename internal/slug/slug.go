// Package slug derives URL-safe identifiers from recipe titles and
// disambiguates them against slugs already in use.
package slug

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fallback is used when a title contains no ASCII letters or digits.
const Fallback = "recipe"

// MaxBaseLength leaves room for a "-N" suffix inside the 255 character column.
const MaxBaseLength = 240

// Slugify lowercases title, folds accents to ASCII and collapses every run of
// other characters into a single "-".
func Slugify(title string) string {
	// transform chains keep state, so build one per call.
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(fold, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	sep := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if sep && b.Len() > 0 {
				b.WriteByte('-')
			}
			sep = false
			b.WriteRune(r)
			continue
		}
		sep = true
	}

	s := b.String()
	if len(s) > MaxBaseLength {
		s = strings.TrimRight(s[:MaxBaseLength], "-")
	}
	if s == "" {
		return Fallback
	}
	return s
}

// Pattern matches base itself and base with a numeric suffix, and nothing else.
// It is meant for a SQL regular expression match against the slug column.
func Pattern(base string) string {
	return "^" + regexp.QuoteMeta(base) + "(-[0-9]+)?$"
}

// Next returns base when it is free, otherwise base-N with N one greater than
// the highest exact collision in taken. base itself counts as collision 1, so
// the first duplicate becomes base-2. Slugs that merely share the prefix
// ("cake-pops" for "cake") are ignored.
func Next(base string, taken []string) string {
	highest := 0
	for _, s := range taken {
		if s == base {
			if highest < 1 {
				highest = 1
			}
			continue
		}
		rest, ok := strings.CutPrefix(s, base+"-")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 || strconv.Itoa(n) != rest {
			continue
		}
		if n > highest {
			highest = n
		}
	}

	if highest == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, highest+1)
}
