package services

import (
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
)

// whitespace matches the same code points as \s in JavaScript regexps.
const whitespace = `\t\n\v\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}`

const slugSuffixRange = 1000000

var (
	slugInvalidChars = regexp.MustCompile(`[^\w` + whitespace + `-]`)
	slugSeparators   = regexp.MustCompile(`[` + whitespace + `_-]+`)
	slugEdgeHyphens  = regexp.MustCompile(`^-+|-+$`)
)

// SlugGenerator derives URL slugs from product names. Intn supplies the
// random suffix.
type SlugGenerator struct {
	Intn func(n int) int
}

var defaultSlugs = SlugGenerator{Intn: rand.IntN}

// NewSlug returns Slugify(name) with a random numeric suffix in [0, 1000000).
func NewSlug(name string) string {
	return defaultSlugs.Generate(name)
}

func (g SlugGenerator) Generate(name string) string {
	intn := g.Intn
	if intn == nil {
		intn = rand.IntN
	}
	return Slugify(name) + "-" + strconv.Itoa(intn(slugSuffixRange))
}

// Slugify keeps ASCII word characters, joins words with single hyphens and
// lowercases the result. Empty input yields "".
func Slugify(name string) string {
	s := slugInvalidChars.ReplaceAllString(name, "")
	s = slugSeparators.ReplaceAllString(s, "-")
	s = slugEdgeHyphens.ReplaceAllString(s, "")
	return strings.TrimSpace(strings.ToLower(s))
}
