package transforms

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/ygrebnov/linewise"
)

var (
	// anything but letters, digits, whitespace, sentence punctuation and apostrophes
	unwantedRe = regexp.MustCompile(`[^\pL\s\pN.,?!'’]`)
	// a lone letter or digit between whitespace and whitespace/punctuation
	singleRe = regexp.MustCompile(`\s[\pL\pN][\s.?!,]`)
	spacesRe = regexp.MustCompile(` +`)
)

// CleanerOptions configures a Cleaner.
type CleanerOptions struct {
	// Lowercase folds case with Turkish rules (I -> ı, İ -> i).
	Lowercase bool
}

// Cleaner strips a line down to words and sentence punctuation.
// A Cleaner is not safe for concurrent use when Lowercase is set.
type Cleaner struct {
	lower *cases.Caser
}

// NewCleaner creates a Cleaner.
func NewCleaner(opts CleanerOptions) *Cleaner {
	c := &Cleaner{}
	if opts.Lowercase {
		caser := cases.Lower(language.Turkish)
		c.lower = &caser
	}
	return c
}

// CleanerFactory returns a factory producing one Cleaner per worker.
func CleanerFactory(opts CleanerOptions) linewise.Factory {
	return func() (linewise.Transform, error) { return NewCleaner(opts), nil }
}

// Transform cleans line. Lines with nothing left are dropped.
func (c *Cleaner) Transform(line string) (string, bool, error) {
	s := c.Clean(line)
	return s, s != "", nil
}

// Clean applies the cleaning rules in order:
// Unicode NFC normalization, replacement of unwanted runes with spaces, removal of
// apostrophes not enclosed by letters, removal of single letter or digit words,
// whitespace collapsing and, optionally, lowercasing.
func (c *Cleaner) Clean(line string) string {
	s := norm.NFC.String(line)
	s = unwantedRe.ReplaceAllString(s, " ")
	s = stripLooseApostrophes(s)
	s = singleRe.ReplaceAllString(s, " ")
	s = spacesRe.ReplaceAllString(strings.TrimSpace(s), " ")
	if c.lower != nil {
		s = c.lower.String(s)
	}
	return s
}

func isApostrophe(r rune) bool { return r == '\'' || r == '’' }

// stripLooseApostrophes keeps an apostrophe only when a letter precedes and follows it,
// as in "Ankara'da".
func stripLooseApostrophes(s string) string {
	if !strings.ContainsAny(s, "'’") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	prev := rune(-1)
	for i, r := range s {
		if isApostrophe(r) {
			next, _ := utf8.DecodeRuneInString(s[i+utf8.RuneLen(r):])
			if !unicode.IsLetter(prev) || !unicode.IsLetter(next) {
				prev = r
				continue
			}
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
