package transforms

import (
	"errors"
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/ygrebnov/linewise"
)

var ErrNoDictionary = errors.New("transforms: lemmatizer requires a dictionary")

type cached struct {
	entry Entry
	found bool
}

// Lemmatizer replaces every known word of a line with its lemma. Numerals, punctuation
// and words missing from the dictionary are left out.
// A Lemmatizer is not safe for concurrent use; build one per worker via LemmatizerFactory.
type Lemmatizer struct {
	dict  *Dictionary
	lower cases.Caser
	cache *lru.Cache[string, cached]
}

// NewLemmatizer creates a Lemmatizer over dict. cacheSize > 0 enables a private LRU cache
// of resolved tokens.
func NewLemmatizer(dict *Dictionary, cacheSize int) (*Lemmatizer, error) {
	if dict == nil {
		return nil, ErrNoDictionary
	}
	l := &Lemmatizer{dict: dict, lower: cases.Lower(language.Turkish)}
	if cacheSize > 0 {
		c, err := lru.New[string, cached](cacheSize)
		if err != nil {
			return nil, err
		}
		l.cache = c
	}
	return l, nil
}

// LemmatizerFactory returns a factory that builds one Lemmatizer, with its own cache,
// per worker. The dictionary is shared.
func LemmatizerFactory(dict *Dictionary, cacheSize int) linewise.Factory {
	return func() (linewise.Transform, error) {
		l, err := NewLemmatizer(dict, cacheSize)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
}

// Transform lemmatizes line. A line with no known words is dropped.
func (l *Lemmatizer) Transform(line string) (string, bool, error) {
	lemmas := l.Lemmas(line)
	if len(lemmas) == 0 {
		return "", false, nil
	}
	return strings.Join(lemmas, " "), true, nil
}

// Lemmas returns the lemmas of line in order.
func (l *Lemmatizer) Lemmas(line string) []string {
	fields := strings.Fields(line)
	out := make([]string, 0, len(fields))
	for _, tok := range fields {
		tok = strings.TrimFunc(tok, func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) })
		if tok == "" || isNumeral(tok) {
			continue
		}
		e, ok := l.resolve(tok)
		if !ok || e.Pos == PosNumeral || e.Pos == PosPunctuation {
			continue
		}
		out = append(out, e.Lemma)
	}
	return out
}

func (l *Lemmatizer) resolve(tok string) (Entry, bool) {
	key := l.lower.String(norm.NFC.String(tok))
	if l.cache != nil {
		if c, ok := l.cache.Get(key); ok {
			return c.entry, c.found
		}
	}
	e, ok := l.dict.Lookup(key)
	if l.cache != nil {
		l.cache.Add(key, cached{entry: e, found: ok})
	}
	return e, ok
}

// isNumeral reports whether tok consists of digits with optional inner separators, e.g. "1.5" or "2,000".
func isNumeral(tok string) bool {
	digits := 0
	for _, r := range tok {
		switch {
		case unicode.IsNumber(r):
			digits++
		case r == '.' || r == ',':
		default:
			return false
		}
	}
	return digits > 0
}
