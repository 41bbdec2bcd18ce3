package transforms

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// POS tags whose entries never reach the output.
const (
	PosNumeral     = "Num"
	PosPunctuation = "Punc"
)

var ErrMalformedDictionary = errors.New("transforms: malformed dictionary")

// Entry is what a surface form resolves to.
type Entry struct {
	Lemma string
	Pos   string
}

// Dictionary maps normalized surface forms to lemmas. It is read-only after loading and
// may be shared by every worker.
type Dictionary struct {
	entries map[string]Entry
}

// LoadDictionary reads a dictionary file. See ParseDictionary for the format.
func LoadDictionary(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()
	return ParseDictionary(f)
}

// ParseDictionary reads tab-separated "surface<TAB>lemma[<TAB>pos]" lines.
// Blank lines and lines starting with '#' are ignored. Surface forms are stored NFC
// normalized and lowercased with Turkish rules; a later duplicate replaces an earlier one.
func ParseDictionary(r io.Reader) (*Dictionary, error) {
	lower := cases.Lower(language.Turkish)
	d := &Dictionary{entries: make(map[string]Entry)}

	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 || len(fields) > 3 || fields[0] == "" || fields[1] == "" {
			return nil, fmt.Errorf("%w: line %d: want surface<TAB>lemma[<TAB>pos]", ErrMalformedDictionary, n)
		}
		e := Entry{Lemma: fields[1]}
		if len(fields) == 3 {
			e.Pos = fields[2]
		}
		d.entries[lower.String(norm.NFC.String(fields[0]))] = e
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	return d, nil
}

// Len returns the number of surface forms.
func (d *Dictionary) Len() int { return len(d.entries) }

// Lookup resolves an already normalized surface form.
func (d *Dictionary) Lookup(key string) (Entry, bool) {
	e, ok := d.entries[key]
	return e, ok
}
