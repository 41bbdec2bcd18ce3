package transforms

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ygrebnov/linewise"
)

var ErrUnknownTransform = errors.New("transforms: unknown transform")

// Settings carries what the registered transforms may need.
type Settings struct {
	Lowercase      bool
	DictionaryPath string
	CacheSize      int
}

type builder func(Settings) (linewise.Factory, error)

var registry = map[string]builder{
	"identity": func(Settings) (linewise.Factory, error) { return Identity(), nil },
	"clean": func(s Settings) (linewise.Factory, error) {
		return CleanerFactory(CleanerOptions{Lowercase: s.Lowercase}), nil
	},
	"lemma": func(s Settings) (linewise.Factory, error) {
		if s.DictionaryPath == "" {
			return nil, ErrNoDictionary
		}
		d, err := LoadDictionary(s.DictionaryPath)
		if err != nil {
			return nil, err
		}
		return LemmatizerFactory(d, s.CacheSize), nil
	},
}

// Lookup returns the factory registered under name. Shared resources such as the
// lemma dictionary are loaded here, once, before any worker starts.
func Lookup(name string, s Settings) (linewise.Factory, error) {
	b, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownTransform, name, Names())
	}
	return b(s)
}

// Names lists the registered transform names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
