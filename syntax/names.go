package syntax

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/runenames"
)

var (
	nameTableOnce sync.Once
	nameTable     map[string]rune
)

func buildNameTable() {
	nameTable = make(map[string]rune, 1<<15)
	for r := rune(0); r <= unicode.MaxRune; r++ {
		if r >= 0xD800 && r <= 0xDFFF {
			continue
		}
		name := runenames.Name(r)
		if name == "" || strings.HasPrefix(name, "<") {
			continue
		}
		if _, dup := nameTable[name]; !dup {
			nameTable[name] = r
		}
	}
}

// LookupCharacterName returns the character with the given Unicode name.
// Matching ignores case, and spaces, underscores and hyphens are
// interchangeable.
func LookupCharacterName(name string) (rune, bool) {
	nameTableOnce.Do(buildNameTable)
	key := strings.ToUpper(strings.NewReplacer("_", " ", "-", " ").Replace(name))
	if r, ok := nameTable[key]; ok {
		return r, true
	}
	// Names such as "LATIN SMALL LETTER A-TILDE" keep their hyphens.
	r, ok := nameTable[strings.ToUpper(name)]
	return r, ok
}
