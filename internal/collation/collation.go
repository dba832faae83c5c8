// Package collation orders class and field names the way a person reading
// them expects: locale-aware, ignoring case and accents.
package collation

import (
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collators keep internal buffers and are not safe for concurrent use
var pool = sync.Pool{
	New: func() any {
		return collate.New(language.Und, collate.Loose)
	},
}

// Compare returns -1, 0 or 1. Names equal under the loose collation are
// ordered by their bytes so the result is total and stable.
func Compare(a, b string) int {
	c := pool.Get().(*collate.Collator)
	r := c.CompareString(a, b)
	pool.Put(c)

	if r != 0 {
		return r
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Sort sorts names in place
func Sort(names []string) {
	c := pool.Get().(*collate.Collator)
	defer pool.Put(c)

	sort.SliceStable(names, func(i, j int) bool {
		if r := c.CompareString(names[i], names[j]); r != 0 {
			return r < 0
		}
		return names[i] < names[j]
	})
}

// Sorted returns a sorted copy of names
func Sorted(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	Sort(out)
	return out
}
