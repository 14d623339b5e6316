package dataset

import (
	"sort"
	"strings"
)

// Corrections tallies artist name rewrites by corrected name.
type Corrections struct {
	Counts map[string]int
	Total  int
}

// Names returns corrected names ordered by count, then name.
func (c Corrections) Names() []string {
	names := make([]string, 0, len(c.Counts))
	for name := range c.Counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if c.Counts[names[i]] != c.Counts[names[j]] {
			return c.Counts[names[i]] > c.Counts[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// FixArtistNames rewrites inverted names in column ("beatles, the" becomes
// "the beatles") in place and reports what changed. Running it again on
// its own output changes nothing.
func FixArtistNames(t *Table, column string) (Corrections, error) {
	idx, err := t.Require(column)
	if err != nil {
		return Corrections{}, err
	}
	col := idx[0]

	c := Corrections{Counts: make(map[string]int)}
	for _, rec := range t.Records {
		fixed, ok := FixArtistName(rec[col])
		if !ok {
			continue
		}
		rec[col] = fixed
		c.Counts[fixed]++
		c.Total++
	}

	return c, nil
}

// FixArtistName un-inverts a "name, article" style artist name. Only names
// with exactly one comma and text on both sides are rewritten; lists such
// as "crosby, stills, nash & young" with more commas are left alone.
func FixArtistName(name string) (string, bool) {
	if strings.Count(name, ",") != 1 {
		return name, false
	}

	head, tail, _ := strings.Cut(name, ",")
	head = strings.TrimSpace(head)
	tail = strings.TrimSpace(tail)
	if head == "" || tail == "" {
		return name, false
	}

	return tail + " " + head, true
}
