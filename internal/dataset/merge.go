package dataset

import "strings"

// MergeByKey returns a copy of b with the rows of a appended whose key
// (the value in column) is usable and not already present in b. A key is
// usable when it is non-blank and not equal to sentinel. Rows of a sharing
// a key are added once. The result header is b's header followed by any
// columns only a has.
//
// MergeByKey(a, MergeByKey(a, b)) adds nothing: every usable key of a is
// already in the first result.
func MergeByKey(a, b *Table, column, sentinel string) (*Table, int, error) {
	aIdx, err := a.Require(column)
	if err != nil {
		return nil, 0, err
	}
	bIdx, err := b.Require(column)
	if err != nil {
		return nil, 0, err
	}

	out := b.Clone()

	// Map each column of a to its position in out.
	pos := make([]int, len(a.Header))
	for i, name := range a.Header {
		pos[i] = out.EnsureColumn(name)
	}

	seen := make(map[string]struct{}, len(b.Records))
	for _, rec := range b.Records {
		seen[strings.TrimSpace(rec[bIdx[0]])] = struct{}{}
	}

	added := 0
	for _, rec := range a.Records {
		key := strings.TrimSpace(rec[aIdx[0]])
		if key == "" || key == sentinel {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		row := make([]string, len(out.Header))
		for i, v := range rec {
			row[pos[i]] = v
		}
		out.Records = append(out.Records, row)
		added++
	}

	return out, added, nil
}
