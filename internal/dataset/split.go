package dataset

import (
	"strconv"
	"strings"
)

// SplitByCode partitions t by the numeric value of column. Rows whose value
// equals code go to matched; all others, including blank and non-numeric
// cells, go to rest. Values are compared numerically because upstream
// tools store status codes as floats ("404.0").
func SplitByCode(t *Table, column string, code float64) (matched, rest *Table, err error) {
	idx, err := t.Require(column)
	if err != nil {
		return nil, nil, err
	}
	col := idx[0]

	matched = New(t.Header...)
	rest = New(t.Header...)

	for _, rec := range t.Records {
		v, perr := strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
		if perr == nil && v == code {
			matched.Records = append(matched.Records, rec)
			continue
		}
		rest.Records = append(rest.Records, rec)
	}

	return matched, rest, nil
}
