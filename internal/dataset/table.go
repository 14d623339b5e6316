// Package dataset reads and writes CSV song tables and implements the
// one-shot hygiene passes: splitting by status code, un-inverting artist
// names, and merging tables on a key column.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrMissingColumn is returned when a referenced column is not in the header.
var ErrMissingColumn = errors.New("missing required column")

// Table is an in-memory CSV file: an ordered header and ordered records.
// Every record has exactly len(Header) cells.
type Table struct {
	Header  []string
	Records [][]string
}

// New creates an empty table with the given header.
func New(header ...string) *Table {
	return &Table{Header: append([]string(nil), header...)}
}

// Read parses CSV from r. The first record is the header.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("read header: empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{Header: header}
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(rec) > len(header) {
			return nil, fmt.Errorf("row %d has %d columns, header has %d", row, len(rec), len(header))
		}
		// Trailing empty cells are sometimes dropped by other tools.
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		t.Records = append(t.Records, rec)
	}

	return t, nil
}

// ReadFile reads a CSV file from path.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Write renders the table as CSV to w.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Records); err != nil {
		return err
	}
	return cw.Error()
}

// WriteFileAtomic writes the table to path+".tmp" and renames it over
// path, so path always holds either the old or the new complete file.
func WriteFileAtomic(path string, t *Table) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if err := t.Write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, path)
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Records)
}

// Index returns the position of column in the header, or -1.
// Names are compared case-insensitively, ignoring surrounding space.
func (t *Table) Index(column string) int {
	for i, name := range t.Header {
		if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(column)) {
			return i
		}
	}
	return -1
}

// Require returns the indexes of columns, or ErrMissingColumn naming the
// first one absent from the header.
func (t *Table) Require(columns ...string) ([]int, error) {
	idx := make([]int, len(columns))
	for i, col := range columns {
		idx[i] = t.Index(col)
		if idx[i] < 0 {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, col)
		}
	}
	return idx, nil
}

// EnsureColumn returns the index of column, appending it (with empty cells)
// when the header lacks it.
func (t *Table) EnsureColumn(column string) int {
	if i := t.Index(column); i >= 0 {
		return i
	}
	t.Header = append(t.Header, column)
	for i := range t.Records {
		t.Records[i] = append(t.Records[i], "")
	}
	return len(t.Header) - 1
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{
		Header:  append([]string(nil), t.Header...),
		Records: make([][]string, len(t.Records)),
	}
	for i, rec := range t.Records {
		c.Records[i] = append([]string(nil), rec...)
	}
	return c
}
