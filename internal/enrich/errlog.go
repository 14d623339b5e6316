package enrich

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Failure is one failed lookup.
type Failure struct {
	Time    time.Time
	Job     string
	Row     int // zero-based
	Keys    []string
	Columns []string
	Err     error
}

// String renders the failure as one log line, e.g.
//
//	2024-05-01T10:00:00Z recordings row 3 ("Help!", "the beatles"): recording_id: no match
func (f Failure) String() string {
	return fmt.Sprintf("%s %s %s: %s: %v",
		f.Time.UTC().Format(time.RFC3339),
		f.Job,
		describeRow(f.Row, f.Keys),
		strings.Join(f.Columns, ", "),
		f.Err,
	)
}

// FailureLog receives failed lookups.
type FailureLog interface {
	Record(f Failure) error
}

// ErrorLog appends failures to a plain text file, one line each.
type ErrorLog struct {
	f *os.File
}

// OpenErrorLog opens path for appending, creating it if needed.
func OpenErrorLog(path string) (*ErrorLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open error log: %w", err)
	}
	return &ErrorLog{f: f}, nil
}

// Record appends f as a single line.
func (l *ErrorLog) Record(f Failure) error {
	line := strings.ReplaceAll(f.String(), "\n", " ")
	_, err := l.f.WriteString(line + "\n")
	return err
}

// Close closes the underlying file.
func (l *ErrorLog) Close() error {
	return l.f.Close()
}

type discardLog struct{}

func (discardLog) Record(Failure) error { return nil }
