package enrich

import (
	"time"

	"github.com/jfmyers9/tagfill/internal/dataset"
	"github.com/rs/zerolog"
)

// Tally counts the rows of a table by outcome. A row is resolved when all
// of its result fields are resolved, pending while any field is empty, and
// not found otherwise.
type Tally struct {
	Resolved int `json:"resolved"`
	NotFound int `json:"not_found"`
	Pending  int `json:"pending"`
	Total    int `json:"total"`
}

// Stats summarizes one Run.
type Stats struct {
	Total     int // rows in the table
	Skipped   int // rows already processed before this run
	Processed int // rows processed by this run
	Fetched   int // fetch calls made; duplicates of a row reuse its result
	Resolved  int // processed rows with every field resolved
	NotFound  int // processed rows with at least one sentinel
	Failures  int // error log entries written

	Checkpoints        int // successful saves, including the final one
	CheckpointFailures int

	Interrupted bool
	Elapsed     time.Duration

	// Tally describes the whole output table after the run.
	Tally Tally
}

func (s Stats) log(ev *zerolog.Event) *zerolog.Event {
	return ev.
		Int("total", s.Total).
		Int("skipped", s.Skipped).
		Int("processed", s.Processed).
		Int("fetched", s.Fetched).
		Int("resolved", s.Resolved).
		Int("not_found", s.NotFound).
		Int("failures", s.Failures).
		Int("checkpoints", s.Checkpoints).
		Int("checkpoint_failures", s.CheckpointFailures).
		Bool("interrupted", s.Interrupted).
		Dur("elapsed", s.Elapsed)
}

// TallyTable counts the rows of t by outcome for the given result columns.
// Columns absent from the header count as pending.
func TallyTable(t *dataset.Table, cols []Column) Tally {
	idx := make([]int, len(cols))
	for c, col := range cols {
		idx[c] = t.Index(col.Name)
	}

	tally := Tally{Total: t.Len()}
	fields := make([]Field, len(cols))
	for _, rec := range t.Records {
		for c, col := range cols {
			fields[c] = Field{}
			if idx[c] >= 0 {
				fields[c] = col.Parse(rec[idx[c]])
			}
		}
		switch {
		case !isProcessed(fields, false):
			tally.Pending++
		case isResolved(fields):
			tally.Resolved++
		default:
			tally.NotFound++
		}
	}
	return tally
}
