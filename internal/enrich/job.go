package enrich

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/time/rate"
)

// IdentityMode selects how rows are matched against a previous run.
type IdentityMode string

const (
	// IdentityKey matches rows by the values of the key columns.
	IdentityKey IdentityMode = "key"
	// IdentityIndex matches rows by position. Use it when the key columns
	// are not unique and the input file does not change between runs.
	IdentityIndex IdentityMode = "index"
)

// FetchFunc looks up the enrichment fields for one row. keys holds the
// row's key column values in Job.KeyColumns order. It returns one Field
// per Job.Columns entry, or an error when nothing could be fetched at all.
type FetchFunc func(ctx context.Context, keys []string) ([]Field, error)

// Job describes one enrichment pass.
type Job struct {
	Name       string       // recorded in the manifest and logs
	KeyColumns []string     // fetch arguments, and row identity in IdentityKey mode
	Columns    []Column     // result columns, appended to the table if absent
	Identity   IdentityMode // defaults to IdentityKey
	Fetch      FetchFunc

	// CheckpointInterval is the number of processed rows between saves.
	CheckpointInterval int

	// OutputPath receives checkpoints and the final result.
	OutputPath string

	// RateLimit caps fetches per second. Zero disables throttling.
	RateLimit rate.Limit

	// RetryNotFound treats rows holding a sentinel as unprocessed.
	RetryNotFound bool
}

// Configuration errors. These abort a run before any row is fetched.
var (
	ErrInvalidJob       = errors.New("invalid enrichment job")
	ErrMissingKey       = errors.New("row is missing a key value")
	ErrManifestMismatch = errors.New("checkpoint manifest does not match job")
	ErrLocked           = errors.New("output is locked by another run")
)

func (j *Job) validate() error {
	if j.Identity == "" {
		j.Identity = IdentityKey
	}

	switch {
	case j.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidJob)
	case len(j.KeyColumns) == 0:
		return fmt.Errorf("%w: at least one key column is required", ErrInvalidJob)
	case len(j.Columns) == 0:
		return fmt.Errorf("%w: at least one result column is required", ErrInvalidJob)
	case j.Fetch == nil:
		return fmt.Errorf("%w: fetch function is required", ErrInvalidJob)
	case j.CheckpointInterval <= 0:
		return fmt.Errorf("%w: checkpoint interval must be positive", ErrInvalidJob)
	case j.OutputPath == "":
		return fmt.Errorf("%w: output path is required", ErrInvalidJob)
	case j.Identity != IdentityKey && j.Identity != IdentityIndex:
		return fmt.Errorf("%w: unknown identity mode %q", ErrInvalidJob, j.Identity)
	}

	for _, c := range j.Columns {
		if c.Name == "" || c.Sentinel == "" {
			return fmt.Errorf("%w: result columns need a name and a sentinel", ErrInvalidJob)
		}
	}

	return nil
}

// identity returns the resume key of row i.
func (j *Job) identity(i int, keys []string) string {
	if j.Identity == IdentityIndex {
		return "#" + strconv.Itoa(i)
	}
	return strings.Join(keys, "\x1f")
}

// describeRow renders a row for logs: row 3 ("the beatles", "Yesterday").
func describeRow(i int, keys []string) string {
	quoted := make([]string, len(keys))
	for k, v := range keys {
		quoted[k] = strconv.Quote(v)
	}
	return fmt.Sprintf("row %d (%s)", i+1, strings.Join(quoted, ", "))
}
