// Package enrich implements the resumable enrichment pass: it walks a song
// table in order, fetches metadata for every row that has not been
// processed yet, and checkpoints progress so an interrupted run picks up
// where it stopped.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jfmyers9/tagfill/internal/dataset"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Config holds runner collaborators. Zero values select defaults.
type Config struct {
	Store    Store        // defaults to a FileStore
	ErrorLog FailureLog   // defaults to discarding failures
	Progress ProgressFunc // optional per-row callback
}

// ProgressFunc is called after every processed row.
type ProgressFunc func(p Progress)

// Progress describes one processed row.
type Progress struct {
	Row     int // zero-based position in the table
	Done    int // rows processed so far in this run
	Todo    int // rows this run has to process in total
	Keys    []string
	Columns []Column
	Fields  []Field
	Reused  bool // result copied from an earlier row with the same identity
}

// Runner drives enrichment jobs.
type Runner struct {
	store    Store
	errLog   FailureLog
	progress ProgressFunc
	logger   zerolog.Logger
	now      func() time.Time
}

// NewRunner creates a Runner.
func NewRunner(cfg Config, logger zerolog.Logger) *Runner {
	store := cfg.Store
	if store == nil {
		store = NewFileStore()
	}
	errLog := cfg.ErrorLog
	if errLog == nil {
		errLog = discardLog{}
	}

	return &Runner{
		store:    store,
		errLog:   errLog,
		progress: cfg.Progress,
		logger:   logger.With().Str("component", "enrich").Logger(),
		now:      time.Now,
	}
}

// run is the state of one Run call.
type run struct {
	job     *Job
	table   *dataset.Table
	keyIdx  []int
	colIdx  []int
	fields  [][]Field
	ids     []string
	runID   string
	logger  zerolog.Logger
	stats   Stats
	started time.Time
}

// Run enriches a copy of input according to job and returns the counts.
//
// Rows already processed, either in the input itself or in the output of a
// previous run, are never fetched again. Fetch failures are recorded as
// NotFound fields and in the error log; they never abort the run. The
// table is saved every job.CheckpointInterval processed rows and once more
// at the end. Only the final save's failure is returned as an error.
//
// If ctx is cancelled, the row in flight is discarded, a final save is
// attempted and ctx.Err() is returned.
func (r *Runner) Run(ctx context.Context, input *dataset.Table, job Job) (Stats, error) {
	if err := job.validate(); err != nil {
		return Stats{}, err
	}

	unlock, err := r.store.Lock(job.OutputPath)
	if err != nil {
		return Stats{}, err
	}
	defer func() {
		if err := unlock(); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to release output lock")
		}
	}()

	st, err := r.prepare(input, &job)
	if err != nil {
		return Stats{}, err
	}

	if err := r.resume(st); err != nil {
		return Stats{}, err
	}

	todo, err := st.pendingRows()
	if err != nil {
		return Stats{}, err
	}
	st.stats.Skipped = st.stats.Total - len(todo)

	st.logger.Info().
		Int("total", st.stats.Total).
		Int("skipped", st.stats.Skipped).
		Int("todo", len(todo)).
		Str("output", job.OutputPath).
		Msg("Starting enrichment")

	runErr := r.process(ctx, st, todo)

	st.stats.Tally = st.tally()
	if err := r.save(st, true); err != nil {
		st.stats.Elapsed = r.now().Sub(st.started)
		st.logger.Error().Err(err).Msg("Final save failed")
		return st.stats, fmt.Errorf("final save failed: %w", err)
	}
	st.stats.Elapsed = r.now().Sub(st.started)

	ev := st.logger.Info()
	if runErr != nil {
		ev = st.logger.Warn().Err(runErr)
	}
	st.stats.log(ev).Msg("Enrichment finished")

	return st.stats, runErr
}

// prepare copies the input and resolves the column schema.
func (r *Runner) prepare(input *dataset.Table, job *Job) (*run, error) {
	table := input.Clone()

	keyIdx, err := table.Require(job.KeyColumns...)
	if err != nil {
		return nil, err
	}

	colIdx := make([]int, len(job.Columns))
	for i, c := range job.Columns {
		colIdx[i] = table.EnsureColumn(c.Name)
	}

	st := &run{
		job:     job,
		table:   table,
		keyIdx:  keyIdx,
		colIdx:  colIdx,
		fields:  make([][]Field, table.Len()),
		ids:     make([]string, table.Len()),
		runID:   uuid.NewString(),
		started: r.now(),
	}
	st.logger = r.logger.With().Str("job", job.Name).Str("run_id", st.runID).Logger()
	st.stats.Total = table.Len()

	for i := range table.Records {
		st.ids[i] = job.identity(i, st.keys(i))
		st.fields[i] = make([]Field, len(job.Columns))
		for c, col := range job.Columns {
			st.fields[i][c] = col.Parse(table.Records[i][colIdx[c]])
		}
	}

	return st, nil
}

// resume copies results of a previous run into rows the input has not
// processed itself. Values resolved in the input are kept.
func (r *Runner) resume(st *run) error {
	prior, manifest, err := r.store.Load(st.job.OutputPath)
	if err != nil {
		return err
	}

	var allowed map[string]struct{}
	if manifest != nil {
		if err := manifest.check(st.job, st.table.Len()); err != nil {
			return err
		}
		allowed = make(map[string]struct{}, len(manifest.Processed))
		for _, id := range manifest.Processed {
			allowed[id] = struct{}{}
		}
	}

	if prior == nil {
		return nil
	}
	if manifest == nil && st.job.Identity == IdentityIndex && prior.Len() != st.table.Len() {
		return fmt.Errorf("%w: previous output has %d rows, input has %d", ErrManifestMismatch, prior.Len(), st.table.Len())
	}

	previous, err := priorResults(prior, st.job, allowed)
	if err != nil {
		return err
	}

	restored := 0
	for i := range st.fields {
		if isProcessed(st.fields[i], st.job.RetryNotFound) {
			continue
		}
		if fields, ok := previous[st.ids[i]]; ok {
			st.mergeFields(i, fields)
			restored++
		}
	}

	st.logger.Info().
		Int("restored", restored).
		Bool("manifest", manifest != nil).
		Msg("Resuming from previous output")

	return nil
}

// priorResults indexes the processed rows of a previous output by identity.
func priorResults(prior *dataset.Table, job *Job, allowed map[string]struct{}) (map[string][]Field, error) {
	keyIdx, err := prior.Require(job.KeyColumns...)
	if err != nil {
		return nil, fmt.Errorf("%w: previous output: %v", ErrManifestMismatch, err)
	}

	colIdx := make([]int, len(job.Columns))
	for c, col := range job.Columns {
		colIdx[c] = prior.Index(col.Name)
	}

	out := make(map[string][]Field, prior.Len())
	for i, rec := range prior.Records {
		keys := make([]string, len(keyIdx))
		for k, idx := range keyIdx {
			keys[k] = rec[idx]
		}
		id := job.identity(i, keys)
		if allowed != nil {
			if _, ok := allowed[id]; !ok {
				continue
			}
		}

		fields := make([]Field, len(job.Columns))
		for c, col := range job.Columns {
			if colIdx[c] >= 0 {
				fields[c] = col.Parse(rec[colIdx[c]])
			}
		}
		if isProcessed(fields, false) {
			out[id] = fields
		}
	}

	return out, nil
}

// pendingRows lists the rows to fetch, checking that each has its keys.
func (st *run) pendingRows() ([]int, error) {
	var todo []int
	for i := range st.fields {
		if isProcessed(st.fields[i], st.job.RetryNotFound) {
			continue
		}
		for k, v := range st.keys(i) {
			if strings.TrimSpace(v) == "" {
				return nil, fmt.Errorf("%w: %s has no %s", ErrMissingKey, describeRow(i, st.keys(i)), st.job.KeyColumns[k])
			}
		}
		todo = append(todo, i)
	}
	return todo, nil
}

// process fetches each row in todo, in order.
func (r *Runner) process(ctx context.Context, st *run, todo []int) error {
	var limiter *rate.Limiter
	if st.job.RateLimit > 0 {
		limiter = rate.NewLimiter(st.job.RateLimit, 1)
	}

	// Results of this run by identity, so duplicate rows cost one fetch.
	seen := make(map[string][]Field)
	sinceCheckpoint := 0

	for n, i := range todo {
		if err := ctx.Err(); err != nil {
			st.stats.Interrupted = true
			return err
		}

		keys := st.keys(i)
		fields, reused := seen[st.ids[i]]
		if !reused {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					st.stats.Interrupted = true
					return err
				}
			}

			var rowErr error
			fields, rowErr = r.fetch(ctx, st, keys)
			if err := ctx.Err(); err != nil {
				// The lookup was cut short; leave the row pending.
				st.stats.Interrupted = true
				return err
			}
			seen[st.ids[i]] = fields
			r.recordFailures(st, i, keys, fields, rowErr)
		}

		st.mergeFields(i, fields)
		st.stats.Processed++
		if isResolved(st.fields[i]) {
			st.stats.Resolved++
		} else {
			st.stats.NotFound++
		}

		if r.progress != nil {
			r.progress(Progress{
				Row:     i,
				Done:    n + 1,
				Todo:    len(todo),
				Keys:    keys,
				Columns: st.job.Columns,
				Fields:  st.fields[i],
				Reused:  reused,
			})
		}

		sinceCheckpoint++
		if sinceCheckpoint == st.job.CheckpointInterval {
			sinceCheckpoint = 0
			r.checkpoint(st)
		}
	}

	return nil
}

// fetch calls the job's fetch function and normalizes its result to one
// Resolved or NotFound field per column. A non-nil error means the whole
// row failed and every field carries it.
func (r *Runner) fetch(ctx context.Context, st *run, keys []string) ([]Field, error) {
	st.stats.Fetched++
	n := len(st.job.Columns)

	fields, err := st.job.Fetch(ctx, keys)
	if err == nil && len(fields) != n {
		err = fmt.Errorf("fetch returned %d fields for %d columns", len(fields), n)
	}
	if err != nil {
		out := make([]Field, n)
		for c := range out {
			out[c] = NotFound(err)
		}
		return out, err
	}

	out := make([]Field, n)
	for c, f := range fields {
		switch {
		case f.State == StateResolved && strings.TrimSpace(f.Value) != "":
			out[c] = Resolved(strings.TrimSpace(f.Value))
		case f.State == StateNotFound && f.Err != nil:
			out[c] = f
		default:
			out[c] = NotFound(ErrEmptyResult)
		}
	}
	return out, nil
}

// recordFailures writes the error log lines for one fetched row: a single
// line naming every column when the whole row failed, otherwise one line
// per NotFound field.
func (r *Runner) recordFailures(st *run, i int, keys []string, fields []Field, rowErr error) {
	if rowErr != nil {
		names := make([]string, len(st.job.Columns))
		for c, col := range st.job.Columns {
			names[c] = col.Name
		}
		r.recordFailure(st, i, keys, names, rowErr)
		return
	}

	for c, f := range fields {
		if f.State == StateNotFound {
			r.recordFailure(st, i, keys, []string{st.job.Columns[c].Name}, f.Err)
		}
	}
}

func (r *Runner) recordFailure(st *run, i int, keys, columns []string, err error) {
	st.stats.Failures++
	st.logger.Warn().
		Int("row", i+1).
		Strs("keys", keys).
		Strs("columns", columns).
		Err(err).
		Msg("Lookup failed")

	failure := Failure{
		Time:    r.now(),
		Job:     st.job.Name,
		Row:     i,
		Keys:    keys,
		Columns: columns,
		Err:     err,
	}
	if err := r.errLog.Record(failure); err != nil {
		st.logger.Error().Err(err).Msg("Failed to append to error log")
	}
}

// checkpoint saves progress. Failures are logged and retried at the next
// interval.
func (r *Runner) checkpoint(st *run) {
	tally := st.tally()
	if err := r.save(st, false); err != nil {
		st.stats.CheckpointFailures++
		st.logger.Error().Err(err).Msg("Checkpoint failed, continuing in memory")
		return
	}

	st.logger.Info().
		Int("resolved", tally.Resolved).
		Int("not_found", tally.NotFound).
		Int("pending", tally.Pending).
		Int("total", tally.Total).
		Dur("elapsed", r.now().Sub(st.started)).
		Msg("Checkpoint saved")
}

func (r *Runner) save(st *run, final bool) error {
	tally := st.tally()
	m := &Manifest{
		Version:       ManifestVersion,
		Job:           st.job.Name,
		Identity:      st.job.Identity,
		KeyColumns:    st.job.KeyColumns,
		ResultColumns: manifestColumns(st.job.Columns),
		RunID:         st.runID,
		UpdatedAt:     r.now().UTC(),
		Complete:      final && tally.Pending == 0,
		InputRows:     st.table.Len(),
		Tally:         tally,
		Processed:     st.processedIDs(),
	}

	if err := r.store.Save(st.job.OutputPath, st.table, m); err != nil {
		return err
	}
	st.stats.Checkpoints++
	return nil
}

func (st *run) keys(i int) []string {
	keys := make([]string, len(st.keyIdx))
	for k, idx := range st.keyIdx {
		keys[k] = st.table.Records[i][idx]
	}
	return keys
}

// setFields replaces the fields of row i and renders them into the table.
func (st *run) setFields(i int, fields []Field) {
	for c, f := range fields {
		st.fields[i][c] = f
		st.table.Records[i][st.colIdx[c]] = st.job.Columns[c].Render(f)
	}
}

// mergeFields applies fetched fields to row i without downgrading values
// that were already resolved.
func (st *run) mergeFields(i int, fields []Field) {
	merged := make([]Field, len(fields))
	for c, f := range fields {
		if st.fields[i][c].State == StateResolved {
			merged[c] = st.fields[i][c]
			continue
		}
		merged[c] = f
	}
	st.setFields(i, merged)
}

func (st *run) processedIDs() []string {
	ids := make([]string, 0, len(st.ids))
	seen := make(map[string]struct{}, len(st.ids))
	for i, id := range st.ids {
		if !isProcessed(st.fields[i], false) {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func (st *run) tally() Tally {
	t := Tally{Total: len(st.fields)}
	for _, fields := range st.fields {
		switch {
		case !isProcessed(fields, false):
			t.Pending++
		case isResolved(fields):
			t.Resolved++
		default:
			t.NotFound++
		}
	}
	return t
}

// isProcessed reports whether no field is pending. With retryNotFound,
// sentinel fields count as pending too.
func isProcessed(fields []Field, retryNotFound bool) bool {
	for _, f := range fields {
		if f.State == StatePending {
			return false
		}
		if retryNotFound && f.State == StateNotFound {
			return false
		}
	}
	return true
}

func isResolved(fields []Field) bool {
	for _, f := range fields {
		if f.State != StateResolved {
			return false
		}
	}
	return true
}

// IsConfigError reports whether err is a configuration error that aborted
// a run before processing.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidJob) ||
		errors.Is(err, ErrMissingKey) ||
		errors.Is(err, ErrManifestMismatch) ||
		errors.Is(err, ErrLocked) ||
		errors.Is(err, dataset.ErrMissingColumn)
}
