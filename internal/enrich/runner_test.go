package enrich

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/gofrs/flock"
	"github.com/jfmyers9/tagfill/internal/dataset"
	"github.com/rs/zerolog"
)

var errNoMatch = errors.New("no match")

// memLog collects failures in memory.
type memLog struct {
	mu       sync.Mutex
	failures []Failure
}

func (l *memLog) Record(f Failure) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures = append(l.failures, f)
	return nil
}

// countingStore counts Save calls and can be told to fail them.
type countingStore struct {
	*FileStore
	saves   int
	failErr error
}

func (s *countingStore) Save(path string, t *dataset.Table, m *Manifest) error {
	s.saves++
	if s.failErr != nil {
		return s.failErr
	}
	return s.FileStore.Save(path, t, m)
}

// fakeFetcher resolves keys from a map and counts calls.
type fakeFetcher struct {
	mu      sync.Mutex
	values  map[string]string
	calls   []string
	onFetch func(call int)
}

func (f *fakeFetcher) fetch(ctx context.Context, keys []string) ([]Field, error) {
	f.mu.Lock()
	f.calls = append(f.calls, keys[0])
	n := len(f.calls)
	f.mu.Unlock()

	if f.onFetch != nil {
		f.onFetch(n)
	}

	v, ok := f.values[keys[0]]
	if !ok {
		return []Field{NotFound(errNoMatch)}, nil
	}
	return []Field{Resolved(v)}, nil
}

func (f *fakeFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func mustTable(t *testing.T, s string) *dataset.Table {
	t.Helper()
	tbl, err := dataset.Read(strings.NewReader(s))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return tbl
}

func recordingsJob(out string, f *fakeFetcher, interval int) Job {
	return Job{
		Name:               "recordings",
		KeyColumns:         []string{"song_name", "artist_name"},
		Columns:            []Column{{Name: "recording_id", Sentinel: "Not found"}},
		Fetch:              f.fetch,
		CheckpointInterval: interval,
		OutputPath:         out,
	}
}

func readOutput(t *testing.T, path string) *dataset.Table {
	t.Helper()
	tbl, err := dataset.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return tbl
}

func column(t *testing.T, tbl *dataset.Table, name string) []string {
	t.Helper()
	idx := tbl.Index(name)
	if idx < 0 {
		t.Fatalf("column %q missing from %v", name, tbl.Header)
	}
	out := make([]string, tbl.Len())
	for i, rec := range tbl.Records {
		out[i] = rec[idx]
	}
	return out
}

func numberedInput(n int) string {
	var b strings.Builder
	b.WriteString("song_name,artist_name\n")
	for i := 1; i <= n; i++ {
		b.WriteString("song" + string(rune('0'+i)) + ",artist\n")
	}
	return b.String()
}

func TestRun_ResolvesPendingRows(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	input := mustTable(t, "song_name,artist_name,recording_id\n"+
		"Help!,the beatles,abc123\n"+
		"Yesterday,the beatles,\n"+
		"Nowhere,nobody,\n")

	f := &fakeFetcher{values: map[string]string{"Yesterday": "def456"}}
	log := &memLog{}
	r := NewRunner(Config{ErrorLog: log}, zerolog.Nop())

	stats, err := r.Run(context.Background(), input, recordingsJob(out, f, 50))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := column(t, readOutput(t, out), "recording_id")
	want := []string{"abc123", "def456", "Not found"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("recording_id = %v, want %v", got, want)
	}

	if f.count() != 2 {
		t.Errorf("expected 2 fetches, got %d", f.count())
	}
	if len(log.failures) != 1 {
		t.Fatalf("expected 1 error log entry, got %d", len(log.failures))
	}
	if fl := log.failures[0]; fl.Row != 2 || !errors.Is(fl.Err, errNoMatch) {
		t.Errorf("unexpected failure: %+v", fl)
	}

	if stats.Skipped != 1 || stats.Processed != 2 || stats.Resolved != 1 || stats.NotFound != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	wantTally := Tally{Resolved: 2, NotFound: 1, Total: 3}
	if stats.Tally != wantTally {
		t.Errorf("tally = %+v, want %+v", stats.Tally, wantTally)
	}

	// The input table is not modified.
	if input.Records[1][2] != "" {
		t.Error("Run modified its input table")
	}
}

func TestRun_CheckpointInterval(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	f := &fakeFetcher{values: map[string]string{}}
	store := &countingStore{FileStore: NewFileStore()}
	r := NewRunner(Config{Store: store}, zerolog.Nop())

	stats, err := r.Run(context.Background(), mustTable(t, numberedInput(5)), recordingsJob(out, f, 2))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Two checkpoints (after rows 2 and 4) plus the final save.
	if store.saves != 3 {
		t.Errorf("expected 3 saves, got %d", store.saves)
	}
	if stats.Checkpoints != 3 {
		t.Errorf("expected 3 checkpoints in stats, got %d", stats.Checkpoints)
	}
}

func TestRun_ResumeIsIdempotent(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	input := mustTable(t, numberedInput(4))
	f := &fakeFetcher{values: map[string]string{"song1": "a", "song3": "c"}}
	r := NewRunner(Config{}, zerolog.Nop())

	if _, err := r.Run(context.Background(), input, recordingsJob(out, f, 2)); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	first, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}

	f2 := &fakeFetcher{values: map[string]string{}}
	stats, err := r.Run(context.Background(), input, recordingsJob(out, f2, 2))
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if f2.count() != 0 {
		t.Errorf("second run fetched %d rows, want 0", f2.count())
	}
	if stats.Skipped != 4 {
		t.Errorf("expected 4 skipped rows, got %d", stats.Skipped)
	}

	second, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Errorf("output changed on resume:\n%s\nvs\n%s", first, second)
	}

	m, err := ReadManifest(ManifestPath(out))
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if !m.Complete || len(m.Processed) != 4 {
		t.Errorf("unexpected manifest: complete=%v processed=%d", m.Complete, len(m.Processed))
	}
}

func TestRun_InterruptAndResume(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	input := mustTable(t, numberedInput(5))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &fakeFetcher{
		values: map[string]string{"song1": "a", "song2": "b", "song3": "c", "song4": "d", "song5": "e"},
		onFetch: func(call int) {
			if call == 3 {
				cancel()
			}
		},
	}
	r := NewRunner(Config{}, zerolog.Nop())

	stats, err := r.Run(ctx, input, recordingsJob(out, f, 100))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !stats.Interrupted || stats.Processed != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	got := column(t, readOutput(t, out), "recording_id")
	if want := []string{"a", "b", "", "", ""}; !reflect.DeepEqual(got, want) {
		t.Errorf("after interrupt recording_id = %v, want %v", got, want)
	}

	f.onFetch = nil
	f.calls = nil
	if _, err := r.Run(context.Background(), input, recordingsJob(out, f, 100)); err != nil {
		t.Fatalf("resumed Run: %v", err)
	}
	if want := []string{"song3", "song4", "song5"}; !reflect.DeepEqual(f.calls, want) {
		t.Errorf("resumed run fetched %v, want %v", f.calls, want)
	}
	got = column(t, readOutput(t, out), "recording_id")
	if want := []string{"a", "b", "c", "d", "e"}; !reflect.DeepEqual(got, want) {
		t.Errorf("after resume recording_id = %v, want %v", got, want)
	}
}

func TestRun_DuplicateRowsFetchedOnce(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	input := mustTable(t, "song_name,artist_name\n"+
		"Help!,the beatles\n"+
		"Gone,nobody\n"+
		"Help!,the beatles\n"+
		"Gone,nobody\n")
	f := &fakeFetcher{values: map[string]string{"Help!": "abc"}}
	log := &memLog{}
	r := NewRunner(Config{ErrorLog: log}, zerolog.Nop())

	stats, err := r.Run(context.Background(), input, recordingsJob(out, f, 10))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.count() != 2 || stats.Fetched != 2 {
		t.Errorf("expected 2 fetches, got %d (stats %d)", f.count(), stats.Fetched)
	}
	if len(log.failures) != 1 {
		t.Errorf("expected 1 error log entry, got %d", len(log.failures))
	}

	got := column(t, readOutput(t, out), "recording_id")
	if want := []string{"abc", "Not found", "abc", "Not found"}; !reflect.DeepEqual(got, want) {
		t.Errorf("recording_id = %v, want %v", got, want)
	}
}

func TestRun_WholeRowFailure(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	errDown := errors.New("service unavailable")
	log := &memLog{}
	r := NewRunner(Config{ErrorLog: log}, zerolog.Nop())

	job := Job{
		Name:       "genres",
		KeyColumns: []string{"artist_name", "song_name"},
		Columns: []Column{
			{Name: "genres", Sentinel: "No genres found"},
			{Name: "tags", Sentinel: "No tags found"},
		},
		Fetch: func(ctx context.Context, keys []string) ([]Field, error) {
			return nil, errDown
		},
		CheckpointInterval: 10,
		OutputPath:         out,
	}

	if _, err := r.Run(context.Background(), mustTable(t, "artist_name,song_name\na,b\n"), job); err != nil {
		t.Fatalf("Run: %v", err)
	}

	tbl := readOutput(t, out)
	if got := tbl.Records[0]; !reflect.DeepEqual(got, []string{"a", "b", "No genres found", "No tags found"}) {
		t.Errorf("row = %v", got)
	}
	if len(log.failures) != 1 {
		t.Fatalf("expected one entry for the row, got %d", len(log.failures))
	}
	if fl := log.failures[0]; !reflect.DeepEqual(fl.Columns, []string{"genres", "tags"}) || !errors.Is(fl.Err, errDown) {
		t.Errorf("unexpected failure: %+v", fl)
	}
}

func TestRun_NormalizesFetchResults(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
		want   []string
		logged int
	}{
		{
			name:   "empty resolved value",
			fields: []Field{Resolved("  "), Resolved("rock")},
			want:   []string{"No genres found", "rock"},
			logged: 1,
		},
		{
			name:   "pending field",
			fields: []Field{{}, Resolved("rock")},
			want:   []string{"No genres found", "rock"},
			logged: 1,
		},
		{
			name:   "wrong field count",
			fields: []Field{Resolved("rock")},
			want:   []string{"No genres found", "No tags found"},
			logged: 1,
		},
		{
			name:   "both not found",
			fields: []Field{NotFound(errNoMatch), NotFound(errNoMatch)},
			want:   []string{"No genres found", "No tags found"},
			logged: 2,
		},
		{
			name:   "value trimmed",
			fields: []Field{Resolved(" pop "), Resolved("rock")},
			want:   []string{"pop", "rock"},
			logged: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "out.csv")
			log := &memLog{}
			r := NewRunner(Config{ErrorLog: log}, zerolog.Nop())
			job := Job{
				Name:       "genres",
				KeyColumns: []string{"artist_name"},
				Columns: []Column{
					{Name: "genres", Sentinel: "No genres found"},
					{Name: "tags", Sentinel: "No tags found"},
				},
				Fetch: func(ctx context.Context, keys []string) ([]Field, error) {
					return tt.fields, nil
				},
				CheckpointInterval: 10,
				OutputPath:         out,
			}

			if _, err := r.Run(context.Background(), mustTable(t, "artist_name\na\n"), job); err != nil {
				t.Fatalf("Run: %v", err)
			}

			if got := readOutput(t, out).Records[0][1:]; !reflect.DeepEqual(got, tt.want) {
				t.Errorf("cells = %v, want %v", got, tt.want)
			}
			if len(log.failures) != tt.logged {
				t.Errorf("expected %d log entries, got %d", tt.logged, len(log.failures))
			}
		})
	}
}

func TestRun_MissingKeyFailsBeforeFetching(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	input := mustTable(t, "song_name,artist_name\n"+
		"Help!,the beatles\n"+
		"Yesterday, \n")
	f := &fakeFetcher{values: map[string]string{}}
	r := NewRunner(Config{}, zerolog.Nop())

	_, err := r.Run(context.Background(), input, recordingsJob(out, f, 10))
	if !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
	if !strings.Contains(err.Error(), "row 2") {
		t.Errorf("error should name the row: %v", err)
	}
	if f.count() != 0 {
		t.Errorf("expected no fetches, got %d", f.count())
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("expected no output file, stat err = %v", err)
	}
	if !IsConfigError(err) {
		t.Error("expected a configuration error")
	}
}

func TestRun_MissingKeyColumn(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	r := NewRunner(Config{}, zerolog.Nop())
	f := &fakeFetcher{}

	_, err := r.Run(context.Background(), mustTable(t, "song_name\nHelp!\n"), recordingsJob(out, f, 10))
	if !errors.Is(err, dataset.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestRun_InvalidJob(t *testing.T) {
	f := &fakeFetcher{}
	base := recordingsJob(filepath.Join(t.TempDir(), "out.csv"), f, 10)

	tests := []struct {
		name   string
		modify func(j *Job)
	}{
		{"no name", func(j *Job) { j.Name = "" }},
		{"no keys", func(j *Job) { j.KeyColumns = nil }},
		{"no columns", func(j *Job) { j.Columns = nil }},
		{"no fetch", func(j *Job) { j.Fetch = nil }},
		{"zero interval", func(j *Job) { j.CheckpointInterval = 0 }},
		{"no output", func(j *Job) { j.OutputPath = "" }},
		{"no sentinel", func(j *Job) { j.Columns = []Column{{Name: "recording_id"}} }},
		{"bad identity", func(j *Job) { j.Identity = "hash" }},
	}

	r := NewRunner(Config{}, zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := base
			tt.modify(&job)
			_, err := r.Run(context.Background(), mustTable(t, numberedInput(1)), job)
			if !errors.Is(err, ErrInvalidJob) {
				t.Errorf("expected ErrInvalidJob, got %v", err)
			}
		})
	}
}

func TestRun_LockedOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	lock := flock.New(out + ".lock")
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer lock.Unlock()

	f := &fakeFetcher{}
	r := NewRunner(Config{}, zerolog.Nop())
	_, err = r.Run(context.Background(), mustTable(t, numberedInput(1)), recordingsJob(out, f, 10))
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if f.count() != 0 {
		t.Errorf("expected no fetches, got %d", f.count())
	}
}

func TestRun_ManifestMismatch(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	input := mustTable(t, numberedInput(2))
	f := &fakeFetcher{values: map[string]string{"song1": "a"}}
	r := NewRunner(Config{}, zerolog.Nop())

	if _, err := r.Run(context.Background(), input, recordingsJob(out, f, 10)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	tests := []struct {
		name   string
		modify func(j *Job)
	}{
		{"job name", func(j *Job) { j.Name = "genres" }},
		{"sentinel", func(j *Job) { j.Columns = []Column{{Name: "recording_id", Sentinel: "none"}} }},
		{"identity", func(j *Job) { j.Identity = IdentityIndex }},
		{"key columns", func(j *Job) { j.KeyColumns = []string{"song_name"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := recordingsJob(out, f, 10)
			tt.modify(&job)
			_, err := r.Run(context.Background(), input, job)
			if !errors.Is(err, ErrManifestMismatch) {
				t.Errorf("expected ErrManifestMismatch, got %v", err)
			}
		})
	}
}

func TestRun_IndexIdentity(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	// Same key twice: index mode fetches both.
	input := mustTable(t, "song_name,artist_name\nsong1,artist\nsong1,artist\n")
	f := &fakeFetcher{values: map[string]string{"song1": "a"}}
	r := NewRunner(Config{}, zerolog.Nop())

	job := recordingsJob(out, f, 10)
	job.Identity = IdentityIndex
	if _, err := r.Run(context.Background(), input, job); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.count() != 2 {
		t.Errorf("expected 2 fetches, got %d", f.count())
	}

	// A different row count cannot be resumed by position.
	_, err := r.Run(context.Background(), mustTable(t, numberedInput(3)), job)
	if !errors.Is(err, ErrManifestMismatch) {
		t.Errorf("expected ErrManifestMismatch, got %v", err)
	}
}

func TestRun_ResumesFromOutputWithoutManifest(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	prior := "song_name,artist_name,recording_id\n" +
		"song1,artist,a\n" +
		"song2,artist,Not found\n" +
		"song3,artist,\n"
	if err := os.WriteFile(out, []byte(prior), 0644); err != nil {
		t.Fatal(err)
	}

	f := &fakeFetcher{values: map[string]string{"song3": "c"}}
	r := NewRunner(Config{}, zerolog.Nop())
	if _, err := r.Run(context.Background(), mustTable(t, numberedInput(3)), recordingsJob(out, f, 10)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if want := []string{"song3"}; !reflect.DeepEqual(f.calls, want) {
		t.Errorf("fetched %v, want %v", f.calls, want)
	}
	got := column(t, readOutput(t, out), "recording_id")
	if want := []string{"a", "Not found", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("recording_id = %v, want %v", got, want)
	}
}

func TestRun_RetryNotFound(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	input := mustTable(t, "song_name,artist_name,recording_id\n"+
		"song1,artist,a\n"+
		"song2,artist,Not found\n")
	f := &fakeFetcher{values: map[string]string{"song2": "b"}}
	r := NewRunner(Config{}, zerolog.Nop())

	job := recordingsJob(out, f, 10)
	if _, err := r.Run(context.Background(), input, job); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.count() != 0 {
		t.Fatalf("sentinel rows should be skipped by default, got %d fetches", f.count())
	}

	job.RetryNotFound = true
	if _, err := r.Run(context.Background(), input, job); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := []string{"song2"}; !reflect.DeepEqual(f.calls, want) {
		t.Errorf("fetched %v, want %v", f.calls, want)
	}
	got := column(t, readOutput(t, out), "recording_id")
	if want := []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("recording_id = %v, want %v", got, want)
	}
}

func TestRun_RetryNotFoundResumeKeepsResolved(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	input := mustTable(t, "song_name,artist_name,recording_id\n"+
		"song1,artist,Not found\n"+
		"song2,artist,Not found\n")
	r := NewRunner(Config{}, zerolog.Nop())

	first := &fakeFetcher{values: map[string]string{"song1": "a", "song2": "b"}}
	job := recordingsJob(out, first, 10)
	job.RetryNotFound = true
	if _, err := r.Run(context.Background(), input, job); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Rows resolved by the first run are restored, not looked up again.
	second := &fakeFetcher{values: map[string]string{}}
	job.Fetch = second.fetch
	stats, err := r.Run(context.Background(), input, job)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if second.count() != 0 {
		t.Errorf("expected no fetches on resume, got %v", second.calls)
	}
	if stats.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", stats.Skipped)
	}
	got := column(t, readOutput(t, out), "recording_id")
	if want := []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("recording_id = %v, want %v", got, want)
	}
}

func TestRun_IndexIdentityWithoutManifest(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	prior := "song_name,artist_name,recording_id\n" +
		"song1,artist,a\n" +
		"song2,artist,b\n"
	if err := os.WriteFile(out, []byte(prior), 0644); err != nil {
		t.Fatal(err)
	}

	f := &fakeFetcher{values: map[string]string{}}
	r := NewRunner(Config{}, zerolog.Nop())
	job := recordingsJob(out, f, 10)
	job.Identity = IdentityIndex

	_, err := r.Run(context.Background(), mustTable(t, numberedInput(3)), job)
	if !errors.Is(err, ErrManifestMismatch) {
		t.Fatalf("expected ErrManifestMismatch, got %v", err)
	}
	if f.count() != 0 {
		t.Errorf("expected no fetches, got %d", f.count())
	}
}

func TestRun_CheckpointFailures(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	errDisk := errors.New("disk full")
	store := &countingStore{FileStore: NewFileStore(), failErr: errDisk}
	f := &fakeFetcher{values: map[string]string{}}
	r := NewRunner(Config{Store: store}, zerolog.Nop())

	stats, err := r.Run(context.Background(), mustTable(t, numberedInput(5)), recordingsJob(out, f, 2))
	if !errors.Is(err, errDisk) {
		t.Fatalf("expected final save error, got %v", err)
	}
	if f.count() != 5 || stats.Processed != 5 {
		t.Errorf("run should continue past failed checkpoints: fetched %d, processed %d", f.count(), stats.Processed)
	}
	if stats.CheckpointFailures != 2 {
		t.Errorf("expected 2 checkpoint failures, got %d", stats.CheckpointFailures)
	}
	if stats.Checkpoints != 0 {
		t.Errorf("expected no successful checkpoints, got %d", stats.Checkpoints)
	}
}

func TestRun_Progress(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	var seen []Progress
	f := &fakeFetcher{values: map[string]string{"song1": "a", "song2": "b"}}
	r := NewRunner(Config{Progress: func(p Progress) { seen = append(seen, p) }}, zerolog.Nop())

	if _, err := r.Run(context.Background(), mustTable(t, numberedInput(2)), recordingsJob(out, f, 10)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 progress calls, got %d", len(seen))
	}
	last := seen[1]
	if last.Row != 1 || last.Done != 2 || last.Todo != 2 || last.Fields[0].Value != "b" {
		t.Errorf("unexpected progress: %+v", last)
	}
}
