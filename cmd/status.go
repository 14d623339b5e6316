package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jfmyers9/tagfill/internal/dataset"
	"github.com/jfmyers9/tagfill/internal/enrich"
	"github.com/jfmyers9/tagfill/internal/metadata"
	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status <output.csv>...",
	Short: "Show how far enrichment outputs have come",
	Long: `Show resolved, not found and pending row counts of enrichment outputs.

Counts are taken from the CSV itself. The checkpoint manifest written next
to it tells which job produced the file; files without one are checked for
the genres and recording_id columns.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	rows := make([][]string, 0, len(args))
	for _, path := range args {
		row, err := statusRow(path)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"File", "Job", "Rows", "Resolved", "Not found", "Pending", "Done", "Updated"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
	return nil
}

func statusRow(path string) ([]string, error) {
	t, err := dataset.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	job, cols, updated := "-", guessColumns(t), "-"
	m, err := enrich.ReadManifest(enrich.ManifestPath(path))
	switch {
	case err == nil:
		job = m.Job
		cols = make([]enrich.Column, len(m.ResultColumns))
		for i, c := range m.ResultColumns {
			cols[i] = enrich.Column{Name: c.Name, Sentinel: c.Sentinel}
		}
		updated = humanize.Time(m.UpdatedAt)
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	if len(cols) == 0 {
		return []string{path, job, formatCount(t.Len()), "-", "-", "-", "-", updated}, nil
	}

	tally := enrich.TallyTable(t, cols)
	return []string{
		path,
		job,
		formatCount(tally.Total),
		formatCount(tally.Resolved),
		formatCount(tally.NotFound),
		formatCount(tally.Pending),
		percent(tally.Total-tally.Pending, tally.Total),
		updated,
	}, nil
}

// guessColumns returns the result columns of whichever job's columns t
// carries.
func guessColumns(t *dataset.Table) []enrich.Column {
	switch {
	case t.Index(metadata.GenresColumn) >= 0:
		return metadata.GenreColumns
	case t.Index(metadata.RecordingIDColumn) >= 0:
		return metadata.RecordingColumns
	}
	return nil
}
