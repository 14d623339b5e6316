package cmd

import (
	"fmt"

	"github.com/jfmyers9/tagfill/internal/config"
	"github.com/jfmyers9/tagfill/internal/enrich"
	"github.com/jfmyers9/tagfill/internal/metadata"
	"github.com/jfmyers9/tagfill/pkg/musicbrainz"
	"github.com/spf13/cobra"
)

var recordingsFlags enrichFlags

// recordingsCmd represents the recordings command
var recordingsCmd = &cobra.Command{
	Use:   "recordings",
	Short: "Add MusicBrainz recording ids",
	Long: `Add a recording_id column from a MusicBrainz recording search.

Each row is searched by song_name and artist_name and the best match's id is
written. Rows with no match get "Not found". Rows that already carry a
recording_id are kept as they are; pass --retry-not-found to search the
"Not found" rows again.

MusicBrainz allows one request per second per client, which is the default
rate.`,
	Example: `  tagfill recordings -i songs.csv -o reviewed_songs.csv
  tagfill recordings -i reviewed_songs.csv -o reviewed_songs.csv --retry-not-found`,
	RunE: runRecordings,
}

func init() {
	rootCmd.AddCommand(recordingsCmd)
	recordingsFlags.register(recordingsCmd)
}

func runRecordings(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := commandLogger(cfg.LogLevel)

	client, err := musicbrainz.NewClient(musicbrainz.Config{
		UserAgent: cfg.MusicBrainz.UserAgent,
		BaseURL:   cfg.MusicBrainz.BaseURL,
		Logger:    debugLogger{logger: logger.With().Str("component", "musicbrainz").Logger()},
	})
	if err != nil {
		return fmt.Errorf("failed to create MusicBrainz client: %w", err)
	}

	recordings := metadata.NewRecordingIDs(client)
	job := recordingsFlags.job(enrich.Job{
		Name:       "recordings",
		KeyColumns: metadata.RecordingKeys,
		Columns:    metadata.RecordingColumns,
		Fetch:      recordings.Fetch,
	}, cfg.Recordings.CheckpointInterval, cfg.MusicBrainz.RateLimit)

	return runEnrichment(cmd, &recordingsFlags, job, logger)
}
