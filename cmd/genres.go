package cmd

import (
	"errors"
	"fmt"

	"github.com/jfmyers9/tagfill/internal/config"
	"github.com/jfmyers9/tagfill/internal/enrich"
	"github.com/jfmyers9/tagfill/internal/metadata"
	"github.com/jfmyers9/tagfill/pkg/lastfm"
	"github.com/spf13/cobra"
)

var genresFlags enrichFlags

// genresCmd represents the genres command
var genresCmd = &cobra.Command{
	Use:   "genres",
	Short: "Add Last.fm artist genres and track tags",
	Long: `Add genres and tags columns from Last.fm.

For every row, genres gets the artist's tags and tags gets the track's top
tags, each joined with ", ". Lookups that fail or find no tags write
"Unknown" and are appended to the error log.

The input needs artist_name and song_name columns. Progress is saved to the
output file every --checkpoint-every rows; rerunning with the same output
skips rows that already have results.

Requires a Last.fm API key in lastfm.api_key, TAGFILL_LASTFM_API_KEY or
LASTFM_API_KEY (a .env file in the working directory is read too).`,
	Example: `  tagfill genres -i songs.csv -o songs_with_genres.csv
  tagfill genres -i songs.csv -o out.csv --checkpoint-every 500 --rate 2`,
	RunE: runGenres,
}

func init() {
	rootCmd.AddCommand(genresCmd)
	genresFlags.register(genresCmd)
}

func runGenres(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := commandLogger(cfg.LogLevel)

	client, err := lastfm.NewClient(lastfm.Config{
		APIKey:  cfg.LastFM.APIKey,
		BaseURL: cfg.LastFM.BaseURL,
		Logger:  debugLogger{logger: logger.With().Str("component", "lastfm").Logger()},
	})
	if errors.Is(err, lastfm.ErrMissingAPIKey) {
		return fmt.Errorf("Last.fm API key not configured. Set LASTFM_API_KEY or lastfm.api_key in config.yaml")
	}
	if err != nil {
		return fmt.Errorf("failed to create Last.fm client: %w", err)
	}

	genres := metadata.NewGenres(client)
	job := genresFlags.job(enrich.Job{
		Name:       "genres",
		KeyColumns: metadata.GenreKeys,
		Columns:    metadata.GenreColumns,
		Fetch:      genres.Fetch,
	}, cfg.Genres.CheckpointInterval, cfg.LastFM.RateLimit)

	return runEnrichment(cmd, &genresFlags, job, logger)
}
