package metadata

import (
	"context"
	"errors"
	"strings"

	"github.com/jfmyers9/tagfill/internal/enrich"
	"github.com/jfmyers9/tagfill/pkg/musicbrainz"
)

// ErrNoMatch is recorded when a recording search returns no candidates.
var ErrNoMatch = errors.New("no matching recording")

// Column names and sentinel of the recordings job.
const (
	RecordingIDColumn = "recording_id"
	NotFoundSentinel  = "Not found"
)

// RecordingColumns are the result columns filled by RecordingIDs.Fetch.
var RecordingColumns = []enrich.Column{
	{Name: RecordingIDColumn, Sentinel: NotFoundSentinel},
}

// RecordingKeys are the key columns RecordingIDs.Fetch expects, in order.
var RecordingKeys = []string{SongColumn, ArtistColumn}

// RecordingIDs looks up MusicBrainz recording ids by title and artist.
type RecordingIDs struct {
	client *musicbrainz.Client
}

// NewRecordingIDs creates a RecordingIDs fetcher.
func NewRecordingIDs(client *musicbrainz.Client) *RecordingIDs {
	return &RecordingIDs{client: client}
}

// Fetch returns the recording_id field for keys (song, artist). The first
// search candidate is taken as the match.
func (r *RecordingIDs) Fetch(ctx context.Context, keys []string) ([]enrich.Field, error) {
	title, artist := strings.TrimSpace(keys[0]), strings.TrimSpace(keys[1])

	recs, err := r.client.Recordings().Search(ctx, title, artist)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 || recs[0].ID == "" {
		return []enrich.Field{enrich.NotFound(ErrNoMatch)}, nil
	}

	return []enrich.Field{enrich.Resolved(recs[0].ID)}, nil
}
