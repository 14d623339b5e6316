// Package metadata binds the Last.fm and MusicBrainz clients to the
// enrichment runner as fetch functions.
package metadata

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jfmyers9/tagfill/internal/enrich"
	"github.com/jfmyers9/tagfill/pkg/lastfm"
)

// ErrNoTags is recorded when Last.fm knows the artist or track but has no
// tags for it.
var ErrNoTags = errors.New("no tags")

// Column names and sentinels of the genres job.
const (
	ArtistColumn = "artist_name"
	SongColumn   = "song_name"

	GenresColumn = "genres"
	TagsColumn   = "tags"

	UnknownSentinel = "Unknown"
)

// GenreColumns are the result columns filled by Genres.Fetch.
var GenreColumns = []enrich.Column{
	{Name: GenresColumn, Sentinel: UnknownSentinel},
	{Name: TagsColumn, Sentinel: UnknownSentinel},
}

// GenreKeys are the key columns Genres.Fetch expects, in order.
var GenreKeys = []string{ArtistColumn, SongColumn}

// Genres fetches artist genres and track tags from Last.fm.
type Genres struct {
	client *lastfm.Client

	mu      sync.Mutex
	artists map[string]enrich.Field
}

// NewGenres creates a Genres fetcher. Artist tags and definite misses are
// cached for the fetcher's lifetime.
func NewGenres(client *lastfm.Client) *Genres {
	return &Genres{
		client:  client,
		artists: make(map[string]enrich.Field),
	}
}

// Fetch returns the genres and tags fields for keys (artist, song). The
// two lookups fail independently.
func (g *Genres) Fetch(ctx context.Context, keys []string) ([]enrich.Field, error) {
	artist, song := strings.TrimSpace(keys[0]), strings.TrimSpace(keys[1])

	genres := g.artistGenres(ctx, artist)

	var tags enrich.Field
	info, err := g.client.Track().GetInfo(ctx, artist, song)
	if err != nil {
		tags = enrich.NotFound(err)
	} else {
		tags = joinTags(info.TagNames())
	}

	return []enrich.Field{genres, tags}, nil
}

func (g *Genres) artistGenres(ctx context.Context, artist string) enrich.Field {
	key := strings.ToLower(strings.TrimSpace(artist))

	g.mu.Lock()
	if f, ok := g.artists[key]; ok {
		g.mu.Unlock()
		return f
	}
	g.mu.Unlock()

	var f enrich.Field
	info, err := g.client.Artist().GetInfo(ctx, artist)
	if err != nil {
		f = enrich.NotFound(err)
	} else {
		f = joinTags(info.TagNames())
	}

	// Only answers about the artist are kept; failed or cancelled
	// lookups are tried again on the next row.
	if !cacheable(f) || ctx.Err() != nil {
		return f
	}

	g.mu.Lock()
	g.artists[key] = f
	g.mu.Unlock()

	return f
}

func cacheable(f enrich.Field) bool {
	switch f.State {
	case enrich.StateResolved:
		return true
	case enrich.StateNotFound:
		return errors.Is(f.Err, ErrNoTags) || errors.Is(f.Err, lastfm.ErrNotFound)
	}
	return false
}

func joinTags(names []string) enrich.Field {
	if len(names) == 0 {
		return enrich.NotFound(ErrNoTags)
	}
	return enrich.Resolved(strings.Join(names, ", "))
}
