package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// RecordingService provides recording search for the MusicBrainz API.
type RecordingService struct {
	client *Client
}

// Recording is one search candidate.
type Recording struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Score  int    `json:"score"`
	Length int    `json:"length"` // milliseconds, 0 when unknown
}

type recordingSearchResponse struct {
	Count      int          `json:"count"`
	Recordings *[]Recording `json:"recordings"`
}

// Search looks up recordings by title and artist credit. Candidates are
// returned in MusicBrainz relevance order, best match first. An empty slice
// means the search ran but matched nothing.
//
// Example:
//
//	recs, err := client.Recordings().Search(ctx, "Yesterday", "The Beatles")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if len(recs) > 0 {
//	    fmt.Println(recs[0].ID)
//	}
func (s *RecordingService) Search(ctx context.Context, title, artist string) ([]Recording, error) {
	if title == "" || artist == "" {
		return nil, fmt.Errorf("musicbrainz: title and artist are required")
	}

	query := url.Values{}
	query.Set("query", RecordingQuery(title, artist))

	body, err := s.client.get(ctx, "recording/", query)
	if err != nil {
		return nil, err
	}

	var resp recordingSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("musicbrainz: failed to parse recording search response: %w", err)
	}
	if resp.Recordings == nil {
		return nil, fmt.Errorf("musicbrainz: response missing recordings")
	}

	return *resp.Recordings, nil
}

// RecordingQuery builds the Lucene query used by Search:
//
//	recording:"<title>" AND artist:"<artist>"
func RecordingQuery(title, artist string) string {
	return fmt.Sprintf(`recording:"%s" AND artist:"%s"`, escapePhrase(title), escapePhrase(artist))
}

// escapePhrase escapes the characters that terminate a quoted Lucene phrase.
func escapePhrase(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return r.Replace(s)
}
